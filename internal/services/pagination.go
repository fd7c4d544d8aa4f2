package services

// Paging bounds applied when a caller passes no or out-of-range values.
const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

// pageWindow normalizes (page, limit) and returns the row offset and limit.
// def and max fall back to DefaultPageSize and MaxPageSize when <= 0.
func pageWindow(page, limit, def, max int) (offset, size int) {
	if def <= 0 {
		def = DefaultPageSize
	}
	if max <= 0 {
		max = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	size = limit
	if size <= 0 {
		size = def
	}
	if size > max {
		size = max
	}
	return (page - 1) * size, size
}
