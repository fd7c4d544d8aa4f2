package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-constraint violation.
var ErrDuplicate = errors.New("duplicate")

// ErrMissingReference indicates a foreign-key violation: the row points at a
// user, recipe, tag or ingredient that does not exist (any more).
var ErrMissingReference = errors.New("missing reference")

// IsDuplicate reports whether err is a unique-constraint violation on any of
// the supported drivers. The pure-Go SQLite driver often returns plain-text
// errors, so message matching backs up gorm's translated error.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicate) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key") ||
		strings.Contains(low, "duplicate entry")
}

// IsMissingReference reports whether err is a foreign-key violation on any
// of the supported drivers.
func IsMissingReference(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, ErrMissingReference) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "foreign key constraint failed") ||
		strings.Contains(low, "violates foreign key constraint") ||
		strings.Contains(low, "a foreign key constraint fails")
}

// dup maps unique violations to ErrDuplicate and foreign-key violations to
// ErrMissingReference. Other errors pass through.
func dup(err error) error {
	switch {
	case IsDuplicate(err):
		return ErrDuplicate
	case IsMissingReference(err):
		return ErrMissingReference
	}
	return err
}
