// Package utils provides small, generic helpers used across layers: query
// and path parameter parsing, and the shared struct validator.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault converts s with strconv.Atoi and returns def when s is empty
// or not an integer.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // 42
//	n = utils.AtoiDefault("", 6)    // 6
//	n = utils.AtoiDefault("x", 5)   // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ParseID parses a positive decimal identifier. Zero, negatives and
// non-numbers report false.
func ParseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 0)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// ParseFlag reads a boolean query flag. "1"/"true" and "0"/"false" map to
// true and false; anything else, including "", yields nil (no filter).
func ParseFlag(s string) *bool {
	var v bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true":
		v = true
	case "0", "false":
		v = false
	default:
		return nil
	}
	return &v
}
