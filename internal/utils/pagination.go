// Package utils provides small helpers with no domain knowledge, shared by
// the HTTP layer. Currently just query-string parsing for pagination.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 int and returns def when s is empty,
// malformed, or out of range. Input is not trimmed: " 42" is malformed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
