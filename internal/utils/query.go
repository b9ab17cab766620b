// Package utils holds small parsing helpers for request parameters.
package utils

import (
	"strconv"
	"strings"
)

// IntInRange parses s and clamps the result into [lo, hi]. Empty or
// malformed input yields def, which is clamped the same way. A hi below lo
// leaves the upper end open.
func IntInRange(s string, def, lo, hi int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		n = def
	}
	if n < lo {
		n = lo
	}
	if hi >= lo && n > hi {
		n = hi
	}
	return n
}

// MemberID parses a member id path segment. Member ids are positive; the
// board-wide id 0 is accepted only when allowBoard is set.
func MemberID(s string, allowBoard bool) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	if id == 0 && !allowBoard {
		return 0, false
	}
	return id, true
}
