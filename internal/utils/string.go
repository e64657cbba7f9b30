package utils

import (
	"strings"
	"unicode/utf8"
)

// ContainsLower reports whether s contains lowerSubstr, which the caller
// has already lowercased. Saves re-lowering the needle in hot loops.
func ContainsLower(s, lowerSubstr string) bool {
	return strings.Contains(strings.ToLower(s), lowerSubstr)
}

// RunePrefix returns the first n runes of s.
// If s is shorter than n runes, s is returned unchanged.
func RunePrefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// RuneLen returns the number of runes in s
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
