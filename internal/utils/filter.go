package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// EqualFold performs case-insensitive rune equality check
func EqualFold(a, b rune) bool {
	if a == b {
		return true
	}

	// Try simple ASCII case folding first (faster)
	if a < utf8.RuneSelf && b < utf8.RuneSelf {
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		return a == b
	}

	return unicode.ToLower(a) == unicode.ToLower(b)
}

// StringContainsIgnoreCase checks if string contains substring case-insensitively
func StringContainsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Words splits s on whitespace and lowercases each term.
func Words(s string) []string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

// FirstWord returns the lowercased first whitespace-separated word of s.
func FirstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// NormalizeQuery trims the raw input without changing its case.
// Case folding happens inside the scorers so cache keys stay literal.
func NormalizeQuery(s string) string {
	return strings.TrimSpace(s)
}

// RuneLen counts runes, not bytes. Query length thresholds are in runes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// IsValidInput reports whether input is worth a search round trip.
// Control characters are rejected; everything printable is allowed since
// command ids and pipeline slugs carry digits, slashes and dashes.
func IsValidInput(s string) bool {
	if len(strings.TrimSpace(s)) == 0 {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
