// Package cie10 normalizes CIE10 diagnostic codes and builds the code to
// description mapping from a Variable/Label CSV export.
package cie10

import "strings"

// NormalizeCode rewrites a CIE10 code to its canonical form.
//
// At most one rule applies, checked in order:
//   - "F" followed only by digits gets ".0" appended (F3 -> F3.0)
//   - "F" codes with a decimal point ending in a zero other than ".0" lose
//     the trailing zero (F3.10 -> F3.1)
//
// Any other input, including the empty string, is returned unchanged. Only
// ASCII digits count as digits, so "F" followed by other Unicode digits is
// left as is.
func NormalizeCode(code string) string {
	if len(code) < 2 || code[0] != 'F' {
		return code
	}

	if isDigits(code[1:]) {
		return code + ".0"
	}

	if strings.Contains(code, ".") && strings.HasSuffix(code, "0") && !strings.HasSuffix(code, ".0") {
		return code[:len(code)-1]
	}

	return code
}

// isDigits reports whether s is non-empty and made of ASCII digits only
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
