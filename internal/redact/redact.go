// Package redact masks identifiers before they reach the logs.
package redact

import "strings"

// LastN returns the last n bytes of s, or s itself when it is shorter.
func LastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Account masks an account identifier, keeping only the last four
// characters. Identifiers of four characters or fewer are fully masked.
func Account(id string) string {
	cleaned := strings.TrimSpace(id)
	n := len(cleaned)
	if n == 0 {
		return ""
	}
	if n <= 4 {
		return strings.Repeat("*", n)
	}
	return strings.Repeat("*", n-4) + LastN(cleaned, 4)
}
