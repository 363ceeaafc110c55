// Package normalize provides canonical forms for user-supplied strings
// that are compared or stored as lookup keys.
package normalize

import "strings"

// Email lowercases and trims an email address. Used for the email_ci
// lookup field and for elevation-gate identity comparison; the domain
// policy itself compares the raw (unnormalized) address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
