package imports

import "strings"

// pgUniqueViolation is the unique-constraint violation code surfaced by the
// account service when a row collides on email.
const pgUniqueViolation = "23505"

var duplicateHints = []string{"already", "duplicate", "exists"}

// IsDuplicateError reports whether a failed creation attempt looks like a
// collision with an existing account. Message matching is a case-insensitive
// substring check; the structured code is optional and checked exactly.
func IsDuplicateError(message, code string) bool {
	if code == pgUniqueViolation {
		return true
	}
	lowered := strings.ToLower(message)
	for _, hint := range duplicateHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}
