package catalog

import (
	"strings"
	"unicode/utf8"
)

// MaxQueryLen is the longest accepted user query, in runes.
const MaxQueryLen = 500

// ValidateQuery trims and validates a user query. It returns the trimmed
// text, or a ValidationError wrapping ErrEmptyQuery / ErrQueryTooLong.
// Validation happens before any embedding, store, or model call is made.
func ValidateQuery(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", NewValidationError("query", trimmed, ErrEmptyQuery)
	}
	if utf8.RuneCountInString(trimmed) > MaxQueryLen {
		return "", NewValidationError("query", trimmed[:40]+"...", ErrQueryTooLong)
	}
	return trimmed, nil
}
