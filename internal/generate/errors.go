package generate

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// ValidationError rejects malformed input before any side effect. The
// caller can fix the request and retry.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Details)
}

// QuotaExceededError denies admission. Not a system fault; the caller
// must wait until ResetAt.
type QuotaExceededError struct {
	ResetAt time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily generation limit exhausted, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// ProviderError wraps a failed, timed-out or unparseable generation call.
// The full text is recorded on the generation record; callers only ever
// see a generic message.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// truncate cuts s to at most max bytes without splitting a rune; the
// result must stay valid UTF-8 for the database.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
