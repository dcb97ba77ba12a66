package middleware

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Input limits.
const (
	MaxTargetLength = 8192
	MaxNameLength   = 128
	MaxAvatarLength = 2 << 20 // data URLs from an image picker
)

var (
	ErrTargetTooLong = fmt.Errorf("target exceeds %d characters", MaxTargetLength)
	ErrFieldTooLong  = errors.New("field too long")
)

// SanitizeString removes control characters (keeping tab, CR and newline),
// invalid UTF-8 and surrounding whitespace.
func SanitizeString(input string) string {
	return strings.TrimSpace(stripControl(input))
}

func stripControl(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for i := 0; i < len(input); {
		r, size := utf8.DecodeRuneInString(input[i:])
		i += size
		// a width of 1 marks an undecodable byte, not a typed U+FFFD
		if r == utf8.RuneError && size == 1 {
			continue
		}
		if (r < 32 && r != '\t' && r != '\n' && r != '\r') || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidateTarget strips control characters from a scan target. Whitespace is
// kept: the console trims for analysis but relays the input as typed, and an
// empty target is left for the console to reject.
func ValidateTarget(target string) (string, error) {
	clean := stripControl(target)
	if utf8.RuneCountInString(clean) > MaxTargetLength {
		return "", ErrTargetTooLong
	}
	return clean, nil
}

// ValidateProfileFields bounds the user-editable profile strings.
func ValidateProfileFields(name, role string, avatar *string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("name: %w", ErrFieldTooLong)
	}
	if utf8.RuneCountInString(role) > MaxNameLength {
		return fmt.Errorf("role: %w", ErrFieldTooLong)
	}
	if avatar != nil && len(*avatar) > MaxAvatarLength {
		return fmt.Errorf("avatar: %w", ErrFieldTooLong)
	}
	return nil
}

// ValidateLimit validates a result-list limit. Zero or negative means all.
func ValidateLimit(limit, total int) int {
	if limit <= 0 || limit > total {
		return total
	}
	return limit
}
