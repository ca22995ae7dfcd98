package util

import (
	"fmt"
	"strings"
)

// Reasons reported by NormalizationError.
const (
	ReasonEmpty         = "empty"
	ReasonInvalidLength = "invalid-length"
)

// E.164 bounds on the digit count of a canonical number.
const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// NormalizationError is returned when a phone number cannot be turned into a
// canonical international number.
type NormalizationError struct {
	Reason string
	Input  string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("phone normalization: %s: %q", e.Reason, e.Input)
}

// PhoneRegions holds the country calling codes used to complete local
// numbers. Zero values fall back to Cambodia (855) and NANP (1).
type PhoneRegions struct {
	Default  string
	Fallback string
}

func (r PhoneRegions) withDefaults() PhoneRegions {
	if strings.TrimSpace(r.Default) == "" {
		r.Default = "855"
	}
	if strings.TrimSpace(r.Fallback) == "" {
		r.Fallback = "1"
	}
	return r
}

// NormalizePhone converts free-form input into a "+<digits>" number using the
// default regions.
func NormalizePhone(raw string) (string, error) {
	return PhoneRegions{}.Normalize(raw)
}

// Normalize converts free-form input into a "+<digits>" number.
//
// A leading "+" marks the input as already international and only separators
// are removed. Otherwise a single trunk "0" is dropped and the country code is
// inferred from the remaining length.
func (r PhoneRegions) Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &NormalizationError{Reason: ReasonEmpty, Input: raw}
	}

	var digits string
	if strings.HasPrefix(trimmed, "+") {
		digits = digitsOnly(trimmed)
	} else {
		digits = strings.TrimPrefix(digitsOnly(trimmed), "0")
		digits = r.withDefaults().inferCountryCode(digits)
	}

	if n := len(digits); n < minPhoneDigits || n > maxPhoneDigits {
		return "", &NormalizationError{Reason: ReasonInvalidLength, Input: raw}
	}
	return "+" + digits, nil
}

func (r PhoneRegions) inferCountryCode(digits string) string {
	n := len(digits)
	switch {
	case n == 8 || n == 9:
		return r.Default + digits
	case n == 10:
		return r.Fallback + digits
	case strings.HasPrefix(digits, r.Default) || n >= 11:
		return digits
	case n >= 6:
		return r.Default + digits
	default:
		return digits
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
