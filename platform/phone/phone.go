// Package phone normalizes the phone numbers that key lead identity.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "MX"

// Digits strips everything but decimal digits from the input.
// The digits-only form is the natural lead key across all inbound channels.
func Digits(input string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, input)
}

// HasMinDigits reports whether the digits-only form of input reaches the
// channel-specific minimum length.
func HasMinDigits(input string, min int) bool {
	return len(Digits(input)) >= min
}

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
