// Package phone normalizes client phone numbers. Salons type numbers in
// every local format imaginable; storage and the WhatsApp gateway both
// want E.164.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Numbers without a country code are parsed as Brazilian.
const defaultRegion = "BR"

// NormalizeE164 formats a phone number to E.164, e.g. "+5511987654321".
// Input that does not parse as a valid number is returned trimmed, the
// caller decides whether to store it anyway.
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
