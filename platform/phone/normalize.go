// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion      = "AZ"
	countryCallingCode = "994"
	// national numbers are written with a trunk 0 followed by nine digits
	nationalLength = 10
	minPhoneDigits = 9
)

// phoneAddressedPlatforms use the sender's phone number as the channel address.
var phoneAddressedPlatforms = map[string]bool{
	"whatsapp": true,
}

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// NormalizeDigits returns the international number as bare digits
// ("994501234567"), the form chat channels use as an address. Numbers the
// parser rejects fall back to a digits-only rendering with the national
// trunk prefix replaced by the country code.
func NormalizeDigits(input string) string {
	e164 := NormalizeE164(input)
	if strings.HasPrefix(e164, "+") {
		return strings.TrimPrefix(e164, "+")
	}

	digits := onlyDigits(input)
	if len(digits) == nationalLength && strings.HasPrefix(digits, "0") {
		return countryCallingCode + digits[1:]
	}
	return digits
}

// NormalizeUserID canonicalizes a lead identity for the given platform.
// Only phone-addressed platforms are rewritten; other ids are trimmed.
func NormalizeUserID(platform, userID string) string {
	trimmed := strings.TrimSpace(userID)
	if !phoneAddressedPlatforms[strings.ToLower(strings.TrimSpace(platform))] {
		return trimmed
	}

	normalized := NormalizeDigits(trimmed)
	if normalized == "" {
		return trimmed
	}
	return normalized
}

// LookupUserIDs lists the spellings a stored lead id may have when the
// platform is unknown: the trimmed id first, then its canonical phone digits
// when the id is written like a phone number.
func LookupUserIDs(userID string) []string {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return nil
	}
	ids := []string{trimmed}
	if !looksLikePhone(trimmed) {
		return ids
	}
	if normalized := NormalizeDigits(trimmed); normalized != "" && normalized != trimmed {
		ids = append(ids, normalized)
	}
	return ids
}

func looksLikePhone(input string) bool {
	digits := 0
	for _, r := range input {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune("+ -().", r):
		default:
			return false
		}
	}
	return digits >= minPhoneDigits
}

func onlyDigits(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
