package utils

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

// NormalizeContact returns the E.164 form of a phone number valid for region,
// otherwise the trimmed input unchanged (emails, short internal numbers).
func NormalizeContact(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	p, err := libphonenumber.Parse(raw, region)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return raw
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}
