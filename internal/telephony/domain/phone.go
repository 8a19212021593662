package domain

import (
	"fmt"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone parses raw into E.164 form. defaultRegion (e.g. "US") applies
// when raw carries no country prefix. Invalid numbers are rejected; callers
// must fail closed rather than pass unnormalized numbers downstream.
func NormalizePhone(raw, defaultRegion string) (string, error) {
	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return "", fmt.Errorf("parsing phone number %q: %w", raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("phone number %q is not a valid number", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// RegionCode returns the ISO 3166-1 alpha-2 region for an E.164 number, or ""
// when it cannot be determined.
func RegionCode(e164 string) string {
	num, err := phonenumbers.Parse(e164, "")
	if err != nil {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(num)
}

// AreaCode returns the NANP area code for a +1 number, or "" for numbers
// outside the North American plan.
func AreaCode(e164 string) string {
	num, err := phonenumbers.Parse(e164, "")
	if err != nil || num.GetCountryCode() != 1 {
		return ""
	}
	national := phonenumbers.GetNationalSignificantNumber(num)
	if len(national) < 3 {
		return ""
	}
	return national[:3]
}
