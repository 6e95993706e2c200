package vies

import "strings"

// euMembers holds the 27 EU member state prefixes as used on VAT numbers.
// Greece uses EL on VAT numbers rather than its ISO code GR.
var euMembers = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "EL": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

// IsEUMember reports whether the two-letter prefix belongs to an EU member state.
func IsEUMember(countryCode string) bool {
	_, ok := euMembers[strings.ToUpper(countryCode)]
	return ok
}

// Sanitize strips whitespace, dots and dashes and upper-cases a VAT number.
func Sanitize(vatNumber string) string {
	var b strings.Builder
	b.Grow(len(vatNumber))
	for _, r := range strings.ToUpper(vatNumber) {
		switch r {
		case ' ', '\t', '.', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Split separates a sanitized VAT number into its country prefix and the
// national part. Numbers shorter than four characters cannot carry both.
func Split(vatNumber string) (countryCode, number string, ok bool) {
	cleaned := Sanitize(vatNumber)
	if len(cleaned) < 4 {
		return "", "", false
	}
	return cleaned[:2], cleaned[2:], true
}

// PlausibleFormat is a structural pre-check run before any network call:
// the national part must be 2-12 alphanumeric characters. Country-specific
// check digits are left to the registry itself.
func PlausibleFormat(number string) bool {
	if len(number) < 2 || len(number) > 12 {
		return false
	}
	for _, r := range number {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
