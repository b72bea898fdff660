// Package validation holds the input patterns shared by the wizard, the
// contact endpoint and the admin editors.
package validation

import (
	"regexp"
	"strings"
)

var (
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	postalCodePattern = regexp.MustCompile(`^\d{5}$`)
	platePattern      = regexp.MustCompile(`^[A-Za-z0-9- ]{4,12}$`)
	urlPattern        = regexp.MustCompile(`^(https?)://[^\s/$.?#].[^\s]*$`)
	phoneDigits       = regexp.MustCompile(`^(\+33|0033|0)[1-9]\d{8}$`)
	phoneSeparators   = strings.NewReplacer(" ", "", ".", "", "-", "")
)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ValidatePostalCode validates a French 5-digit postal code.
func ValidatePostalCode(code string) bool {
	return postalCodePattern.MatchString(strings.TrimSpace(code))
}

// DepartmentCode extracts the 2-digit department from a postal code. The
// postal code must already be validated.
func DepartmentCode(postalCode string) string {
	code := strings.TrimSpace(postalCode)
	if len(code) < 2 {
		return code
	}
	return code[:2]
}

// ValidateFrenchPhone accepts 0, +33 or 0033 prefixes followed by 9 digits,
// with flexible spacing/dots/dashes between groups.
func ValidateFrenchPhone(phone string) bool {
	normalized := phoneSeparators.Replace(strings.TrimSpace(phone))
	return phoneDigits.MatchString(normalized)
}

// ValidatePlate performs a loose sanity check on a registration plate.
func ValidatePlate(plate string) bool {
	return platePattern.MatchString(strings.TrimSpace(plate))
}

// ValidateURL validates URL format
func ValidateURL(url string) bool {
	return urlPattern.MatchString(url)
}
