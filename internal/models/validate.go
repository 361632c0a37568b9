package models

import "regexp"

var (
	// phonePattern matches E.164: a plus sign, a non-zero leading digit,
	// and up to 15 digits total.
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidPhone reports whether the string is an E.164 phone number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidEmail reports whether the string looks like an email address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
