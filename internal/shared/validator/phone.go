package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// phoneRegex matches Korean mobile numbers
	// Formats: 010-1234-5678, 01012345678, 011-123-4567
	phoneRegex = regexp.MustCompile(`^01[0-9]-?[0-9]{3,4}-?[0-9]{4}$`)

	mobileDigitsRegex = regexp.MustCompile(`^01[0-9][0-9]{7,8}$`)
)

// ValidatePhone validates a Korean mobile phone number
// This is a common validator used across multiple domains
func ValidatePhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	return phoneRegex.MatchString(phone)
}

// NormalizePhone strips formatting and returns the canonical XXX-XXXX-XXXX
// (or XXX-XXX-XXXX for 10 digit numbers) form. ok is false when the digits
// do not form a Korean mobile number.
func NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == '.' || r == '(' || r == ')':
			// 허용되는 구분자
		default:
			return "", false
		}
	}

	digits := b.String()
	if !mobileDigitsRegex.MatchString(digits) {
		return "", false
	}

	if len(digits) == 10 {
		return digits[:3] + "-" + digits[3:6] + "-" + digits[6:], true
	}
	return digits[:3] + "-" + digits[3:7] + "-" + digits[7:], true
}
