package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// postalCodeRegex matches the 5 digit Korean postal code (2015~)
var postalCodeRegex = regexp.MustCompile(`^[0-9]{5}$`)

func ValidatePostalCode(fl validator.FieldLevel) bool {
	return postalCodeRegex.MatchString(fl.Field().String())
}

// ValidateMobile accepts any formatting that normalizes to a Korean mobile number
func ValidateMobile(fl validator.FieldLevel) bool {
	_, ok := NormalizePhone(fl.Field().String())
	return ok
}
