package physicalrequest

import (
	"errors"
	"reflect"
	"strings"

	sharedValidator "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/validator"
	"github.com/go-playground/validator/v10"
)

// AddressInput is the raw recipient block submitted by a reader
type AddressInput struct {
	RecipientName  string `json:"recipientName"`
	RecipientPhone string `json:"recipientPhone"`
	PostalCode     string `json:"postalCode"`
	AddressLine1   string `json:"addressLine1"`
	AddressLine2   string `json:"addressLine2"`
	Memo           string `json:"memo"`
}

// NormalizedAddress is a trimmed address with the phone in canonical 010-1234-5678 form
type NormalizedAddress struct {
	RecipientName  string
	RecipientPhone string
	PostalCode     string
	AddressLine1   string
	AddressLine2   string
	Memo           string
}

// addressRules is checked field by field in declaration order,
// so the first reported error is the first failing field.
type addressRules struct {
	RecipientName  string `json:"recipientName" validate:"min=2,max=50"`
	RecipientPhone string `json:"recipientPhone" validate:"required,mobile"`
	PostalCode     string `json:"postalCode" validate:"required,postalcode"`
	AddressLine1   string `json:"addressLine1" validate:"min=5,max=200"`
	AddressLine2   string `json:"addressLine2" validate:"max=200"`
	Memo           string `json:"memo" validate:"max=500"`
}

type AddressValidator struct {
	validate *validator.Validate
}

func NewAddressValidator() *AddressValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := sharedValidator.RegisterOn(v); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &AddressValidator{validate: v}
}

// Validate trims and checks every field, returning a *ValidationError for the first violation
func (v *AddressValidator) Validate(input AddressInput) (NormalizedAddress, error) {
	rules := addressRules{
		RecipientName:  strings.TrimSpace(input.RecipientName),
		RecipientPhone: strings.TrimSpace(input.RecipientPhone),
		PostalCode:     strings.TrimSpace(input.PostalCode),
		AddressLine1:   strings.TrimSpace(input.AddressLine1),
		AddressLine2:   strings.TrimSpace(input.AddressLine2),
		Memo:           strings.TrimSpace(input.Memo),
	}

	if err := v.validate.Struct(rules); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
			fe := fieldErrors[0]
			return NormalizedAddress{}, &ValidationError{
				Field:   fe.Field(),
				Message: sharedValidator.MessageFor(fe),
			}
		}
		return NormalizedAddress{}, err
	}

	phone, _ := sharedValidator.NormalizePhone(rules.RecipientPhone)

	return NormalizedAddress{
		RecipientName:  rules.RecipientName,
		RecipientPhone: phone,
		PostalCode:     rules.PostalCode,
		AddressLine1:   rules.AddressLine1,
		AddressLine2:   rules.AddressLine2,
		Memo:           rules.Memo,
	}, nil
}
