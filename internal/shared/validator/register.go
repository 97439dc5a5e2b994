package validator

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// GetValidator returns the validator instance from Gin binding
func GetValidator() (*validator.Validate, error) {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil, fmt.Errorf("validator 엔진을 가져올 수 없습니다")
	}
	return v, nil
}

// RegisterAll registers all common validators defined in this package
// Domain-specific validators should be registered separately by each domain
func RegisterAll() error {
	v, err := GetValidator()
	if err != nil {
		return fmt.Errorf("validator 엔진 가져오기 실패: %w", err)
	}

	if err := RegisterOn(v); err != nil {
		return err
	}

	slog.Info("공통 Validator 등록 완료", "validators", "phone,mobile,postalcode")
	return nil
}

// RegisterOn registers the common validators on a standalone validator instance.
// Field names in errors follow the json (or form) tag the client actually sent.
func RegisterOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(clientFieldName)

	validations := map[string]validator.Func{
		"phone":      ValidatePhone,
		"mobile":     ValidateMobile,
		"postalcode": ValidatePostalCode,
	}

	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("%s validator 등록 실패: %w", tag, err)
		}
	}
	return nil
}

func clientFieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}
