package validator

import (
	"errors"
	"fmt"
	"strings"

	sharedError "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/error"
	"github.com/go-playground/validator/v10"
)

// ToErrorResponse converts the first binding violation into ERROR-001 with a
// "[field] message" text, the same shape domain validation errors use.
func ToErrorResponse(err error) (*sharedError.ErrorResponse, bool) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return nil, false
	}

	fieldErr := validationErrors[0]
	resp := sharedError.ValidationFailed.WithMessage(fmt.Sprintf("[%s] %s", FieldPath(fieldErr), MessageFor(fieldErr)))
	return &resp, true
}

// FieldPath drops the root struct name, e.g. SubmitRequest.recipients[1].postalCode -> recipients[1].postalCode
func FieldPath(fe validator.FieldError) string {
	namespace := fe.Namespace()
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return fe.Field()
}

func MessageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "필수 항목을 입력해 주세요."
	case "email":
		return "이메일 형식이 올바르지 않습니다."
	case "min", "gte":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("최소 %s자 이상이어야 합니다.", fe.Param())
		}
		return fmt.Sprintf("%s 이상이어야 합니다.", fe.Param())
	case "max", "lte":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("최대 %s자까지 입력 가능합니다.", fe.Param())
		}
		return fmt.Sprintf("%s 이하여야 합니다.", fe.Param())
	case "phone", "mobile":
		return "휴대폰 번호 형식이 올바르지 않습니다. (010-XXXX-XXXX)"
	case "postalcode":
		return "우편번호는 5자리 숫자여야 합니다."
	case "oneof":
		return fmt.Sprintf("%s 중 하나여야 합니다.", fe.Param())
	case "datetime":
		return fmt.Sprintf("날짜 형식이 올바르지 않습니다. (%s)", fe.Param())
	default:
		return "값이 올바르지 않습니다."
	}
}
