package error_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	sharedError "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/error"
	"github.com/stretchr/testify/assert"
)

const quotaInfo = "test: quota exceeded"

var errQuota = sharedError.NewDomainError(quotaInfo)

type quotaError struct{ left int }

func (e *quotaError) Error() string  { return fmt.Sprintf("quota: %d left", e.left) }
func (e *quotaError) Info() string   { return quotaInfo }
func (e *quotaError) Detail() string { return fmt.Sprintf("남은 횟수: %d", e.left) }

func init() {
	sharedError.RegisterDomainErrorResponse(quotaInfo, sharedError.ErrorResponse{
		Status:  http.StatusConflict,
		Code:    "TEST-001",
		Message: "한도를 초과했습니다.",
	})
}

func TestResolveDomainError(t *testing.T) {
	t.Run("wrapped sentinel resolves to the registered response", func(t *testing.T) {
		resp, ok := sharedError.ResolveDomainError(fmt.Errorf("service: %w", errQuota))

		assert.True(t, ok)
		assert.Equal(t, "TEST-001", resp.Code)
		assert.Equal(t, "한도를 초과했습니다.", resp.Message)
	})

	t.Run("detailed error overrides only the message", func(t *testing.T) {
		resp, ok := sharedError.ResolveDomainError(fmt.Errorf("service: %w", &quotaError{left: 0}))

		assert.True(t, ok)
		assert.Equal(t, http.StatusConflict, resp.Status)
		assert.Equal(t, "TEST-001", resp.Code)
		assert.Equal(t, "남은 횟수: 0", resp.Message)
	})

	t.Run("unregistered and plain errors do not resolve", func(t *testing.T) {
		_, ok := sharedError.ResolveDomainError(sharedError.NewDomainError("test: unknown"))
		assert.False(t, ok)

		_, ok = sharedError.ResolveDomainError(errors.New("boom"))
		assert.False(t, ok)

		_, ok = sharedError.ResolveDomainError(nil)
		assert.False(t, ok)
	})
}

func TestLookup_FallsBackToInternal(t *testing.T) {
	assert.Equal(t, sharedError.InternalServerError, sharedError.Lookup(errors.New("boom")))
	assert.Equal(t, "TEST-001", sharedError.Lookup(errQuota).Code)
}

func TestErrorResponse_WithMessage(t *testing.T) {
	resp := sharedError.ValidationFailed.WithMessage("[email] 필수 항목입니다.")

	assert.Equal(t, "ERROR-001", resp.Code)
	assert.Equal(t, "[email] 필수 항목입니다.", resp.Message)
	assert.Equal(t, "잘못된 요청입니다.", sharedError.ValidationFailed.Message)
}
