package physicalrequest

import (
	"fmt"
	"net/http"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	sharedError "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/error"
)

const (
	validationFailed   = "PHYSICAL_VALIDATION_FAILED"    // errInfo
	rateLimitExceeded  = "PHYSICAL_RATE_LIMIT_EXCEEDED"  // errInfo
	requestNotFound    = "PHYSICAL_REQUEST_NOT_FOUND"    // errInfo
	accessDenied       = "PHYSICAL_ACCESS_DENIED"        // errInfo
	requestsNotAllowed = "PHYSICAL_REQUESTS_NOT_ALLOWED" // errInfo
	invalidTransition  = "PHYSICAL_INVALID_TRANSITION"   // errInfo
	alreadyProcessed   = "PHYSICAL_ALREADY_PROCESSED"    // errInfo
	alreadyTerminal    = "PHYSICAL_ALREADY_TERMINAL"     // errInfo
	notAuthor          = "PHYSICAL_NOT_AUTHOR"           // errInfo
	trackingRequired   = "PHYSICAL_TRACKING_REQUIRED"    // errInfo
	tooManyRecipients  = "PHYSICAL_TOO_MANY_RECIPIENTS"  // errInfo
)

var (
	ErrValidation         = sharedError.NewDomainError(validationFailed)
	ErrRateLimitExceeded  = sharedError.NewDomainError(rateLimitExceeded)
	ErrRequestNotFound    = sharedError.NewDomainError(requestNotFound)
	ErrAccessDenied       = sharedError.NewDomainError(accessDenied)
	ErrRequestsNotAllowed = sharedError.NewDomainError(requestsNotAllowed)
	ErrInvalidTransition  = sharedError.NewDomainError(invalidTransition)
	ErrAlreadyProcessed   = sharedError.NewDomainError(alreadyProcessed)
	ErrAlreadyTerminal    = sharedError.NewDomainError(alreadyTerminal)
	ErrNotAuthor          = sharedError.NewDomainError(notAuthor)
	ErrTrackingRequired   = sharedError.NewDomainError(trackingRequired)
	ErrTooManyRecipients  = sharedError.NewDomainError(tooManyRecipients)
)

func init() {
	sharedError.RegisterDomainErrorResponse(validationFailed, sharedError.ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    "PHYSICAL-001",
		Message: "배송 정보가 올바르지 않습니다.",
	})

	sharedError.RegisterDomainErrorResponse(rateLimitExceeded, sharedError.ErrorResponse{
		Status:  http.StatusTooManyRequests,
		Code:    "PHYSICAL-002",
		Message: "신청 가능 횟수를 초과했습니다.",
	})

	sharedError.RegisterDomainErrorResponse(requestNotFound, sharedError.ErrorResponse{
		Status:  http.StatusNotFound,
		Code:    "PHYSICAL-003",
		Message: "실물 편지 신청을 찾을 수 없습니다.",
	})

	sharedError.RegisterDomainErrorResponse(accessDenied, sharedError.ErrorResponse{
		Status:  http.StatusForbidden,
		Code:    "PHYSICAL-004",
		Message: "본인의 신청만 조회하거나 취소할 수 있습니다.",
	})

	sharedError.RegisterDomainErrorResponse(requestsNotAllowed, sharedError.ErrorResponse{
		Status:  http.StatusForbidden,
		Code:    "PHYSICAL-005",
		Message: "실물 편지 신청을 받지 않는 편지입니다.",
	})

	sharedError.RegisterDomainErrorResponse(invalidTransition, sharedError.ErrorResponse{
		Status:  http.StatusConflict,
		Code:    "PHYSICAL-006",
		Message: "현재 상태에서 변경할 수 없는 상태입니다.",
	})

	sharedError.RegisterDomainErrorResponse(alreadyProcessed, sharedError.ErrorResponse{
		Status:  http.StatusConflict,
		Code:    "PHYSICAL-007",
		Message: "이미 승인 또는 거절된 신청입니다.",
	})

	sharedError.RegisterDomainErrorResponse(alreadyTerminal, sharedError.ErrorResponse{
		Status:  http.StatusConflict,
		Code:    "PHYSICAL-008",
		Message: "이미 발송되었거나 종료된 신청은 취소할 수 없습니다.",
	})

	sharedError.RegisterDomainErrorResponse(notAuthor, sharedError.ErrorResponse{
		Status:  http.StatusForbidden,
		Code:    "PHYSICAL-009",
		Message: "편지 작성자만 처리할 수 있습니다.",
	})

	sharedError.RegisterDomainErrorResponse(trackingRequired, sharedError.ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    "PHYSICAL-010",
		Message: "발송 처리에는 운송장 번호와 택배사가 필요합니다.",
	})

	sharedError.RegisterDomainErrorResponse(tooManyRecipients, sharedError.ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    "PHYSICAL-011",
		Message: "한 번에 신청할 수 있는 수신자 수를 초과했습니다.",
	})
}

// ValidationError names the first address field that failed validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Info() string {
	return validationFailed
}

func (e *ValidationError) Detail() string {
	return fmt.Sprintf("[%s] %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// RateLimitError reports the per-person limit of a letter and the live requests already held
type RateLimitError struct {
	Limit     int64
	Current   int64
	Requested int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: limit=%d current=%d requested=%d", e.Limit, e.Current, e.Requested)
}

func (e *RateLimitError) Info() string {
	return rateLimitExceeded
}

func (e *RateLimitError) Detail() string {
	return fmt.Sprintf("1인당 최대 %d건까지 신청할 수 있습니다. (현재 %d건)", e.Limit, e.Current)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// TransitionError names the current and requested status of a rejected transition
type TransitionError struct {
	From model.PhysicalRequestStatus
	To   model.PhysicalRequestStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Info() string {
	return invalidTransition
}

func (e *TransitionError) Detail() string {
	return fmt.Sprintf("'%s' 상태에서 '%s' 상태로 변경할 수 없습니다.", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type recipientLimitError struct {
	limit     int
	requested int
}

func (e *recipientLimitError) Error() string {
	return fmt.Sprintf("too many recipients: limit=%d requested=%d", e.limit, e.requested)
}

func (e *recipientLimitError) Info() string {
	return tooManyRecipients
}

func (e *recipientLimitError) Detail() string {
	return fmt.Sprintf("한 번에 최대 %d명까지 신청할 수 있습니다.", e.limit)
}

func (e *recipientLimitError) Is(target error) bool {
	return target == ErrTooManyRecipients
}
