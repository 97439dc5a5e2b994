package error

import "net/http"

// ErrorResponse is the JSON body of every non-2xx API response
type ErrorResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (r ErrorResponse) WithMessage(message string) ErrorResponse {
	r.Message = message
	return r
}

var (
	ValidationFailed = ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    "ERROR-001", // METHOD_ARGUMENT_NOT_VALID
		Message: "잘못된 요청입니다.",
	}

	// InvalidRequest covers malformed JSON and bad path parameters
	InvalidRequest = ErrorResponse{
		Status:  http.StatusBadRequest,
		Code:    "ERROR-002", // INVALID_REQUEST
		Message: "잘못된 요청 형식입니다.",
	}

	InternalServerError = ErrorResponse{
		Status:  http.StatusInternalServerError,
		Code:    "ERROR-003", // INTERNAL_SERVER_ERROR
		Message: "서버 내부 오류가 발생했습니다.",
	}

	TooManyRequests = ErrorResponse{
		Status:  http.StatusTooManyRequests,
		Code:    "ERROR-004", // TOO_MANY_REQUESTS
		Message: "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요.",
	}

	Forbidden = ErrorResponse{
		Status:  http.StatusForbidden,
		Code:    "ERROR-005", // FORBIDDEN
		Message: "접근 권한이 없습니다.",
	}

	// Unauthorized is sent when a handler needs a member but none was authenticated
	Unauthorized = ErrorResponse{
		Status:  http.StatusUnauthorized,
		Code:    "AUTH-000",
		Message: "로그인을 해주세요.",
	}
)
