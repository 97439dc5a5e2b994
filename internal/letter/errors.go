package letter

import (
	"net/http"

	sharedError "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/error"
)

const (
	letterNotFound  = "LETTER_NOT_FOUND"  // errInfo
	notLetterAuthor = "NOT_LETTER_AUTHOR" // errInfo
)

var (
	ErrLetterNotFound  = sharedError.NewDomainError(letterNotFound)
	ErrNotLetterAuthor = sharedError.NewDomainError(notLetterAuthor)
)

func init() {
	sharedError.RegisterDomainErrorResponse(letterNotFound, sharedError.ErrorResponse{
		Status:  http.StatusNotFound,
		Code:    "LETTER-001",
		Message: "편지를 찾을 수 없습니다.",
	})

	sharedError.RegisterDomainErrorResponse(notLetterAuthor, sharedError.ErrorResponse{
		Status:  http.StatusForbidden,
		Code:    "LETTER-002",
		Message: "편지 작성자만 변경할 수 있습니다.",
	})
}
