package handler

import (
	"fmt"
	"strconv"

	sharedError "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/error"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/validator"
	"github.com/gin-gonic/gin"
)

// BindJSON parses and validates JSON request body
// Returns true if binding succeeded, false if failed (response already sent)
//
// Usage:
//
//	var req SubmitRequest
//	if !handler.BindJSON(c, &req) {
//	    return
//	}
func BindJSON(c *gin.Context, obj any) bool {
	return bound(c, c.ShouldBindJSON(obj))
}

// BindQuery is BindJSON for query string parameters
func BindQuery(c *gin.Context, obj any) bool {
	return bound(c, c.ShouldBindQuery(obj))
}

func bound(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}

	// 검증 실패는 필드 경로를, 그 외 바인딩 실패(JSON 파싱 등)는 형식 오류를 응답
	if resp, ok := validator.ToErrorResponse(err); ok {
		RespondError(c, err, *resp)
	} else {
		RespondError(c, err, sharedError.InvalidRequest)
	}
	return false
}

// ParamID parses a positive uint32 path parameter such as :letterId.
// On failure an InvalidRequest response has already been sent.
func ParamID(c *gin.Context, name string) (uint32, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		RespondError(c, fmt.Errorf("invalid %s %q", name, raw), sharedError.InvalidRequest)
		return 0, false
	}
	return uint32(id), true
}

// RespondError records err on the context for the request logger and sends errResp
func RespondError(c *gin.Context, err error, errResp sharedError.ErrorResponse) {
	c.Error(err)
	c.JSON(errResp.Status, errResp)
}

// RespondServiceError sends the registered domain response for err,
// or InternalServerError when none is registered
//
// Usage:
//
//	if err != nil {
//	    handler.RespondServiceError(c, err)
//	    return
//	}
func RespondServiceError(c *gin.Context, err error) {
	RespondError(c, err, sharedError.Lookup(err))
}
