package member

import (
	"net/http"

	sharedError "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/error"
)

const (
	memberAlreadyExists = "MEMBER_ALREADY_EXISTS" // errInfo
	memberNotFound      = "MEMBER_NOT_FOUND"      // errInfo
	selfRoleChange      = "SELF_ROLE_CHANGE"      // errInfo
)

var (
	ErrMemberAlreadyExists = sharedError.NewDomainError(memberAlreadyExists)
	ErrMemberNotFound      = sharedError.NewDomainError(memberNotFound)
	// 관리자는 자기 자신의 권한을 바꿀 수 없음
	ErrSelfRoleChange = sharedError.NewDomainError(selfRoleChange)
)

func init() {
	for errInfo, resp := range map[string]sharedError.ErrorResponse{
		memberNotFound:      {Status: http.StatusNotFound, Code: "MEMBER-001", Message: "회원 정보를 찾을 수 없습니다."},
		memberAlreadyExists: {Status: http.StatusConflict, Code: "MEMBER-002", Message: "이미 가입된 사용자입니다."},
		selfRoleChange:      {Status: http.StatusConflict, Code: "MEMBER-003", Message: "자신의 권한은 변경할 수 없습니다."},
	} {
		sharedError.RegisterDomainErrorResponse(errInfo, resp)
	}
}
