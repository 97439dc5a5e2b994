package context

import (
	"strconv"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/logger"

	sharedError "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/error"
	"github.com/gin-gonic/gin"
)

// Keys set by the JWT middleware from access token claims
const (
	MemberIDKey    = "member_id"
	MemberEmailKey = "member_email"
	MemberRoleKey  = "member_role"
)

const roleAdmin = "ADMIN"

// GetMemberID returns the authenticated member id. Claims carry it as a decimal string.
func GetMemberID(c *gin.Context) (uint32, bool) {
	raw := c.GetString(MemberIDKey)
	if raw == "" {
		return 0, false
	}

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint32(id), true
}

func GetMemberRole(c *gin.Context) string {
	return c.GetString(MemberRoleKey)
}

func IsAdmin(c *gin.Context) bool {
	return GetMemberRole(c) == roleAdmin
}

// RequireMemberID is GetMemberID for handlers behind the JWT middleware.
// When no member is present it has already sent 401 AUTH-000.
func RequireMemberID(c *gin.Context) (uint32, bool) {
	memberID, ok := GetMemberID(c)
	if ok {
		return memberID, true
	}

	// JWT 미들웨어 없이 라우트가 등록된 경우
	logger.FromContext(c.Request.Context()).Error("[API] context에 회원 ID가 존재하지 않습니다.", "path", c.FullPath())
	c.AbortWithStatusJSON(sharedError.Unauthorized.Status, sharedError.Unauthorized)
	return 0, false
}
