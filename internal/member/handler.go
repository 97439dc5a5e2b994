package member

import (
	"net/http"

	sharedContext "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/context"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/handler"
	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	memberService *MemberService
}

func NewMemberHandler(memberService *MemberService) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
	}
}

func (h *MemberHandler) GetProfile(c *gin.Context) {
	memberID, ok := sharedContext.RequireMemberID(c)
	if !ok {
		return
	}

	response, err := h.memberService.GetProfile(c.Request.Context(), memberID)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ChangeRole handles PATCH /admin/members/:memberId/role
func (h *MemberHandler) ChangeRole(c *gin.Context) {
	adminID, ok := sharedContext.RequireMemberID(c)
	if !ok {
		return
	}

	memberID, ok := handler.ParamID(c, "memberId")
	if !ok {
		return
	}

	var request ChangeRoleRequest
	if !handler.BindJSON(c, &request) {
		return
	}

	response, err := h.memberService.ChangeRole(c.Request.Context(), adminID, memberID, request.Role)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
