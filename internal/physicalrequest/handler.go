package physicalrequest

import (
	"net/http"

	sharedContext "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/context"
	sharedError "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/error"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/handler"
	"github.com/gin-gonic/gin"
)

type PhysicalRequestHandler struct {
	service    *PhysicalRequestService
	reconciler *Reconciler
}

func NewPhysicalRequestHandler(service *PhysicalRequestService, reconciler *Reconciler) *PhysicalRequestHandler {
	return &PhysicalRequestHandler{
		service:    service,
		reconciler: reconciler,
	}
}

// Submit handles POST /letters/:letterId/physical-requests.
// An authenticated member submits as an account, everyone else as their session.
func (h *PhysicalRequestHandler) Submit(c *gin.Context) {
	letterID, ok := handler.ParamID(c, "letterId")
	if !ok {
		return
	}
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var request SubmitRequest
	if !handler.BindJSON(c, &request) {
		return
	}

	response, err := h.service.Submit(c.Request.Context(), letterID, identity, request.Addresses())
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	if session, ok := identity.(SessionIdentity); ok {
		response.SessionToken = session.Token
	}
	c.JSON(http.StatusCreated, response)
}

// GetStatus distinguishes NotFound from AccessDenied
func (h *PhysicalRequestHandler) GetStatus(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	response, err := h.service.GetStatus(c.Request.Context(), c.Param("requestId"), identity)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Cancel distinguishes NotFound from AccessDenied
func (h *PhysicalRequestHandler) Cancel(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	response, err := h.service.Cancel(c.Request.Context(), c.Param("requestId"), identity)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *PhysicalRequestHandler) ListForLetter(c *gin.Context) {
	memberID, ok := sharedContext.RequireMemberID(c)
	if !ok {
		return
	}
	letterID, ok := handler.ParamID(c, "letterId")
	if !ok {
		return
	}

	var query ListQuery
	if !handler.BindQuery(c, &query) {
		return
	}

	response, err := h.service.ListForLetter(c.Request.Context(), letterID, memberID, sharedContext.IsAdmin(c), query)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Decide collapses a request of another letter into NotFound
func (h *PhysicalRequestHandler) Decide(c *gin.Context) {
	memberID, ok := sharedContext.RequireMemberID(c)
	if !ok {
		return
	}
	letterID, ok := handler.ParamID(c, "letterId")
	if !ok {
		return
	}

	var request DecisionRequest
	if !handler.BindJSON(c, &request) {
		return
	}

	response, err := h.service.DecideApproval(c.Request.Context(), letterID, c.Param("requestId"), memberID, sharedContext.IsAdmin(c), request)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *PhysicalRequestHandler) AdminList(c *gin.Context) {
	var query ListQuery
	if !handler.BindQuery(c, &query) {
		return
	}

	response, err := h.service.AdminList(c.Request.Context(), query)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *PhysicalRequestHandler) AdminGet(c *gin.Context) {
	response, err := h.service.AdminGet(c.Request.Context(), c.Param("requestId"))
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *PhysicalRequestHandler) UpdateShipment(c *gin.Context) {
	adminID, ok := sharedContext.RequireMemberID(c)
	if !ok {
		return
	}

	var request ShipmentRequest
	if !handler.BindJSON(c, &request) {
		return
	}

	response, err := h.service.UpdateShipmentStatus(c.Request.Context(), c.Param("requestId"), adminID, request)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *PhysicalRequestHandler) AppendNote(c *gin.Context) {
	adminID, ok := sharedContext.RequireMemberID(c)
	if !ok {
		return
	}

	var request NoteRequest
	if !handler.BindJSON(c, &request) {
		return
	}

	response, err := h.service.AppendNote(c.Request.Context(), c.Param("requestId"), adminID, request.Note)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *PhysicalRequestHandler) Popular(c *gin.Context) {
	var query PopularQuery
	if !handler.BindQuery(c, &query) {
		return
	}

	response, err := h.service.PopularLetters(c.Request.Context(), query.Limit)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": response})
}

func (h *PhysicalRequestHandler) Reconcile(c *gin.Context) {
	report, err := h.reconciler.ReconcileAll(c.Request.Context(), TriggerAdmin)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func requireIdentity(c *gin.Context) (RequesterIdentity, bool) {
	if memberID, ok := sharedContext.GetMemberID(c); ok {
		return AccountIdentity{MemberID: memberID}, true
	}
	if session, ok := sharedContext.GetSession(c); ok {
		return SessionIdentity{
			Token:     session.Token,
			HashedIP:  session.HashedIP,
			UserAgent: session.UserAgent,
		}, true
	}

	handler.RespondError(c, ErrAccessDenied, sharedError.Lookup(ErrAccessDenied))
	c.Abort()
	return nil, false
}
