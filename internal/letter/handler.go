package letter

import (
	"net/http"

	sharedContext "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/context"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/handler"
	"github.com/gin-gonic/gin"
)

type LetterHandler struct {
	letterService *LetterService
}

func NewLetterHandler(letterService *LetterService) *LetterHandler {
	return &LetterHandler{
		letterService: letterService,
	}
}

func (h *LetterHandler) Create(c *gin.Context) {
	memberID, ok := sharedContext.RequireMemberID(c)
	if !ok {
		return
	}

	var request CreateLetterRequest
	if !handler.BindJSON(c, &request) {
		return
	}

	response, err := h.letterService.Create(c.Request.Context(), memberID, &request)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *LetterHandler) Get(c *gin.Context) {
	letterID, ok := handler.ParamID(c, "letterId")
	if !ok {
		return
	}

	response, err := h.letterService.Get(c.Request.Context(), letterID)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *LetterHandler) UpdatePhysicalSettings(c *gin.Context) {
	memberID, ok := sharedContext.RequireMemberID(c)
	if !ok {
		return
	}
	letterID, ok := handler.ParamID(c, "letterId")
	if !ok {
		return
	}

	var request UpdatePhysicalSettingsRequest
	if !handler.BindJSON(c, &request) {
		return
	}

	response, err := h.letterService.UpdatePhysicalSettings(c.Request.Context(), memberID, sharedContext.IsAdmin(c), letterID, &request)
	if err != nil {
		handler.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
