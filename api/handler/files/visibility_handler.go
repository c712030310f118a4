package files

import (
	"net/http"

	"github.com/anoixa/files-manager/api/common"
	"github.com/anoixa/files-manager/api/middleware"
	"github.com/anoixa/files-manager/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Publish PUT /files/:id/publish
func (h *Handler) Publish(c *gin.Context) {
	h.setVisibility(c, true)
}

// Unpublish PUT /files/:id/unpublish
func (h *Handler) Unpublish(c *gin.Context) {
	h.setVisibility(c, false)
}

func (h *Handler) setVisibility(c *gin.Context, public bool) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		common.RespondServiceError(c, apperr.ErrNotFound)
		return
	}

	file, err := h.queries.SetVisibility(c.Request.Context(), middleware.GetUserID(c), id, public)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, file)
}
