package files

import (
	"net/http"
	"strconv"

	"github.com/anoixa/files-manager/api/common"
	"github.com/anoixa/files-manager/api/middleware"
	"github.com/anoixa/files-manager/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Data 返回文件内容或缩略图，公开文件允许匿名访问
// GET /files/:id/data?size=
func (h *Handler) Data(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		common.RespondServiceError(c, apperr.ErrNotFound)
		return
	}

	size := 0
	if raw := c.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondServiceError(c, apperr.ErrNotFound)
			return
		}
		size = parsed
	}

	content, err := h.queries.Data(c.Request.Context(), middleware.GetUserID(c), id, size)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.Data(http.StatusOK, content.ContentType, content.Data)
}
