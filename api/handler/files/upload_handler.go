package files

import (
	"errors"
	"io"
	"net/http"

	"github.com/anoixa/files-manager/api/common"
	"github.com/anoixa/files-manager/api/middleware"
	"github.com/anoixa/files-manager/internal/apperr"
	filesvc "github.com/anoixa/files-manager/internal/files"
	"github.com/gin-gonic/gin"
)

// Upload 创建文件夹或上传文件
// POST /files
func (h *Handler) Upload(c *gin.Context) {
	var req filesvc.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.RespondServiceError(c, apperr.ErrFileTooLarge)
			return
		}
		common.RespondServiceError(c, apperr.ErrInvalidBody)
		return
	}

	file, err := h.uploads.Upload(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, file)
}
