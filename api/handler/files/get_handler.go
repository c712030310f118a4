package files

import (
	"net/http"
	"strconv"

	"github.com/anoixa/files-manager/api/common"
	"github.com/anoixa/files-manager/api/middleware"
	"github.com/anoixa/files-manager/database/models"
	"github.com/anoixa/files-manager/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Show 获取单个文件记录
// GET /files/:id
func (h *Handler) Show(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		common.RespondServiceError(c, apperr.ErrNotFound)
		return
	}

	file, err := h.queries.Show(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, file)
}

// Index 分页列出某个目录下的文件
// GET /files?parentId=&page=
func (h *Handler) Index(c *gin.Context) {
	parentID := models.RootParentID
	if raw := c.Query("parentId"); raw != "" && raw != "0" {
		id, ok := parseID(raw)
		if !ok {
			// 不存在的父目录下没有记录
			c.JSON(http.StatusOK, []*models.File{})
			return
		}
		parentID = id
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		page = 0
	}

	list, err := h.queries.Index(c.Request.Context(), middleware.GetUserID(c), parentID, page)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}
