package core

import (
	"net/http"

	"github.com/anoixa/files-manager/api/common"
	"github.com/anoixa/files-manager/internal/dashboard"
	"github.com/gin-gonic/gin"
)

// HealthHandler 后端状态与统计
type HealthHandler struct {
	svc *dashboard.Service
}

// NewHealthHandler 创建状态处理器
func NewHealthHandler(svc *dashboard.Service) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// Status GET /status
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status(c.Request.Context()))
}

// Stats GET /stats
func (h *HealthHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
