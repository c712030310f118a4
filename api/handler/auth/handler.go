package auth

import (
	"net/http"

	"github.com/anoixa/files-manager/api/common"
	"github.com/anoixa/files-manager/api/middleware"
	authsvc "github.com/anoixa/files-manager/internal/auth"
	"github.com/gin-gonic/gin"
)

// Handler 登录与注销
type Handler struct {
	svc *authsvc.Service
}

// NewHandler 创建认证处理器
func NewHandler(svc *authsvc.Service) *Handler {
	return &Handler{svc: svc}
}

type connectResponse struct {
	Token string `json:"token"`
}

// Connect 使用 Basic 认证换取会话 token
// GET /connect
func (h *Handler) Connect(c *gin.Context) {
	token, err := h.svc.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, connectResponse{Token: token})
}

// Disconnect 注销当前 token
// GET /disconnect
func (h *Handler) Disconnect(c *gin.Context) {
	if err := h.svc.Revoke(c.Request.Context(), c.GetHeader(middleware.TokenHeader)); err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
