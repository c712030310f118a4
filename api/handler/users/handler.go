package users

import (
	"errors"
	"io"
	"net/http"

	"github.com/anoixa/files-manager/api/common"
	"github.com/anoixa/files-manager/api/middleware"
	"github.com/anoixa/files-manager/database/models"
	"github.com/anoixa/files-manager/internal/apperr"
	"github.com/anoixa/files-manager/internal/auth"
	"github.com/gin-gonic/gin"
)

// Handler 用户注册与查询
type Handler struct {
	svc *auth.Service
}

// NewHandler 创建用户处理器
func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

func toResponse(user *models.User) userResponse {
	return userResponse{ID: user.ID, Email: user.Email}
}

// Create 注册新用户
// POST /users
func (h *Handler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		common.RespondServiceError(c, apperr.ErrInvalidBody)
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(user))
}

// Me 返回当前 token 对应的用户
// GET /users/me
func (h *Handler) Me(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(user))
}
