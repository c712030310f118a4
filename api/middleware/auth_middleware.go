package middleware

import (
	"github.com/anoixa/files-manager/api/common"
	"github.com/anoixa/files-manager/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"

	// TokenHeader 会话 token 所在的请求头
	TokenHeader = "X-Token"
)

// RequireToken 校验 X-Token，失败直接返回 401
func RequireToken(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := authService.Resolve(c.Request.Context(), c.GetHeader(TokenHeader))
		if err != nil {
			common.RespondServiceError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// OptionalToken 有合法 token 时写入用户，否则按匿名请求继续
func OptionalToken(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(TokenHeader)
		if token != "" {
			if userID, err := authService.Resolve(c.Request.Context(), token); err == nil {
				c.Set(ContextUserIDKey, userID)
			}
		}
		c.Next()
	}
}

// GetUserID 读取当前用户 ID，匿名请求返回 0
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ContextUserIDKey)
}
