package common

import (
	"errors"
	"log"
	"net/http"

	"github.com/anoixa/files-manager/internal/apperr"
	"github.com/gin-gonic/gin"
)

// ErrorResponse 所有错误响应的统一格式
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondError sends an error response with message.
func RespondError(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, ErrorResponse{Error: message})
}

// RespondErrorAbort 返回错误并中断后续处理器
func RespondErrorAbort(c *gin.Context, httpStatus int, message string) {
	c.AbortWithStatusJSON(httpStatus, ErrorResponse{Error: message})
}

// RespondServiceError 将服务层错误映射为 HTTP 状态码
func RespondServiceError(c *gin.Context, err error) {
	var badRequest *apperr.BadRequestError
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, apperr.ErrUnauthorized.Error())
	case errors.Is(err, apperr.ErrNotFound):
		RespondError(c, http.StatusNotFound, apperr.ErrNotFound.Error())
	case errors.As(err, &badRequest):
		RespondError(c, http.StatusBadRequest, badRequest.Msg)
	default:
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		RespondError(c, http.StatusInternalServerError, apperr.ErrInternal.Error())
	}
}
