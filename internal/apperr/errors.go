// Package apperr 定义服务层与 HTTP 层共用的错误分类
package apperr

import "errors"

var (
	ErrUnauthorized = errors.New("Unauthorized")
	ErrNotFound     = errors.New("Not found")
	ErrInternal     = errors.New("Internal Server Error")
)

// BadRequestError 请求校验错误，Msg 原样返回给客户端
type BadRequestError struct {
	Msg string
}

func (e *BadRequestError) Error() string {
	return e.Msg
}

// 上传校验
var (
	ErrMissingName        = &BadRequestError{Msg: "Missing name"}
	ErrMissingType        = &BadRequestError{Msg: "Missing type"}
	ErrMissingData        = &BadRequestError{Msg: "Missing data"}
	ErrInvalidData        = &BadRequestError{Msg: "Invalid data"}
	ErrParentNotFound     = &BadRequestError{Msg: "Parent not found"}
	ErrParentNotFolder    = &BadRequestError{Msg: "Parent is not a folder"}
	ErrFolderHasNoContent = &BadRequestError{Msg: "A folder doesn't have content"}
	ErrFileTooLarge       = &BadRequestError{Msg: "File too large"}
	ErrInvalidBody        = &BadRequestError{Msg: "Invalid request body"}
)

// 注册校验
var (
	ErrMissingEmail    = &BadRequestError{Msg: "Missing email"}
	ErrMissingPassword = &BadRequestError{Msg: "Missing password"}
	ErrAlreadyExists   = &BadRequestError{Msg: "Already exists"}
)

// IsBadRequest 判断是否为请求校验错误
func IsBadRequest(err error) bool {
	var badRequest *BadRequestError
	return errors.As(err, &badRequest)
}
