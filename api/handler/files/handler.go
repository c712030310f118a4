package files

import (
	"strconv"

	filesvc "github.com/anoixa/files-manager/internal/files"
)

// Handler 文件处理器
type Handler struct {
	uploads *filesvc.UploadService
	queries *filesvc.QueryService
}

// NewHandler 文件处理器
func NewHandler(uploads *filesvc.UploadService, queries *filesvc.QueryService) *Handler {
	return &Handler{
		uploads: uploads,
		queries: queries,
	}
}

// parseID 解析路径中的记录 ID，非法值返回 false
func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
