package utils

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultContentType 无法识别时的类型
const DefaultContentType = "application/octet-stream"

// GetExtensionFromFilename 从文件名获取扩展名（小写）
func GetExtensionFromFilename(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// ContentTypeFor 先按文件名扩展名推断类型，推断不出时根据内容嗅探
func ContentTypeFor(name string, head []byte) string {
	if ext := GetExtensionFromFilename(name); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}

	if len(head) == 0 {
		return DefaultContentType
	}
	return mimetype.Detect(head).String()
}
