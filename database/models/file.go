package models

import "time"

// FileType 文件记录类型
type FileType string

const (
	FileTypeFolder FileType = "folder"
	FileTypeFile   FileType = "file"
	FileTypeImage  FileType = "image"
)

// ParseFileType 校验并转换类型字符串
func ParseFileType(s string) (FileType, bool) {
	switch t := FileType(s); t {
	case FileTypeFolder, FileTypeFile, FileTypeImage:
		return t, true
	}
	return "", false
}

// RootParentID 根目录的 parentId
const RootParentID uint = 0

// ThumbnailWidths 缩略图宽度，按生成顺序排列
var ThumbnailWidths = []int{100, 250, 500}

// IsThumbnailWidth 检查是否为受支持的缩略图宽度
func IsThumbnailWidth(width int) bool {
	for _, w := range ThumbnailWidths {
		if w == width {
			return true
		}
	}
	return false
}

// File 文件/文件夹元数据，按 owner 构成一棵树
type File struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index:idx_user_parent,priority:1;not null" json:"userId"`
	Name      string    `gorm:"not null" json:"name"`
	Type      FileType  `gorm:"type:varchar(16);not null" json:"type"`
	ParentID  uint      `gorm:"index:idx_user_parent,priority:2;default:0;not null" json:"parentId"`
	IsPublic  bool      `gorm:"default:false;not null" json:"isPublic"`
	LocalPath *string   `json:"localPath,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// IsFolder 是否为文件夹
func (f *File) IsFolder() bool {
	return f.Type == FileTypeFolder
}

// HasContent 是否有已落盘的内容
func (f *File) HasContent() bool {
	return f.LocalPath != nil && *f.LocalPath != ""
}
