package files

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/anoixa/files-manager/database/models"
	"github.com/anoixa/files-manager/database/repo/files"
	"github.com/anoixa/files-manager/internal/apperr"
	"github.com/anoixa/files-manager/internal/queue"
	"github.com/anoixa/files-manager/storage"
	"github.com/google/uuid"
)

// UploadRequest POST /files 请求体
type UploadRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID uint   `json:"parentId"`
	IsPublic bool   `json:"isPublic"`
	Data     string `json:"data"`
}

// UploadService 创建文件夹/文件/图片记录并落盘
type UploadService struct {
	repo    *files.Repository
	storage *storage.LocalStorage
	queue   queue.Queue
	maxSize int64
}

// NewUploadService 创建上传服务，maxSize 为解码后字节上限，<=0 表示不限制
func NewUploadService(repo *files.Repository, store *storage.LocalStorage, q queue.Queue, maxSize int64) *UploadService {
	return &UploadService{
		repo:    repo,
		storage: store,
		queue:   q,
		maxSize: maxSize,
	}
}

// Upload 按顺序校验 name、type、data、parent，然后写入
func (s *UploadService) Upload(ctx context.Context, userID uint, req UploadRequest) (*models.File, error) {
	if req.Name == "" {
		return nil, apperr.ErrMissingName
	}
	fileType, ok := models.ParseFileType(req.Type)
	if !ok {
		return nil, apperr.ErrMissingType
	}
	if fileType != models.FileTypeFolder && req.Data == "" {
		return nil, apperr.ErrMissingData
	}

	if req.ParentID != models.RootParentID {
		parent, err := s.repo.GetByID(ctx, req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent %d: %w", req.ParentID, err)
		}
		if parent == nil {
			return nil, apperr.ErrParentNotFound
		}
		if !parent.IsFolder() {
			return nil, apperr.ErrParentNotFolder
		}
	}

	file := &models.File{
		UserID:   userID,
		Name:     req.Name,
		Type:     fileType,
		ParentID: req.ParentID,
		IsPublic: req.IsPublic,
	}

	if fileType == models.FileTypeFolder {
		if err := s.repo.Create(ctx, file); err != nil {
			return nil, err
		}
		return file, nil
	}

	content, err := decodeData(req.Data)
	if err != nil {
		return nil, apperr.ErrInvalidData
	}
	if s.maxSize > 0 && int64(len(content)) > s.maxSize {
		return nil, apperr.ErrFileTooLarge
	}

	// 先写字节再插入记录；插入失败时尽力删除已写入的文件
	localPath, err := s.storage.Save(ctx, uuid.NewString(), bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to store file content: %w", err)
	}
	file.LocalPath = &localPath

	if err := s.repo.Create(ctx, file); err != nil {
		if rmErr := s.storage.Remove(localPath); rmErr != nil {
			log.Printf("[Upload] Failed to remove orphan %s: %v", localPath, rmErr)
		}
		return nil, err
	}

	if fileType == models.FileTypeImage {
		job := queue.NewThumbnailJob(userID, file.ID)
		if err := s.queue.Enqueue(ctx, job); err != nil {
			// 记录已创建，缩略图可通过 thumbnails 命令补齐
			log.Printf("[Upload] Failed to enqueue thumbnail job for file %d: %v", file.ID, err)
		}
	}

	return file, nil
}

// decodeData 接受标准 base64，兼容无填充的写法
func decodeData(data string) ([]byte, error) {
	content, err := base64.StdEncoding.DecodeString(data)
	if err == nil {
		return content, nil
	}
	return base64.RawStdEncoding.DecodeString(data)
}
