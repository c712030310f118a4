package files

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/files-manager/database/models"
	"github.com/anoixa/files-manager/database/repo/files"
	"github.com/anoixa/files-manager/internal/apperr"
	"github.com/anoixa/files-manager/storage"
	"github.com/anoixa/files-manager/utils"
	"golang.org/x/sync/singleflight"
)

// Content 文件内容
type Content struct {
	Data        []byte
	ContentType string
}

// QueryService 文件查询、可见性与内容读取
type QueryService struct {
	repo    *files.Repository
	storage *storage.LocalStorage
	reads   singleflight.Group
}

// NewQueryService 创建查询服务
func NewQueryService(repo *files.Repository, store *storage.LocalStorage) *QueryService {
	return &QueryService{
		repo:    repo,
		storage: store,
	}
}

// Show 返回用户自己的记录
func (s *QueryService) Show(ctx context.Context, userID, fileID uint) (*models.File, error) {
	return s.owned(ctx, userID, fileID)
}

// Index 列出某目录下的一页记录
func (s *QueryService) Index(ctx context.Context, userID, parentID uint, page int) ([]*models.File, error) {
	return s.repo.List(ctx, files.ListQuery{
		UserID:   userID,
		ParentID: parentID,
		Page:     page,
	})
}

// SetVisibility 修改 isPublic 并返回更新后的记录
func (s *QueryService) SetVisibility(ctx context.Context, userID, fileID uint, public bool) (*models.File, error) {
	if _, err := s.owned(ctx, userID, fileID); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, fileID, map[string]interface{}{"is_public": public})
}

// Data 读取文件内容；requester 为 0 表示匿名，size 非 0 时返回对应宽度的缩略图
func (s *QueryService) Data(ctx context.Context, requester, fileID uint, size int) (*Content, error) {
	file, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load file %d: %w", fileID, err)
	}
	if file == nil {
		return nil, apperr.ErrNotFound
	}
	if !file.IsPublic && (requester == 0 || requester != file.UserID) {
		return nil, apperr.ErrNotFound
	}
	if file.IsFolder() {
		return nil, apperr.ErrFolderHasNoContent
	}
	if !file.HasContent() {
		return nil, apperr.ErrNotFound
	}

	path, name := *file.LocalPath, file.Name
	if size != 0 {
		if !models.IsThumbnailWidth(size) {
			return nil, apperr.ErrNotFound
		}
		// 缩略图可能被重新编码，类型靠嗅探
		path, name = s.storage.ThumbnailPath(file.ID, size), ""
	}

	data, err := s.read(path)
	if err != nil {
		return nil, err
	}

	return &Content{
		Data:        data,
		ContentType: utils.ContentTypeFor(name, data),
	}, nil
}

// read 相同路径的并发读取合并为一次
func (s *QueryService) read(path string) ([]byte, error) {
	v, err, _ := s.reads.Do(path, func() (interface{}, error) {
		return s.storage.ReadFile(path)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return v.([]byte), nil
}

func (s *QueryService) owned(ctx context.Context, userID, fileID uint) (*models.File, error) {
	file, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load file %d: %w", fileID, err)
	}
	if file == nil || file.UserID != userID {
		return nil, apperr.ErrNotFound
	}
	return file, nil
}
