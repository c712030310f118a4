package files

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/files-manager/database/models"
	"gorm.io/gorm"
)

// PageSize 每页记录数
const PageSize = 20

// ListQuery 列表查询条件
type ListQuery struct {
	UserID   uint
	ParentID uint
	Page     int
}

// Repository 文件元数据仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的文件仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create 插入记录，成功后 file.ID 被回填
func (r *Repository) Create(ctx context.Context, file *models.File) error {
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("failed to create file record: %w", err)
	}
	return nil
}

// GetByID 通过ID获取记录，不存在时返回 nil, nil
func (r *Repository) GetByID(ctx context.Context, id uint) (*models.File, error) {
	var file models.File
	err := r.db.WithContext(ctx).First(&file, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &file, nil
}

// Update 按字段更新并返回更新后的记录
func (r *Repository) Update(ctx context.Context, id uint, updates map[string]interface{}) (*models.File, error) {
	result := r.db.WithContext(ctx).Model(&models.File{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var file models.File
	if err := r.db.WithContext(ctx).First(&file, id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// List 按插入顺序分页列出某用户某目录下的记录
func (r *Repository) List(ctx context.Context, q ListQuery) ([]*models.File, error) {
	page := q.Page
	if page < 0 {
		page = 0
	}

	files := make([]*models.File, 0, PageSize)
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND parent_id = ?", q.UserID, q.ParentID).
		Order("id asc").
		Offset(page * PageSize).
		Limit(PageSize).
		Find(&files).Error
	return files, err
}

// CountFiles 统计记录总数
func (r *Repository) CountFiles(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.File{}).Count(&count).Error
	return count, err
}

// ListImages 游标分页获取图片记录，afterID 为上一批最后一条的 ID
func (r *Repository) ListImages(ctx context.Context, afterID uint, limit int) ([]*models.File, error) {
	var images []*models.File
	err := r.db.WithContext(ctx).
		Where("type = ? AND id > ?", models.FileTypeImage, afterID).
		Order("id asc").
		Limit(limit).
		Find(&images).Error
	return images, err
}

// ListLocalPaths 返回所有被记录引用的本地路径
func (r *Repository) ListLocalPaths(ctx context.Context) (map[string]struct{}, error) {
	var paths []string
	err := r.db.WithContext(ctx).
		Model(&models.File{}).
		Where("local_path IS NOT NULL").
		Pluck("local_path", &paths).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set, nil
}
