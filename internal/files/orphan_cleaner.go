package files

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/anoixa/files-manager/database/models"
	"github.com/anoixa/files-manager/database/repo/files"
	"github.com/anoixa/files-manager/storage"
)

// OrphanCleaner 清理存储根目录中没有记录引用的文件
type OrphanCleaner struct {
	repo    *files.Repository
	storage *storage.LocalStorage
	grace   time.Duration
	now     func() time.Time
}

// NewOrphanCleaner grace 内修改过的文件不会被删除（可能是正在上传的内容）
func NewOrphanCleaner(repo *files.Repository, store *storage.LocalStorage, grace time.Duration) *OrphanCleaner {
	return &OrphanCleaner{
		repo:    repo,
		storage: store,
		grace:   grace,
		now:     time.Now,
	}
}

// CleanResult 清理结果
type CleanResult struct {
	Checked  int
	Orphans  []string
	Removed  int
	Failures int
}

// Clean dryRun 为 true 时只列出不删除
func (c *OrphanCleaner) Clean(ctx context.Context, dryRun bool) (*CleanResult, error) {
	referenced, err := c.repo.ListLocalPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load referenced paths: %w", err)
	}

	result := &CleanResult{}
	cutoff := c.now().Add(-c.grace)

	err = c.storage.Walk(ctx, func(path string, info fs.FileInfo) error {
		result.Checked++

		if info.ModTime().After(cutoff) {
			return nil
		}
		if _, ok := referenced[path]; ok {
			return nil
		}

		orphan, err := c.isOrphan(ctx, filepath.Base(path))
		if err != nil {
			return err
		}
		if !orphan {
			return nil
		}

		result.Orphans = append(result.Orphans, path)
		if dryRun {
			return nil
		}
		if err := c.storage.Remove(path); err != nil {
			result.Failures++
			log.Printf("[Clean] Failed to remove %s: %v", path, err)
			return nil
		}
		result.Removed++
		return nil
	})
	if err != nil {
		return result, err
	}

	log.Printf("[Clean] Checked %d files, %d orphans, %d removed", result.Checked, len(result.Orphans), result.Removed)
	return result, nil
}

// isOrphan <fileId>_<width> 形式的文件，记录仍存在时保留；其他文件视为孤儿
func (c *OrphanCleaner) isOrphan(ctx context.Context, name string) (bool, error) {
	idPart, widthPart, found := strings.Cut(name, "_")
	if !found {
		return true, nil
	}
	width, err := strconv.Atoi(widthPart)
	if err != nil || !models.IsThumbnailWidth(width) {
		return true, nil
	}
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return true, nil
	}

	file, err := c.repo.GetByID(ctx, uint(id))
	if err != nil {
		return false, err
	}
	return file == nil || file.Type != models.FileTypeImage, nil
}
