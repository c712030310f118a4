package files

import (
	"context"
	"fmt"
	"log"

	"github.com/anoixa/files-manager/database/models"
	"github.com/anoixa/files-manager/database/repo/files"
	"github.com/anoixa/files-manager/internal/queue"
	"github.com/anoixa/files-manager/storage"
)

const scanBatchSize = 100

// ThumbnailScanner 为缺少缩略图的图片重新投递任务
type ThumbnailScanner struct {
	repo    *files.Repository
	storage *storage.LocalStorage
	queue   queue.Queue
}

// NewThumbnailScanner 创建扫描器
func NewThumbnailScanner(repo *files.Repository, store *storage.LocalStorage, q queue.Queue) *ThumbnailScanner {
	return &ThumbnailScanner{
		repo:    repo,
		storage: store,
		queue:   q,
	}
}

// ScanResult 扫描结果
type ScanResult struct {
	Scanned  int
	Enqueued int
}

// Scan 游标遍历所有图片记录，任一宽度缺失即投递
func (s *ThumbnailScanner) Scan(ctx context.Context) (ScanResult, error) {
	var result ScanResult
	var afterID uint

	for {
		batch, err := s.repo.ListImages(ctx, afterID, scanBatchSize)
		if err != nil {
			return result, fmt.Errorf("failed to list images: %w", err)
		}
		if len(batch) == 0 {
			return result, nil
		}

		for _, file := range batch {
			afterID = file.ID
			result.Scanned++

			if !file.HasContent() {
				continue
			}
			missing, err := s.missingThumbnail(file)
			if err != nil {
				return result, err
			}
			if !missing {
				continue
			}

			if err := s.queue.Enqueue(ctx, queue.NewThumbnailJob(file.UserID, file.ID)); err != nil {
				return result, fmt.Errorf("failed to enqueue file %d: %w", file.ID, err)
			}
			result.Enqueued++
		}

		log.Printf("[ThumbnailScanner] Scanned %d images, enqueued %d", result.Scanned, result.Enqueued)
	}
}

func (s *ThumbnailScanner) missingThumbnail(file *models.File) (bool, error) {
	for _, width := range models.ThumbnailWidths {
		ok, err := s.storage.Exists(s.storage.ThumbnailPath(file.ID, width))
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
	}
	return false, nil
}
