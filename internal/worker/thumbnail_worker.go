package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/anoixa/files-manager/database/models"
	"github.com/anoixa/files-manager/database/repo/files"
	imagepkg "github.com/anoixa/files-manager/internal/image"
	"github.com/anoixa/files-manager/internal/queue"
	"github.com/anoixa/files-manager/storage"
	"golang.org/x/sync/errgroup"
)

// 任务校验错误
var (
	ErrMissingFileID = errors.New("Missing fileId")
	ErrMissingUserID = errors.New("Missing userId")
	ErrFileNotFound  = errors.New("File not found")
	ErrNotImage      = errors.New("File is not an image")
)

const (
	ackTimeout   = 5 * time.Second
	retryBackoff = time.Second
)

// Stats 处理统计
type Stats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

// ThumbnailWorker 消费缩略图任务并写出 <root>/<fileId>_<width>
type ThumbnailWorker struct {
	queue       queue.Queue
	files       *files.Repository
	storage     *storage.LocalStorage
	renderer    imagepkg.Renderer
	concurrency int

	processed atomic.Int64
	failed    atomic.Int64
}

// New 创建 worker，concurrency 为串行消费循环的数量
func New(q queue.Queue, repo *files.Repository, store *storage.LocalStorage, renderer imagepkg.Renderer, concurrency int) *ThumbnailWorker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ThumbnailWorker{
		queue:       q,
		files:       repo,
		storage:     store,
		renderer:    renderer,
		concurrency: concurrency,
	}
}

// Run 阻塞消费直到 ctx 取消或队列关闭
func (w *ThumbnailWorker) Run(ctx context.Context) error {
	moved, err := w.queue.Recover(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover unacknowledged jobs: %w", err)
	}
	if moved > 0 {
		log.Printf("[Worker] Requeued %d unacknowledged jobs on %s", moved, w.queue.Name())
	}

	log.Printf("[Worker] Consuming %s with %d loop(s), renderer=%s", w.queue.Name(), w.concurrency, w.renderer.Name())

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		id := i
		g.Go(func() error {
			return w.consume(gctx, id)
		})
	}

	err = g.Wait()
	log.Printf("[Worker] Stopped (processed=%d failed=%d)", w.processed.Load(), w.failed.Load())
	return err
}

func (w *ThumbnailWorker) consume(ctx context.Context, id int) error {
	for {
		delivery, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			log.Printf("[Worker %d] Dequeue failed: %v", id, err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryBackoff):
			}
			continue
		}

		w.handle(ctx, delivery)
	}
}

// handle 处理一次投递，成功失败都确认
func (w *ThumbnailWorker) handle(ctx context.Context, d *queue.Delivery) {
	job := d.Job
	start := time.Now()

	if err := w.safeProcess(ctx, job); err != nil {
		w.failed.Add(1)
		log.Printf("[Worker] Job %s failed (file %d): %v", job.ID, job.FileID, err)
	} else {
		w.processed.Add(1)
		log.Printf("[Worker] Job %s completed (file %d) in %s", job.ID, job.FileID, time.Since(start).Round(time.Millisecond))
	}

	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
	defer cancel()
	if err := d.Ack(ackCtx); err != nil {
		log.Printf("[Worker] Failed to ack job %s: %v", job.ID, err)
	}
}

// safeProcess 把 panic 转换为任务失败
func (w *ThumbnailWorker) safeProcess(ctx context.Context, job queue.ThumbnailJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			log.Printf("[Worker] Panic recovered in job %s: %v\n%s", job.ID, r, debug.Stack())
		}
	}()
	return w.Process(ctx, job)
}

// Process 校验任务并依次生成各尺寸缩略图，第一次失败即中止
func (w *ThumbnailWorker) Process(ctx context.Context, job queue.ThumbnailJob) error {
	if job.FileID == 0 {
		return ErrMissingFileID
	}
	if job.UserID == 0 {
		return ErrMissingUserID
	}

	file, err := w.files.GetByID(ctx, job.FileID)
	if err != nil {
		return fmt.Errorf("failed to load file %d: %w", job.FileID, err)
	}
	if file == nil || file.UserID != job.UserID {
		return ErrFileNotFound
	}
	if file.Type != models.FileTypeImage {
		return ErrNotImage
	}
	if !file.HasContent() {
		return ErrFileNotFound
	}

	src, err := w.storage.ReadFile(*file.LocalPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to read source: %w", err)
	}

	for _, width := range models.ThumbnailWidths {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := w.renderer.Thumbnail(src, width)
		if err != nil {
			return fmt.Errorf("width %d: %w", width, err)
		}
		if _, err := w.storage.Save(ctx, storage.ThumbnailName(file.ID, width), bytes.NewReader(out)); err != nil {
			return fmt.Errorf("width %d: %w", width, err)
		}
	}
	return nil
}

// Stats 返回处理计数
func (w *ThumbnailWorker) Stats() Stats {
	return Stats{
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
	}
}
