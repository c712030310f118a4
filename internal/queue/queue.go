// Package queue 缩略图任务队列
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrClosed 队列已关闭
	ErrClosed = errors.New("queue closed")
	// ErrQueueFull 内存队列缓冲已满
	ErrQueueFull = errors.New("queue full")
)

// ThumbnailJob 缩略图任务消息
type ThumbnailJob struct {
	ID         string    `json:"id"`
	UserID     uint      `json:"userId"`
	FileID     uint      `json:"fileId"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// NewThumbnailJob 创建带唯一ID的任务
func NewThumbnailJob(userID, fileID uint) ThumbnailJob {
	return ThumbnailJob{
		ID:         uuid.NewString(),
		UserID:     userID,
		FileID:     fileID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Queue 单一主题的任务队列
type Queue interface {
	// Enqueue 投递任务
	Enqueue(ctx context.Context, job ThumbnailJob) error

	// Dequeue 阻塞直到取到任务、ctx 结束或队列关闭
	Dequeue(ctx context.Context) (*Delivery, error)

	// Recover 把上次未确认的任务放回队列，返回数量
	Recover(ctx context.Context) (int, error)

	// Len 待处理任务数
	Len(ctx context.Context) (int64, error)

	Close() error

	Name() string
}

// Delivery 一次投递，处理完必须 Ack
type Delivery struct {
	Job ThumbnailJob
	ack func(ctx context.Context) error
}

// Ack 确认任务已处理（无论成功与否）
func (d *Delivery) Ack(ctx context.Context) error {
	if d.ack == nil {
		return nil
	}
	return d.ack(ctx)
}
