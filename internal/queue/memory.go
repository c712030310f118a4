package queue

import (
	"context"
	"sync"
)

// MemoryQueue 进程内队列，只有同进程内的 worker 能消费
type MemoryQueue struct {
	name string
	jobs chan ThumbnailJob
	done chan struct{}
	once sync.Once
}

// NewMemoryQueue 创建内存队列，buffer 为缓冲大小
func NewMemoryQueue(name string, buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 1000
	}
	return &MemoryQueue{
		name: name,
		jobs: make(chan ThumbnailJob, buffer),
		done: make(chan struct{}),
	}
}

// Enqueue 不阻塞，缓冲满时返回 ErrQueueFull
func (q *MemoryQueue) Enqueue(ctx context.Context, job ThumbnailJob) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	select {
	case job := <-q.jobs:
		return &Delivery{Job: job}, nil
	case <-q.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Recover 内存队列没有处理中列表
func (q *MemoryQueue) Recover(ctx context.Context) (int, error) {
	return 0, nil
}

func (q *MemoryQueue) Len(ctx context.Context) (int64, error) {
	return int64(len(q.jobs)), nil
}

func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

func (q *MemoryQueue) Name() string {
	return q.name
}

var _ Queue = (*MemoryQueue)(nil)
