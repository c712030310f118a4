package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisQueue(client, "fileQueue", "worker-1"), mr, client
}

func TestNewThumbnailJob(t *testing.T) {
	a := NewThumbnailJob(1, 2)
	b := NewThumbnailJob(1, 2)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, uint(1), a.UserID)
	assert.Equal(t, uint(2), a.FileID)
	assert.False(t, a.EnqueuedAt.IsZero())
}

func TestMemoryQueue_FIFO(t *testing.T) {
	q := NewMemoryQueue("fileQueue", 10)
	defer q.Close()
	ctx := context.Background()

	for i := uint(1); i <= 3; i++ {
		require.NoError(t, q.Enqueue(ctx, NewThumbnailJob(1, i)))
	}
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	for i := uint(1); i <= 3; i++ {
		d, err := q.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, d.Job.FileID)
		assert.NoError(t, d.Ack(ctx))
	}
}

func TestMemoryQueue_FullBufferFailsFast(t *testing.T) {
	q := NewMemoryQueue("fileQueue", 1)
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, NewThumbnailJob(1, 1)))

	done := make(chan error, 1)
	go func() { done <- q.Enqueue(ctx, NewThumbnailJob(1, 2)) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full buffer")
	}

	// 取走一个后又可以投递
	_, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.NoError(t, q.Enqueue(ctx, NewThumbnailJob(1, 3)))
}

func TestMemoryQueue_DequeueCancelled(t *testing.T) {
	q := NewMemoryQueue("fileQueue", 1)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryQueue_Closed(t *testing.T) {
	q := NewMemoryQueue("fileQueue", 1)
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	ctx := context.Background()
	assert.ErrorIs(t, q.Enqueue(ctx, NewThumbnailJob(1, 1)), ErrClosed)
	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRedisQueue_EnqueueDequeueAck(t *testing.T) {
	q, mr, _ := newRedisQueue(t)
	ctx := context.Background()

	for i := uint(1); i <= 3; i++ {
		require.NoError(t, q.Enqueue(ctx, NewThumbnailJob(7, i)))
	}
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	for i := uint(1); i <= 3; i++ {
		d, err := q.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, d.Job.FileID, "jobs are consumed in enqueue order")
		assert.Equal(t, uint(7), d.Job.UserID)

		processing, err := mr.List("fileQueue:processing:worker-1")
		require.NoError(t, err)
		assert.Len(t, processing, 1)

		require.NoError(t, d.Ack(ctx))
		assert.False(t, mr.Exists("fileQueue:processing:worker-1"))
	}
}

func TestRedisQueue_RecoverUnacked(t *testing.T) {
	q, _, _ := newRedisQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, NewThumbnailJob(1, 10)))
	require.NoError(t, q.Enqueue(ctx, NewThumbnailJob(1, 11)))
	require.NoError(t, q.Enqueue(ctx, NewThumbnailJob(1, 12)))

	// 模拟崩溃：取出两个任务但不确认
	_, err := q.Dequeue(ctx)
	require.NoError(t, err)
	_, err = q.Dequeue(ctx)
	require.NoError(t, err)

	moved, err := q.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	var order []uint
	for i := 0; i < 3; i++ {
		d, err := q.Dequeue(ctx)
		require.NoError(t, err)
		order = append(order, d.Job.FileID)
		require.NoError(t, d.Ack(ctx))
	}
	assert.Equal(t, []uint{10, 11, 12}, order)
}

func TestRedisQueue_RecoverLeavesOtherConsumers(t *testing.T) {
	a, mr, client := newRedisQueue(t)
	b := NewRedisQueue(client, "fileQueue", "worker-2")
	ctx := context.Background()

	require.NoError(t, a.Enqueue(ctx, NewThumbnailJob(1, 20)))
	inFlight, err := a.Dequeue(ctx)
	require.NoError(t, err)

	// 第二个实例启动，不应把 worker-1 正在处理的任务放回队列
	moved, err := b.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, moved)

	n, err := a.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, inFlight.Ack(ctx))
	assert.False(t, mr.Exists(ProcessingKey("fileQueue", "worker-1")))
}

func TestRedisQueue_DropsMalformed(t *testing.T) {
	q, mr, _ := newRedisQueue(t)
	ctx := context.Background()

	_, err := mr.Lpush("fileQueue", "{not json")
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, NewThumbnailJob(2, 3)))

	d, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(3), d.Job.FileID)
	require.NoError(t, d.Ack(ctx))
	assert.False(t, mr.Exists("fileQueue:processing:worker-1"))
}

func TestRedisQueue_DequeueCancelled(t *testing.T) {
	q, _, _ := newRedisQueue(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.Error(t, err)
}

func TestRedisQueue_Closed(t *testing.T) {
	q, _, _ := newRedisQueue(t)
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Enqueue(context.Background(), NewThumbnailJob(1, 1)), ErrClosed)
	_, err := q.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
