package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

// 阻塞读取的单次超时，超时后重新检查 ctx
const blockTimeout = time.Second

// RedisQueue 基于 Redis 列表的持久队列
// 生产: LPUSH topic；消费: BRPOPLPUSH topic -> topic:processing:<consumer>；确认: LREM
// 每个消费者只恢复自己的处理中列表，不会抢走其他实例正在处理的任务
type RedisQueue struct {
	client     *redis.Client
	topic      string
	processing string
	closed     atomic.Bool
}

// NewRedisQueue 创建 Redis 队列，client 由调用方管理
// consumer 在重启后必须保持不变，否则上次未确认的任务无法恢复
func NewRedisQueue(client *redis.Client, topic, consumer string) *RedisQueue {
	if consumer == "" {
		consumer = "default"
	}
	return &RedisQueue{
		client:     client,
		topic:      topic,
		processing: ProcessingKey(topic, consumer),
	}
}

// ProcessingKey 消费者的处理中列表
func ProcessingKey(topic, consumer string) string {
	return topic + ":processing:" + consumer
}

func (q *RedisQueue) Enqueue(ctx context.Context, job ThumbnailJob) error {
	if q.closed.Load() {
		return ErrClosed
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := q.client.LPush(ctx, q.topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to push job to %s: %w", q.topic, err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	for {
		if q.closed.Load() {
			return nil, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := q.client.BRPopLPush(ctx, q.topic, q.processing, blockTimeout).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("failed to pop job from %s: %w", q.topic, err)
		}

		var job ThumbnailJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			log.Printf("[Queue] Dropping malformed message on %s: %v", q.topic, err)
			if err := q.remove(ctx, raw); err != nil {
				return nil, err
			}
			continue
		}

		return &Delivery{
			Job: job,
			ack: func(ctx context.Context) error {
				return q.remove(ctx, raw)
			},
		}, nil
	}
}

func (q *RedisQueue) remove(ctx context.Context, raw string) error {
	if err := q.client.LRem(ctx, q.processing, 1, raw).Err(); err != nil {
		return fmt.Errorf("failed to ack job on %s: %w", q.processing, err)
	}
	return nil
}

// Recover 把本消费者处理中列表里的任务移回主题尾部（下一个被消费），供消费者启动时调用
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, q.processing, q.topic, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("failed to requeue unacked jobs: %w", err)
		}
		moved++
	}
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.topic).Result()
}

// Close 停止消费，不关闭共享的 client
func (q *RedisQueue) Close() error {
	q.closed.Store(true)
	return nil
}

func (q *RedisQueue) Name() string {
	return q.topic
}

var _ Queue = (*RedisQueue)(nil)
