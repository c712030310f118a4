package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anoixa/files-manager/cache"
	"github.com/dgraph-io/ristretto"
)

// ErrRejected ristretto 拒绝写入（缓冲区满或未通过准入策略）
var ErrRejected = errors.New("memory cache rejected item")

// Memory 基于 ristretto 的进程内缓存
// ristretto 按 TinyLFU 做准入与淘汰：写入可能被拒绝（ErrRejected），容量满时条目可能在 TTL 之前被淘汰。
// 用作会话存储时只适合单实例开发环境，生产默认使用 redis
type Memory struct {
	client *ristretto.Cache
}

// Config 内存缓存配置
type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

// DefaultConfig 会话存储使用的默认容量
func DefaultConfig() Config {
	return Config{
		NumCounters: 100000,
		MaxCost:     64 << 20, // 64MB
		BufferItems: 64,
	}
}

// NewMemory 创建新的内存缓存提供者
func NewMemory(config Config) (*Memory, error) {
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: config.NumCounters,
		MaxCost:     config.MaxCost,
		BufferItems: config.BufferItems,
		Metrics:     config.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	return &Memory{client: client}, nil
}

// Set 以 JSON 形式保存，读取时与 redis 实现行为一致
func (m *Memory) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if !m.client.SetWithTTL(key, data, int64(len(data)), expiration) {
		return ErrRejected
	}
	// 等待值被实际写入
	m.client.Wait()
	return nil
}

// Get 获取缓存项
func (m *Memory) Get(ctx context.Context, key string, dest interface{}) error {
	value, found := m.client.Get(key)
	if !found {
		return cache.ErrCacheMiss
	}

	data, ok := value.([]byte)
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

// Delete 删除缓存项
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.client.Del(key)
	return nil
}

// Exists 检查缓存项是否存在
func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	_, found := m.client.Get(key)
	return found, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// Close 关闭缓存
func (m *Memory) Close() error {
	m.client.Close()
	return nil
}

// Name 返回缓存提供者名称
func (m *Memory) Name() string {
	return "memory"
}

var _ cache.Provider = (*Memory)(nil)
