package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeDefaults(t *testing.T, overrides map[string]interface{}) Config {
	t.Helper()
	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}
	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := decodeDefaults(t, nil)

	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
	assert.Equal(t, 15*time.Second, cfg.ServerReadTimeout)
	assert.Equal(t, "/tmp/files_manager", cfg.FolderPath)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "redis", cfg.SessionStore)
	assert.Equal(t, "redis", cfg.QueueType)
	assert.Equal(t, "fileQueue", cfg.QueueName)
	assert.Equal(t, 1, cfg.WorkerConcurrency)
	assert.Equal(t, "draw", cfg.ThumbnailRenderer)
	assert.Equal(t, 10*time.Minute, cfg.RateLimitExpireTime)
	assert.Equal(t, 50, cfg.UploadMaxSizeMB)
	assert.Equal(t, time.Hour, cfg.OrphanGracePeriod)
	assert.True(t, cfg.UsesRedis())
}

func TestUsesRedis(t *testing.T) {
	memoryOnly := map[string]interface{}{"session_store": "memory", "queue_type": "memory"}
	assert.False(t, decodeDefaults(t, memoryOnly).UsesRedis())
	assert.True(t, decodeDefaults(t, map[string]interface{}{"queue_type": "memory"}).UsesRedis())
	assert.True(t, decodeDefaults(t, map[string]interface{}{"session_store": "memory"}).UsesRedis())
}

func TestConsumerID(t *testing.T) {
	assert.Equal(t, "worker-a", (&Config{QueueConsumerID: "worker-a"}).ConsumerID())
	assert.NotEmpty(t, (&Config{}).ConsumerID())
}

func TestInProcessWorkerRequired(t *testing.T) {
	assert.False(t, (&Config{QueueType: "redis"}).InProcessWorkerRequired())
	assert.True(t, (&Config{QueueType: "memory"}).InProcessWorkerRequired())
	assert.True(t, (&Config{}).InProcessWorkerRequired())
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "0.0.0.0:5000", (&Config{}).Addr())
	assert.Equal(t, "127.0.0.1:8080", (&Config{ServerHost: "127.0.0.1", ServerPort: 8080}).Addr())
}
