package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`

	// 存储根目录
	FolderPath string `mapstructure:"folder_path"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// 会话存储: memory | redis
	SessionStore string `mapstructure:"session_store"`

	// Redis 配置（会话存储与队列共用）
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	// 缩略图队列配置
	QueueType       string `mapstructure:"queue_type"`
	QueueName       string `mapstructure:"queue_name"`
	QueueBuffer     int    `mapstructure:"queue_buffer"`
	QueueConsumerID string `mapstructure:"queue_consumer_id"` // 为空时使用主机名

	// Worker 配置
	WorkerConcurrency int    `mapstructure:"worker_concurrency"`
	ThumbnailRenderer string `mapstructure:"thumbnail_renderer"`

	// 限流配置
	RateLimitAuthRPS    float64       `mapstructure:"rate_limit_auth_rps"`
	RateLimitAuthBurst  int           `mapstructure:"rate_limit_auth_burst"`
	RateLimitExpireTime time.Duration `mapstructure:"rate_limit_expire_time"`

	// 上传配置
	UploadMaxSizeMB   int `mapstructure:"upload_max_size_mb"`
	UploadConcurrency int `mapstructure:"upload_concurrency"`

	// 孤儿文件清理宽限期
	OrphanGracePeriod time.Duration `mapstructure:"orphan_grace_period"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	configFile := viper.GetString("config_file_path")
	if configFile == "" {
		configFile = ".env"
		viper.SetConfigType("env")
	}
	viper.SetConfigFile(configFile)

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Info: %s not found, using defaults and environment variables\n", configFile)
	} else {
		fmt.Fprintf(os.Stderr, "Info: Loaded configuration from %s\n", configFile)
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		_ = viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}

	if globalConfig.WorkerConcurrency <= 0 {
		globalConfig.WorkerConcurrency = 1
	}
}

// setDefaults 设置默认值
func setDefaults() {
	for key, value := range Defaults() {
		viper.SetDefault(key, value)
	}
}

// Defaults 返回所有配置项的默认值
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		// 服务器
		"server_host":          "0.0.0.0",
		"server_port":          5000,
		"server_read_timeout":  "15s",
		"server_write_timeout": "30s",
		"server_idle_timeout":  "120s",

		"folder_path": "/tmp/files_manager",

		// 数据库
		"db_type":              "sqlite",
		"db_host":              "localhost",
		"db_port":              5432,
		"db_username":          "postgres",
		"db_password":          "",
		"db_name":              "files_manager",
		"db_file_path":         "./data/files_manager.db",
		"db_max_open_conns":    100,
		"db_max_idle_conns":    25,
		"db_conn_max_lifetime": 3600,

		// 会话与 Redis
		"session_store":  "redis",
		"redis_addr":     "localhost:6379",
		"redis_password": "",
		"redis_db":       0,

		// 队列与 Worker
		"queue_type":         "redis",
		"queue_name":         "fileQueue",
		"queue_buffer":       1000,
		"queue_consumer_id":  "",
		"worker_concurrency": 1,
		"thumbnail_renderer": "draw",

		// 限流
		"rate_limit_auth_rps":    1.0,
		"rate_limit_auth_burst":  10,
		"rate_limit_expire_time": "10m",

		"upload_max_size_mb":  50,
		"upload_concurrency":  16,
		"orphan_grace_period": "1h",
	}
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 5000
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// ConsumerID Redis 队列的消费者标识，重启后保持不变才能恢复未确认任务
func (c *Config) ConsumerID() string {
	if c.QueueConsumerID != "" {
		return c.QueueConsumerID
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "default"
}

// InProcessWorkerRequired 内存队列只能被本进程消费，serve 必须同时运行 worker
func (c *Config) InProcessWorkerRequired() bool {
	return c.QueueType != "redis"
}

// UsesRedis 会话或队列是否依赖 Redis
func (c *Config) UsesRedis() bool {
	return c.SessionStore == "redis" || c.QueueType == "redis"
}
