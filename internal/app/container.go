package app

import (
	"context"
	"fmt"
	"log"

	"github.com/anoixa/files-manager/cache"
	"github.com/anoixa/files-manager/cache/memory"
	redisCache "github.com/anoixa/files-manager/cache/redis"
	"github.com/anoixa/files-manager/config"
	"github.com/anoixa/files-manager/database"
	"github.com/anoixa/files-manager/database/repo/accounts"
	"github.com/anoixa/files-manager/database/repo/files"
	"github.com/anoixa/files-manager/internal/auth"
	"github.com/anoixa/files-manager/internal/dashboard"
	filesvc "github.com/anoixa/files-manager/internal/files"
	imagepkg "github.com/anoixa/files-manager/internal/image"
	"github.com/anoixa/files-manager/internal/queue"
	"github.com/anoixa/files-manager/internal/worker"
	"github.com/anoixa/files-manager/storage"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Container 依赖注入容器，持有所有显式句柄
type Container struct {
	config *config.Config

	DB      *gorm.DB
	Redis   *redis.Client
	Cache   cache.Provider
	Queue   queue.Queue
	Storage *storage.LocalStorage

	AccountsRepo *accounts.Repository
	FilesRepo    *files.Repository

	AuthService      *auth.Service
	UploadService    *filesvc.UploadService
	QueryService     *filesvc.QueryService
	DashboardService *dashboard.Service
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{config: cfg}
}

// Init 按依赖顺序初始化数据库、Redis、会话存储、队列、存储与服务
func (c *Container) Init(ctx context.Context) error {
	if err := c.InitDatabase(); err != nil {
		return err
	}
	if err := c.initBackends(ctx); err != nil {
		return err
	}
	c.initServices()
	return nil
}

// InitDatabase 只初始化数据库与仓库（migrate 命令使用）
func (c *Container) InitDatabase() error {
	db, err := database.NewDB(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	c.AccountsRepo = accounts.NewRepository(db)
	c.FilesRepo = files.NewRepository(db)
	log.Println("[Container] Database initialized")
	return nil
}

func (c *Container) initBackends(ctx context.Context) error {
	if c.config.UsesRedis() {
		client, err := redisCache.NewClient(ctx, redisCache.Config{
			Addr:     c.config.RedisAddr,
			Password: c.config.RedisPassword,
			DB:       c.config.RedisDB,
		})
		if err != nil {
			return err
		}
		c.Redis = client
		log.Printf("[Container] Connected to redis at %s", c.config.RedisAddr)
	}

	switch c.config.SessionStore {
	case "redis":
		c.Cache = redisCache.NewWithClient(c.Redis)
	case "memory", "":
		mem, err := memory.NewMemory(memory.DefaultConfig())
		if err != nil {
			return err
		}
		c.Cache = mem
	default:
		return fmt.Errorf("unsupported session store: %s", c.config.SessionStore)
	}

	switch c.config.QueueType {
	case "redis":
		c.Queue = queue.NewRedisQueue(c.Redis, c.config.QueueName, c.config.ConsumerID())
	case "memory", "":
		c.Queue = queue.NewMemoryQueue(c.config.QueueName, c.config.QueueBuffer)
	default:
		return fmt.Errorf("unsupported queue type: %s", c.config.QueueType)
	}
	log.Printf("[Container] Session store: %s, queue: %s (%s)", c.Cache.Name(), c.config.QueueType, c.Queue.Name())

	store, err := storage.NewLocalStorage(c.config.FolderPath)
	if err != nil {
		return err
	}
	c.Storage = store
	log.Printf("[Container] Storage root: %s", store.BasePath())
	return nil
}

func (c *Container) initServices() {
	sessions := auth.NewSessionStore(c.Cache)
	c.AuthService = auth.NewService(c.AccountsRepo, sessions)

	maxSize := int64(c.config.UploadMaxSizeMB) << 20
	c.UploadService = filesvc.NewUploadService(c.FilesRepo, c.Storage, c.Queue, maxSize)
	c.QueryService = filesvc.NewQueryService(c.FilesRepo, c.Storage)

	// 未配置 Redis 时 /status 的 redis 字段为 false
	var redisPing cache.Provider
	if c.Redis != nil {
		redisPing = redisCache.NewWithClient(c.Redis)
	}
	c.DashboardService = dashboard.NewService(c.DB, redisPing, c.AccountsRepo, c.FilesRepo)
}

// NewWorker 创建缩略图 worker
func (c *Container) NewWorker(renderer imagepkg.Renderer) *worker.ThumbnailWorker {
	return worker.New(c.Queue, c.FilesRepo, c.Storage, renderer, c.config.WorkerConcurrency)
}

// NewThumbnailScanner 创建缩略图补齐扫描器
func (c *Container) NewThumbnailScanner() *filesvc.ThumbnailScanner {
	return filesvc.NewThumbnailScanner(c.FilesRepo, c.Storage, c.Queue)
}

// NewOrphanCleaner 创建孤儿文件清理器
func (c *Container) NewOrphanCleaner() *filesvc.OrphanCleaner {
	return filesvc.NewOrphanCleaner(c.FilesRepo, c.Storage, c.config.OrphanGracePeriod)
}

// Config 获取配置
func (c *Container) Config() *config.Config {
	return c.config
}

// Close 关闭所有服务
func (c *Container) Close() error {
	log.Println("[Container] Closing...")

	if c.Queue != nil {
		_ = c.Queue.Close()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("[Container] Error closing redis: %v", err)
		}
	}
	if c.DB != nil {
		if err := database.Close(c.DB); err != nil {
			log.Printf("[Container] Error closing database: %v", err)
			return err
		}
	}
	return nil
}
