package dashboard

import (
	"context"
	"time"

	"github.com/anoixa/files-manager/cache"
	"github.com/anoixa/files-manager/database"
	"github.com/anoixa/files-manager/database/repo/accounts"
	"github.com/anoixa/files-manager/database/repo/files"
	"gorm.io/gorm"
)

const checkTimeout = 2 * time.Second

// Status 后端连通性
// 未配置 Redis（会话与队列都在内存中）时 Redis 为 false，与不可达无法区分
type Status struct {
	Redis bool `json:"redis"`
	DB    bool `json:"db"`
}

// Stats 数量统计
type Stats struct {
	Users int64 `json:"users"`
	Files int64 `json:"files"`
}

// Service /status 与 /stats 的数据来源
type Service struct {
	db    *gorm.DB
	redis cache.Provider
	users *accounts.Repository
	files *files.Repository
}

// NewService 创建统计服务，redis 为 nil 表示未使用 Redis
func NewService(db *gorm.DB, redis cache.Provider, users *accounts.Repository, files *files.Repository) *Service {
	return &Service{
		db:    db,
		redis: redis,
		users: users,
		files: files,
	}
}

// Status 检查 Redis 与数据库是否可用
func (s *Service) Status(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	return Status{
		Redis: s.redis != nil && s.redis.Ping(ctx) == nil,
		DB:    s.db != nil && database.Ping(ctx, s.db) == nil,
	}
}

// Stats 统计用户数与文件记录数
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.files.CountFiles(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Users: users, Files: total}, nil
}
