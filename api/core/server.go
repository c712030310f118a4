package core

import (
	"net/http"
	"time"

	"github.com/anoixa/files-manager/api/middleware"
	"github.com/anoixa/files-manager/config"
	"github.com/anoixa/files-manager/internal/app"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	// 请求体中除文件内容外的 JSON 字段余量
	bodySlack = 1 << 20
	// 上传名额已满时的最长排队时间
	uploadQueueWait = 2 * time.Second
)

// uploadBodyLimit base64 编码后的请求体上限
func uploadBodyLimit(maxSizeMB int) int64 {
	if maxSizeMB <= 0 {
		return 0
	}
	decoded := int64(maxSizeMB) << 20
	return decoded/3*4 + 4 + bodySlack
}

// 启动gin
func setupRouter(container *app.Container) (*gin.Engine, func()) {
	cfg := container.Config()
	router := gin.New()

	// 仅在开发版本时启用 gin 日志
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "HEAD", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.TokenHeader},
		MaxAge:          12 * time.Hour,
	}))

	_ = router.SetTrustedProxies(nil)

	authRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		authRateLimiter.StopCleanup()
	}

	RegisterRoutes(router, &RouterDependencies{
		Container:          container,
		AuthRateLimiter:    authRateLimiter,
		UploadLimiter:      middleware.NewUploadLimiter(int64(cfg.UploadConcurrency), uploadQueueWait),
		UploadBodyMaxBytes: uploadBodyLimit(cfg.UploadMaxSizeMB),
	})

	return router, cleanup
}

// NewServer 创建 http.Server，返回的函数用于停止限流器的后台清理
func NewServer(container *app.Container) (*http.Server, func()) {
	cfg := container.Config()
	router, clean := setupRouter(container)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
