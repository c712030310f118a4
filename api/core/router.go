package core

import (
	authHandler "github.com/anoixa/files-manager/api/handler/auth"
	filesHandler "github.com/anoixa/files-manager/api/handler/files"
	usersHandler "github.com/anoixa/files-manager/api/handler/users"
	"github.com/anoixa/files-manager/api/middleware"
	"github.com/anoixa/files-manager/internal/app"
	"github.com/gin-gonic/gin"
)

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	Container          *app.Container
	AuthRateLimiter    *middleware.IPRateLimiter
	UploadLimiter      *middleware.UploadLimiter
	UploadBodyMaxBytes int64
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	registerBasicRoutes(router, deps)
	registerAuthRoutes(router, deps)
	registerFileRoutes(router, deps)
}

// registerBasicRoutes 注册 /status 与 /stats
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	healthHandler := NewHealthHandler(deps.Container.DashboardService)
	router.GET("/status", healthHandler.Status)
	router.GET("/stats", healthHandler.Stats)
}

// registerAuthRoutes 注册登录与用户路由
func registerAuthRoutes(router *gin.Engine, deps *RouterDependencies) {
	authService := deps.Container.AuthService
	loginHandler := authHandler.NewHandler(authService)
	userHandler := usersHandler.NewHandler(authService)

	authGroup := router.Group("")
	authGroup.Use(middleware.NoStore())
	{
		authGroup.GET("/connect", deps.AuthRateLimiter.Middleware(), loginHandler.Connect)
		authGroup.GET("/disconnect", middleware.RequireToken(authService), loginHandler.Disconnect)

		authGroup.POST("/users", deps.AuthRateLimiter.Middleware(), userHandler.Create)
		authGroup.GET("/users/me", middleware.RequireToken(authService), userHandler.Me)
	}
}

// registerFileRoutes 注册文件路由
func registerFileRoutes(router *gin.Engine, deps *RouterDependencies) {
	c := deps.Container
	fileHandler := filesHandler.NewHandler(c.UploadService, c.QueryService)

	// 内容接口允许匿名访问公开文件
	router.GET("/files/:id/data", middleware.OptionalToken(c.AuthService), fileHandler.Data)

	filesGroup := router.Group("/files")
	filesGroup.Use(middleware.NoStore())
	filesGroup.Use(middleware.RequireToken(c.AuthService))
	{
		filesGroup.POST("",
			deps.UploadLimiter.Middleware(),
			middleware.MaxBodySize(deps.UploadBodyMaxBytes),
			fileHandler.Upload,
		)
		filesGroup.GET("", fileHandler.Index)
		filesGroup.GET("/:id", fileHandler.Show)
		filesGroup.PUT("/:id/publish", fileHandler.Publish)
		filesGroup.PUT("/:id/unpublish", fileHandler.Unpublish)
	}
}
