package router

import (
	"net/http"

	_ "github.com/3Eeeecho/go-pdfvault/docs"
	"github.com/3Eeeecho/go-pdfvault/internal/config"
	"github.com/3Eeeecho/go-pdfvault/internal/handlers"
	"github.com/3Eeeecho/go-pdfvault/internal/middlewares"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/cache"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/mq"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/search"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/storage"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-pdfvault/internal/repositories"
	"github.com/3Eeeecho/go-pdfvault/internal/services/admin"
	"github.com/3Eeeecho/go-pdfvault/internal/services/explorer"
	"github.com/3Eeeecho/go-pdfvault/internal/services/share"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// RouterConfig 包含初始化路由所需的所有依赖
type RouterConfig struct {
	db             *gorm.DB
	redisClient    *redis.Client
	storageService storage.StorageService
	mqClient       *mq.RabbitMQClient
	indexer        search.Indexer
	cfg            *config.Config
}

func NewRouterConfig(
	db *gorm.DB,
	redisClient *redis.Client,
	storageService storage.StorageService,
	mqClient *mq.RabbitMQClient,
	indexer search.Indexer,
	cfg *config.Config,
) *RouterConfig {
	return &RouterConfig{
		db:             db,
		redisClient:    redisClient,
		storageService: storageService,
		mqClient:       mqClient,
		indexer:        indexer,
		cfg:            cfg,
	}
}

func InitRouter(routerCfg *RouterConfig) *gin.Engine {
	router := gin.Default() // 使用默认的 Gin 引擎，包含 Logger 和 Recovery 中间件

	// Health Check 路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 组装依赖图：repo -> service -> handler
	cacheService := cache.NewRedisCache(routerCfg.redisClient)
	userRepo := repositories.NewUserRepository(routerCfg.db)
	documentRepo := repositories.NewDocumentRepository(
		repositories.NewDBDocumentRepository(routerCfg.db), cacheService)
	shareRepo := repositories.NewShareRepository(routerCfg.db)

	authService := admin.NewAuthService(userRepo, routerCfg.cfg)
	userService := admin.NewUserService(userRepo)
	documentService := explorer.NewDocumentService(
		documentRepo, routerCfg.storageService, routerCfg.mqClient, routerCfg.indexer, routerCfg.cfg)
	shareService := share.NewShareService(
		shareRepo, documentRepo, share.NewTokenGenerator(routerCfg.cfg.Share.TokenBytes), routerCfg.cfg)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	documentHandler := handlers.NewDocumentHandler(documentService)
	shareHandler := handlers.NewShareHandler(shareService, documentService)
	adminHandler := handlers.NewAdminHandler(userService, documentService)

	// 公开访问的分享路由（无需登录）
	sharedGroup := router.Group("/shared")
	{
		sharedGroup.GET("/:token", shareHandler.ViewShared)
		sharedGroup.GET("/:token/download", shareHandler.DownloadShared)
	}

	v1 := router.Group("/api/v1")
	{
		// 认证相关路由 (无需认证)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// 需要认证的路由组
		authenticated := v1.Group("/")
		authenticated.Use(middlewares.AuthMiddleware(routerCfg.cfg))

		userGroup := authenticated.Group("/users")
		{
			userGroup.GET("/me", userHandler.Profile)
		}

		documentGroup := authenticated.Group("/documents")
		{
			documentGroup.POST("", documentHandler.Upload)
			documentGroup.GET("", documentHandler.List)
			documentGroup.GET("/search", documentHandler.Search)
			documentGroup.GET("/:id", documentHandler.Get)
			documentGroup.GET("/:id/download", documentHandler.Download)
			documentGroup.GET("/:id/url", documentHandler.PresignedURL)
			documentGroup.GET("/:id/thumbnail", documentHandler.Thumbnail)
			documentGroup.DELETE("/:id", documentHandler.Delete)
		}

		shareGroup := authenticated.Group("/shares")
		{
			shareGroup.POST("", shareHandler.CreateShare)
			shareGroup.GET("/my", shareHandler.ListMyShares)
			shareGroup.DELETE("/:token", shareHandler.RevokeShare)
		}

		adminGroup := authenticated.Group("/admin")
		adminGroup.Use(middlewares.AdminMiddleware())
		{
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.GET("/documents", adminHandler.ListDocuments)
			adminGroup.DELETE("/documents/:id", adminHandler.DeleteDocument)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		xerr.Error(c, http.StatusNotFound, xerr.NotFoundCode, "Route not found")
	})

	return router
}
