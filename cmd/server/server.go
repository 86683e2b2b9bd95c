package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/config"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/extractor"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/mq"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/mq/worker"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/search"
	"github.com/3Eeeecho/go-pdfvault/internal/repositories"
	"github.com/3Eeeecho/go-pdfvault/internal/router"
	"github.com/3Eeeecho/go-pdfvault/internal/setup"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	router         *gin.Engine
	httpServer     *http.Server
	db             *gorm.DB
	redisClient    *redis.Client
	rabbitMQClient *mq.RabbitMQClient
}

// NewServer 负责构建所有依赖
func NewServer(cfg *config.Config) *Server {
	// 初始化数据库连接（含自动迁移）
	setup.InitMySQL(&cfg.MySQL)

	// 初始化 Redis 连接
	setup.InitRedis(cfg)

	// 初始化对象存储并确保文档桶可用
	storageService := setup.InitStorage(cfg)

	// 初始化全文检索。未启用时退化为数据库 LIKE 查询
	var indexer search.Indexer = search.NoopIndexer{}
	if cfg.Elasticsearch.Enabled {
		setup.InitElasticsearchClient(&cfg.Elasticsearch)
		indexer = search.NewESIndexer(setup.EsClient, cfg.Elasticsearch.Index)
	}

	// 初始化 RabbitMQ
	rabbitMQClient, err := mq.NewRabbitMQClient(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}

	// 启动后台解析 Worker。Worker 直接读数据库，绕开缓存装饰器
	documentRepo := repositories.NewDBDocumentRepository(setup.DB)
	worker.StartAllWorkers(rabbitMQClient, documentRepo, storageService,
		extractor.NewPDFExtractor(), indexer, cfg)

	// 初始化 Gin 引擎和注册路由
	routerCfg := router.NewRouterConfig(setup.DB, setup.RedisClientGlobal, storageService, rabbitMQClient, indexer, cfg)
	engine := router.InitRouter(routerCfg)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: engine,
	}

	return &Server{
		router:         engine,
		httpServer:     httpServer,
		db:             setup.DB,
		redisClient:    setup.RedisClientGlobal,
		rabbitMQClient: rabbitMQClient,
	}
}

// Run 启动服务器并处理优雅关机
func (s *Server) Run(ctx context.Context, stopChan chan os.Signal) {
	// 确保在应用关闭时，所有连接都被释放
	// GORM v2 依赖连接池，通常不需要手动关闭。Redis和MQ需要
	defer s.rabbitMQClient.Close()
	defer setup.CloseRedis()

	// 启动 HTTP 服务器
	go func() {
		logger.Info("Server is running", zap.String("port", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// 等待停止信号
	<-stopChan
	logger.Info("Shutting down server...")

	// 优雅关机
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited gracefully")
}
