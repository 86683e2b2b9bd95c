package worker

import (
	"github.com/3Eeeecho/go-pdfvault/internal/config"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/extractor"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/mq"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/search"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/storage"
	"github.com/3Eeeecho/go-pdfvault/internal/repositories"
)

// StartAllWorkers 启动全部后台消费者
func StartAllWorkers(
	mqClient *mq.RabbitMQClient,
	documentRepo repositories.DocumentRepository,
	storageService storage.StorageService,
	ext extractor.Extractor,
	indexer search.Indexer,
	cfg *config.Config,
) {
	extractWorker := NewExtractWorker(mqClient, documentRepo, storageService, ext, indexer, cfg)
	extractWorker.Start()
	logger.Info("All background workers started")
}
