package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/config"
	"github.com/3Eeeecho/go-pdfvault/internal/models"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/extractor"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/mq"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/search"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/storage"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-pdfvault/internal/repositories"
	"github.com/3Eeeecho/go-pdfvault/internal/services/explorer"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// ExtractWorker 消费文档解析任务：读取 PDF 内容，提取页数/元数据/文本，
// 回填文档记录并写入检索索引
type ExtractWorker struct {
	mqClient       *mq.RabbitMQClient
	documentRepo   repositories.DocumentRepository
	storageService storage.StorageService
	ext            extractor.Extractor
	indexer        search.Indexer
	cfg            *config.Config
}

func NewExtractWorker(
	mqClient *mq.RabbitMQClient,
	documentRepo repositories.DocumentRepository,
	storageService storage.StorageService,
	ext extractor.Extractor,
	indexer search.Indexer,
	cfg *config.Config,
) *ExtractWorker {
	return &ExtractWorker{
		mqClient:       mqClient,
		documentRepo:   documentRepo,
		storageService: storageService,
		ext:            ext,
		indexer:        indexer,
		cfg:            cfg,
	}
}

func (w *ExtractWorker) Start() {
	if _, err := w.mqClient.DeclareQueue(explorer.ExtractQueueName); err != nil {
		logger.Fatal("Failed to declare extract queue", zap.Error(err))
	}
	if err := w.mqClient.Consume(explorer.ExtractQueueName, w.HandleExtractTask); err != nil {
		logger.Fatal("Failed to start consuming extract queue", zap.Error(err))
	}
	logger.Info("Extract worker started...")
}

func (w *ExtractWorker) HandleExtractTask(msg amqp.Delivery) {
	var task models.ExtractTask
	if err := json.Unmarshal(msg.Body, &task); err != nil {
		logger.Error("Failed to unmarshal extract task", zap.Error(err))
		_ = msg.Nack(false, false) // 解析失败,直接抛弃
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := w.process(ctx, &task); err != nil {
		logger.Error("Extract task failed",
			zap.Uint64("documentID", task.DocumentID),
			zap.Error(err))
		// 文档已不存在则没有重试的意义
		if errors.Is(err, xerr.ErrDocumentNotFound) {
			_ = msg.Nack(false, false)
			return
		}
		// 其余失败重回队列等待重试（存储或数据库抖动）
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}

func (w *ExtractWorker) process(ctx context.Context, task *models.ExtractTask) error {
	doc, err := w.documentRepo.FindByID(ctx, task.DocumentID)
	if err != nil {
		return err
	}

	// 1. 从对象存储读取 PDF 内容
	obj, err := w.storageService.GetObject(ctx, task.OssBucket, task.OssKey)
	if err != nil {
		return fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	defer obj.Reader.Close()

	// 2. 解析失败时标记 Failed，文档仍可下载原始文件
	result, err := w.ext.Extract(ctx, obj.Reader)
	if err != nil {
		logger.Warn("PDF 解析失败，标记为 Failed",
			zap.Uint64("documentID", doc.ID), zap.Error(err))
		doc.Status = models.DocumentStatusFailed
		return w.documentRepo.UpdateExtraction(ctx, doc)
	}

	// 3. 回填解析产物
	if result.PageCount > 0 {
		pages := result.PageCount
		doc.PageCount = &pages
	}
	if result.Title != "" {
		doc.Title = &result.Title
	}
	if result.Author != "" {
		doc.Author = &result.Author
	}
	if result.Subject != "" {
		doc.Subject = &result.Subject
	}
	doc.ExtractedText = result.Text

	// 4. 有缩略图则写入对象存储
	if len(result.Thumbnail) > 0 {
		thumbKey := fmt.Sprintf("thumbnails/%s.png", doc.UUID)
		if _, err := w.storageService.PutObject(ctx, doc.OssBucket, thumbKey,
			bytes.NewReader(result.Thumbnail), int64(len(result.Thumbnail)), "image/png"); err != nil {
			logger.Warn("写入缩略图失败", zap.Uint64("documentID", doc.ID), zap.Error(err))
		} else {
			doc.ThumbnailKey = &thumbKey
		}
	}

	doc.Status = models.DocumentStatusReady
	if err := w.documentRepo.UpdateExtraction(ctx, doc); err != nil {
		return err
	}

	// 5. 写入检索索引，失败只记日志（检索是可降级能力）
	indexed := &search.IndexedDocument{
		ID:       doc.ID,
		UserID:   doc.UserID,
		Filename: doc.OriginalFilename,
		Title:    result.Title,
		Author:   result.Author,
		Subject:  result.Subject,
		Content:  result.Text,
		IsPublic: doc.IsPublic,
	}
	if err := w.indexer.Index(ctx, indexed); err != nil {
		logger.Error("写入检索索引失败", zap.Uint64("documentID", doc.ID), zap.Error(err))
	}

	logger.Info("文档解析完成",
		zap.Uint64("documentID", doc.ID),
		zap.Int("pageCount", result.PageCount))
	return nil
}
