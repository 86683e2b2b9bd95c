package explorer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/config"
	"github.com/3Eeeecho/go-pdfvault/internal/models"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/mq"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/search"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/storage"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-pdfvault/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExtractQueueName 是文档解析任务队列名
const ExtractQueueName = "document_extract_queue"

// DocumentService 定义了 PDF 文档管理的业务接口
type DocumentService interface {
	// Upload 接收上传的 PDF，写入对象存储并投递解析任务
	Upload(ctx context.Context, userID uint64, originalFilename string, size int64, reader io.Reader) (*models.Document, error)
	// GetDocument 获取文档元数据，非属主只能访问公开文档
	GetDocument(ctx context.Context, userID, documentID uint64) (*models.Document, error)
	// GetByID 不做属主校验的内部读取，供分享访问路径使用
	GetByID(ctx context.Context, documentID uint64) (*models.Document, error)
	// DocumentExists 判断文档是否存在
	DocumentExists(ctx context.Context, documentID uint64) (bool, error)
	ListUserDocuments(ctx context.Context, userID uint64, page int) ([]models.Document, int64, error)
	ListAllDocuments(ctx context.Context, page int) ([]models.Document, int64, error) // 管理员视图
	// Search 按文件名/内容检索当前用户的文档
	Search(ctx context.Context, userID uint64, query, mode string) ([]models.Document, error)
	// OpenContent 打开文档内容读取器，调用方负责关闭
	OpenContent(ctx context.Context, doc *models.Document) (io.ReadCloser, error)
	// PresignedURL 生成限时下载链接
	PresignedURL(ctx context.Context, doc *models.Document) (string, error)
	// OpenThumbnail 打开缩略图读取器，没有缩略图时返回 ErrDocumentNotFound
	OpenThumbnail(ctx context.Context, doc *models.Document) (io.ReadCloser, error)
	// Delete 删除文档（属主或管理员），同时清理对象存储与检索索引
	Delete(ctx context.Context, requesterID uint64, requesterIsAdmin bool, documentID uint64) error
}

type documentService struct {
	documentRepo repositories.DocumentRepository
	storageSvc   storage.StorageService
	mqClient     *mq.RabbitMQClient
	indexer      search.Indexer
	useIndex     bool
	cfg          *config.Config
}

var _ DocumentService = (*documentService)(nil)

// NewDocumentService 创建一个新的 DocumentService 实例
func NewDocumentService(
	documentRepo repositories.DocumentRepository,
	storageSvc storage.StorageService,
	mqClient *mq.RabbitMQClient,
	indexer search.Indexer,
	cfg *config.Config,
) DocumentService {
	return &documentService{
		documentRepo: documentRepo,
		storageSvc:   storageSvc,
		mqClient:     mqClient,
		indexer:      indexer,
		useIndex:     cfg.Elasticsearch.Enabled,
		cfg:          cfg,
	}
}

func (s *documentService) bucketName() string {
	if s.cfg.Storage.Type == "aliyun_oss" {
		return s.cfg.AliyunOSS.BucketName
	}
	return s.cfg.MinIO.BucketName
}

// Upload 处理 PDF 上传
func (s *documentService) Upload(ctx context.Context, userID uint64, originalFilename string, size int64, reader io.Reader) (*models.Document, error) {
	// 1. 基本校验：扩展名白名单和大小上限
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if ext != ".pdf" {
		return nil, xerr.ErrFileTypeInvalid
	}
	if size <= 0 || size > s.cfg.Upload.MaxFileSize {
		return nil, xerr.ErrFileTooLarge
	}

	// 2. 以 UUID 作为对象键写入存储，同时计算 MD5
	docUUID := uuid.New().String()
	objectKey := fmt.Sprintf("documents/%s.pdf", docUUID)
	hasher := md5.New()
	tee := io.TeeReader(reader, hasher)

	result, err := s.storageSvc.PutObject(ctx, s.bucketName(), objectKey, tee, size, "application/pdf")
	if err != nil {
		logger.Error("Upload: 写入对象存储失败", zap.String("objectKey", objectKey), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	md5Hash := hex.EncodeToString(hasher.Sum(nil))

	// 3. 创建文档记录，解析产物由后台 Worker 回填
	doc := &models.Document{
		UUID:             docUUID,
		UserID:           userID,
		FileName:         fmt.Sprintf("%s.pdf", docUUID),
		OriginalFilename: originalFilename,
		OssBucket:        result.Bucket,
		OssKey:           result.Key,
		Size:             uint64(size),
		MD5Hash:          &md5Hash,
		IsPublic:         true,
		Status:           models.DocumentStatusPending,
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		// 落库失败时尽量清理已写入的对象，避免孤儿文件
		if rmErr := s.storageSvc.RemoveObject(ctx, result.Bucket, result.Key); rmErr != nil {
			logger.Error("Upload: 清理孤儿对象失败", zap.String("objectKey", result.Key), zap.Error(rmErr))
		}
		return nil, err
	}

	// 4. 投递解析任务。投递失败不阻塞上传，文档停留在 Pending 状态
	task := models.ExtractTask{
		DocumentID: doc.ID,
		OssBucket:  doc.OssBucket,
		OssKey:     doc.OssKey,
	}
	body, _ := json.Marshal(task)
	if err := s.mqClient.Publish(ExtractQueueName, body); err != nil {
		logger.Error("Upload: 投递解析任务失败", zap.Uint64("documentID", doc.ID), zap.Error(err))
	}

	logger.Info("Upload: 文档上传成功",
		zap.Uint64("documentID", doc.ID),
		zap.Uint64("userID", userID),
		zap.String("filename", originalFilename),
		zap.Int64("size", size))
	return doc, nil
}

func (s *documentService) GetDocument(ctx context.Context, userID, documentID uint64) (*models.Document, error) {
	doc, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID && !doc.IsPublic {
		return nil, xerr.ErrPermissionDenied
	}
	return doc, nil
}

func (s *documentService) GetByID(ctx context.Context, documentID uint64) (*models.Document, error) {
	return s.documentRepo.FindByID(ctx, documentID)
}

func (s *documentService) DocumentExists(ctx context.Context, documentID uint64) (bool, error) {
	_, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		if err == xerr.ErrDocumentNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *documentService) ListUserDocuments(ctx context.Context, userID uint64, page int) ([]models.Document, int64, error) {
	if page < 1 {
		page = 1
	}
	return s.documentRepo.FindByUserID(ctx, userID, page, s.cfg.Upload.PageSize)
}

func (s *documentService) ListAllDocuments(ctx context.Context, page int) ([]models.Document, int64, error) {
	if page < 1 {
		page = 1
	}
	return s.documentRepo.FindAll(ctx, page, s.cfg.Upload.PageSize)
}

// Search 优先走 Elasticsearch，不可用或出错时降级为数据库 LIKE
func (s *documentService) Search(ctx context.Context, userID uint64, query, mode string) ([]models.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, xerr.ErrInvalidParams
	}

	if s.useIndex {
		ids, err := s.indexer.Search(ctx, userID, query, mode)
		if err == nil {
			return s.documentRepo.FindByIDs(ctx, ids)
		}
		logger.Warn("Search: 检索服务不可用，降级为数据库查询", zap.Error(err))
	}
	return s.documentRepo.SearchLike(ctx, userID, query, mode)
}

func (s *documentService) OpenContent(ctx context.Context, doc *models.Document) (io.ReadCloser, error) {
	result, err := s.storageSvc.GetObject(ctx, doc.OssBucket, doc.OssKey)
	if err != nil {
		logger.Error("OpenContent: 读取文档内容失败",
			zap.Uint64("documentID", doc.ID), zap.String("ossKey", doc.OssKey), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	return result.Reader, nil
}

func (s *documentService) PresignedURL(ctx context.Context, doc *models.Document) (string, error) {
	expiry := time.Duration(s.cfg.Storage.PresignedURLExpiry) * time.Minute
	url, err := s.storageSvc.PresignedGetURL(ctx, doc.OssBucket, doc.OssKey, doc.OriginalFilename, expiry)
	if err != nil {
		logger.Error("PresignedURL: 生成预签名URL失败", zap.Uint64("documentID", doc.ID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	return url, nil
}

func (s *documentService) OpenThumbnail(ctx context.Context, doc *models.Document) (io.ReadCloser, error) {
	if doc.ThumbnailKey == nil || *doc.ThumbnailKey == "" {
		return nil, xerr.ErrDocumentNotFound
	}
	result, err := s.storageSvc.GetObject(ctx, doc.OssBucket, *doc.ThumbnailKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerr.ErrStorageError, err)
	}
	return result.Reader, nil
}

func (s *documentService) Delete(ctx context.Context, requesterID uint64, requesterIsAdmin bool, documentID uint64) error {
	doc, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.UserID != requesterID && !requesterIsAdmin {
		return xerr.ErrPermissionDenied
	}

	if err := s.documentRepo.Delete(ctx, documentID); err != nil {
		return err
	}

	// 对象存储与索引的清理是尽力而为的，失败只记日志
	if err := s.storageSvc.RemoveObject(ctx, doc.OssBucket, doc.OssKey); err != nil {
		logger.Error("Delete: 删除存储对象失败", zap.String("ossKey", doc.OssKey), zap.Error(err))
	}
	if doc.ThumbnailKey != nil && *doc.ThumbnailKey != "" {
		if err := s.storageSvc.RemoveObject(ctx, doc.OssBucket, *doc.ThumbnailKey); err != nil {
			logger.Error("Delete: 删除缩略图失败", zap.String("thumbnailKey", *doc.ThumbnailKey), zap.Error(err))
		}
	}
	if s.useIndex {
		if err := s.indexer.Remove(ctx, documentID); err != nil {
			logger.Error("Delete: 清理检索索引失败", zap.Uint64("documentID", documentID), zap.Error(err))
		}
	}

	logger.Info("Delete: 文档已删除", zap.Uint64("documentID", documentID), zap.Uint64("requesterID", requesterID))
	return nil
}
