package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/models"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/cache"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"go.uber.org/zap"
)

// cachedDocumentRepository 在数据库实现外包了一层 Redis 缓存
// 只缓存单个文档的元数据读取，列表和检索始终走数据库
type cachedDocumentRepository struct {
	inner    DocumentRepository
	cache    cache.Cache
	cacheTTL time.Duration
}

var _ DocumentRepository = (*cachedDocumentRepository)(nil)

// NewDocumentRepository 创建带缓存的 DocumentRepository
func NewDocumentRepository(inner DocumentRepository, c cache.Cache) DocumentRepository {
	return &cachedDocumentRepository{
		inner:    inner,
		cache:    c,
		cacheTTL: 10 * time.Minute,
	}
}

func (r *cachedDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.inner.Create(ctx, doc)
}

func (r *cachedDocumentRepository) FindByID(ctx context.Context, id uint64) (*models.Document, error) {
	key := cache.GenerateDocumentKey(id)

	var cached models.Document
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		// 缓存故障不阻塞读取，直接回源数据库
		logger.Warn("FindByID: 读取文档缓存失败，回源数据库", zap.Uint64("id", id), zap.Error(err))
	}

	doc, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, doc, r.cacheTTL); err != nil {
		logger.Warn("FindByID: 写入文档缓存失败", zap.Uint64("id", id), zap.Error(err))
	}
	return doc, nil
}

func (r *cachedDocumentRepository) FindByIDs(ctx context.Context, ids []uint64) ([]models.Document, error) {
	return r.inner.FindByIDs(ctx, ids)
}

func (r *cachedDocumentRepository) FindByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]models.Document, int64, error) {
	return r.inner.FindByUserID(ctx, userID, page, pageSize)
}

func (r *cachedDocumentRepository) FindAll(ctx context.Context, page, pageSize int) ([]models.Document, int64, error) {
	return r.inner.FindAll(ctx, page, pageSize)
}

func (r *cachedDocumentRepository) SearchLike(ctx context.Context, userID uint64, query, mode string) ([]models.Document, error) {
	return r.inner.SearchLike(ctx, userID, query, mode)
}

func (r *cachedDocumentRepository) UpdateExtraction(ctx context.Context, doc *models.Document) error {
	if err := r.inner.UpdateExtraction(ctx, doc); err != nil {
		return err
	}
	r.invalidate(ctx, doc.ID)
	return nil
}

func (r *cachedDocumentRepository) Delete(ctx context.Context, id uint64) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cachedDocumentRepository) invalidate(ctx context.Context, id uint64) {
	if err := r.cache.Del(ctx, cache.GenerateDocumentKey(id)); err != nil {
		logger.Warn("清理文档缓存失败", zap.Uint64("id", id), zap.Error(err))
	}
}
