package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-pdfvault/internal/models"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/search"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentRepository 是文档元数据的持久化接口
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id uint64) (*models.Document, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]models.Document, error)
	FindByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]models.Document, int64, error)
	FindAll(ctx context.Context, page, pageSize int) ([]models.Document, int64, error)
	// SearchLike 是数据库 LIKE 检索，作为 Elasticsearch 不可用时的降级路径
	SearchLike(ctx context.Context, userID uint64, query, mode string) ([]models.Document, error)
	// UpdateExtraction 回填后台解析产物（页数、元数据、文本、缩略图键）
	UpdateExtraction(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id uint64) error
}

// dbDocumentRepository 直接操作数据库的实现
type dbDocumentRepository struct {
	db *gorm.DB
}

var _ DocumentRepository = (*dbDocumentRepository)(nil)

// NewDBDocumentRepository 创建直连数据库的 DocumentRepository
func NewDBDocumentRepository(db *gorm.DB) DocumentRepository {
	return &dbDocumentRepository{db: db}
}

func (r *dbDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	err := r.db.WithContext(ctx).Create(doc).Error
	if err != nil {
		logger.Error("Create: Failed to create document in DB",
			zap.Uint64("userID", doc.UserID), zap.String("fileName", doc.FileName), zap.Error(err))
		return fmt.Errorf("%w: 创建文档记录失败: %v", xerr.ErrDatabaseError, err)
	}
	return nil
}

func (r *dbDocumentRepository) FindByID(ctx context.Context, id uint64) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).First(&doc, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("%w: 查询文档失败: %v", xerr.ErrDatabaseError, err)
	}
	return &doc, nil
}

func (r *dbDocumentRepository) FindByIDs(ctx context.Context, ids []uint64) ([]models.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var docs []models.Document
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: 批量查询文档失败: %v", xerr.ErrDatabaseError, err)
	}
	return docs, nil
}

func (r *dbDocumentRepository) FindByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]models.Document, int64, error) {
	var docs []models.Document
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Document{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: 统计文档总数失败: %v", xerr.ErrDatabaseError, err)
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&docs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: 查询文档列表失败: %v", xerr.ErrDatabaseError, err)
	}
	return docs, total, nil
}

func (r *dbDocumentRepository) FindAll(ctx context.Context, page, pageSize int) ([]models.Document, int64, error) {
	var docs []models.Document
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Document{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: 统计文档总数失败: %v", xerr.ErrDatabaseError, err)
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Preload("User").Find(&docs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: 查询全部文档失败: %v", xerr.ErrDatabaseError, err)
	}
	return docs, total, nil
}

func (r *dbDocumentRepository) SearchLike(ctx context.Context, userID uint64, query, mode string) ([]models.Document, error) {
	pattern := "%" + query + "%"
	q := r.db.WithContext(ctx).Model(&models.Document{}).Where("user_id = ?", userID)

	switch mode {
	case search.ModeFilename:
		q = q.Where("original_filename LIKE ? OR title LIKE ?", pattern, pattern)
	case search.ModeContent:
		q = q.Where("extracted_text LIKE ?", pattern)
	default:
		q = q.Where("original_filename LIKE ? OR title LIKE ? OR author LIKE ? OR extracted_text LIKE ?",
			pattern, pattern, pattern, pattern)
	}

	var docs []models.Document
	if err := q.Order("created_at desc").Limit(100).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("%w: 文档检索失败: %v", xerr.ErrDatabaseError, err)
	}
	return docs, nil
}

func (r *dbDocumentRepository) UpdateExtraction(ctx context.Context, doc *models.Document) error {
	err := r.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", doc.ID).
		Updates(map[string]any{
			"page_count":     doc.PageCount,
			"title":          doc.Title,
			"author":         doc.Author,
			"subject":        doc.Subject,
			"extracted_text": doc.ExtractedText,
			"thumbnail_key":  doc.ThumbnailKey,
			"status":         doc.Status,
		}).Error
	if err != nil {
		return fmt.Errorf("%w: 回填文档解析结果失败: %v", xerr.ErrDatabaseError, err)
	}
	return nil
}

func (r *dbDocumentRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&models.Document{}, id)
	if res.Error != nil {
		return fmt.Errorf("%w: 删除文档失败: %v", xerr.ErrDatabaseError, res.Error)
	}
	if res.RowsAffected == 0 {
		return xerr.ErrDocumentNotFound
	}
	return nil
}
