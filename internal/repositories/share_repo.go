package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/models"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
	"gorm.io/gorm"
)

// ShareRepository 是分享记录的持久化接口
//
// 实现要求：token 列必须有唯一约束（它是防止 token 复用的权威闸门），
// RecordAccess 必须是存储层的原子自增，而不是调用方读改写。
type ShareRepository interface {
	// Create 插入一条分享记录。token 与已有记录冲突时返回 gorm.ErrDuplicatedKey，
	// 调用方据此换一个 token 重试
	Create(ctx context.Context, share *models.Share) error
	// FindByToken 按 token 查找。未找到返回 (nil, nil)；
	// 基础设施错误返回非 nil error，调用方不得将其当作"不存在"
	FindByToken(ctx context.Context, token string) (*models.Share, error)
	// FindAllByUserID 列出某用户创建的全部分享，按创建时间倒序
	FindAllByUserID(ctx context.Context, userID uint64) ([]models.Share, error)
	// RecordAccess 原子地将访问计数加一并刷新最后访问时间，
	// 等价于 UPDATE ... SET current_access_count = current_access_count + 1
	RecordAccess(ctx context.Context, token string, now time.Time) error
	// Delete 硬删除分享记录。删除是终态，token 不会被重新签发
	Delete(ctx context.Context, shareID uint64) error
}

type shareRepository struct {
	db *gorm.DB
}

var _ ShareRepository = (*shareRepository)(nil)

// NewShareRepository 创建新的 shareRepository 实例
func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) Create(ctx context.Context, share *models.Share) error {
	err := r.db.WithContext(ctx).Create(share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return err // token 冲突原样上抛，由服务层重试
		}
		return fmt.Errorf("%w: 创建分享记录失败: %v", xerr.ErrDatabaseError, err)
	}
	return nil
}

func (r *shareRepository) FindByToken(ctx context.Context, token string) (*models.Share, error) {
	var share models.Share
	err := r.db.WithContext(ctx).Preload("Document").Where("token = ?", token).First(&share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: 查询分享记录失败: %v", xerr.ErrDatabaseError, err)
	}
	return &share, nil
}

func (r *shareRepository) FindAllByUserID(ctx context.Context, userID uint64) ([]models.Share, error) {
	var shares []models.Share
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Preload("Document").
		Find(&shares).Error
	if err != nil {
		return nil, fmt.Errorf("%w: 查询分享列表失败: %v", xerr.ErrDatabaseError, err)
	}
	return shares, nil
}

func (r *shareRepository) RecordAccess(ctx context.Context, token string, now time.Time) error {
	// 单条 UPDATE 语句完成计数自增，并发请求在存储层串行化
	res := r.db.WithContext(ctx).Model(&models.Share{}).
		Where("token = ?", token).
		UpdateColumns(map[string]any{
			"current_access_count": gorm.Expr("current_access_count + 1"),
			"last_accessed_at":     now,
		})
	if res.Error != nil {
		return fmt.Errorf("%w: 记录分享访问失败: %v", xerr.ErrDatabaseError, res.Error)
	}
	if res.RowsAffected == 0 {
		return xerr.ErrShareNotFound
	}
	return nil
}

func (r *shareRepository) Delete(ctx context.Context, shareID uint64) error {
	// Share 模型没有 DeletedAt 字段，Delete 即物理删除
	res := r.db.WithContext(ctx).Delete(&models.Share{}, shareID)
	if res.Error != nil {
		return fmt.Errorf("%w: 删除分享记录失败: %v", xerr.ErrDatabaseError, res.Error)
	}
	if res.RowsAffected == 0 {
		return xerr.ErrShareNotFound
	}
	return nil
}
