package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/config"
	"github.com/3Eeeecho/go-pdfvault/internal/models"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-pdfvault/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateShareOptions 是创建分享时的可选项
type CreateShareOptions struct {
	AllowDownload bool
	Password      string // 非空时访问需要校验密码
	Description   string
}

// ShareService 定义了分享链接生命周期的业务接口
//
// 访问解析（ResolveAccess）和访问记录（RecordAccess）是分开的两步：
// 解析不产生任何写入，由 Web 层决定一次用户交互记多少次访问。
// 当前的调用约定：内容查看页记一次访问，对已解析分享的下载不再重复计数。
type ShareService interface {
	// CreateShare 为指定文档创建分享链接，按过期策略计算过期时间和次数上限
	CreateShare(ctx context.Context, userID, documentID uint64, policy ExpirationPolicy, opts CreateShareOptions) (*models.Share, error)
	// ResolveAccess 按 token 解析一次访问请求。
	// 返回 (share, nil) 表示允许访问；否则返回下列哨兵错误之一：
	// ErrShareNotFound / ErrShareExpired / ErrShareQuotaExhausted /
	// ErrSharePasswordRequired / ErrSharePasswordIncorrect。
	// 存储故障包裹 ErrDatabaseError 上抛，不会被误报为"不存在"
	ResolveAccess(ctx context.Context, token string, providedPassword *string) (*models.Share, error)
	// RecordAccess 原子地记一次访问。写入时不再按策略复核：
	// 计数可以越过上限继续增长，活跃性判定始终以 Evaluate 为准
	RecordAccess(ctx context.Context, token string) error
	// RevokeShare 撤销分享。仅创建者或管理员可操作；删除是物理删除，token 不复用
	RevokeShare(ctx context.Context, token string, requesterID uint64, requesterIsAdmin bool) error
	// ListUserShares 列出某用户的全部分享，按当前活跃状态分组返回
	ListUserShares(ctx context.Context, userID uint64) (active, expired []models.Share, err error)
	// ShareURL 拼出对外可见的分享地址
	ShareURL(token string) string
}

// shareService 是 ShareService 接口的具体实现
type shareService struct {
	shareRepo    repositories.ShareRepository
	documentRepo repositories.DocumentRepository
	tokenGen     TokenGenerator
	cfg          *config.Config
	nowFunc      func() time.Time // 测试时可替换时钟
}

var _ ShareService = (*shareService)(nil)

// NewShareService 创建一个新的 ShareService 实例
func NewShareService(shareRepo repositories.ShareRepository, documentRepo repositories.DocumentRepository, tokenGen TokenGenerator, cfg *config.Config) ShareService {
	return &shareService{
		shareRepo:    shareRepo,
		documentRepo: documentRepo,
		tokenGen:     tokenGen,
		cfg:          cfg,
		nowFunc:      time.Now,
	}
}

// CreateShare 处理创建分享链接的业务逻辑
func (s *shareService) CreateShare(ctx context.Context, userID, documentID uint64, policy ExpirationPolicy, opts CreateShareOptions) (*models.Share, error) {
	// 1. 验证文档存在且属于当前用户
	doc, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, xerr.ErrPermissionDenied
	}

	// 2. 按策略计算过期时间和访问次数上限
	now := s.nowFunc()
	expiresAt, maxAccess, err := computeExpiry(policy, now)
	if err != nil {
		return nil, err
	}

	newShare := &models.Share{
		DocumentID:     documentID,
		UserID:         userID,
		ExpiresAt:      expiresAt,
		MaxAccessCount: maxAccess,
		AllowDownload:  opts.AllowDownload,
	}
	if opts.Description != "" {
		desc := opts.Description
		newShare.Description = &desc
	}

	// 3. 如果设置了密码，存储加盐哈希而不是明文
	if opts.Password != "" {
		hashed, err := utils.HashPassword(opts.Password)
		if err != nil {
			logger.Error("CreateShare: 密码哈希失败", zap.Error(err))
			return nil, fmt.Errorf("密码处理失败: %w", err)
		}
		newShare.PasswordHash = &hashed
	}

	// 4. 生成 token 并落库。token 冲突概率极低，但唯一索引是权威闸门，
	//    冲突时换一个 token 重试
	maxAttempts := s.cfg.Share.CreateMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		token, err := s.tokenGen.Generate()
		if err != nil {
			return nil, err
		}
		newShare.Token = token

		err = s.shareRepo.Create(ctx, newShare)
		if err == nil {
			logger.Info("CreateShare: 分享链接创建成功",
				zap.Uint64("shareID", newShare.ID),
				zap.Uint64("documentID", documentID),
				zap.Time("expiresAt", expiresAt),
				zap.Uint32("maxAccessCount", maxAccess))
			return newShare, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Warn("CreateShare: token 冲突，重新生成", zap.Int("attempt", attempt+1))
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: 分享 token 生成重试次数耗尽", xerr.ErrInternalServer)
}

// ResolveAccess 处理一次按 token 的访问请求，不产生任何写入
func (s *shareService) ResolveAccess(ctx context.Context, token string, providedPassword *string) (*models.Share, error) {
	record, err := s.shareRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, err // 基础设施故障，调用方可重试
	}
	if record == nil {
		return nil, xerr.ErrShareNotFound
	}

	// 1. 判定活跃状态（惰性计算，不回写任何状态字段）
	switch Evaluate(record, s.nowFunc()) {
	case StatusExpired:
		return nil, xerr.ErrShareExpired
	case StatusQuotaExhausted:
		return nil, xerr.ErrShareQuotaExhausted
	}

	// 2. 密码闸门。未提供和提供错误是不同的结果，两者都不记访问
	if record.PasswordHash != nil && *record.PasswordHash != "" {
		if providedPassword == nil || *providedPassword == "" {
			return nil, xerr.ErrSharePasswordRequired
		}
		if !utils.CheckPasswordHash(*providedPassword, *record.PasswordHash) {
			return nil, xerr.ErrSharePasswordIncorrect
		}
	}

	return record, nil
}

// RecordAccess 记一次访问，必须在返回前持久化
func (s *shareService) RecordAccess(ctx context.Context, token string) error {
	if err := s.shareRepo.RecordAccess(ctx, token, s.nowFunc()); err != nil {
		logger.Error("RecordAccess: 记录分享访问失败", zap.Error(err))
		return err
	}
	return nil
}

// RevokeShare 撤销一个分享链接
func (s *shareService) RevokeShare(ctx context.Context, token string, requesterID uint64, requesterIsAdmin bool) error {
	record, err := s.shareRepo.FindByToken(ctx, token)
	if err != nil {
		return err
	}
	if record == nil {
		return xerr.ErrShareNotFound
	}

	// 仅创建者或管理员可撤销
	if record.UserID != requesterID && !requesterIsAdmin {
		return xerr.ErrPermissionDenied
	}

	if err := s.shareRepo.Delete(ctx, record.ID); err != nil {
		logger.Error("RevokeShare: 删除分享记录失败", zap.Uint64("shareID", record.ID), zap.Error(err))
		return err
	}

	logger.Info("RevokeShare: 分享链接已撤销",
		zap.Uint64("shareID", record.ID),
		zap.Uint64("requesterID", requesterID),
		zap.Bool("byAdmin", requesterIsAdmin && record.UserID != requesterID))
	return nil
}

// ListUserShares 列出用户的分享并按活跃状态分组
func (s *shareService) ListUserShares(ctx context.Context, userID uint64) ([]models.Share, []models.Share, error) {
	shares, err := s.shareRepo.FindAllByUserID(ctx, userID)
	if err != nil {
		logger.Error("ListUserShares: 查询用户分享列表失败", zap.Uint64("userID", userID), zap.Error(err))
		return nil, nil, err
	}

	now := s.nowFunc()
	active := make([]models.Share, 0, len(shares))
	expired := make([]models.Share, 0)
	for _, sh := range shares {
		if IsActive(&sh, now) {
			active = append(active, sh)
		} else {
			expired = append(expired, sh)
		}
	}
	return active, expired, nil
}

func (s *shareService) ShareURL(token string) string {
	return fmt.Sprintf("%s/shared/%s", s.cfg.Server.BaseURL, token)
}
