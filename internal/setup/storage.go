package setup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/3Eeeecho/go-pdfvault/internal/config"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-pdfvault/internal/pkg/storage"
)

// ensureBucket 检查并按需创建存储桶
func ensureBucket(svc storage.StorageService, bucketName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := svc.IsBucketExist(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶存在性失败: %w", err)
	}
	if !exists {
		logger.Info("存储桶不存在，尝试创建...", zap.String("bucketName", bucketName))
		if err := svc.MakeBucket(ctx, bucketName); err != nil {
			return fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("存储桶创建成功", zap.String("bucketName", bucketName))
	}
	return nil
}

// InitStorage 根据配置初始化对象存储服务并确保文档桶可用
func InitStorage(cfg *config.Config) storage.StorageService {
	svc, err := storage.NewStorageService(cfg)
	if err != nil {
		logger.Fatal("初始化存储服务失败，请检查配置", zap.String("type", cfg.Storage.Type), zap.Error(err))
	}

	bucketName := cfg.MinIO.BucketName
	if cfg.Storage.Type == "aliyun_oss" {
		bucketName = cfg.AliyunOSS.BucketName
	}
	if err := ensureBucket(svc, bucketName); err != nil {
		logger.Fatal("初始化存储桶失败", zap.Error(err))
	}

	logger.Info("对象存储服务初始化完成", zap.String("type", cfg.Storage.Type))
	return svc
}
