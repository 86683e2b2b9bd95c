package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/config"
)

// StorageService 定义了通用的文档对象存储操作接口
type StorageService interface {
	// PutObject 上传文件到指定存储桶，返回存储对象的信息或错误
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) (PutObjectResult, error)
	// GetObject 从指定存储桶下载文件，返回一个读取器和对象信息
	GetObject(ctx context.Context, bucketName, objectName string) (GetObjectResult, error)
	// RemoveObject 从指定存储桶删除文件
	RemoveObject(ctx context.Context, bucketName, objectName string) error
	// IsBucketExist 检查存储桶是否存在
	IsBucketExist(ctx context.Context, bucketName string) (bool, error)
	// MakeBucket 创建存储桶
	MakeBucket(ctx context.Context, bucketName string) error
	// PresignedGetURL 生成限时的下载URL，fileName 用于 Content-Disposition
	PresignedGetURL(ctx context.Context, bucketName, objectName, fileName string, expiry time.Duration) (string, error)
}

type PutObjectResult struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string // 对象哈希值
}

type GetObjectResult struct {
	Reader   io.ReadCloser // 文件内容读取器，需要在使用后关闭
	Size     int64
	MimeType string
}

// NewStorageService 根据配置选择存储后端
func NewStorageService(cfg *config.Config) (StorageService, error) {
	switch cfg.Storage.Type {
	case "minio":
		return NewMinIOStorageService(&cfg.MinIO)
	case "aliyun_oss":
		return NewAliyunOSSStorageService(&cfg.AliyunOSS)
	default:
		return nil, errors.New("invalid storageType")
	}
}
