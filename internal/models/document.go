package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DocumentStatusPending = 0 // 已上传，等待解析（页数/文本/缩略图）
	DocumentStatusReady   = 1 // 解析完成，可正常浏览
	DocumentStatusFailed  = 2 // 解析失败，仍可下载原始文件
)

// Document 对应 documents 表，代表一份用户上传的 PDF 文档
type Document struct {
	ID               uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID             string  `gorm:"type:varchar(36);unique;not null" json:"uuid"` // 文档在对象存储中的唯一标识
	UserID           uint64  `gorm:"not null;index" json:"user_id"`
	FileName         string  `gorm:"type:varchar(255);not null" json:"filename"`          // 存储文件名
	OriginalFilename string  `gorm:"type:varchar(255);not null" json:"original_filename"` // 上传时的原始文件名
	OssBucket        string  `gorm:"type:varchar(64);not null" json:"oss_bucket"`
	OssKey           string  `gorm:"type:varchar(255);not null" json:"oss_key"`
	ThumbnailKey     *string `gorm:"type:varchar(255);default:null" json:"thumbnail_key"` // 首页缩略图的对象键
	Size             uint64  `gorm:"type:bigint unsigned;not null;default:0" json:"size"`
	PageCount        *int    `gorm:"default:null" json:"page_count"`
	MD5Hash          *string `gorm:"type:varchar(32);default:null" json:"md5_hash"`

	// PDF 元数据与可检索文本，由后台解析 Worker 回填
	Title         *string `gorm:"type:varchar(255);default:null" json:"title"`
	Author        *string `gorm:"type:varchar(255);default:null" json:"author"`
	Subject       *string `gorm:"type:varchar(255);default:null" json:"subject"`
	ExtractedText string  `gorm:"type:longtext" json:"-"`

	IsPublic bool  `gorm:"not null;default:true" json:"is_public"`
	Status   uint8 `gorm:"type:tinyint unsigned;not null;default:0" json:"status"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// 定义 GORM 关联，方便预加载
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName 指定 GORM 使用的表名
func (Document) TableName() string {
	return "documents"
}
