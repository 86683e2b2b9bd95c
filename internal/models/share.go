package models

import (
	"time"
)

// Share 对应 shares 表，代表一条已签发的分享链接记录
//
// 注意：分享记录是硬删除的。token 一旦被签发就不会重复使用，
// 撤销后记录被物理删除，同一 token 不会再次出现。
type Share struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Token      string `gorm:"type:varchar(32);not null;uniqueIndex" json:"token"` // 不透明的分享标识，创建后不可变
	DocumentID uint64 `gorm:"not null;index" json:"document_id"`                  // 被分享的文档ID，多条分享可指向同一文档
	UserID     uint64 `gorm:"not null;index" json:"user_id"`                      // 分享者ID，用于撤销鉴权和列表查询

	ExpiresAt          time.Time  `gorm:"not null" json:"expires_at"`                                 // 过期时间点，创建时根据过期策略计算
	MaxAccessCount     uint32     `gorm:"type:int unsigned;not null;default:0" json:"max_access_count"` // 0 表示不限次数
	CurrentAccessCount uint32     `gorm:"type:int unsigned;not null;default:0" json:"current_access_count"`
	LastAccessedAt     *time.Time `gorm:"default:null" json:"last_accessed_at"`

	AllowDownload bool    `gorm:"not null;default:false" json:"allow_download"` // 是否允许下载完整文件（否则仅可在线查看）
	PasswordHash  *string `gorm:"type:varchar(255);default:null" json:"-"`      // 可选：访问密码的 bcrypt 哈希
	Description   *string `gorm:"type:varchar(255);default:null" json:"description,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 定义 GORM 关联，方便预加载
	Document *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
}

// TableName 指定 GORM 使用的表名
func (Share) TableName() string {
	return "shares"
}
