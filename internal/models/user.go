package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	UserStatusNormal = 1 // 正常
	UserStatusBanned = 2 // 被禁用
)

// User 对应 users 表
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"type:varchar(80);unique;not null" json:"username"`
	Email        string `gorm:"type:varchar(120);unique;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"` // - 表示不输出到 JSON
	IsAdmin      bool   `gorm:"not null;default:false" json:"is_admin"`
	Status       uint8  `gorm:"type:tinyint unsigned;not null;default:1" json:"status"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定 GORM 使用的表名
func (User) TableName() string {
	return "users"
}
