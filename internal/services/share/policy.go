package share

import (
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/models"
)

// Status 是分享链接在某一时刻的活跃状态
type Status int

const (
	StatusActive         Status = iota // 可访问
	StatusExpired                      // 已过当前时间点，永不恢复
	StatusQuotaExhausted               // 访问次数已达上限，永不恢复
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusExpired:
		return "expired"
	case StatusQuotaExhausted:
		return "quota_exhausted"
	default:
		return "unknown"
	}
}

// Evaluate 根据存储字段和当前时间判定分享状态
// 纯函数：不读写任何外部状态，也不修改传入的记录。
// 过期判定优先于次数判定，只影响报告哪一个终态，不影响是否活跃
func Evaluate(s *models.Share, now time.Time) Status {
	if now.After(s.ExpiresAt) {
		return StatusExpired
	}
	if s.MaxAccessCount > 0 && s.CurrentAccessCount >= s.MaxAccessCount {
		return StatusQuotaExhausted
	}
	return StatusActive
}

// IsActive 仅当 Evaluate 返回 StatusActive 时为真
func IsActive(s *models.Share, now time.Time) bool {
	return Evaluate(s, now) == StatusActive
}
