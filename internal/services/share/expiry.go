package share

import (
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
)

// ExpirationChoice 是创建分享时的过期策略选项
type ExpirationChoice string

const (
	ExpireNever          ExpirationChoice = "never"           // 永久有效（10年兜底）
	ExpireOnDate         ExpirationChoice = "on_date"         // 指定日期过期
	ExpireAfterDays      ExpirationChoice = "after_days"      // N 天后过期
	ExpireAfterDownloads ExpirationChoice = "after_downloads" // N 次访问后失效
)

// ExpirationPolicy 携带过期策略及其参数，未用到的参数为零值
type ExpirationPolicy struct {
	Choice    ExpirationChoice
	Date      time.Time // on_date: 过期时间点，本层不校验是否在未来
	Days      int       // after_days: 天数，必须 >= 1
	Downloads int       // after_downloads: 次数上限，必须 >= 1
}

// computeExpiry 把策略换算成具体的过期时间点和次数上限
// 除 after_downloads 外，次数上限都是 0（不限次）
func computeExpiry(p ExpirationPolicy, now time.Time) (time.Time, uint32, error) {
	switch p.Choice {
	case ExpireNever:
		return now.AddDate(10, 0, 0), 0, nil
	case ExpireOnDate:
		return p.Date, 0, nil
	case ExpireAfterDays:
		if p.Days < 1 {
			return time.Time{}, 0, xerr.ErrInvalidExpiry
		}
		return now.AddDate(0, 0, p.Days), 0, nil
	case ExpireAfterDownloads:
		if p.Downloads < 1 {
			return time.Time{}, 0, xerr.ErrInvalidExpiry
		}
		// 按次数失效的链接仍然给一年的时间兜底
		return now.AddDate(1, 0, 0), uint32(p.Downloads), nil
	default:
		// 未识别的策略回退到 7 天
		return now.AddDate(0, 0, 7), 0, nil
	}
}
