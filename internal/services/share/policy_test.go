package share

import (
	"testing"
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/models"
	"github.com/stretchr/testify/require"
)

func TestEvaluateActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &models.Share{ExpiresAt: now.Add(time.Hour)}

	require.Equal(t, StatusActive, Evaluate(s, now))
	require.True(t, IsActive(s, now))
}

func TestEvaluateExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &models.Share{ExpiresAt: now.Add(-time.Second)}

	require.Equal(t, StatusExpired, Evaluate(s, now))
	require.False(t, IsActive(s, now))
}

func TestEvaluateExactExpiryInstantStillActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// 过期判定是严格大于：恰好等于过期时间点时仍然有效
	s := &models.Share{ExpiresAt: now}

	require.Equal(t, StatusActive, Evaluate(s, now))
}

func TestEvaluateQuotaExhausted(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &models.Share{
		ExpiresAt:          now.Add(time.Hour),
		MaxAccessCount:     2,
		CurrentAccessCount: 2,
	}

	require.Equal(t, StatusQuotaExhausted, Evaluate(s, now))

	// 计数允许越过上限，判定结果不变
	s.CurrentAccessCount = 5
	require.Equal(t, StatusQuotaExhausted, Evaluate(s, now))
}

func TestEvaluateExpiryBeatsQuota(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &models.Share{
		ExpiresAt:          now.Add(-time.Hour),
		MaxAccessCount:     2,
		CurrentAccessCount: 2,
	}

	// 两个失效条件同时满足时报告过期
	require.Equal(t, StatusExpired, Evaluate(s, now))
}

func TestEvaluateUnlimitedAccessCount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &models.Share{
		ExpiresAt:          now.Add(time.Hour),
		MaxAccessCount:     0, // 不限次
		CurrentAccessCount: 1000000,
	}

	require.Equal(t, StatusActive, Evaluate(s, now))
}

func TestEvaluateIsPure(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &models.Share{
		ExpiresAt:          now.Add(-time.Hour),
		MaxAccessCount:     1,
		CurrentAccessCount: 3,
	}
	before := *s

	for i := 0; i < 10; i++ {
		require.Equal(t, StatusExpired, Evaluate(s, now))
	}
	require.Equal(t, before, *s) // 判定不回写任何字段
}
