package share

import (
	"testing"
	"time"

	"github.com/3Eeeecho/go-pdfvault/internal/pkg/xerr"
	"github.com/stretchr/testify/require"
)

func TestComputeExpiryNever(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	expiresAt, maxAccess, err := computeExpiry(ExpirationPolicy{Choice: ExpireNever}, now)
	require.NoError(t, err)
	require.Equal(t, now.AddDate(10, 0, 0), expiresAt)
	require.Zero(t, maxAccess)
}

func TestComputeExpiryOnDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// 过去的日期也照单全收，链接创建即失效
	past := now.AddDate(0, -1, 0)

	expiresAt, maxAccess, err := computeExpiry(ExpirationPolicy{Choice: ExpireOnDate, Date: past}, now)
	require.NoError(t, err)
	require.Equal(t, past, expiresAt)
	require.Zero(t, maxAccess)
}

func TestComputeExpiryAfterDays(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	expiresAt, maxAccess, err := computeExpiry(ExpirationPolicy{Choice: ExpireAfterDays, Days: 30}, now)
	require.NoError(t, err)
	require.Equal(t, now.AddDate(0, 0, 30), expiresAt)
	require.Zero(t, maxAccess)

	_, _, err = computeExpiry(ExpirationPolicy{Choice: ExpireAfterDays, Days: 0}, now)
	require.ErrorIs(t, err, xerr.ErrInvalidExpiry)

	_, _, err = computeExpiry(ExpirationPolicy{Choice: ExpireAfterDays, Days: -3}, now)
	require.ErrorIs(t, err, xerr.ErrInvalidExpiry)
}

func TestComputeExpiryAfterDownloads(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	expiresAt, maxAccess, err := computeExpiry(ExpirationPolicy{Choice: ExpireAfterDownloads, Downloads: 3}, now)
	require.NoError(t, err)
	require.Equal(t, uint32(3), maxAccess)
	// 按次数失效的链接同时有一年的时间兜底
	require.Equal(t, now.AddDate(1, 0, 0), expiresAt)

	_, _, err = computeExpiry(ExpirationPolicy{Choice: ExpireAfterDownloads, Downloads: 0}, now)
	require.ErrorIs(t, err, xerr.ErrInvalidExpiry)
}

func TestComputeExpiryUnknownChoiceFallsBack(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	expiresAt, maxAccess, err := computeExpiry(ExpirationPolicy{Choice: "whenever"}, now)
	require.NoError(t, err)
	require.Equal(t, now.AddDate(0, 0, 7), expiresAt)
	require.Zero(t, maxAccess)
}
