package share

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenGeneratorLengthAndCharset(t *testing.T) {
	gen := NewTokenGenerator(DefaultTokenBytes)

	token, err := gen.Generate()
	require.NoError(t, err)
	// 18 字节 base64url 无填充编码为 24 个字符
	require.Len(t, token, 24)

	// URL 安全：解码必须成功且不含填充字符
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	require.Len(t, decoded, DefaultTokenBytes)
	require.NotContains(t, token, "=")
	require.NotContains(t, token, "/")
	require.NotContains(t, token, "+")
}

func TestTokenGeneratorEnforcesMinimum(t *testing.T) {
	// 低于下限的配置被抬高到下限，不会生成弱 token
	gen := NewTokenGenerator(4)

	token, err := gen.Generate()
	require.NoError(t, err)
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(decoded), MinTokenBytes)
}

func TestTokenGeneratorUniqueness(t *testing.T) {
	gen := NewTokenGenerator(DefaultTokenBytes)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		token, err := gen.Generate()
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup, "duplicate token generated: %s", token)
		seen[token] = struct{}{}
	}
}
