package share

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// DefaultTokenBytes 是分享 token 的默认随机字节数
// 18 字节 = 144 位熵，base64 编码后为 24 个 URL 安全字符
const DefaultTokenBytes = 18

// MinTokenBytes 是允许的最小随机字节数（96 位熵下限）
const MinTokenBytes = 12

// TokenGenerator 生成不可猜测的分享标识
// 唯一性的权威保证是存储层的唯一约束：插入冲突时调用方重新生成即可
type TokenGenerator interface {
	Generate() (string, error)
}

type randomTokenGenerator struct {
	numBytes int
}

var _ TokenGenerator = (*randomTokenGenerator)(nil)

// NewTokenGenerator 创建基于 crypto/rand 的 token 生成器
// numBytes 小于下限时回退到默认值
func NewTokenGenerator(numBytes int) TokenGenerator {
	if numBytes < MinTokenBytes {
		numBytes = DefaultTokenBytes
	}
	return &randomTokenGenerator{numBytes: numBytes}
}

func (g *randomTokenGenerator) Generate() (string, error) {
	buf := make([]byte, g.numBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("生成随机 token 失败: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
