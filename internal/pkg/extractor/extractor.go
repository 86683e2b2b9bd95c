package extractor

import (
	"context"
	"io"
)

// Result 是一次 PDF 解析的产物
// 任何字段都可能为空值：解析是尽力而为的，缺失的元数据不是错误
type Result struct {
	PageCount int
	Title     string
	Author    string
	Subject   string
	Text      string // 提取出的可检索文本
	Thumbnail []byte // 首页缩略图（PNG），可能为 nil
}

// Extractor 从 PDF 内容中提取页数、元数据和文本
// 实现不应修改输入，也不应依赖调用上下文之外的状态
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (*Result, error)
}
