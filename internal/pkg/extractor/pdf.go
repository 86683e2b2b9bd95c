package extractor

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"go.uber.org/zap"
)

// pdfExtractor 是内置的轻量 PDF 解析器
// 只做尽力而为的页数统计、Info 字典元数据读取和内容流文本提取，
// 不支持加密文档和非 Flate 压缩的内容流
type pdfExtractor struct {
	maxTextBytes int // 提取文本的长度上限，防止超长文档撑爆数据库字段
}

var _ Extractor = (*pdfExtractor)(nil)

// NewPDFExtractor 创建默认的 PDF 解析器
func NewPDFExtractor() Extractor {
	return &pdfExtractor{maxTextBytes: 1 << 20} // 1MB 文本上限
}

var (
	pageRe   = regexp.MustCompile(`/Type\s*/Page[^s]`)
	infoRe   = regexp.MustCompile(`/(Title|Author|Subject)\s*\(((?:[^()\\]|\\.)*)\)`)
	streamRe = regexp.MustCompile(`(?s)<<(.*?)>>\s*stream\r?\n`)
	textRe   = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*T[jJ]`)
)

func (e *pdfExtractor) Extract(ctx context.Context, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取 PDF 内容失败: %w", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("不是有效的 PDF 文件")
	}

	result := &Result{
		PageCount: len(pageRe.FindAll(data, -1)),
	}

	// Info 字典里的字面量字符串元数据
	for _, m := range infoRe.FindAllSubmatch(data, -1) {
		value := decodePDFString(string(m[2]))
		switch string(m[1]) {
		case "Title":
			result.Title = value
		case "Author":
			result.Author = value
		case "Subject":
			result.Subject = value
		}
	}

	result.Text = e.extractText(ctx, data)
	return result, nil
}

// extractText 遍历所有内容流，收集 Tj/TJ 操作符的字符串参数
func (e *pdfExtractor) extractText(ctx context.Context, data []byte) string {
	var sb strings.Builder

	offset := 0
	for offset < len(data) {
		if err := ctx.Err(); err != nil {
			break
		}
		loc := streamRe.FindSubmatchIndex(data[offset:])
		if loc == nil {
			break
		}
		dict := data[offset+loc[2] : offset+loc[3]]
		body := data[offset+loc[1]:]
		end := bytes.Index(body, []byte("endstream"))
		if end < 0 {
			break
		}
		stream := bytes.TrimRight(body[:end], "\r\n")
		offset += loc[1] + end

		if bytes.Contains(dict, []byte("/FlateDecode")) {
			zr, err := zlib.NewReader(bytes.NewReader(stream))
			if err != nil {
				continue // 非标准压缩流，跳过
			}
			decoded, err := io.ReadAll(zr)
			zr.Close()
			if err != nil {
				logger.Debug("解压 PDF 内容流失败", zap.Error(err))
				continue
			}
			stream = decoded
		}

		for _, m := range textRe.FindAllSubmatch(stream, -1) {
			sb.WriteString(decodePDFString(string(m[1])))
			sb.WriteByte(' ')
			if sb.Len() > e.maxTextBytes {
				return sb.String()[:e.maxTextBytes]
			}
		}
	}

	return strings.TrimSpace(sb.String())
}

// decodePDFString 处理 PDF 字面量字符串中的转义序列
func decodePDFString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '(', ')', '\\':
			sb.WriteByte(s[i])
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
