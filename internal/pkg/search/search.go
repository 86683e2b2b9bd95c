package search

import (
	"context"
)

// 检索范围，对应前端搜索表单的 "Search In" 选项
const (
	ModeFilename = "filename"
	ModeContent  = "content"
	ModeAll      = "all"
)

// IndexedDocument 是写入检索索引的文档视图
type IndexedDocument struct {
	ID       uint64 `json:"id"`
	UserID   uint64 `json:"user_id"`
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Subject  string `json:"subject"`
	Content  string `json:"content"`
	IsPublic bool   `json:"is_public"`
}

// Indexer 是文档全文检索的抽象
// 返回的是命中的文档ID，按相关度排序；权威数据仍在数据库
type Indexer interface {
	Index(ctx context.Context, doc *IndexedDocument) error
	Remove(ctx context.Context, documentID uint64) error
	// Search 在指定用户可见的文档中检索（userID 为 0 表示不限制属主）
	Search(ctx context.Context, userID uint64, query string, mode string) ([]uint64, error)
}

// NoopIndexer 在未配置 Elasticsearch 时使用，检索退化为数据库 LIKE 查询
type NoopIndexer struct{}

var _ Indexer = (*NoopIndexer)(nil)

func (NoopIndexer) Index(ctx context.Context, doc *IndexedDocument) error { return nil }

func (NoopIndexer) Remove(ctx context.Context, documentID uint64) error { return nil }

func (NoopIndexer) Search(ctx context.Context, userID uint64, query string, mode string) ([]uint64, error) {
	return nil, nil
}
