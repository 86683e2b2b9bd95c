package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/3Eeeecho/go-pdfvault/internal/pkg/logger"
	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// ESIndexer 基于 Elasticsearch 的全文检索实现
type ESIndexer struct {
	client *elasticsearch.Client
	index  string
}

var _ Indexer = (*ESIndexer)(nil)

func NewESIndexer(client *elasticsearch.Client, index string) *ESIndexer {
	return &ESIndexer{client: client, index: index}
}

func (s *ESIndexer) Index(ctx context.Context, doc *IndexedDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化索引文档失败: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(strconv.FormatUint(doc.ID, 10)),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("写入 Elasticsearch 索引失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("Elasticsearch 索引请求返回错误: %s", res.Status())
	}
	return nil
}

func (s *ESIndexer) Remove(ctx context.Context, documentID uint64) error {
	res, err := s.client.Delete(
		s.index,
		strconv.FormatUint(documentID, 10),
		s.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("删除 Elasticsearch 索引失败: %w", err)
	}
	defer res.Body.Close()

	// 404 说明文档从未被索引过（例如解析失败的文档），不算错误
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("Elasticsearch 删除请求返回错误: %s", res.Status())
	}
	return nil
}

func (s *ESIndexer) Search(ctx context.Context, userID uint64, query string, mode string) ([]uint64, error) {
	var fields []string
	switch mode {
	case ModeFilename:
		fields = []string{"filename^2", "title"}
	case ModeContent:
		fields = []string{"content"}
	default:
		fields = []string{"filename^2", "title^2", "author", "subject", "content"}
	}

	must := []map[string]any{
		{
			"multi_match": map[string]any{
				"query":  query,
				"fields": fields,
			},
		},
	}
	if userID != 0 {
		must = append(must, map[string]any{
			"term": map[string]any{"user_id": userID},
		})
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]any{
		"query": map[string]any{"bool": map[string]any{"must": must}},
		"size":  100,
	}); err != nil {
		return nil, fmt.Errorf("构造检索请求失败: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("Elasticsearch 检索失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("Elasticsearch 检索请求返回错误: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("解析 Elasticsearch 响应失败: %w", err)
	}

	ids := make([]uint64, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			logger.Warn("索引中出现非法文档ID", zap.String("id", hit.ID))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
