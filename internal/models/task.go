package models

// ExtractTask 是投递到 MQ 的文档解析任务
// 由上传流程发布，解析 Worker 消费
type ExtractTask struct {
	DocumentID uint64 `json:"document_id"`
	OssBucket  string `json:"oss_bucket"`
	OssKey     string `json:"oss_key"`
}
