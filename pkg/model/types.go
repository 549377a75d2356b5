package model

// EngineStats 过滤引擎统计信息
type EngineStats struct {
	Total   int64 `json:"total"`
	Matched int64 `json:"matched"`
}

// IngestResult 一次代理消息摄取的结果
type IngestResult struct {
	Type    string `json:"type"`
	FlowID  string `json:"flowId,omitempty"`
	Matched bool   `json:"matched"`
	Stored  bool   `json:"stored"`
}
