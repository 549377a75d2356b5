package flow

import "strings"

// FlowID 流量事务唯一标识
type FlowID string

// RequestData 捕获到的请求数据
type RequestData struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Host    string            `json:"host"`
	Port    int               `json:"port,omitempty"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers,omitempty"`
	Content *string           `json:"content,omitempty"`
}

// ResponseData 捕获到的响应数据，请求未完成时整体缺失
type ResponseData struct {
	StatusCode int               `json:"status_code"`
	Reason     string            `json:"reason,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Content    *string           `json:"content,omitempty"`
}

// Refusal 上游标记的拒答检测结果
type Refusal struct {
	Detected bool `json:"detected"`
}

// TrafficFlow 一次完整的 HTTP 事务（代理层上报的中立模型）
type TrafficFlow struct {
	FlowID    FlowID        `json:"flow_id"`
	Timestamp float64       `json:"timestamp,omitempty"`
	Request   RequestData   `json:"request"`
	Response  *ResponseData `json:"response,omitempty"`

	IsLLMAPI bool     `json:"is_llm_api"`
	Refusal  *Refusal `json:"refusal,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	RequestModified  bool `json:"request_modified,omitempty"`
	ResponseModified bool `json:"response_modified,omitempty"`
}

// LookupHeader 查找头部值：先精确匹配，再用小写键回退。
// 与后端过滤实现保持一致，不做全量大小写无关扫描。
func LookupHeader(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	if v, ok := headers[key]; ok {
		return v
	}
	if v, ok := headers[strings.ToLower(key)]; ok {
		return v
	}
	return ""
}

// RequestHeader 查找请求头，键缺失时返回空串
func (f *TrafficFlow) RequestHeader(key string) string {
	return LookupHeader(f.Request.Headers, key)
}

// ResponseHeader 查找响应头，响应缺失时返回空串
func (f *TrafficFlow) ResponseHeader(key string) string {
	if f.Response == nil {
		return ""
	}
	return LookupHeader(f.Response.Headers, key)
}

// HasResponse 响应是否已到达
func (f *TrafficFlow) HasResponse() bool { return f.Response != nil }

// RefusalDetected 拒答标记，未检测时视为 false
func (f *TrafficFlow) RefusalDetected() bool {
	return f.Refusal != nil && f.Refusal.Detected
}

// Modified 请求或响应任一被拦截规则修改过
func (f *TrafficFlow) Modified() bool {
	return f.RequestModified || f.ResponseModified
}
