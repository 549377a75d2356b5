package proxy

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"tollbooth/pkg/flow"
)

// 代理侧上报消息为 {"type": t, "data": {...}} 信封，字段松散可缺，
// 这里用 gjson 做容错解码，转换成中立的 TrafficFlow 模型。

// 消息类型
const (
	TypeRequest           = "request"
	TypeResponse          = "response"
	TypeInterceptRequest  = "intercept_request"
	TypeInterceptResponse = "intercept_response"
	TypeRequestModified   = "request_modified"
	TypeReplayComplete    = "replay_complete"
)

// ErrNotFlowMessage 消息信封合法但不携带流量数据
var ErrNotFlowMessage = errors.New("proxy message carries no flow data")

// Message 解码后的代理消息
type Message struct {
	Type string
	Flow *flow.TrafficFlow
}

// DefaultLLMHosts 默认视为 LLM API 的主机名片段
var DefaultLLMHosts = []string{
	"api.anthropic.com",
	"api.openai.com",
	"generativelanguage.googleapis.com",
	"chatgpt.com",
}

// Converter 代理消息转换器
type Converter struct {
	llmHosts    []string
	maxBodySize int64
}

// NewConverter 创建转换器，llmHosts 为空时使用默认列表
func NewConverter(llmHosts []string, maxBodySize int64) *Converter {
	if len(llmHosts) == 0 {
		llmHosts = DefaultLLMHosts
	}
	if maxBodySize <= 0 {
		maxBodySize = 1 << 20
	}
	return &Converter{llmHosts: llmHosts, maxBodySize: maxBodySize}
}

// ParseMessage 解码一条代理消息。非流量消息返回 ErrNotFlowMessage。
func (c *Converter) ParseMessage(data []byte) (*Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid proxy message json")
	}
	root := gjson.ParseBytes(data)
	typ := root.Get("type").String()
	if typ == "" {
		return nil, errors.New("proxy message missing type")
	}

	payload := root.Get("data")
	if !payload.Exists() || !payload.Get("request").Exists() {
		return &Message{Type: typ}, ErrNotFlowMessage
	}

	f := c.flowFromJSON(payload)
	return &Message{Type: typ, Flow: f}, nil
}

// flowFromJSON 将 data 载荷转换为 TrafficFlow
func (c *Converter) flowFromJSON(data gjson.Result) *flow.TrafficFlow {
	f := &flow.TrafficFlow{
		FlowID:    flow.FlowID(data.Get("flow_id").String()),
		Timestamp: data.Get("timestamp").Float(),
		IsLLMAPI:  data.Get("is_llm_api").Bool(),
	}
	if f.FlowID == "" {
		f.FlowID = NewFlowID()
	}

	req := data.Get("request")
	f.Request = flow.RequestData{
		Method:  req.Get("method").String(),
		URL:     req.Get("url").String(),
		Host:    req.Get("host").String(),
		Port:    int(req.Get("port").Int()),
		Path:    req.Get("path").String(),
		Headers: headerMap(req.Get("headers")),
	}
	if v := req.Get("content"); v.Exists() && v.Type != gjson.Null {
		s := v.String()
		f.Request.Content = &s
	}

	if res := data.Get("response"); res.Exists() && res.IsObject() {
		r := &flow.ResponseData{
			StatusCode: int(res.Get("status_code").Int()),
			Reason:     res.Get("reason").String(),
			Headers:    headerMap(res.Get("headers")),
		}
		if v := res.Get("content"); v.Exists() && v.Type != gjson.Null {
			s := v.String()
			r.Content = &s
		}
		f.Response = r
	}

	if ref := data.Get("refusal"); ref.Exists() && ref.IsObject() {
		f.Refusal = &flow.Refusal{Detected: ref.Get("detected").Bool()}
	}

	if tags := data.Get("tags"); tags.IsArray() {
		for _, t := range tags.Array() {
			f.Tags = append(f.Tags, t.String())
		}
	}

	f.RequestModified = data.Get("request_modified").Bool()
	f.ResponseModified = data.Get("response_modified").Bool()
	return f
}

// headerMap 头部对象转 map，保留原始大小写
func headerMap(h gjson.Result) map[string]string {
	if !h.IsObject() {
		return nil
	}
	m := make(map[string]string)
	h.ForEach(func(key, value gjson.Result) bool {
		m[key.String()] = value.String()
		return true
	})
	return m
}

// IsLLMAPI 主机名命中任一 LLM 片段即为真
func (c *Converter) IsLLMAPI(host string) bool {
	for _, h := range c.llmHosts {
		if strings.Contains(host, h) {
			return true
		}
	}
	return false
}

// BodyContent 生成正文的存储形式。LLM 流量保留全文；
// 普通流量超限时只存截断占位，二进制内容存字节数占位。
func (c *Converter) BodyContent(content []byte, isLLM bool) *string {
	if len(content) == 0 {
		return nil
	}
	if !isLLM && int64(len(content)) > c.maxBodySize {
		s := fmt.Sprintf("[Content truncated, %d bytes total]", len(content))
		return &s
	}
	if !utf8.Valid(content) {
		s := fmt.Sprintf("[Binary content, %d bytes]", len(content))
		return &s
	}
	s := string(content)
	return &s
}

// ReplayFlowID 重放流量的固定前缀ID
func ReplayFlowID(replayID string) flow.FlowID {
	return flow.FlowID("replay_" + replayID)
}

// NewFlowID 为缺失 flow_id 的消息生成兜底ID
func NewFlowID() flow.FlowID {
	return flow.FlowID(uuid.NewString())
}
