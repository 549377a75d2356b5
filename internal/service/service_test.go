package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tollbooth/internal/config"
	"tollbooth/pkg/filterspec"
	"tollbooth/pkg/flow"
)

func newTestService(t *testing.T, withStore bool) *Service {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Sqlite.Dsn = filepath.Join(t.TempDir(), "svc.db")
	s, err := New(Options{Config: cfg, WithStore: withStore})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func anthropicFilter() *filterspec.AdvancedFilter {
	return &filterspec.AdvancedFilter{
		Enabled:  true,
		Operator: filterspec.OpAnd,
		Groups: []filterspec.Group{{
			Operator: filterspec.OpAnd,
			Conditions: []filterspec.Condition{
				{Scope: filterspec.ScopeRequest, Field: filterspec.FieldHost, Value: "anthropic"},
			},
		}},
	}
}

// TestService_EvaluateAndStats 过滤求值与统计累计
func TestService_EvaluateAndStats(t *testing.T) {
	s := newTestService(t, false)
	s.SetFilter(anthropicFilter())

	hit := &flow.TrafficFlow{FlowID: "h", Request: flow.RequestData{Host: "api.anthropic.com"}}
	miss := &flow.TrafficFlow{FlowID: "m", Request: flow.RequestData{Host: "example.com"}}

	assert.True(t, s.EvaluateFlow(hit))
	assert.False(t, s.EvaluateFlow(miss))

	out := s.FilterFlows([]*flow.TrafficFlow{hit, miss, hit})
	assert.Len(t, out, 2)

	stats := s.Stats()
	assert.Equal(t, int64(5), stats.Total)
	assert.Equal(t, int64(3), stats.Matched)
}

// TestService_SetFilterProblems 配置诊断返回但不阻断求值
func TestService_SetFilterProblems(t *testing.T) {
	s := newTestService(t, false)

	af := anthropicFilter()
	af.Groups[0].Conditions[0].Match = filterspec.MatchRegex
	af.Groups[0].Conditions[0].Value = "(unclosed"

	problems := s.SetFilter(af)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0].Message, "invalid regex")

	// 坏正则按不匹配降级
	f := &flow.TrafficFlow{Request: flow.RequestData{Host: "api.anthropic.com"}}
	assert.False(t, s.EvaluateFlow(f))
}

// TestService_Describe 条件与配置描述
func TestService_Describe(t *testing.T) {
	s := newTestService(t, false)
	s.SetFilter(anthropicFilter())

	assert.Equal(t, `Host ~ "anthropic"`, s.DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeRequest, Field: filterspec.FieldHost, Value: "anthropic"}))

	lines := s.DescribeFilter()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `Host ~ "anthropic"`)
}

// TestService_IngestWithoutStore 无存储时仅求值不落库
func TestService_IngestWithoutStore(t *testing.T) {
	s := newTestService(t, false)
	s.SetFilter(anthropicFilter())

	res, err := s.Ingest(context.Background(), []byte(`{
		"type": "request",
		"data": {"flow_id": "f-1", "request": {"method": "POST", "host": "api.anthropic.com", "path": "/v1/messages"}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "f-1", res.FlowID)
	assert.True(t, res.Matched)
	assert.False(t, res.Stored)

	_, err = s.QueryStored(context.Background())
	assert.Error(t, err)
}

// TestService_IngestWithStore 请求入库、响应补写、标签与筛选
func TestService_IngestWithStore(t *testing.T) {
	s := newTestService(t, true)
	ctx := context.Background()
	s.SetFilter(anthropicFilter())

	res, err := s.Ingest(ctx, []byte(`{
		"type": "request",
		"data": {"flow_id": "f-1", "request": {"method": "POST", "host": "api.anthropic.com", "path": "/v1/messages"}}
	}`))
	require.NoError(t, err)
	assert.True(t, res.Stored)

	_, err = s.Ingest(ctx, []byte(`{
		"type": "request",
		"data": {"flow_id": "f-2", "request": {"method": "GET", "host": "example.com", "path": "/"}}
	}`))
	require.NoError(t, err)

	// 响应信封补写到已有记录
	res, err = s.Ingest(ctx, []byte(`{
		"type": "response",
		"data": {
			"flow_id": "f-1",
			"request": {"method": "POST", "host": "api.anthropic.com", "path": "/v1/messages"},
			"response": {"status_code": 200, "content": "ok"}
		}
	}`))
	require.NoError(t, err)
	assert.True(t, res.Stored)

	// 未经请求阶段的响应整条补录
	res, err = s.Ingest(ctx, []byte(`{
		"type": "response",
		"data": {
			"flow_id": "f-3",
			"request": {"method": "GET", "host": "api.anthropic.com", "path": "/x"},
			"response": {"status_code": 404}
		}
	}`))
	require.NoError(t, err)
	assert.True(t, res.Stored)

	require.NoError(t, s.TagFlow(ctx, "f-1", "replayed"))

	flows, err := s.QueryStored(ctx)
	require.NoError(t, err)
	require.Len(t, flows, 2, "过滤配置应只留下 anthropic 两条")

	byID := map[flow.FlowID]*flow.TrafficFlow{}
	for _, f := range flows {
		byID[f.FlowID] = f
	}
	require.Contains(t, byID, flow.FlowID("f-1"))
	require.Contains(t, byID, flow.FlowID("f-3"))
	require.NotNil(t, byID["f-1"].Response)
	assert.Equal(t, 200, byID["f-1"].Response.StatusCode)
	assert.Equal(t, []string{"replayed"}, byID["f-1"].Tags)

	// 非流量消息静默忽略
	res, err = s.Ingest(ctx, []byte(`{"type": "replay_complete", "replay_id": "r"}`))
	require.NoError(t, err)
	assert.False(t, res.Stored)
	assert.Empty(t, res.FlowID)
}
