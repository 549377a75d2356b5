package flow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLookupHeader 先精确后小写键回退，不做全量扫描
func TestLookupHeader(t *testing.T) {
	headers := map[string]string{
		"content-type": "application/json",
		"X-Api-Key":    "secret",
	}

	assert.Equal(t, "secret", LookupHeader(headers, "X-Api-Key"))
	assert.Equal(t, "application/json", LookupHeader(headers, "Content-Type"))
	assert.Equal(t, "application/json", LookupHeader(headers, "content-type"))

	// 存储键非小写时，仅小写查询键无法回退命中
	assert.Equal(t, "", LookupHeader(headers, "x-api-key"))

	assert.Equal(t, "", LookupHeader(headers, "missing"))
	assert.Equal(t, "", LookupHeader(nil, "any"))
}

// TestTrafficFlow_Helpers 流量级辅助判断
func TestTrafficFlow_Helpers(t *testing.T) {
	f := &TrafficFlow{}
	assert.False(t, f.HasResponse())
	assert.False(t, f.RefusalDetected())
	assert.False(t, f.Modified())
	assert.Equal(t, "", f.ResponseHeader("X"))

	f.Refusal = &Refusal{Detected: false}
	assert.False(t, f.RefusalDetected())
	f.Refusal.Detected = true
	assert.True(t, f.RefusalDetected())

	f.ResponseModified = true
	assert.True(t, f.Modified())

	f.Response = &ResponseData{StatusCode: 200, Headers: map[string]string{"server": "x"}}
	assert.True(t, f.HasResponse())
	assert.Equal(t, "x", f.ResponseHeader("Server"))
}

// TestTrafficFlow_JSONRoundTrip 与代理上报的 JSON 形态互转
func TestTrafficFlow_JSONRoundTrip(t *testing.T) {
	body := `{"ok":true}`
	in := &TrafficFlow{
		FlowID:    "abc",
		Timestamp: 1700000000.5,
		Request: RequestData{
			Method:  "GET",
			URL:     "https://example.com/a?b=1",
			Host:    "example.com",
			Port:    443,
			Path:    "/a?b=1",
			Headers: map[string]string{"Accept": "*/*"},
		},
		Response: &ResponseData{
			StatusCode: 200,
			Reason:     "OK",
			Content:    &body,
		},
		IsLLMAPI:         false,
		Tags:             []string{"t1"},
		RequestModified:  true,
		ResponseModified: false,
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out TrafficFlow
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.FlowID, out.FlowID)
	assert.Equal(t, in.Request, out.Request)
	require.NotNil(t, out.Response)
	assert.Equal(t, 200, out.Response.StatusCode)
	require.NotNil(t, out.Response.Content)
	assert.Equal(t, body, *out.Response.Content)
	assert.True(t, out.RequestModified)
	assert.Nil(t, out.Refusal)
}
