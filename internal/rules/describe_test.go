package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tollbooth/pkg/filterspec"
)

// TestDescribeCondition_Text 文本字段的描述与默认匹配符号
func TestDescribeCondition_Text(t *testing.T) {
	assert.Equal(t, `NOT Host ~ "example.com"`, DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeRequest, Field: filterspec.FieldHost,
		Value: "example.com", Negate: true}))

	assert.Equal(t, `Method = "POST"`, DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeRequest, Field: filterspec.FieldMethod, Value: "POST"}))

	assert.Equal(t, `Path =~ "^/v1/"`, DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeRequest, Field: filterspec.FieldPath,
		Match: filterspec.MatchRegex, Value: "^/v1/"}))
}

// TestDescribeCondition_Status 状态码的三种匹配方式
func TestDescribeCondition_Status(t *testing.T) {
	assert.Equal(t, "Status in 4xx", DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeResponse, Field: filterspec.FieldStatusCode,
		StatusMatch: filterspec.StatusRange, Value: "4xx"}))

	assert.Equal(t, "Status = 200", DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeResponse, Field: filterspec.FieldStatusCode, Value: "200"}))

	assert.Equal(t, "Status in 500,502,503", DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeResponse, Field: filterspec.FieldStatusCode,
		StatusMatch: filterspec.StatusList, Value: "500,502,503"}))
}

// TestDescribeCondition_BodyAndSize 正文与大小字段
func TestDescribeCondition_BodyAndSize(t *testing.T) {
	assert.Equal(t, `Res Body =~ "error"`, DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeResponse, Field: filterspec.FieldResponseBodyContains,
		Match: filterspec.MatchRegex, Value: "error"}))

	assert.Equal(t, `Req Body ~ "model"`, DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeRequest, Field: filterspec.FieldRequestBodyContains,
		Value: "model"}))

	assert.Equal(t, "Req Size > 2.0KB", DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeRequest, Field: filterspec.FieldRequestBodySize,
		SizeOperator: filterspec.SizeGt, SizeBytes: int64Ptr(2048)}))
}

// TestDescribeCondition_FlowLevel 布尔与标签字段
func TestDescribeCondition_FlowLevel(t *testing.T) {
	assert.Equal(t, "LLM API = true", DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeRequest, Field: filterspec.FieldIsLLMAPI}))

	assert.Equal(t, "Refusal = false", DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeRequest, Field: filterspec.FieldHasRefusal,
		BoolValue: boolPtr(false)}))

	// 规格要求：negate 与模式文本都必须出现
	desc := DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeEither, Field: filterspec.FieldHasTag,
		Match: filterspec.MatchContains, Value: "refusal", Negate: true})
	assert.Contains(t, desc, "NOT")
	assert.Contains(t, desc, "refusal")
}

// TestDescribeCondition_Header 头部描述带作用域前缀
func TestDescribeCondition_Header(t *testing.T) {
	assert.Equal(t, `Req Header[Content-Type] ~ "json"`, DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeRequest, Field: filterspec.FieldHeader,
		Key: "Content-Type", Value: "json"}))
	assert.Equal(t, `Any Header[X-Trace] = "1"`, DescribeCondition(&filterspec.Condition{
		Scope: filterspec.ScopeEither, Field: filterspec.FieldHeader,
		Key: "X-Trace", Match: filterspec.MatchExact, Value: "1"}))
}

// TestFormatBytes 字节数展示：B 原样，KB/MB 一位小数
func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0B", formatBytes(0))
	assert.Equal(t, "512B", formatBytes(512))
	assert.Equal(t, "1.0KB", formatBytes(1024))
	assert.Equal(t, "1.5KB", formatBytes(1536))
	assert.Equal(t, "1.0MB", formatBytes(1024*1024))
	assert.Equal(t, "2.5MB", formatBytes(5*1024*1024/2))
}

// TestDescribeFilter 逐组展开描述
func TestDescribeFilter(t *testing.T) {
	assert.Nil(t, DescribeFilter(nil))

	lines := DescribeFilter(&filterspec.AdvancedFilter{
		Enabled:  true,
		Operator: filterspec.OpAnd,
		Groups: []filterspec.Group{
			{Operator: filterspec.OpAnd, Conditions: []filterspec.Condition{
				{Scope: filterspec.ScopeRequest, Field: filterspec.FieldHost, Value: "a"},
			}},
			{Operator: filterspec.OpOr, Conditions: []filterspec.Condition{
				{Scope: filterspec.ScopeResponse, Field: filterspec.FieldStatusCode, Value: "200"},
			}},
		},
	})
	assert.Len(t, lines, 2)
	assert.Equal(t, `[0/AND] Host ~ "a"`, lines[0])
	assert.Equal(t, "[1/OR] Status = 200", lines[1])
}
