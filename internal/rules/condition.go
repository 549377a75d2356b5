package rules

import (
	"tollbooth/pkg/filterspec"
	"tollbooth/pkg/flow"
)

// EvaluateCondition 对单个流量求值单个条件。
// 先按 scope 解析出结果，negate 最后取反（作用于 scope 解析之后）。
func EvaluateCondition(f *flow.TrafficFlow, c *filterspec.Condition) bool {
	var result bool
	switch c.Scope {
	case filterspec.ScopeRequest:
		result = evaluateOnRequest(f, c)
	case filterspec.ScopeResponse:
		result = evaluateOnResponse(f, c)
	case filterspec.ScopeEither:
		result = evaluateOnRequest(f, c) || evaluateOnResponse(f, c)
	default:
		result = false
	}
	if c.Negate {
		return !result
	}
	return result
}

// evaluateOnRequest 请求侧字段分派。
// 布尔/标签类字段是流量级属性，这里与响应侧刻意重复实现，
// 保证 either 作用域下两侧独立得到相同答案，勿合并。
func evaluateOnRequest(f *flow.TrafficFlow, c *filterspec.Condition) bool {
	switch c.Field {
	case filterspec.FieldHost:
		return MatchValue(f.Request.Host, c.MatchOr(filterspec.MatchContains), c.Value)
	case filterspec.FieldPath:
		return MatchValue(f.Request.Path, c.MatchOr(filterspec.MatchContains), c.Value)
	case filterspec.FieldMethod:
		return MatchValue(f.Request.Method, c.MatchOr(filterspec.MatchExact), c.Value)
	case filterspec.FieldHeader:
		if c.Key == "" {
			return false
		}
		return MatchValue(f.RequestHeader(c.Key), c.MatchOr(filterspec.MatchContains), c.Value)
	case filterspec.FieldRequestBodyContains:
		return matchBody(f.Request.Content, c.Match, c.Value)
	case filterspec.FieldRequestBodySize:
		return matchBodySize(f.Request.Content, c)
	case filterspec.FieldIsLLMAPI:
		return f.IsLLMAPI == c.Bool()
	case filterspec.FieldHasRefusal:
		return f.RefusalDetected() == c.Bool()
	case filterspec.FieldIsModified:
		return f.Modified() == c.Bool()
	case filterspec.FieldHasAnyTag:
		return (len(f.Tags) > 0) == c.Bool()
	case filterspec.FieldHasTag:
		return MatchTag(f.Tags, c.MatchOr(filterspec.MatchContains), c.Value)
	default:
		return false
	}
}

// evaluateOnResponse 响应侧字段分派。
// 响应特有字段在响应缺失时恒为假；流量级字段照常求值。
func evaluateOnResponse(f *flow.TrafficFlow, c *filterspec.Condition) bool {
	switch c.Field {
	case filterspec.FieldStatusCode:
		if f.Response == nil {
			return false
		}
		return MatchStatusCode(f.Response.StatusCode, c.StatusMatchOr(filterspec.StatusExact), c.Value)
	case filterspec.FieldResponseBodyContains:
		if f.Response == nil {
			return false
		}
		return matchBody(f.Response.Content, c.Match, c.Value)
	case filterspec.FieldResponseSize:
		if f.Response == nil {
			return false
		}
		return matchBodySize(f.Response.Content, c)
	case filterspec.FieldHeader:
		if f.Response == nil || c.Key == "" {
			return false
		}
		return MatchValue(f.ResponseHeader(c.Key), c.MatchOr(filterspec.MatchContains), c.Value)
	case filterspec.FieldIsLLMAPI:
		return f.IsLLMAPI == c.Bool()
	case filterspec.FieldHasRefusal:
		return f.RefusalDetected() == c.Bool()
	case filterspec.FieldIsModified:
		return f.Modified() == c.Bool()
	case filterspec.FieldHasAnyTag:
		return (len(f.Tags) > 0) == c.Bool()
	case filterspec.FieldHasTag:
		return MatchTag(f.Tags, c.MatchOr(filterspec.MatchContains), c.Value)
	default:
		return false
	}
}
