package rules

import (
	"fmt"
	"strings"

	"tollbooth/pkg/filterspec"
)

// 描述文本必须与求值语义同步：任何匹配语义调整都要同时更新这里，
// 否则界面展示的过滤含义与实际行为不一致。

var fieldLabels = map[filterspec.Field]string{
	filterspec.FieldHost:                 "Host",
	filterspec.FieldPath:                 "Path",
	filterspec.FieldMethod:               "Method",
	filterspec.FieldHeader:               "Header",
	filterspec.FieldRequestBodyContains:  "Req Body",
	filterspec.FieldRequestBodySize:      "Req Size",
	filterspec.FieldStatusCode:           "Status",
	filterspec.FieldResponseBodyContains: "Res Body",
	filterspec.FieldResponseSize:         "Res Size",
	filterspec.FieldIsLLMAPI:             "LLM API",
	filterspec.FieldHasRefusal:           "Refusal",
	filterspec.FieldIsModified:           "Modified",
	filterspec.FieldHasAnyTag:            "Has Tags",
	filterspec.FieldHasTag:               "Tag",
}

var matchSymbols = map[filterspec.MatchType]string{
	filterspec.MatchExact:    "=",
	filterspec.MatchContains: "~",
	filterspec.MatchRegex:    "=~",
}

var sizeSymbols = map[filterspec.SizeOperator]string{
	filterspec.SizeGt:  ">",
	filterspec.SizeLt:  "<",
	filterspec.SizeGte: ">=",
	filterspec.SizeLte: "<=",
}

var statusLabels = map[filterspec.StatusCodeMatch]string{
	filterspec.StatusExact: "=",
	filterspec.StatusRange: "in",
	filterspec.StatusList:  "in",
}

var scopeLabels = map[filterspec.Scope]string{
	filterspec.ScopeRequest:  "Req",
	filterspec.ScopeResponse: "Res",
	filterspec.ScopeEither:   "Any",
}

// DescribeCondition 生成条件的稳定可读描述，如
// `NOT Host ~ "example.com"`、`Status in 4xx`、`Res Body =~ "error"`。
func DescribeCondition(c *filterspec.Condition) string {
	var b strings.Builder
	if c.Negate {
		b.WriteString("NOT ")
	}

	label, ok := fieldLabels[c.Field]
	if !ok {
		label = string(c.Field)
	}

	switch c.Field {
	case filterspec.FieldHost, filterspec.FieldPath:
		fmt.Fprintf(&b, "%s %s %q", label, symbolFor(c.MatchOr(filterspec.MatchContains)), c.Value)
	case filterspec.FieldMethod:
		fmt.Fprintf(&b, "%s %s %q", label, symbolFor(c.MatchOr(filterspec.MatchExact)), c.Value)
	case filterspec.FieldHeader:
		// 头部字段两侧同名，描述里带上作用域前缀
		fmt.Fprintf(&b, "%s %s[%s] %s %q",
			scopeLabels[c.Scope], label, c.Key, symbolFor(c.MatchOr(filterspec.MatchContains)), c.Value)
	case filterspec.FieldRequestBodyContains, filterspec.FieldResponseBodyContains:
		sym := "~"
		if c.Match == filterspec.MatchRegex {
			sym = "=~"
		}
		fmt.Fprintf(&b, "%s %s %q", label, sym, c.Value)
	case filterspec.FieldRequestBodySize, filterspec.FieldResponseSize:
		sym, ok := sizeSymbols[c.SizeOperator]
		if !ok {
			sym = "?"
		}
		fmt.Fprintf(&b, "%s %s %s", label, sym, formatBytes(c.SizeThreshold()))
	case filterspec.FieldStatusCode:
		fmt.Fprintf(&b, "%s %s %s", label, statusLabels[c.StatusMatchOr(filterspec.StatusExact)], c.Value)
	case filterspec.FieldIsLLMAPI, filterspec.FieldHasRefusal,
		filterspec.FieldIsModified, filterspec.FieldHasAnyTag:
		fmt.Fprintf(&b, "%s = %t", label, c.Bool())
	case filterspec.FieldHasTag:
		fmt.Fprintf(&b, "%s %s %q", label, symbolFor(c.MatchOr(filterspec.MatchContains)), c.Value)
	default:
		fmt.Fprintf(&b, "%s %q", label, c.Value)
	}
	return b.String()
}

// DescribeFilter 逐条描述整个过滤配置，按组展开
func DescribeFilter(af *filterspec.AdvancedFilter) []string {
	if af == nil {
		return nil
	}
	var out []string
	for gi := range af.Groups {
		g := &af.Groups[gi]
		for ci := range g.Conditions {
			out = append(out, fmt.Sprintf("[%d/%s] %s", gi, g.Operator, DescribeCondition(&g.Conditions[ci])))
		}
	}
	return out
}

func symbolFor(mt filterspec.MatchType) string {
	if s, ok := matchSymbols[mt]; ok {
		return s
	}
	return "?"
}

// formatBytes 字节数的简短展示：B 原样，KB/MB 保留一位小数
func formatBytes(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1fMB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1fKB", float64(n)/1024)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
