package filterspec

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Problem 单个条件上的配置问题。求值本身永不报错（坏条件按不匹配处理），
// 诊断信息单独产出，供上层在编辑界面标注仍在输入中的无效模式。
type Problem struct {
	Group     int    `json:"group"`
	Condition int    `json:"condition"`
	Message   string `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("group %d condition %d: %s", p.Group, p.Condition, p.Message)
}

var validFields = map[Field]bool{
	FieldHost: true, FieldPath: true, FieldMethod: true, FieldHeader: true,
	FieldRequestBodyContains: true, FieldRequestBodySize: true,
	FieldStatusCode: true, FieldResponseBodyContains: true, FieldResponseSize: true,
	FieldIsLLMAPI: true, FieldHasRefusal: true, FieldIsModified: true,
	FieldHasAnyTag: true, FieldHasTag: true,
}

var sizeFields = map[Field]bool{
	FieldRequestBodySize: true,
	FieldResponseSize:    true,
}

// Parse 解析持久化的过滤配置
func Parse(data []byte) (*AdvancedFilter, error) {
	var f AdvancedFilter
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}
	return &f, nil
}

// Lint 检查过滤配置并返回全部问题，配置合法时返回空切片。
// 不改变求值语义：即便有问题的条件，EvaluateFilter 仍按不匹配降级。
func Lint(f *AdvancedFilter) []Problem {
	var problems []Problem
	if f == nil {
		return problems
	}
	for gi := range f.Groups {
		g := &f.Groups[gi]
		for ci := range g.Conditions {
			c := &g.Conditions[ci]
			for _, msg := range lintCondition(c) {
				problems = append(problems, Problem{Group: gi, Condition: ci, Message: msg})
			}
		}
	}
	return problems
}

func lintCondition(c *Condition) []string {
	var msgs []string

	if !validFields[c.Field] {
		msgs = append(msgs, fmt.Sprintf("unknown field %q", c.Field))
		return msgs
	}

	switch c.Scope {
	case ScopeRequest, ScopeResponse, ScopeEither:
	default:
		msgs = append(msgs, fmt.Sprintf("unknown scope %q", c.Scope))
	}

	if c.Match == MatchRegex {
		if _, err := regexp.Compile("(?i)" + c.Value); err != nil {
			msgs = append(msgs, fmt.Sprintf("invalid regex %q: %v", c.Value, err))
		}
	}

	if sizeFields[c.Field] {
		switch c.SizeOperator {
		case SizeGt, SizeLt, SizeGte, SizeLte:
		case "":
			msgs = append(msgs, "size field requires sizeOperator")
		default:
			msgs = append(msgs, fmt.Sprintf("unknown sizeOperator %q", c.SizeOperator))
		}
		if c.SizeBytes != nil && *c.SizeBytes < 0 {
			msgs = append(msgs, "sizeBytes must be non-negative")
		}
	} else if c.SizeOperator != "" || c.SizeBytes != nil {
		msgs = append(msgs, fmt.Sprintf("size members are not applicable to field %q", c.Field))
	}

	if c.Field == FieldStatusCode {
		switch c.StatusMatch {
		case StatusExact, StatusRange, StatusList, "":
		default:
			msgs = append(msgs, fmt.Sprintf("unknown statusMatch %q", c.StatusMatch))
		}
	} else if c.StatusMatch != "" {
		msgs = append(msgs, fmt.Sprintf("statusMatch is not applicable to field %q", c.Field))
	}

	if c.Field == FieldHeader && c.Key == "" {
		msgs = append(msgs, "header condition requires key")
	}

	return msgs
}
