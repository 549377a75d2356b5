package filterspec

// Operator 组内/组间的布尔组合方式
type Operator string

const (
	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
)

// Scope 条件读取请求侧、响应侧还是任一侧
type Scope string

const (
	ScopeRequest  Scope = "request"
	ScopeResponse Scope = "response"
	ScopeEither   Scope = "either"
)

// MatchType 文本字段的匹配方式
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
	MatchRegex    MatchType = "regex"
)

// StatusCodeMatch 状态码字段的匹配方式
type StatusCodeMatch string

const (
	StatusExact StatusCodeMatch = "exact"
	StatusRange StatusCodeMatch = "range"
	StatusList  StatusCodeMatch = "list"
)

// SizeOperator 大小字段的比较算子
type SizeOperator string

const (
	SizeGt  SizeOperator = "gt"
	SizeLt  SizeOperator = "lt"
	SizeGte SizeOperator = "gte"
	SizeLte SizeOperator = "lte"
)

// Field 条件字段（封闭枚举）
type Field string

const (
	FieldHost                 Field = "host"
	FieldPath                 Field = "path"
	FieldMethod               Field = "method"
	FieldHeader               Field = "header"
	FieldRequestBodyContains  Field = "request_body_contains"
	FieldRequestBodySize      Field = "request_body_size"
	FieldStatusCode           Field = "status_code"
	FieldResponseBodyContains Field = "response_body_contains"
	FieldResponseSize         Field = "response_size"
	FieldIsLLMAPI             Field = "is_llm_api"
	FieldHasRefusal           Field = "has_refusal"
	FieldIsModified           Field = "is_modified"
	FieldHasAnyTag            Field = "has_any_tag"
	FieldHasTag               Field = "has_tag"
)

// Condition 单个过滤条件。持久化格式是带大量可选成员的扁平记录，
// 字段间的合法组合由 Lint 在加载边界校验。
type Condition struct {
	Scope        Scope           `json:"scope"`
	Field        Field           `json:"field"`
	Match        MatchType       `json:"match,omitempty"`
	StatusMatch  StatusCodeMatch `json:"statusMatch,omitempty"`
	SizeOperator SizeOperator    `json:"sizeOperator,omitempty"`
	SizeBytes    *int64          `json:"sizeBytes,omitempty"`
	Value        string          `json:"value,omitempty"`
	Key          string          `json:"key,omitempty"`
	BoolValue    *bool           `json:"boolValue,omitempty"`
	Negate       bool            `json:"negate,omitempty"`
}

// Group 一组条件的布尔组合，conditions 为空时恒真
type Group struct {
	Operator   Operator    `json:"operator"`
	Conditions []Condition `json:"conditions"`
}

// AdvancedFilter 顶层过滤配置。enabled 为 false 或 groups 为空时匹配一切。
type AdvancedFilter struct {
	Enabled  bool     `json:"enabled"`
	Operator Operator `json:"operator"`
	Groups   []Group  `json:"groups"`
}

// Bool 返回布尔比较值，缺省为 true
func (c *Condition) Bool() bool {
	if c.BoolValue == nil {
		return true
	}
	return *c.BoolValue
}

// SizeThreshold 返回大小阈值，缺省为 0
func (c *Condition) SizeThreshold() int64 {
	if c.SizeBytes == nil {
		return 0
	}
	return *c.SizeBytes
}

// MatchOr 返回匹配方式，未设置时回退到字段各自的默认值
func (c *Condition) MatchOr(def MatchType) MatchType {
	if c.Match == "" {
		return def
	}
	return c.Match
}

// StatusMatchOr 返回状态码匹配方式，未设置时回退到默认值
func (c *Condition) StatusMatchOr(def StatusCodeMatch) StatusCodeMatch {
	if c.StatusMatch == "" {
		return def
	}
	return c.StatusMatch
}
