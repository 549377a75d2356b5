package rules

import (
	"strconv"
	"strings"

	"tollbooth/pkg/filterspec"
)

// 本文件是与后端过滤逻辑对齐的原子匹配原语。
// 所有函数纯函数、永不 panic：坏正则和非数字输入一律按不匹配降级。

// MatchValue 按匹配方式比较文本字段
func MatchValue(actual string, mt filterspec.MatchType, expected string) bool {
	switch mt {
	case filterspec.MatchExact:
		return actual == expected
	case filterspec.MatchContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(expected))
	case filterspec.MatchRegex:
		re := regexCache.Get(expected)
		if re == nil {
			return false
		}
		return re.MatchString(actual)
	default:
		return false
	}
}

// MatchTag 任一标签命中即为真，标签缺失/为空恒为假
func MatchTag(tags []string, mt filterspec.MatchType, pattern string) bool {
	if len(tags) == 0 {
		return false
	}
	switch mt {
	case filterspec.MatchExact:
		for _, t := range tags {
			if strings.EqualFold(t, pattern) {
				return true
			}
		}
	case filterspec.MatchContains:
		p := strings.ToLower(pattern)
		for _, t := range tags {
			if strings.Contains(strings.ToLower(t), p) {
				return true
			}
		}
	case filterspec.MatchRegex:
		re := regexCache.Get(pattern)
		if re == nil {
			return false
		}
		for _, t := range tags {
			if re.MatchString(t) {
				return true
			}
		}
	}
	return false
}

// MatchStatusCode 按匹配方式比较状态码。
// range 依次尝试：状态段（4xx）、比较算子（>=400）、数值区间（200-299）。
func MatchStatusCode(code int, sm filterspec.StatusCodeMatch, value string) bool {
	switch sm {
	case filterspec.StatusExact:
		n, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		return code == n
	case filterspec.StatusRange:
		return matchStatusRange(code, value)
	case filterspec.StatusList:
		for _, part := range strings.Split(value, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			if code == n {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func matchStatusRange(code int, value string) bool {
	v := strings.TrimSpace(value)

	// 状态段：1xx ~ 5xx
	if len(v) == 3 && v[0] >= '1' && v[0] <= '5' &&
		(v[1] == 'x' || v[1] == 'X') && (v[2] == 'x' || v[2] == 'X') {
		return code/100 == int(v[0]-'0')
	}

	// 比较算子：>=400 / <=499 / >400 / <500
	for _, op := range []string{">=", "<=", ">", "<"} {
		if !strings.HasPrefix(v, op) {
			continue
		}
		n, err := strconv.Atoi(v[len(op):])
		if err != nil {
			return false
		}
		switch op {
		case ">=":
			return code >= n
		case "<=":
			return code <= n
		case ">":
			return code > n
		default:
			return code < n
		}
	}

	// 数值区间：200-299
	if lo, hi, ok := strings.Cut(v, "-"); ok {
		min, err1 := strconv.Atoi(lo)
		max, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil {
			return false
		}
		return code >= min && code <= max
	}

	return false
}

// MatchSize 按算子比较大小
func MatchSize(size int64, op filterspec.SizeOperator, bytes int64) bool {
	switch op {
	case filterspec.SizeGt:
		return size > bytes
	case filterspec.SizeLt:
		return size < bytes
	case filterspec.SizeGte:
		return size >= bytes
	case filterspec.SizeLte:
		return size <= bytes
	default:
		return false
	}
}

// matchBody 正文匹配：regex 走大小写无关正则，其余按字面子串
func matchBody(content *string, mt filterspec.MatchType, value string) bool {
	if content == nil {
		return false
	}
	if mt == filterspec.MatchRegex {
		re := regexCache.Get(value)
		if re == nil {
			return false
		}
		return re.MatchString(*content)
	}
	return strings.Contains(*content, value)
}

// matchBodySize 正文大小匹配，正文缺失恒为假
func matchBodySize(content *string, c *filterspec.Condition) bool {
	if content == nil {
		return false
	}
	return MatchSize(int64(len(*content)), c.SizeOperator, c.SizeThreshold())
}
