package rules

import (
	"sync"

	"tollbooth/pkg/filterspec"
	"tollbooth/pkg/flow"
	"tollbooth/pkg/model"
)

// EvaluateGroup 组内条件求值：conditions 为空时恒真
func EvaluateGroup(f *flow.TrafficFlow, g *filterspec.Group) bool {
	if len(g.Conditions) == 0 {
		return true
	}
	if g.Operator == filterspec.OpOr {
		for i := range g.Conditions {
			if EvaluateCondition(f, &g.Conditions[i]) {
				return true
			}
		}
		return false
	}
	for i := range g.Conditions {
		if !EvaluateCondition(f, &g.Conditions[i]) {
			return false
		}
	}
	return true
}

// EvaluateFilter 顶层求值：禁用或无分组的过滤器匹配一切
func EvaluateFilter(f *flow.TrafficFlow, af *filterspec.AdvancedFilter) bool {
	if af == nil || !af.Enabled || len(af.Groups) == 0 {
		return true
	}
	if af.Operator == filterspec.OpOr {
		for i := range af.Groups {
			if EvaluateGroup(f, &af.Groups[i]) {
				return true
			}
		}
		return false
	}
	for i := range af.Groups {
		if !EvaluateGroup(f, &af.Groups[i]) {
			return false
		}
	}
	return true
}

// Engine 持有当前过滤配置并累计统计。求值本身仍是纯函数，
// Engine 只是给调用方一个可热更新配置、带计数的外壳。
type Engine struct {
	mu     sync.RWMutex
	filter *filterspec.AdvancedFilter
	stats  model.EngineStats
}

// New 创建过滤引擎
func New(af *filterspec.AdvancedFilter) *Engine {
	return &Engine{filter: af}
}

// Update 替换当前过滤配置
func (e *Engine) Update(af *filterspec.AdvancedFilter) {
	e.mu.Lock()
	e.filter = af
	e.mu.Unlock()
}

// Filter 返回当前过滤配置
func (e *Engine) Filter() *filterspec.AdvancedFilter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.filter
}

// Eval 对单个流量求值当前过滤配置并累计统计
func (e *Engine) Eval(f *flow.TrafficFlow) bool {
	e.mu.RLock()
	af := e.filter
	e.mu.RUnlock()

	matched := EvaluateFilter(f, af)

	e.mu.Lock()
	e.stats.Total++
	if matched {
		e.stats.Matched++
	}
	e.mu.Unlock()
	return matched
}

// Stats 返回统计快照
func (e *Engine) Stats() model.EngineStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// ResetStats 清零统计
func (e *Engine) ResetStats() {
	e.mu.Lock()
	e.stats = model.EngineStats{}
	e.mu.Unlock()
}
