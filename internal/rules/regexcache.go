package rules

import (
	"regexp"
	"sync"
)

// regexCache 进程级正则缓存。过滤条件里的模式数量有限且重复率高，
// 按 (?i) 展开后的最终模式做键；超出容量时整体清空，避免淘汰簿记。
type patternCache struct {
	mu  sync.RWMutex
	max int
	m   map[string]*regexp.Regexp
	bad map[string]bool
}

const regexCacheCap = 256

var regexCache = &patternCache{
	max: regexCacheCap,
	m:   make(map[string]*regexp.Regexp),
	bad: make(map[string]bool),
}

// Get 返回编译好的大小写无关正则，编译失败返回 nil。
// 失败结果同样缓存，用户输入中途的坏模式不会反复触发编译。
func (c *patternCache) Get(pattern string) *regexp.Regexp {
	key := "(?i)" + pattern

	c.mu.RLock()
	re, ok := c.m[key]
	bad := c.bad[key]
	c.mu.RUnlock()
	if ok {
		return re
	}
	if bad {
		return nil
	}

	compiled, err := regexp.Compile(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.m)+len(c.bad) >= c.max {
		c.m = make(map[string]*regexp.Regexp)
		c.bad = make(map[string]bool)
	}
	if err != nil {
		c.bad[key] = true
		return nil
	}
	c.m[key] = compiled
	return compiled
}
