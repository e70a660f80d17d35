// Package matcher 资源路径匹配：精确路径、可选 HTTP 方法、/* 单级通配与 /** 任意深度通配
package matcher

import (
	"strings"
)

// ResourceTypeAPI 唯一参与路径匹配的资源类型
const ResourceTypeAPI = "API"

const (
	segmentWildcard   = "*"
	recursiveWildcard = "**"
)

// Grant 权限中参与路径匹配的部分
type Grant struct {
	ResourceType string // 资源类型，非 API 不参与路径匹配
	Path         string // 资源路径，可含 * 或以 /** 结尾
	Verb         string // HTTP 方法，为空表示任意方法
}

// Options 匹配选项
type Options struct {
	CaseInsensitive bool // 路径忽略大小写，默认区分大小写
}

// Matcher 路径匹配器，无状态，可并发使用
type Matcher struct {
	opts Options
}

// New 创建匹配器
func New(opts Options) *Matcher {
	return &Matcher{opts: opts}
}

// IsPattern 路径是否包含通配符
func IsPattern(path string) bool {
	return strings.Contains(path, segmentWildcard)
}

// Matches 按优先级依次判断：资源类型、精确匹配、通配匹配
func (m *Matcher) Matches(g Grant, path, verb string) bool {
	if !m.applicable(g, path, verb) {
		return false
	}
	if m.equal(g.Path, path) {
		return true
	}
	return m.matchPattern(g.Path, path)
}

// MatchesExact 只做精确匹配(解析器第一轮使用)
func (m *Matcher) MatchesExact(g Grant, path, verb string) bool {
	return m.applicable(g, path, verb) && m.equal(g.Path, path)
}

// applicable 资源类型与 HTTP 方法前置检查
func (m *Matcher) applicable(g Grant, path, verb string) bool {
	if g.ResourceType != ResourceTypeAPI || g.Path == "" || path == "" {
		return false
	}
	return g.Verb == "" || strings.EqualFold(g.Verb, verb)
}

func (m *Matcher) equal(a, b string) bool {
	a, b = trimSlash(a), trimSlash(b)
	if m.opts.CaseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// matchPattern 逐段匹配；以 /** 结尾时匹配前缀本身及任意深度子路径，
// 其余位置的 * 匹配恰好一个非空段
func (m *Matcher) matchPattern(pattern, path string) bool {
	if !IsPattern(pattern) {
		return false
	}
	pSegs := split(pattern)
	rSegs := split(path)

	if n := len(pSegs); n > 0 && pSegs[n-1] == recursiveWildcard {
		prefix := pSegs[:n-1]
		if len(rSegs) < len(prefix) {
			return false
		}
		return m.segmentsMatch(prefix, rSegs[:len(prefix)])
	}

	if len(pSegs) != len(rSegs) {
		return false
	}
	return m.segmentsMatch(pSegs, rSegs)
}

func (m *Matcher) segmentsMatch(pattern, path []string) bool {
	for i, p := range pattern {
		switch {
		case p == segmentWildcard:
			if path[i] == "" {
				return false
			}
		case m.opts.CaseInsensitive:
			if !strings.EqualFold(p, path[i]) {
				return false
			}
		default:
			if p != path[i] {
				return false
			}
		}
	}
	return true
}

func trimSlash(p string) string {
	if len(p) > 1 {
		return strings.TrimSuffix(p, "/")
	}
	return p
}

func split(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}
