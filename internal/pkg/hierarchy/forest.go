/**
 * 层级结构:角色/菜单/部门共用的森林
 * @author: sun977
 * @date: 2025.10.14
 * @description: 以 id 为节点的森林，parent 邻接表 + children 反向索引；
 *               设置父节点前做环路检查，遍历带深度上限
 * @func: NewForest, CanSetParent, SetParent, Ancestors, Descendants, BuildTree
 */
package hierarchy

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultMaxDepth 默认最大遍历深度
const DefaultMaxDepth = 32

// ErrDepthExceeded 遍历超过深度上限，说明存储中存在未检测到的环或层级过深
var ErrDepthExceeded = errors.New("hierarchy depth bound exceeded")

// ErrNotHydrated 森林未加载
var ErrNotHydrated = errors.New("hierarchy not hydrated")

// Link 一条父子关系，ParentID 为 nil 表示根节点
type Link struct {
	ID       uint64
	ParentID *uint64
}

// CycleError 设置父节点会形成环
type CycleError struct {
	Node     uint64 // 被修改的节点
	Parent   uint64 // 拟设置的父节点
	ClosedBy uint64 // 闭合环路的节点
}

func (e *CycleError) Error() string {
	if e.Node == e.Parent {
		return fmt.Sprintf("node %d cannot be its own parent", e.Node)
	}
	return fmt.Sprintf("node %d cannot be placed under %d: %d is already in its subtree", e.Node, e.Parent, e.ClosedBy)
}

// UnknownNodeError 节点不在森林中
type UnknownNodeError struct {
	ID uint64
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("node %d is not part of the hierarchy", e.ID)
}

// Forest 森林，非并发安全；每个工作单元各自加载
type Forest struct {
	parent   map[uint64]uint64 // child -> parent，0 表示根
	children map[uint64][]uint64
	maxDepth int
}

// NewForest 由完整的父子关系列表构建森林
func NewForest(links []Link, maxDepth int) *Forest {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	f := &Forest{
		parent:   make(map[uint64]uint64, len(links)),
		children: make(map[uint64][]uint64),
		maxDepth: maxDepth,
	}
	for _, l := range links {
		var p uint64
		if l.ParentID != nil {
			p = *l.ParentID
		}
		f.parent[l.ID] = p
	}
	for id, p := range f.parent {
		if p != 0 {
			f.children[p] = append(f.children[p], id)
		}
	}
	for p := range f.children {
		sortIDs(f.children[p])
	}
	return f
}

// Len 节点数量
func (f *Forest) Len() int {
	return len(f.parent)
}

// Contains 节点是否存在
func (f *Forest) Contains(id uint64) bool {
	_, ok := f.parent[id]
	return ok
}

// Parent 返回父节点，根节点返回 (0, false)
func (f *Forest) Parent(id uint64) (uint64, bool) {
	p, ok := f.parent[id]
	if !ok || p == 0 {
		return 0, false
	}
	return p, true
}

// Children 返回直接子节点(按 id 升序)
func (f *Forest) Children(id uint64) []uint64 {
	out := make([]uint64, len(f.children[id]))
	copy(out, f.children[id])
	return out
}

// Roots 返回所有根节点(按 id 升序)
func (f *Forest) Roots() []uint64 {
	var roots []uint64
	for id, p := range f.parent {
		if p == 0 || !f.Contains(p) {
			roots = append(roots, id)
		}
	}
	sortIDs(roots)
	return roots
}

// Add 加入新节点
func (f *Forest) Add(id uint64, parentID *uint64) error {
	if f.Contains(id) {
		return fmt.Errorf("node %d already exists", id)
	}
	f.parent[id] = 0
	if parentID == nil {
		return nil
	}
	if err := f.SetParent(id, parentID); err != nil {
		delete(f.parent, id)
		return err
	}
	return nil
}

// Remove 移除叶子节点
func (f *Forest) Remove(id uint64) error {
	if len(f.children[id]) > 0 {
		return fmt.Errorf("node %d still has %d children", id, len(f.children[id]))
	}
	f.detach(id)
	delete(f.parent, id)
	return nil
}

// Descendants 返回 id 的全部后代(不含自身)，广度优先
func (f *Forest) Descendants(id uint64) ([]uint64, error) {
	if !f.Contains(id) {
		return nil, &UnknownNodeError{ID: id}
	}
	var out []uint64
	seen := map[uint64]bool{id: true}
	level := []uint64{id}
	for depth := 0; len(level) > 0; depth++ {
		if depth > f.maxDepth {
			return nil, ErrDepthExceeded
		}
		var next []uint64
		for _, n := range level {
			for _, c := range f.children[n] {
				if seen[c] {
					return nil, ErrDepthExceeded
				}
				seen[c] = true
				out = append(out, c)
				next = append(next, c)
			}
		}
		level = next
	}
	return out, nil
}

// Ancestors 返回 id 到根的祖先链(不含自身)，近的在前
func (f *Forest) Ancestors(id uint64) ([]uint64, error) {
	if !f.Contains(id) {
		return nil, &UnknownNodeError{ID: id}
	}
	var out []uint64
	seen := map[uint64]bool{id: true}
	for cur, ok := f.Parent(id); ok; cur, ok = f.Parent(cur) {
		if seen[cur] || len(out) >= f.maxDepth {
			return nil, ErrDepthExceeded
		}
		seen[cur] = true
		out = append(out, cur)
	}
	return out, nil
}

// CanSetParent 检查把 node 挂到 parent 下是否会成环：
// parent 等于 node 本身，或 parent 已在 node 的子树中，均视为成环
func (f *Forest) CanSetParent(node, parent uint64) error {
	if !f.Contains(node) {
		return &UnknownNodeError{ID: node}
	}
	if node == parent {
		return &CycleError{Node: node, Parent: parent, ClosedBy: node}
	}
	if !f.Contains(parent) {
		return &UnknownNodeError{ID: parent}
	}
	descendants, err := f.Descendants(node)
	if err != nil {
		return err
	}
	for _, d := range descendants {
		if d == parent {
			return &CycleError{Node: node, Parent: parent, ClosedBy: d}
		}
	}
	return nil
}

// SetParent 设置父节点，parent 为 nil 时变为根；检查失败时森林保持不变
func (f *Forest) SetParent(node uint64, parent *uint64) error {
	if parent == nil {
		if !f.Contains(node) {
			return &UnknownNodeError{ID: node}
		}
		f.detach(node)
		f.parent[node] = 0
		return nil
	}
	if err := f.CanSetParent(node, *parent); err != nil {
		return err
	}
	f.detach(node)
	f.parent[node] = *parent
	f.children[*parent] = append(f.children[*parent], node)
	sortIDs(f.children[*parent])
	return nil
}

// detach 从原父节点的子列表中摘除
func (f *Forest) detach(node uint64) {
	p := f.parent[node]
	if p == 0 {
		return
	}
	siblings := f.children[p]
	for i, c := range siblings {
		if c == node {
			f.children[p] = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	if len(f.children[p]) == 0 {
		delete(f.children, p)
	}
}

func sortIDs(ids []uint64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
