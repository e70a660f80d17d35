package hierarchy

import "sort"

// Node 树节点
type Node[T any] struct {
	Value    T          `json:"value"`
	Children []*Node[T] `json:"children,omitempty"`
}

// BuildTree 按森林结构组装树，只保留 items 中存在的节点；
// 父节点不在 items 中的节点作为根，同级按 less 排序
func BuildTree[T any](f *Forest, items map[uint64]T, less func(a, b T) bool) []*Node[T] {
	nodes := make(map[uint64]*Node[T], len(items))
	for id, v := range items {
		nodes[id] = &Node[T]{Value: v}
	}

	var roots []*Node[T]
	for id, n := range nodes {
		if p, ok := f.Parent(id); ok {
			if parent, exists := nodes[p]; exists {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	sortNodes(roots, less)
	return roots
}

func sortNodes[T any](nodes []*Node[T], less func(a, b T) bool) {
	sort.SliceStable(nodes, func(i, j int) bool { return less(nodes[i].Value, nodes[j].Value) })
	for _, n := range nodes {
		sortNodes(n.Children, less)
	}
}
