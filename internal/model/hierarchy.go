package model

import (
	"errors"

	"accesscore/internal/model/system"
	"accesscore/internal/pkg/hierarchy"
)

// reparent 在已加载的森林上移动节点，并把层级错误翻译为领域错误；
// 父节点未变化时返回 changed=false
func reparent(forest *hierarchy.Forest, entity string, id uint64, current *uint64, next *uint64) (changed bool, err error) {
	if forest == nil {
		return false, system.NewInternalError("set "+entity+" parent", hierarchy.ErrNotHydrated)
	}
	if sameParent(current, next) {
		return false, nil
	}
	if err := forest.SetParent(id, next); err != nil {
		var cycle *hierarchy.CycleError
		var unknown *hierarchy.UnknownNodeError
		switch {
		case errors.As(err, &cycle):
			return false, system.NewBusinessRuleError(system.RuleHierarchyCycle, "%s %d: %s", entity, id, cycle.Error())
		case errors.As(err, &unknown):
			return false, system.NewNotFoundError(entity, unknown.ID)
		default:
			return false, system.NewInternalError("set "+entity+" parent", err)
		}
	}
	return true, nil
}

func sameParent(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyID(p *uint64) *uint64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// diffIDs 计算 next 相对 current 的增减，保持输入顺序并去重
func diffIDs(current, next []uint64) (added, removed []uint64) {
	have := make(map[uint64]bool, len(current))
	for _, id := range current {
		have[id] = true
	}
	want := make(map[uint64]bool, len(next))
	for _, id := range next {
		if want[id] {
			continue
		}
		want[id] = true
		if !have[id] {
			added = append(added, id)
		}
	}
	for _, id := range current {
		if !want[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}
