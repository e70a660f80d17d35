package hierarchy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v uint64) *uint64 { return &v }

// 1 -> 2 -> 3 -> 4, 1 -> 5, 6
func sample() *Forest {
	return NewForest([]Link{
		{ID: 1},
		{ID: 2, ParentID: ptr(1)},
		{ID: 3, ParentID: ptr(2)},
		{ID: 4, ParentID: ptr(3)},
		{ID: 5, ParentID: ptr(1)},
		{ID: 6},
	}, 0)
}

func TestCanSetParentRejectsCycles(t *testing.T) {
	f := sample()

	var cycle *CycleError
	err := f.CanSetParent(2, 2)
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, uint64(2), cycle.ClosedBy)

	// 任意后代都不能成为父节点
	for _, d := range []uint64{2, 3, 4, 5} {
		err := f.CanSetParent(1, d)
		require.ErrorAs(t, err, &cycle, "descendant %d", d)
		assert.Equal(t, d, cycle.ClosedBy)
	}

	assert.NoError(t, f.CanSetParent(6, 4))
	assert.NoError(t, f.CanSetParent(5, 3))
}

func TestSetParentLeavesForestUnchangedOnCycle(t *testing.T) {
	f := sample()

	err := f.SetParent(2, ptr(4))
	require.Error(t, err)

	p, ok := f.Parent(2)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), p)
	assert.Equal(t, []uint64{2, 5}, f.Children(1))
	assert.Equal(t, []uint64{3}, f.Children(2))
}

func TestSetParentMovesSubtree(t *testing.T) {
	f := sample()

	require.NoError(t, f.SetParent(3, ptr(6)))
	assert.Equal(t, []uint64{3}, f.Children(6))
	assert.Empty(t, f.Children(2))

	anc, err := f.Ancestors(4)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 6}, anc)

	require.NoError(t, f.SetParent(3, nil))
	_, ok := f.Parent(3)
	assert.False(t, ok)
	assert.Equal(t, []uint64{1, 3, 6}, f.Roots())
}

func TestDescendantsAndAncestors(t *testing.T) {
	f := sample()

	desc, err := f.Descendants(1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{2, 3, 4, 5}, desc)

	anc, err := f.Ancestors(4)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 2, 1}, anc)

	_, err = f.Descendants(99)
	var unknown *UnknownNodeError
	assert.ErrorAs(t, err, &unknown)
}

func TestCorruptedStorageCycleHitsBound(t *testing.T) {
	// 存储中已存在的环 1 -> 2 -> 1
	f := NewForest([]Link{{ID: 1, ParentID: ptr(2)}, {ID: 2, ParentID: ptr(1)}}, 4)

	_, err := f.Ancestors(1)
	assert.True(t, errors.Is(err, ErrDepthExceeded))

	_, err = f.Descendants(1)
	assert.True(t, errors.Is(err, ErrDepthExceeded))
}

func TestDepthBound(t *testing.T) {
	links := []Link{{ID: 1}}
	for i := uint64(2); i <= 10; i++ {
		links = append(links, Link{ID: i, ParentID: ptr(i - 1)})
	}
	f := NewForest(links, 5)

	_, err := f.Ancestors(10)
	assert.ErrorIs(t, err, ErrDepthExceeded)

	anc, err := f.Ancestors(5)
	require.NoError(t, err)
	assert.Len(t, anc, 4)
}

func TestAddRemove(t *testing.T) {
	f := sample()

	require.NoError(t, f.Add(7, ptr(4)))
	assert.True(t, f.Contains(7))
	assert.Error(t, f.Add(7, nil))
	assert.Error(t, f.Add(8, ptr(99)))
	assert.False(t, f.Contains(8))

	assert.Error(t, f.Remove(4))
	require.NoError(t, f.Remove(7))
	assert.Empty(t, f.Children(4))
}

func TestBuildTree(t *testing.T) {
	f := sample()
	items := map[uint64]string{1: "b-root", 2: "x", 5: "a", 6: "a-root", 4: "orphan"}

	roots := BuildTree(f, items, func(a, b string) bool { return a < b })
	require.Len(t, roots, 3)
	assert.Equal(t, "a-root", roots[0].Value)
	assert.Equal(t, "b-root", roots[1].Value)
	assert.Equal(t, "orphan", roots[2].Value)

	require.Len(t, roots[1].Children, 2)
	assert.Equal(t, "a", roots[1].Children[0].Value)
	assert.Equal(t, "x", roots[1].Children[1].Value)
}
