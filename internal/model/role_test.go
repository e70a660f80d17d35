package model

import (
	"testing"

	"accesscore/internal/model/system"
	"accesscore/internal/pkg/hierarchy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func persistedRole(id uint64, code string) *Role {
	r := NewRole(code, code, "")
	r.ID = id
	r.DrainEvents()
	return r
}

func idPtr(v uint64) *uint64 { return &v }

func TestSetPermissionsEmitsSingleDiffEvent(t *testing.T) {
	r := persistedRole(1, "ops")
	_, _ = r.AddPermission(1)
	_, _ = r.AddPermission(2)
	_, _ = r.AddPermission(3)
	r.DrainEvents()

	e, err := r.SetPermissions([]uint64{2, 3, 4, 5, 4})
	require.NoError(t, err)

	bulk := e.(RolePermissionsBulkChanged)
	assert.Equal(t, []uint64{4, 5}, bulk.AddedPermissions)
	assert.Equal(t, []uint64{1}, bulk.RemovedPermissions)
	assert.ElementsMatch(t, []uint64{2, 3, 4, 5}, r.PermissionIDs())
	assert.Len(t, r.DrainEvents(), 1)

	e, err = r.SetPermissions([]uint64{5, 4, 3, 2})
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.Empty(t, r.PendingEvents())
}

func TestSystemRolePermissionsImmutable(t *testing.T) {
	r := NewSystemRole("Administrator", "admin", "", []uint64{1, 2})
	r.ID = 1
	r.DrainEvents()
	assert.Equal(t, []uint64{1, 2}, r.PermissionIDs())

	_, err := r.AddPermission(3)
	assert.True(t, system.IsBusinessRule(err, system.RuleSystemRoleImmutable))
	_, err = r.RemovePermission(1)
	assert.True(t, system.IsBusinessRule(err, system.RuleSystemRoleImmutable))
	_, err = r.SetPermissions(nil)
	assert.True(t, system.IsBusinessRule(err, system.RuleSystemRoleImmutable))
	_, err = r.Update("x", "y", 0)
	assert.True(t, system.IsBusinessRule(err, system.RuleSystemRoleImmutable))

	assert.Equal(t, []uint64{1, 2}, r.PermissionIDs())
	assert.Empty(t, r.PendingEvents())

	// 菜单仍可调整
	_, err = r.AddMenu(9)
	assert.NoError(t, err)
}

func TestRoleMarkDeleted(t *testing.T) {
	sys := NewSystemRole("Administrator", "admin", "", nil)
	_, err := sys.MarkDeleted(0, 0)
	assert.True(t, system.IsBusinessRule(err, system.RuleSystemRoleDeletion))

	r := persistedRole(2, "ops")
	_, err = r.MarkDeleted(3, 0)
	require.True(t, system.IsBusinessRule(err, system.RuleRoleInUse))
	assert.Equal(t, "cannot delete role in use by 3 users", err.Error())

	_, err = r.MarkDeleted(0, 1)
	assert.True(t, system.IsBusinessRule(err, system.RuleHasChildren))

	e, err := r.MarkDeleted(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "ops", e.(RoleDeleted).Code)
}

func TestSetParentRoleRejectsCycle(t *testing.T) {
	// 1 <- 2 <- 3
	forest := hierarchy.NewForest([]hierarchy.Link{
		{ID: 1},
		{ID: 2, ParentID: idPtr(1)},
		{ID: 3, ParentID: idPtr(2)},
	}, 0)
	r1 := persistedRole(1, "root")

	_, err := r1.SetParentRole(idPtr(3), forest)
	require.True(t, system.IsBusinessRule(err, system.RuleHierarchyCycle))
	assert.Nil(t, r1.ParentRoleID)
	assert.Empty(t, r1.PendingEvents())

	_, err = r1.SetParentRole(idPtr(1), forest)
	assert.True(t, system.IsBusinessRule(err, system.RuleHierarchyCycle))

	_, err = r1.SetParentRole(idPtr(42), forest)
	assert.True(t, system.IsNotFound(err))

	_, err = r1.SetParentRole(idPtr(2), nil)
	assert.True(t, system.IsInternal(err))
}

func TestSetParentRoleMovesNode(t *testing.T) {
	forest := hierarchy.NewForest([]hierarchy.Link{{ID: 1}, {ID: 2}, {ID: 3, ParentID: idPtr(1)}}, 0)
	r3 := persistedRole(3, "child")
	r3.ParentRoleID = idPtr(1)

	e, err := r3.SetParentRole(idPtr(2), forest)
	require.NoError(t, err)
	changed := e.(RoleParentChanged)
	assert.Equal(t, uint64(1), *changed.OldParentID)
	assert.Equal(t, uint64(2), *changed.NewParentID)
	assert.Equal(t, uint64(2), *r3.ParentRoleID)

	p, _ := forest.Parent(3)
	assert.Equal(t, uint64(2), p)

	// 父节点不变时无事件
	e, err = r3.SetParentRole(idPtr(2), forest)
	require.NoError(t, err)
	assert.Nil(t, e)

	e, err = r3.SetParentRole(nil, forest)
	require.NoError(t, err)
	assert.Nil(t, e.(RoleParentChanged).NewParentID)
}

func TestRoleMenus(t *testing.T) {
	r := persistedRole(1, "ops")
	_, err := r.AddMenu(1)
	require.NoError(t, err)
	_, err = r.AddMenu(1)
	assert.Error(t, err)

	e := r.SetMenus([]uint64{2})
	bulk := e.(RoleMenusBulkChanged)
	assert.Equal(t, []uint64{2}, bulk.AddedMenus)
	assert.Equal(t, []uint64{1}, bulk.RemovedMenus)

	_, err = r.RemoveMenu(1)
	assert.True(t, system.IsBusinessRule(err, system.RuleMissingAssignment))
}

func TestPermissionSystemProtection(t *testing.T) {
	p := NewPermission("user:list", PermissionSpec{Name: "List users", ResourceType: "api", ResourcePath: "/api/users", HTTPMethod: "get"}, true)
	assert.Equal(t, "API", p.ResourceType)
	assert.Equal(t, "GET", p.HTTPMethod)
	assert.False(t, p.IsPattern())

	_, err := p.Update(PermissionSpec{Name: "x"})
	assert.True(t, system.IsBusinessRule(err, system.RuleSystemPermissionImmutable))
	_, err = p.MarkDeleted(nil)
	assert.True(t, system.IsBusinessRule(err, system.RuleSystemPermissionImmutable))

	q := NewPermission("user:any", PermissionSpec{ResourceType: "API", ResourcePath: "/api/users/**"}, false)
	assert.True(t, q.IsPattern())
	e, err := q.MarkDeleted([]uint64{4})
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, e.(PermissionDeleted).RoleIDs)
}

func TestMenuAndDepartmentHierarchy(t *testing.T) {
	forest := hierarchy.NewForest([]hierarchy.Link{{ID: 1}, {ID: 2, ParentID: idPtr(1)}}, 0)

	m := NewMenu("sys", MenuSpec{Name: "System", Visible: true}, false)
	m.ID = 1
	_, err := m.SetParent(idPtr(2), forest)
	assert.True(t, system.IsBusinessRule(err, system.RuleHierarchyCycle))

	_, err = m.MarkDeleted(1)
	assert.True(t, system.IsBusinessRule(err, system.RuleHasChildren))

	d := NewDepartment("HQ", "hq", "", 0)
	d.ID = 1
	_, err = d.SetParent(idPtr(1), forest)
	assert.True(t, system.IsBusinessRule(err, system.RuleHierarchyCycle))
	_, err = d.MarkDeleted(0, 2)
	assert.True(t, system.IsBusinessRule(err, system.RuleDepartmentInUse))
}
