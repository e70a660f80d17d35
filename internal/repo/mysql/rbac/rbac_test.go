package rbac

import (
	"context"
	"testing"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/pkg/database"
	"accesscore/internal/repo/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type repos struct {
	db    *gorm.DB
	uow   *mysql.UnitOfWorkFactory
	users *UserRepository
	roles *RoleRepository
	perms *PermissionRepository
	menus *MenuRepository
	depts *DepartmentRepository
}

func setup(t *testing.T) *repos {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return &repos{
		db:    db,
		uow:   mysql.NewUnitOfWorkFactory(db, nil),
		users: NewUserRepository(db),
		roles: NewRoleRepository(db),
		perms: NewPermissionRepository(db),
		menus: NewMenuRepository(db),
		depts: NewDepartmentRepository(db),
	}
}

// inTx 在一个工作单元内执行 fn 并提交
func (r *repos) inTx(t *testing.T, fn func(ctx context.Context)) {
	t.Helper()
	ctx, u := r.uow.Provide(context.Background())
	require.NoError(t, u.BeginTransaction(ctx))
	fn(ctx)
	require.NoError(t, u.Commit(ctx))
}

func ptr(v uint64) *uint64 { return &v }

func TestRoleSaveAndLoadJoins(t *testing.T) {
	r := setup(t)
	var roleID, p1, p2 uint64

	r.inTx(t, func(ctx context.Context) {
		a := model.NewPermission("user:read", model.PermissionSpec{Name: "读用户", ResourceType: "api", ResourcePath: "/api/users/*", HTTPMethod: "get"}, false)
		b := model.NewPermission("user:write", model.PermissionSpec{Name: "写用户", ResourceType: "API", ResourcePath: "/api/users"}, false)
		require.NoError(t, r.perms.Save(ctx, a))
		require.NoError(t, r.perms.Save(ctx, b))
		_, err := mysql.SaveChanges(ctx)
		require.NoError(t, err)
		p1, p2 = a.ID, b.ID

		role := model.NewRole("运营", "ops", "")
		_, err = role.AddPermission(p1)
		require.NoError(t, err)
		_, err = role.AddPermission(p2)
		require.NoError(t, err)
		require.NoError(t, r.roles.Save(ctx, role))
		_, err = mysql.SaveChanges(ctx)
		require.NoError(t, err)
		roleID = role.ID
	})

	ctx := context.Background()
	role, err := r.roles.Get(ctx, roleID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{p1, p2}, role.PermissionIDs())
	for _, rp := range role.Permissions {
		assert.Equal(t, roleID, rp.RoleID)
	}

	byCode, err := r.roles.GetByCode(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, roleID, byCode.ID)

	taken, err := r.roles.ExistsCode(ctx, "ops", 0)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = r.roles.ExistsCode(ctx, "ops", roleID)
	require.NoError(t, err)
	assert.False(t, taken)

	perms, err := r.perms.ListByRoleIDs(ctx, []uint64{roleID})
	require.NoError(t, err)
	require.Len(t, perms, 2)
	assert.Equal(t, "API", perms[0].ResourceType)
	assert.Equal(t, "GET", perms[0].HTTPMethod)

	ids, err := r.roles.RoleIDsByPermission(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{roleID}, ids)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	r := setup(t)
	ctx := context.Background()

	_, err := r.roles.Get(ctx, 99)
	assert.True(t, system.IsNotFound(err))
	_, err = r.users.Get(ctx, 99)
	assert.True(t, system.IsNotFound(err))
	_, err = r.perms.Get(ctx, 99)
	assert.True(t, system.IsNotFound(err))
	_, err = r.menus.Get(ctx, 99)
	assert.True(t, system.IsNotFound(err))
	_, err = r.depts.Get(ctx, 99)
	assert.True(t, system.IsNotFound(err))
	_, err = r.roles.GetByCode(ctx, "none")
	assert.True(t, system.IsNotFound(err))
}

func TestRoleForestAndUserFanOut(t *testing.T) {
	r := setup(t)
	var parent, child *model.Role
	var alice, bob *model.User

	r.inTx(t, func(ctx context.Context) {
		parent = model.NewRole("主管", "lead", "")
		child = model.NewRole("组员", "member", "")
		require.NoError(t, r.roles.Save(ctx, parent))
		require.NoError(t, r.roles.Save(ctx, child))
		_, err := mysql.SaveChanges(ctx)
		require.NoError(t, err)

		forest, err := r.roles.Forest(ctx, 0)
		require.NoError(t, err)
		_, err = child.SetParentRole(ptr(parent.ID), forest)
		require.NoError(t, err)
		require.NoError(t, r.roles.Save(ctx, child))

		alice = model.NewUser("alice", "alice@example.com", "h", "Alice")
		bob = model.NewUser("bob", "bob@example.com", "h", "Bob")
		require.NoError(t, r.users.Save(ctx, alice))
		require.NoError(t, r.users.Save(ctx, bob))
		_, err = mysql.SaveChanges(ctx)
		require.NoError(t, err)
		_, err = alice.AddRole(child.ID)
		require.NoError(t, err)
		_, err = bob.AddRole(parent.ID)
		require.NoError(t, err)
		require.NoError(t, r.users.Save(ctx, alice))
		require.NoError(t, r.users.Save(ctx, bob))
	})

	ctx := context.Background()
	forest, err := r.roles.Forest(ctx, 0)
	require.NoError(t, err)
	p, ok := forest.Parent(child.ID)
	require.True(t, ok)
	assert.Equal(t, parent.ID, p)

	users, err := r.roles.UserIDsByRoles(ctx, []uint64{parent.ID, child.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint64{alice.ID, bob.ID}, users)

	n, err := r.roles.CountUsers(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	loaded, err := r.users.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{child.ID}, loaded.RoleIDs())
	assert.True(t, loaded.Active)
	assert.Equal(t, int64(1), loaded.PasswordV)

	taken, err := r.users.ExistsEmail(ctx, "bob@example.com", alice.ID)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestUserDepartmentsPersistPrimaryFlag(t *testing.T) {
	r := setup(t)
	var user *model.User
	var hq, lab *model.Department

	r.inTx(t, func(ctx context.Context) {
		hq = model.NewDepartment("总部", "hq", "", 0)
		lab = model.NewDepartment("实验室", "lab", "", 1)
		require.NoError(t, r.depts.Save(ctx, hq))
		require.NoError(t, r.depts.Save(ctx, lab))
		user = model.NewUser("carol", "carol@example.com", "h", "Carol")
		require.NoError(t, r.users.Save(ctx, user))
		_, err := mysql.SaveChanges(ctx)
		require.NoError(t, err)

		_, err = user.AddDepartment(hq.ID, false)
		require.NoError(t, err)
		_, err = user.AddDepartment(lab.ID, true)
		require.NoError(t, err)
		require.NoError(t, r.users.Save(ctx, user))
	})

	ctx := context.Background()
	loaded, err := r.users.Get(ctx, user.ID)
	require.NoError(t, err)
	primary, ok := loaded.PrimaryDepartmentID()
	require.True(t, ok)
	assert.Equal(t, lab.ID, primary)

	members, err := r.users.ListByDepartment(ctx, hq.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "carol", members[0].Username)

	n, err := r.users.CountByDepartment(ctx, lab.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	r.inTx(t, func(ctx context.Context) {
		u, err := r.users.Get(ctx, user.ID)
		require.NoError(t, err)
		u.MarkDeleted()
		require.NoError(t, r.users.Delete(ctx, u))
	})
	n, err = r.users.CountByDepartment(ctx, lab.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMenuForestAndRoleMenus(t *testing.T) {
	r := setup(t)
	var root, leaf *model.Menu
	var role *model.Role

	r.inTx(t, func(ctx context.Context) {
		root = model.NewMenu("system", model.MenuSpec{Name: "系统管理", Visible: true}, true)
		leaf = model.NewMenu("system:user", model.MenuSpec{Name: "用户管理", Path: "/system/user", Visible: true}, false)
		require.NoError(t, r.menus.Save(ctx, root))
		require.NoError(t, r.menus.Save(ctx, leaf))
		_, err := mysql.SaveChanges(ctx)
		require.NoError(t, err)

		forest, err := r.menus.Forest(ctx, 0)
		require.NoError(t, err)
		_, err = leaf.SetParent(ptr(root.ID), forest)
		require.NoError(t, err)
		require.NoError(t, r.menus.Save(ctx, leaf))

		role = model.NewRole("审计", "auditor", "")
		require.NoError(t, r.roles.Save(ctx, role))
		_, err = mysql.SaveChanges(ctx)
		require.NoError(t, err)
		_, err = role.AddMenu(leaf.ID)
		require.NoError(t, err)
		require.NoError(t, r.roles.Save(ctx, role))
	})

	ctx := context.Background()
	ids, err := r.menus.MenuIDsByRoles(ctx, []uint64{role.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint64{leaf.ID}, ids)

	forest, err := r.menus.Forest(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{leaf.ID}, forest.Children(root.ID))

	r.inTx(t, func(ctx context.Context) {
		m, err := r.menus.Get(ctx, leaf.ID)
		require.NoError(t, err)
		_, err = m.MarkDeleted(0)
		require.NoError(t, err)
		require.NoError(t, r.menus.Delete(ctx, m))
	})
	ids, err = r.roles.RoleIDsByMenu(ctx, leaf.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPermissionListByGroupAndDelete(t *testing.T) {
	r := setup(t)
	var keep, drop *model.Permission

	r.inTx(t, func(ctx context.Context) {
		keep = model.NewPermission("menu:read", model.PermissionSpec{Name: "读菜单", GroupName: "menu", ResourceType: "API"}, false)
		drop = model.NewPermission("dept:read", model.PermissionSpec{Name: "读部门", GroupName: "dept", ResourceType: "API"}, false)
		require.NoError(t, r.perms.Save(ctx, keep))
		require.NoError(t, r.perms.Save(ctx, drop))
	})

	ctx := context.Background()
	list, err := r.perms.List(ctx, "menu")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "menu:read", list[0].Code)

	r.inTx(t, func(ctx context.Context) {
		p, err := r.perms.Get(ctx, drop.ID)
		require.NoError(t, err)
		_, err = p.MarkDeleted(nil)
		require.NoError(t, err)
		require.NoError(t, r.perms.Delete(ctx, p))
	})
	all, err := r.perms.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	byIDs, err := r.perms.ListByIDs(ctx, []uint64{keep.ID, drop.ID})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)
}

func TestForestLoadLocksRowsInsideCommand(t *testing.T) {
	r := setup(t)
	var locked []bool
	require.NoError(t, r.db.Callback().Query().Before("gorm:query").Register("test:locking", func(tx *gorm.DB) {
		if tx.Statement.Table == "roles" {
			_, ok := tx.Statement.Clauses["FOR"]
			locked = append(locked, ok)
		}
	}))

	_, err := r.roles.Forest(context.Background(), 0)
	require.NoError(t, err)
	r.inTx(t, func(ctx context.Context) {
		_, err := r.roles.Forest(ctx, 0)
		require.NoError(t, err)
	})

	assert.Equal(t, []bool{false, true}, locked)
}
