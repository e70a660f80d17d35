package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/pkg/database"
	"accesscore/internal/pkg/event"
	"accesscore/internal/pkg/hierarchy"
	"accesscore/internal/pkg/logger"
	"accesscore/internal/pkg/matcher"
	"accesscore/internal/repo/memory"
	"accesscore/internal/repo/mysql"
	"accesscore/internal/repo/mysql/rbac"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fixture struct {
	db       *gorm.DB
	uow      *mysql.UnitOfWorkFactory
	users    *rbac.UserRepository
	roles    *rbac.RoleRepository
	perms    *rbac.PermissionRepository
	resolver *Resolver
	cache    *PermissionCache
	metrics  *CacheMetrics
	svc      *RBACService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:", gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	f := &fixture{
		db:    db,
		users: rbac.NewUserRepository(db),
		roles: rbac.NewRoleRepository(db),
		perms: rbac.NewPermissionRepository(db),
	}
	d := event.NewDispatcher()
	f.uow = mysql.NewUnitOfWorkFactory(db, d)
	f.resolver = NewResolver(f.users, f.roles, f.perms, ResolverOptions{AdminRoleCode: "admin", MaxDepth: 8})
	f.metrics = NewCacheMetrics(prometheus.NewRegistry())
	f.cache = NewPermissionCache(f.resolver, memory.NewPermissionCacheStore(100, time.Hour), f.metrics)
	f.svc = NewRBACService(f.cache)
	NewInvalidator(f.cache, f.roles, 8).Register(d)
	return f
}

func (f *fixture) tx(t *testing.T, fn func(ctx context.Context)) {
	t.Helper()
	ctx, u := f.uow.Provide(context.Background())
	require.NoError(t, u.BeginTransaction(ctx))
	fn(ctx)
	require.NoError(t, u.Commit(ctx))
}

func (f *fixture) perm(t *testing.T, code, path, verb string) *model.Permission {
	t.Helper()
	p := model.NewPermission(code, model.PermissionSpec{Name: code, ResourceType: "API", ResourcePath: path, HTTPMethod: verb}, false)
	f.tx(t, func(ctx context.Context) { require.NoError(t, f.perms.Save(ctx, p)) })
	return p
}

func (f *fixture) role(t *testing.T, code string, parent *model.Role, perms ...*model.Permission) *model.Role {
	t.Helper()
	r := model.NewRole(code, code, "")
	f.tx(t, func(ctx context.Context) {
		for _, p := range perms {
			_, err := r.AddPermission(p.ID)
			require.NoError(t, err)
		}
		require.NoError(t, f.roles.Save(ctx, r))
		_, err := mysql.SaveChanges(ctx)
		require.NoError(t, err)
		if parent != nil {
			forest, err := f.roles.Forest(ctx, 0)
			require.NoError(t, err)
			pid := parent.ID
			_, err = r.SetParentRole(&pid, forest)
			require.NoError(t, err)
			require.NoError(t, f.roles.Save(ctx, r))
		}
	})
	return r
}

func (f *fixture) user(t *testing.T, name string, roles ...*model.Role) *model.User {
	t.Helper()
	u := model.NewUser(name, name+"@example.com", "hash", name)
	f.tx(t, func(ctx context.Context) {
		require.NoError(t, f.users.Save(ctx, u))
		_, err := mysql.SaveChanges(ctx)
		require.NoError(t, err)
		for _, r := range roles {
			_, err := u.AddRole(r.ID)
			require.NoError(t, err)
		}
		require.NoError(t, f.users.Save(ctx, u))
	})
	return u
}

func TestResolveUnionsParentChain(t *testing.T) {
	f := newFixture(t)
	p1 := f.perm(t, "p1", "/api/a", "GET")
	p2 := f.perm(t, "p2", "/api/b", "GET")
	b := f.role(t, "b", nil, p2)
	a := f.role(t, "a", b, p1)
	u := f.user(t, "alice", a)

	ctx := context.Background()
	snap, err := f.resolver.Resolve(ctx, u.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2"}, snap.Codes())
	assert.Equal(t, []uint64{a.ID, b.ID}, snap.RoleIDs)

	f.tx(t, func(ctx context.Context) {
		role, err := f.roles.Get(ctx, a.ID)
		require.NoError(t, err)
		forest, err := f.roles.Forest(ctx, 0)
		require.NoError(t, err)
		_, err = role.SetParentRole(nil, forest)
		require.NoError(t, err)
		require.NoError(t, f.roles.Save(ctx, role))
	})

	snap, err = f.resolver.Resolve(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, snap.Codes())
}

func TestResolveDeduplicatesSharedPermissions(t *testing.T) {
	f := newFixture(t)
	p := f.perm(t, "shared", "/api/x", "")
	parent := f.role(t, "parent", nil, p)
	child := f.role(t, "child", parent, p)
	other := f.role(t, "other", nil, p)
	u := f.user(t, "bob", child, other)

	snap, err := f.resolver.Resolve(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, snap.Codes())
}

func TestAdminBypassAndInactiveUser(t *testing.T) {
	f := newFixture(t)
	admin := f.role(t, "admin", nil)
	u := f.user(t, "root", admin)

	ctx := context.Background()
	ok, err := f.svc.AuthorizeResource(ctx, u.ID, "/api/anything/at/all", "DELETE")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.AuthorizeCode(ctx, u.ID, "whatever:code")
	require.NoError(t, err)
	assert.True(t, ok)

	f.tx(t, func(ctx context.Context) {
		user, err := f.users.Get(ctx, u.ID)
		require.NoError(t, err)
		user.SetActiveStatus(false)
		require.NoError(t, f.users.Save(ctx, user))
	})

	ok, err = f.svc.AuthorizeResource(ctx, u.ID, "/api/anything", "GET")
	require.NoError(t, err)
	assert.False(t, ok, "disabled user is denied even with admin role")
}

func TestInheritedAdminGrantsOnlyItsPermissions(t *testing.T) {
	f := newFixture(t)
	reports := f.perm(t, "reports:read", "/api/reports", "GET")
	admin := f.role(t, "admin", nil, reports)
	deputy := f.role(t, "deputy", admin)
	u := f.user(t, "dep", deputy)

	ctx := context.Background()
	snap, err := f.resolver.Resolve(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, snap.Admin)
	assert.Equal(t, []uint64{deputy.ID, admin.ID}, snap.RoleIDs)
	require.Len(t, snap.Permissions, 1)
	assert.Equal(t, "reports:read", snap.Permissions[0].Code)

	ok, err := f.svc.AuthorizeResource(ctx, u.ID, "/api/reports", "GET")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.AuthorizeResource(ctx, u.ID, "/api/secrets/keys", "DELETE")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = f.svc.AuthorizeCode(ctx, u.ID, "anything:at:all")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResourceMatching(t *testing.T) {
	f := newFixture(t)
	one := f.perm(t, "users:get", "/api/users/*", "GET")
	deep := f.perm(t, "orgs:any", "/api/orgs/**", "")
	menu := model.NewPermission("menu:view", model.PermissionSpec{Name: "m", ResourceType: "MENU", ResourcePath: "/api/menus"}, false)
	f.tx(t, func(ctx context.Context) { require.NoError(t, f.perms.Save(ctx, menu)) })
	r := f.role(t, "reader", nil, one, deep, menu)
	u := f.user(t, "carol", r)

	ctx := context.Background()
	cases := []struct {
		path, verb string
		want       bool
	}{
		{"/api/users/42", "GET", true},
		{"/api/users/42", "POST", false},
		{"/api/groups/1", "GET", false},
		{"/api/users/42/roles", "GET", false},
		{"/api/orgs", "PUT", true},
		{"/api/orgs/1/teams/2", "DELETE", true},
		{"/api/menus", "GET", false},
	}
	for _, c := range cases {
		ok, err := f.svc.AuthorizeResource(ctx, u.ID, c.path, c.verb)
		require.NoError(t, err)
		assert.Equal(t, c.want, ok, "%s %s", c.verb, c.path)
	}

	ok, err := f.svc.AuthorizeCode(ctx, u.ID, "menu:view")
	require.NoError(t, err)
	assert.True(t, ok, "non-API permissions still answer code checks")
}

func TestAllowsResourceExactBeforePattern(t *testing.T) {
	r := NewResolver(nil, nil, nil, ResolverOptions{Matcher: matcher.New(matcher.Options{CaseInsensitive: true})})
	snap := &model.EffectivePermissions{Permissions: []model.Permission{
		{Code: "wild", ResourceType: "API", ResourcePath: "/api/Users/*", HTTPMethod: "GET"},
		{Code: "exact", ResourceType: "API", ResourcePath: "/api/users/me", HTTPMethod: "PUT"},
	}}
	assert.True(t, r.AllowsResource(snap, "/API/USERS/me", "put"))
	assert.True(t, r.AllowsResource(snap, "/api/users/7", "GET"))
	assert.False(t, r.AllowsResource(snap, "/api/users/7", "PUT"))
}

func TestBulkChangeInvalidatesDescendantHolders(t *testing.T) {
	f := newFixture(t)
	p1 := f.perm(t, "p1", "/api/one", "GET")
	p2 := f.perm(t, "p2", "/api/two", "GET")
	parent := f.role(t, "parent", nil, p1)
	child := f.role(t, "child", parent)
	direct := f.user(t, "direct", parent)
	inherited := f.user(t, "inherited", child)
	bystander := f.user(t, "bystander")

	ctx := context.Background()
	for _, u := range []*model.User{direct, inherited, bystander} {
		_, err := f.cache.Get(ctx, u.ID)
		require.NoError(t, err)
	}
	ok, err := f.svc.AuthorizeResource(ctx, inherited.ID, "/api/two", "GET")
	require.NoError(t, err)
	require.False(t, ok)
	before := testutil.ToFloat64(f.metrics.Invalidations)

	f.tx(t, func(ctx context.Context) {
		role, err := f.roles.Get(ctx, parent.ID)
		require.NoError(t, err)
		e, err := role.SetPermissions([]uint64{p2.ID})
		require.NoError(t, err)
		require.IsType(t, model.RolePermissionsBulkChanged{}, e)
		require.NoError(t, f.roles.Save(ctx, role))
	})

	for _, u := range []*model.User{direct, inherited} {
		ok, err := f.svc.AuthorizeResource(ctx, u.ID, "/api/two", "GET")
		require.NoError(t, err)
		assert.True(t, ok, u.Username)
		ok, err = f.svc.AuthorizeResource(ctx, u.ID, "/api/one", "GET")
		require.NoError(t, err)
		assert.False(t, ok, u.Username)
	}
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.Invalidations)-before)
}

func TestUserRoleChangeInvalidatesOnlyThatUser(t *testing.T) {
	f := newFixture(t)
	p := f.perm(t, "p", "/api/p", "GET")
	r := f.role(t, "r", nil, p)
	u := f.user(t, "dave")

	ctx := context.Background()
	ok, err := f.svc.AuthorizeCode(ctx, u.ID, "p")
	require.NoError(t, err)
	require.False(t, ok)

	f.tx(t, func(ctx context.Context) {
		user, err := f.users.Get(ctx, u.ID)
		require.NoError(t, err)
		_, err = user.AddRole(r.ID)
		require.NoError(t, err)
		require.NoError(t, f.users.Save(ctx, user))
	})

	ok, err = f.svc.AuthorizeCode(ctx, u.ID, "p")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnknownUserIsDenied(t *testing.T) {
	f := newFixture(t)
	ok, err := f.svc.AuthorizeCode(context.Background(), 404, "any")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCorruptedRoleCycleIsInternalError(t *testing.T) {
	f := newFixture(t)
	a := f.role(t, "a", nil)
	b := f.role(t, "b", a)
	u := f.user(t, "eve", b)

	// 绕过领域方法直接写出环
	require.NoError(t, f.db.Exec("UPDATE roles SET parent_role_id = ? WHERE id = ?", b.ID, a.ID).Error)

	_, err := f.resolver.Resolve(context.Background(), u.ID)
	require.Error(t, err)
	assert.True(t, system.IsInternal(err))
	assert.ErrorIs(t, err, hierarchy.ErrDepthExceeded)

	ok, err := f.svc.AuthorizeCode(context.Background(), u.ID, "x")
	assert.Error(t, err)
	assert.False(t, ok)
}

type flakyUsers struct {
	fail bool
	user *model.User
}

func (s *flakyUsers) Get(ctx context.Context, id uint64) (*model.User, error) {
	if s.fail {
		return nil, system.NewInternalError("get user", errors.New("connection reset"))
	}
	return s.user, nil
}

type noRoles struct{}

func (noRoles) ListByIDs(ctx context.Context, ids []uint64) ([]*model.Role, error) { return nil, nil }
func (noRoles) Forest(ctx context.Context, maxDepth int) (*hierarchy.Forest, error) {
	return hierarchy.NewForest(nil, maxDepth), nil
}

type noPerms struct{}

func (noPerms) ListByRoleIDs(ctx context.Context, roleIDs []uint64) ([]*model.Permission, error) {
	return nil, nil
}

func TestCacheFailsClosedAndDoesNotCacheErrors(t *testing.T) {
	users := &flakyUsers{fail: true, user: &model.User{BaseModel: model.BaseModel{ID: 1}, Active: true}}
	metrics := NewCacheMetrics(prometheus.NewRegistry())
	store := memory.NewPermissionCacheStore(10, time.Hour)
	cache := NewPermissionCache(NewResolver(users, noRoles{}, noPerms{}, ResolverOptions{AdminRoleCode: "admin"}), store, metrics)
	svc := NewRBACService(cache)

	ctx := context.Background()
	ok, err := svc.AuthorizeCode(ctx, 1, "x")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())

	users.fail = false
	_, err = cache.Get(ctx, 1)
	require.NoError(t, err)
	_, err = cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Hits))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.Misses))
	assert.Equal(t, 1, store.Len())
}

func TestAuditSubscriberLogsEvents(t *testing.T) {
	l, hook := test.NewNullLogger()
	logger.Use(l)
	defer func() { logger.LoggerInstance = nil }()

	d := event.NewDispatcher()
	RegisterAudit(d)
	assert.Equal(t, 1, d.SubscriberCount("RoleDeleted"))

	ctx := logger.WithCorrelationID(context.Background(), "cid-9")
	require.NoError(t, d.Dispatch(ctx, model.RoleDeleted{Base: event.NewBase(), RoleID: 3, Code: "ops"}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logger.AuditLog, entry.Data["type"])
	assert.Equal(t, "RoleDeleted", entry.Data["action"])
	assert.Equal(t, "role", entry.Data["resource"])
	assert.Equal(t, "cid-9", entry.Data["correlation_id"])
}
