package setup

import (
	"context"
	"testing"
	"time"

	"accesscore/internal/config"
	"accesscore/internal/model"
	"accesscore/internal/pkg/database"
	"accesscore/internal/pkg/logger"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func newSeedModule(t *testing.T) *AuthModule {
	t.Helper()
	l, _ := test.NewNullLogger()
	logger.Use(l)
	t.Cleanup(func() { logger.LoggerInstance = nil })

	db, err := database.NewSQLiteConnection(":memory:", gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{
		Security: config.SecurityConfig{
			JWT:      config.JWTConfig{Secret: "seed-secret", Issuer: "accesscore", AccessTokenExpire: time.Hour},
			Password: config.PasswordConfig{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		},
		Permission: config.PermissionConfig{AdminRoleCode: "admin", CacheTTL: time.Minute, CacheStore: "memory", CacheSize: 64, MaxRoleDepth: 8},
	}
	auth, err := BuildAuthModule(db, nil, cfg, nil)
	require.NoError(t, err)
	return auth
}

func TestSeedIsIdempotent(t *testing.T) {
	auth := newSeedModule(t)
	ctx := context.Background()
	opts := SeedOptions{AdminRoleCode: "admin", AdminUsername: "admin", AdminEmail: "admin@example.com", AdminPassword: "Admin@123456"}

	first, err := Seed(ctx, auth, opts)
	require.NoError(t, err)
	assert.Equal(t, len(systemPermissions), first.Permissions)
	assert.Equal(t, 2, first.Roles)
	assert.Equal(t, 1+len(systemMenus), first.Menus)
	assert.Equal(t, 1, first.Departments)
	assert.Equal(t, 1, first.Users)

	second, err := Seed(ctx, auth, opts)
	require.NoError(t, err)
	assert.Equal(t, &SeedResult{}, second)

	perms, err := auth.Repos.Permissions.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, perms, len(systemPermissions))
}

func TestSeedAdminUser(t *testing.T) {
	auth := newSeedModule(t)
	ctx := context.Background()
	_, err := Seed(ctx, auth, SeedOptions{AdminUsername: "root", AdminEmail: "root@example.com", AdminPassword: "Admin@123456"})
	require.NoError(t, err)

	user, err := auth.Repos.Users.GetByUsername(ctx, "root")
	require.NoError(t, err)
	ok, err := auth.PasswordHasher.Verify("Admin@123456", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
	primary, has := user.PrimaryDepartmentID()
	require.True(t, has)
	assert.NotZero(t, primary)

	admin, err := auth.Repos.Roles.GetByCode(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsSystem)
	assert.True(t, user.HasRole(admin.ID))

	allowed, err := auth.RBACService.AuthorizeResource(ctx, user.ID, "/api/v1/admin/roles/3", "DELETE")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestSeedWithoutPasswordSkipsAdminUser(t *testing.T) {
	auth := newSeedModule(t)
	ctx := context.Background()
	res, err := Seed(ctx, auth, SeedOptions{AdminUsername: "admin"})
	require.NoError(t, err)
	assert.Zero(t, res.Users)

	taken, err := auth.Repos.Users.ExistsUsername(ctx, "admin", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestSeedAuditorIsReadOnly(t *testing.T) {
	auth := newSeedModule(t)
	ctx := context.Background()
	_, err := Seed(ctx, auth, SeedOptions{})
	require.NoError(t, err)

	auditor, err := auth.Repos.Roles.GetByCode(ctx, auditorRoleCode)
	require.NoError(t, err)

	ctx, uow := auth.UnitOfWork.Provide(ctx)
	require.NoError(t, uow.BeginTransaction(ctx))
	user := model.NewUser("viewer", "viewer@example.com", "x", "")
	_, err = user.AddRole(auditor.ID)
	require.NoError(t, err)
	require.NoError(t, auth.Repos.Users.Save(ctx, user))
	require.NoError(t, uow.Commit(ctx))

	read, err := auth.RBACService.AuthorizeResource(ctx, user.ID, "/api/v1/admin/users/7", "GET")
	require.NoError(t, err)
	assert.True(t, read)
	write, err := auth.RBACService.AuthorizeResource(ctx, user.ID, "/api/v1/admin/users/7", "PUT")
	require.NoError(t, err)
	assert.False(t, write)
}

func TestSeedMenusNestUnderRoot(t *testing.T) {
	auth := newSeedModule(t)
	ctx := context.Background()
	_, err := Seed(ctx, auth, SeedOptions{})
	require.NoError(t, err)

	menus, err := auth.Repos.Menus.List(ctx)
	require.NoError(t, err)
	var rootID uint64
	for _, m := range menus {
		if m.Code == rootMenuCode {
			rootID = m.ID
			assert.Nil(t, m.ParentID)
		}
	}
	require.NotZero(t, rootID)
	for _, m := range menus {
		if m.Code != rootMenuCode {
			require.NotNil(t, m.ParentID, m.Code)
			assert.Equal(t, rootID, *m.ParentID)
		}
	}
}
