package setup

import (
	"errors"
	"strings"

	"accesscore/internal/config"
	authPkg "accesscore/internal/pkg/auth"
	"accesscore/internal/pkg/event"
	"accesscore/internal/pkg/logger"
	"accesscore/internal/pkg/matcher"
	memoryRepo "accesscore/internal/repo/memory"
	"accesscore/internal/repo/mysql"
	"accesscore/internal/repo/mysql/rbac"
	redisRepo "accesscore/internal/repo/redis"
	authService "accesscore/internal/service/auth"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// BuildRepositories 构建 RBAC 仓库
func BuildRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:       rbac.NewUserRepository(db),
		Roles:       rbac.NewRoleRepository(db),
		Permissions: rbac.NewPermissionRepository(db),
		Menus:       rbac.NewMenuRepository(db),
		Departments: rbac.NewDepartmentRepository(db),
	}
}

// BuildAuthModule 构建认证与鉴权模块
// 责任边界：
// - 事件分发器与工作单元工厂
// - 有效权限解析器、缓存(内存或 Redis)与失效订阅、审计订阅
// - JWT 与密码哈希工具
//
// 参数说明：
// - redisClient：cache_store 为 redis 时必须提供
// - reg：指标注册器，nil 时不注册
func BuildAuthModule(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, reg prometheus.Registerer) (*AuthModule, error) {
	logger.WithFields(map[string]interface{}{
		"path":      "internal.app.master.setup.auth.BuildAuthModule",
		"operation": "setup",
		"option":    "setup.auth.begin",
		"func_name": "setup.auth.BuildAuthModule",
	}).Info("开始构建认证模块")

	permCfg := cfg.Permission
	repos := BuildRepositories(db)

	// 1) 事件分发与工作单元
	dispatcher := event.NewDispatcher()
	uow := mysql.NewUnitOfWorkFactory(db, dispatcher)

	// 2) 解析器与缓存
	resolver := authService.NewResolver(repos.Users, repos.Roles, repos.Permissions, authService.ResolverOptions{
		AdminRoleCode: permCfg.AdminRoleCode,
		MaxDepth:      permCfg.MaxRoleDepth,
		Matcher:       matcher.New(matcher.Options{CaseInsensitive: permCfg.CaseInsensitivePaths}),
	})
	store, err := buildCacheStore(redisClient, permCfg)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"path":      "internal.app.master.setup.auth.BuildAuthModule",
			"operation": "setup",
			"option":    "setup.auth.cache_store_error",
			"func_name": "setup.auth.BuildAuthModule",
			"error":     err.Error(),
		}).Error("权限缓存存储初始化失败")
		return nil, err
	}
	cache := authService.NewPermissionCache(resolver, store, authService.NewCacheMetrics(reg))

	// 3) 事件订阅：缓存失效 + 审计
	invalidator := authService.NewInvalidator(cache, repos.Roles, permCfg.MaxRoleDepth)
	invalidator.Register(dispatcher)
	authService.RegisterAudit(dispatcher)

	module := &AuthModule{
		Repos:          repos,
		Dispatcher:     dispatcher,
		UnitOfWork:     uow,
		Resolver:       resolver,
		Cache:          cache,
		Invalidator:    invalidator,
		RBACService:    authService.NewRBACService(cache),
		TokenManager:   authPkg.NewTokenManager(cfg.Security.JWT),
		PasswordHasher: authPkg.NewPasswordHasher(cfg.Security.Password),
	}

	logger.WithFields(map[string]interface{}{
		"path":        "internal.app.master.setup.auth.BuildAuthModule",
		"operation":   "setup",
		"option":      "setup.auth.done",
		"func_name":   "setup.auth.BuildAuthModule",
		"cache_store": permCfg.CacheStore,
	}).Info("认证模块构建完成")
	return module, nil
}

func buildCacheStore(client *redis.Client, cfg config.PermissionConfig) (authService.CacheStore, error) {
	switch strings.ToLower(cfg.CacheStore) {
	case "", "memory":
		return memoryRepo.NewPermissionCacheStore(cfg.CacheSize, cfg.CacheTTL), nil
	case "redis":
		if client == nil {
			return nil, errors.New("permission.cache_store is redis but no redis client is configured")
		}
		return redisRepo.NewPermissionCacheStore(client, cfg.RedisKeyPrefix, cfg.CacheTTL), nil
	default:
		return nil, errors.New("unsupported permission.cache_store: " + cfg.CacheStore)
	}
}
