/**
 * 路由:路由管理器
 * @author: sun977
 * @date: 2025.10.10
 * @description: 路由管理器，包含Router结构体、NewRouter函数和SetupRoutes主函数
 * @func:
 */
package router

import (
	"accesscore/internal/app/master/middleware"
	"accesscore/internal/app/master/setup"
	"accesscore/internal/config"
	authHandler "accesscore/internal/handler/auth"
	systemHandler "accesscore/internal/handler/system"
	"accesscore/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Router 路由管理器
type Router struct {
	config            *config.Config
	engine            *gin.Engine
	db                *gorm.DB
	gatherer          prometheus.Gatherer
	middlewareManager *middleware.MiddlewareManager
	loginHandler      *authHandler.LoginHandler
	refreshHandler    *authHandler.RefreshHandler
	userHandler       *systemHandler.UserHandler
	roleHandler       *systemHandler.RoleHandler
	permissionHandler *systemHandler.PermissionHandler
	menuHandler       *systemHandler.MenuHandler
	departmentHandler *systemHandler.DepartmentHandler
	authzHandler      *systemHandler.AuthzHandler
}

// NewRouter 创建路由管理器实例
// gatherer 为空时不注册指标接口
func NewRouter(cfg *config.Config, db *gorm.DB, authModule *setup.AuthModule, systemModule *setup.SystemModule, gatherer prometheus.Gatherer) *Router {
	users := authModule.Repos.Users
	ep := systemModule.Endpoints

	switch cfg.Server.Mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	return &Router{
		config:            cfg,
		engine:            engine,
		db:                db,
		gatherer:          gatherer,
		middlewareManager: middleware.NewMiddlewareManager(authModule.TokenManager, users, authModule.RBACService, &cfg.Security),
		loginHandler:      authHandler.NewLoginHandler(users, authModule.PasswordHasher, authModule.TokenManager),
		refreshHandler:    authHandler.NewRefreshHandler(users, authModule.TokenManager),
		userHandler:       systemHandler.NewUserHandler(ep),
		roleHandler:       systemHandler.NewRoleHandler(ep),
		permissionHandler: systemHandler.NewPermissionHandler(ep),
		menuHandler:       systemHandler.NewMenuHandler(ep),
		departmentHandler: systemHandler.NewDepartmentHandler(ep),
		authzHandler:      systemHandler.NewAuthzHandler(authModule.RBACService),
	}
}

// SetupRoutes 设置全局中间件和路由
func (r *Router) SetupRoutes() {
	r.registerGlobalMiddleware()
	r.registerRoutes()
}

// GetEngine 获取Gin引擎实例
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// registerGlobalMiddleware 注册全局中间件
func (r *Router) registerGlobalMiddleware() {
	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerGlobalMiddleware",
		"operation": "register_global_middleware",
		"option":    "middlewareManager.attach",
		"func_name": "router.registerGlobalMiddleware",
	}).Info("开始注册全局中间件")

	r.engine.Use(gin.Recovery())
	// 日志中间件放在最前，后续中间件和命令管道共用同一个关联id
	r.engine.Use(r.middlewareManager.GinLoggingMiddleware())
	r.engine.Use(r.middlewareManager.GinCORSMiddleware())
	r.engine.Use(r.middlewareManager.GinSecurityHeadersMiddleware())
	r.engine.Use(r.middlewareManager.GinRateLimitMiddleware())

	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerGlobalMiddleware",
		"operation": "register_global_middleware",
		"option":    "middlewareManager.attach.done",
		"func_name": "router.registerGlobalMiddleware",
	}).Info("全局中间件注册完成")
}

// registerRoutes 注册路由
func (r *Router) registerRoutes() {
	api := r.engine.Group("/api")
	v1 := api.Group("/v1")

	// 公共路由（不需要认证）
	r.setupPublicRoutes(v1)
	// 当前用户路由（需要 JWT 认证）
	r.setupUserRoutes(v1)
	// 管理路由（需要 JWT 认证和接口权限）
	r.setupAdminRoutes(v1)
	// 健康检查与指标
	r.setupHealthRoutes(api)
	r.setupMetricsRoutes()

	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerRoutes",
		"operation": "register_routes",
		"option":    "routes.attach.done",
		"func_name": "router.registerRoutes",
		"routes":    len(r.engine.Routes()),
	}).Info("路由注册完成")
}
