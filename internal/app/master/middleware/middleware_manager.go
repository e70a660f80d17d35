package middleware

import (
	"accesscore/internal/config"
	"accesscore/internal/pkg/auth"
	"accesscore/internal/repo/mysql/rbac"
	authsvc "accesscore/internal/service/auth"
)

// MiddlewareManager 中间件管理器
// 负责管理所有Gin框架的中间件，提供统一的中间件接口
type MiddlewareManager struct {
	tokens         *auth.TokenManager     // 令牌校验
	users          *rbac.UserRepository   // 校验令牌时加载用户状态与密码版本
	rbacService    *authsvc.RBACService   // 权限判定
	securityConfig *config.SecurityConfig // 安全配置，用于中间件配置
	rateLimiter    *RateLimiter
}

// NewMiddlewareManager 创建中间件管理器
// 参数:
//   - tokens: 令牌管理器
//   - users: 用户仓库
//   - rbacService: RBAC服务实例
//   - securityConfig: 安全配置实例
//
// 返回: 中间件管理器实例
func NewMiddlewareManager(tokens *auth.TokenManager, users *rbac.UserRepository, rbacService *authsvc.RBACService, securityConfig *config.SecurityConfig) *MiddlewareManager {
	m := &MiddlewareManager{
		tokens:         tokens,
		users:          users,
		rbacService:    rbacService,
		securityConfig: securityConfig,
	}
	if securityConfig != nil && securityConfig.RateLimit.Enabled {
		m.rateLimiter = NewRateLimiter(securityConfig.RateLimit)
	}
	return m
}
