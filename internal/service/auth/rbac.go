/**
 * 服务层:RBAC 鉴权
 * @author: sun977
 * @date: 2025.10.15
 * @description: HTTP 层使用的鉴权入口，只读、无副作用；任何解析错误都按拒绝处理
 * @func: AuthorizeCode, AuthorizeResource, EffectivePermissions
 */
package auth

import (
	"context"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
)

// RBACService 鉴权服务
type RBACService struct {
	cache *PermissionCache
}

// NewRBACService 创建鉴权服务
func NewRBACService(cache *PermissionCache) *RBACService {
	return &RBACService{cache: cache}
}

// EffectivePermissions 用户有效权限(经缓存)
func (s *RBACService) EffectivePermissions(ctx context.Context, userID uint64) (*model.EffectivePermissions, error) {
	return s.cache.Get(ctx, userID)
}

// AuthorizeCode 用户是否持有权限编码；用户不存在时拒绝且不返回错误
func (s *RBACService) AuthorizeCode(ctx context.Context, userID uint64, code string) (bool, error) {
	snap, err := s.cache.Get(ctx, userID)
	if err != nil {
		if system.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return s.cache.Resolver().AllowsCode(snap, code), nil
}

// AuthorizeResource 用户是否可以访问 (path, verb)
func (s *RBACService) AuthorizeResource(ctx context.Context, userID uint64, path, verb string) (bool, error) {
	snap, err := s.cache.Get(ctx, userID)
	if err != nil {
		if system.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return s.cache.Resolver().AllowsResource(snap, path, verb), nil
}
