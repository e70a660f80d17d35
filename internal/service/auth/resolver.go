/**
 * 服务层:有效权限解析
 * @author: sun977
 * @date: 2025.10.15
 * @description: 用户直接角色 + 角色继承链上的全部祖先角色，合并其直接权限并去重。
 *               持有管理员角色编码的用户放行一切，该判断先于权限枚举；禁用用户不持有任何权限。
 * @func: Resolve, AllowsCode, AllowsResource
 */
package auth

import (
	"context"
	"errors"
	"time"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/pkg/hierarchy"
	"accesscore/internal/pkg/matcher"
)

// UserReader 用户读取
type UserReader interface {
	Get(ctx context.Context, id uint64) (*model.User, error)
}

// RoleReader 角色读取
type RoleReader interface {
	ListByIDs(ctx context.Context, ids []uint64) ([]*model.Role, error)
	Forest(ctx context.Context, maxDepth int) (*hierarchy.Forest, error)
}

// PermissionReader 权限读取
type PermissionReader interface {
	ListByRoleIDs(ctx context.Context, roleIDs []uint64) ([]*model.Permission, error)
}

// ResolverOptions 解析选项
type ResolverOptions struct {
	AdminRoleCode string // 管理员角色编码，为空时不启用放行
	MaxDepth      int    // 角色继承链最大深度
	Matcher       *matcher.Matcher
}

// Resolver 有效权限解析器，无状态
type Resolver struct {
	users   UserReader
	roles   RoleReader
	perms   PermissionReader
	opts    ResolverOptions
	matcher *matcher.Matcher
}

// NewResolver 创建解析器
func NewResolver(users UserReader, roles RoleReader, perms PermissionReader, opts ResolverOptions) *Resolver {
	m := opts.Matcher
	if m == nil {
		m = matcher.New(matcher.Options{})
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = hierarchy.DefaultMaxDepth
	}
	return &Resolver{users: users, roles: roles, perms: perms, opts: opts, matcher: m}
}

// Resolve 计算用户有效权限
func (r *Resolver) Resolve(ctx context.Context, userID uint64) (*model.EffectivePermissions, error) {
	user, err := r.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	snap := &model.EffectivePermissions{UserID: userID, ResolvedAt: time.Now().UTC()}
	if !user.IsActive() {
		return snap, nil
	}

	direct := user.RoleIDs()
	if len(direct) == 0 {
		return snap, nil
	}
	directRoles, err := r.roles.ListByIDs(ctx, direct)
	if err != nil {
		return nil, err
	}
	// 管理员放行：直接持有管理员角色时不再枚举权限
	if r.holdsAdmin(directRoles) {
		snap.Admin = true
		snap.RoleIDs = direct
		return snap, nil
	}

	closure, err := r.roleClosure(ctx, direct)
	if err != nil {
		return nil, err
	}
	// 继承来的管理员角色只贡献其权限集合，不放行
	snap.RoleIDs = closure

	perms, err := r.perms.ListByRoleIDs(ctx, closure)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint64]bool, len(perms))
	for _, p := range perms {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		snap.Permissions = append(snap.Permissions, *p)
	}
	return snap, nil
}

// roleClosure 直接角色在前，随后是各自的祖先(近的在前)，去重。
// 超过深度上限视为存储中存在环，返回内部错误而不是截断。
func (r *Resolver) roleClosure(ctx context.Context, direct []uint64) ([]uint64, error) {
	forest, err := r.roles.Forest(ctx, r.opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint64]bool, len(direct))
	out := make([]uint64, 0, len(direct))
	for _, id := range direct {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range direct {
		ancestors, err := forest.Ancestors(id)
		var unknown *hierarchy.UnknownNodeError
		switch {
		case errors.As(err, &unknown):
			continue
		case err != nil:
			return nil, system.NewInternalError("resolve role ancestors", err)
		}
		for _, a := range ancestors {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (r *Resolver) holdsAdmin(roles []*model.Role) bool {
	if r.opts.AdminRoleCode == "" {
		return false
	}
	for _, role := range roles {
		if role.Code == r.opts.AdminRoleCode {
			return true
		}
	}
	return false
}

// AllowsCode 快照是否持有权限编码
func (r *Resolver) AllowsCode(snap *model.EffectivePermissions, code string) bool {
	if snap.Admin {
		return true
	}
	return snap.HasCode(code)
}

// AllowsResource 两轮匹配：先精确路径，再通配模式
func (r *Resolver) AllowsResource(snap *model.EffectivePermissions, path, verb string) bool {
	if snap.Admin {
		return true
	}
	for i := range snap.Permissions {
		p := &snap.Permissions[i]
		if !p.IsPattern() && r.matcher.MatchesExact(p.Grant(), path, verb) {
			return true
		}
	}
	for i := range snap.Permissions {
		p := &snap.Permissions[i]
		if p.IsPattern() && r.matcher.Matches(p.Grant(), path, verb) {
			return true
		}
	}
	return false
}

// HasPermissionCode 不经缓存直接解析并判断权限编码
func (r *Resolver) HasPermissionCode(ctx context.Context, userID uint64, code string) (bool, error) {
	snap, err := r.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	return r.AllowsCode(snap, code), nil
}

// HasResourceAccess 不经缓存直接解析并判断资源访问
func (r *Resolver) HasResourceAccess(ctx context.Context, userID uint64, path, verb string) (bool, error) {
	snap, err := r.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	return r.AllowsResource(snap, path, verb), nil
}
