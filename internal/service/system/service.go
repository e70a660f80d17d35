/**
 * 服务层:系统管理(用户/角色/权限/菜单/部门)
 * @author: sun977
 * @date: 2025.10.16
 * @description: 命令与查询处理器，由请求管道调用。命令处理器只负责加载聚合、调用领域方法、登记保存，
 *               事务的开启与提交、事件分发由管道和工作单元完成。
 * @func: NewService 以及各命令/查询处理器
 */
package system

import (
	"context"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/pkg/auth"
	"accesscore/internal/pkg/hierarchy"
	"accesscore/internal/repo/mysql"
	"accesscore/internal/repo/mysql/rbac"
	authsvc "accesscore/internal/service/auth"
)

// Options 服务参数
type Options struct {
	MaxDepth int // 层级遍历深度上限
}

// Service 系统管理服务
type Service struct {
	users       *rbac.UserRepository
	roles       *rbac.RoleRepository
	permissions *rbac.PermissionRepository
	menus       *rbac.MenuRepository
	departments *rbac.DepartmentRepository
	hasher      *auth.PasswordHasher
	rbac        *authsvc.RBACService
	opts        Options
}

// NewService 创建系统管理服务
func NewService(
	users *rbac.UserRepository,
	roles *rbac.RoleRepository,
	permissions *rbac.PermissionRepository,
	menus *rbac.MenuRepository,
	departments *rbac.DepartmentRepository,
	hasher *auth.PasswordHasher,
	rbacService *authsvc.RBACService,
	opts Options,
) *Service {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = hierarchy.DefaultMaxDepth
	}
	return &Service{
		users:       users,
		roles:       roles,
		permissions: permissions,
		menus:       menus,
		departments: departments,
		hasher:      hasher,
		rbac:        rbacService,
		opts:        opts,
	}
}

// flush 把已登记的变更写入当前事务，新建聚合由此获得 id
func flush(ctx context.Context) error {
	_, err := mysql.SaveChanges(ctx)
	return err
}

// existsFunc 唯一性检查函数，excludeID 为 0 时不排除
type existsFunc func(ctx context.Context, value string, excludeID uint64) (bool, error)

// ensureFree 唯一性检查，占用时返回 duplicate_code 业务错误
func ensureFree(ctx context.Context, exists existsFunc, entity, field, value string, excludeID uint64) error {
	taken, err := exists(ctx, value, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return system.NewBusinessRuleError(system.RuleDuplicateCode, "%s %s %q already exists", entity, field, value)
	}
	return nil
}

// requireAll 批量加载结果必须覆盖全部 id，缺失的第一个 id 报 NotFound
func requireAll(entity string, want []uint64, got map[uint64]bool) error {
	for _, id := range want {
		if !got[id] {
			return system.NewNotFoundError(entity, id)
		}
	}
	return nil
}

func (s *Service) requirePermissions(ctx context.Context, ids []uint64) error {
	perms, err := s.permissions.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	got := make(map[uint64]bool, len(perms))
	for _, p := range perms {
		got[p.ID] = true
	}
	return requireAll("permission", ids, got)
}

func (s *Service) requireMenus(ctx context.Context, ids []uint64) error {
	menus, err := s.menus.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	got := make(map[uint64]bool, len(menus))
	for _, m := range menus {
		got[m.ID] = true
	}
	return requireAll("menu", ids, got)
}

func (s *Service) requireRoles(ctx context.Context, ids []uint64) error {
	roles, err := s.roles.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	got := make(map[uint64]bool, len(roles))
	for _, r := range roles {
		got[r.ID] = true
	}
	return requireAll("role", ids, got)
}

// menuLess 同级菜单按排序号、名称排序
func menuLess(a, b *model.Menu) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	return a.Name < b.Name
}

func departmentLess(a, b *model.Department) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	return a.Name < b.Name
}
