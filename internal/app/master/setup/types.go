/**
 * 初始化
 * @author: sun977
 * @date: 2025.11.05
 * @description: master 程序初始化输出的模块类型。setup 层只做依赖装配，不包含业务逻辑；
 *               所有端点、订阅者在这里显式列出，不做任何扫描式注册
 * @func: Repositories, AuthModule, SystemModule, SystemEndpoints
 */
package setup

import (
	"accesscore/internal/model"
	authPkg "accesscore/internal/pkg/auth"
	"accesscore/internal/pkg/event"
	"accesscore/internal/repo/mysql"
	"accesscore/internal/repo/mysql/rbac"
	authService "accesscore/internal/service/auth"
	"accesscore/internal/service/pipeline"
	systemService "accesscore/internal/service/system"
)

// Repositories RBAC 仓库集合
type Repositories struct {
	Users       *rbac.UserRepository
	Roles       *rbac.RoleRepository
	Permissions *rbac.PermissionRepository
	Menus       *rbac.MenuRepository
	Departments *rbac.DepartmentRepository
}

// AuthModule 认证与鉴权模块的聚合输出
// - UnitOfWork/Dispatcher：命令事务边界与提交后事件分发
// - Cache/Invalidator：有效权限缓存与基于事件的失效
// - RBACService：中间件与鉴权检查接口使用
type AuthModule struct {
	Repos       *Repositories
	Dispatcher  *event.Dispatcher
	UnitOfWork  *mysql.UnitOfWorkFactory
	Resolver    *authService.Resolver
	Cache       *authService.PermissionCache
	Invalidator *authService.Invalidator
	RBACService *authService.RBACService

	TokenManager   *authPkg.TokenManager
	PasswordHasher *authPkg.PasswordHasher
}

// SystemModule 系统管理模块的聚合输出
type SystemModule struct {
	Pipeline  *pipeline.Pipeline
	Service   *systemService.Service
	Endpoints *SystemEndpoints
}

// SystemEndpoints 系统管理的全部命令与查询端点
type SystemEndpoints struct {
	// 用户
	CreateUser         *pipeline.Endpoint[systemService.CreateUserRequest, *model.User]
	UpdateUserProfile  *pipeline.Endpoint[systemService.UpdateUserProfileRequest, *model.User]
	ChangeUserPassword *pipeline.Endpoint[systemService.ChangeUserPasswordRequest, *model.User]
	SetUserActive      *pipeline.Endpoint[systemService.SetUserActiveRequest, *model.User]
	DeleteUser         *pipeline.Endpoint[systemService.DeleteUserRequest, struct{}]
	AssignRoleToUser   *pipeline.Endpoint[systemService.UserRoleRequest, *model.User]
	RemoveRoleFromUser *pipeline.Endpoint[systemService.UserRoleRequest, *model.User]
	GetUser            *pipeline.Endpoint[systemService.GetUserRequest, *model.User]
	ListUsers          *pipeline.Endpoint[systemService.ListUsersRequest, *model.PaginationResponse]
	GetUserPermissions *pipeline.Endpoint[systemService.GetUserRequest, *model.EffectivePermissions]
	GetUserMenuTree    *pipeline.Endpoint[systemService.GetUserMenuTreeRequest, systemService.MenuTree]

	// 角色
	CreateRole               *pipeline.Endpoint[systemService.CreateRoleRequest, *model.Role]
	UpdateRole               *pipeline.Endpoint[systemService.UpdateRoleRequest, *model.Role]
	DeleteRole               *pipeline.Endpoint[systemService.DeleteRoleRequest, struct{}]
	SetRoleParent            *pipeline.Endpoint[systemService.SetRoleParentRequest, *model.Role]
	AssignPermissionToRole   *pipeline.Endpoint[systemService.RolePermissionRequest, *model.Role]
	RemovePermissionFromRole *pipeline.Endpoint[systemService.RolePermissionRequest, *model.Role]
	SetRolePermissions       *pipeline.Endpoint[systemService.SetRolePermissionsRequest, *model.Role]
	AssignMenuToRole         *pipeline.Endpoint[systemService.RoleMenuRequest, *model.Role]
	RemoveMenuFromRole       *pipeline.Endpoint[systemService.RoleMenuRequest, *model.Role]
	SetRoleMenus             *pipeline.Endpoint[systemService.SetRoleMenusRequest, *model.Role]
	GetRole                  *pipeline.Endpoint[systemService.GetRoleRequest, *model.Role]
	ListRoles                *pipeline.Endpoint[systemService.ListRolesRequest, []*model.Role]
	GetRolePermissions       *pipeline.Endpoint[systemService.GetRoleRequest, []*model.Permission]
	GetRoleMenus             *pipeline.Endpoint[systemService.GetRoleRequest, []*model.Menu]

	// 权限
	CreatePermission *pipeline.Endpoint[systemService.CreatePermissionRequest, *model.Permission]
	UpdatePermission *pipeline.Endpoint[systemService.UpdatePermissionRequest, *model.Permission]
	DeletePermission *pipeline.Endpoint[systemService.DeletePermissionRequest, struct{}]
	ListPermissions  *pipeline.Endpoint[systemService.ListPermissionsRequest, []*model.Permission]

	// 菜单
	CreateMenu    *pipeline.Endpoint[systemService.CreateMenuRequest, *model.Menu]
	UpdateMenu    *pipeline.Endpoint[systemService.UpdateMenuRequest, *model.Menu]
	SetMenuParent *pipeline.Endpoint[systemService.SetMenuParentRequest, *model.Menu]
	DeleteMenu    *pipeline.Endpoint[systemService.DeleteMenuRequest, struct{}]
	GetMenu       *pipeline.Endpoint[systemService.GetMenuRequest, *model.Menu]
	GetMenuTree   *pipeline.Endpoint[systemService.GetMenuTreeRequest, systemService.MenuTree]

	// 部门
	CreateDepartment         *pipeline.Endpoint[systemService.CreateDepartmentRequest, *model.Department]
	UpdateDepartment         *pipeline.Endpoint[systemService.UpdateDepartmentRequest, *model.Department]
	SetDepartmentParent      *pipeline.Endpoint[systemService.SetDepartmentParentRequest, *model.Department]
	DeleteDepartment         *pipeline.Endpoint[systemService.DeleteDepartmentRequest, struct{}]
	AddUserToDepartment      *pipeline.Endpoint[systemService.UserDepartmentRequest, *model.User]
	RemoveUserFromDepartment *pipeline.Endpoint[systemService.UserDepartmentRequest, *model.User]
	SetUserPrimaryDepartment *pipeline.Endpoint[systemService.UserDepartmentRequest, *model.User]
	GetDepartment            *pipeline.Endpoint[systemService.GetDepartmentRequest, *model.Department]
	GetDepartmentTree        *pipeline.Endpoint[systemService.GetDepartmentTreeRequest, systemService.DepartmentTree]
	GetDepartmentUsers       *pipeline.Endpoint[systemService.GetDepartmentUsersRequest, []*model.User]
	GetUserDepartments       *pipeline.Endpoint[systemService.GetUserDepartmentsRequest, []*model.Department]
}
