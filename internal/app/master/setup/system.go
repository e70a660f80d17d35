package setup

import (
	"context"

	"accesscore/internal/config"
	"accesscore/internal/pkg/logger"
	"accesscore/internal/service/pipeline"
	systemService "accesscore/internal/service/system"

	"github.com/prometheus/client_golang/prometheus"
)

// BuildSystemModule 构建系统管理模块
// 责任边界：
// - 创建请求管道(校验 -> 日志 -> 事务)，事务由认证模块的工作单元工厂提供
// - 逐个登记用户、角色、权限、菜单、部门的命令与查询端点，同名重复登记在启动时 panic
//
// 参数说明：
// - auth：BuildAuthModule 的输出，提供仓库、工作单元、鉴权服务与密码哈希
// - reg：指标注册器，nil 时不注册
func BuildSystemModule(auth *AuthModule, cfg *config.Config, reg prometheus.Registerer) *SystemModule {
	logger.WithFields(map[string]interface{}{
		"path":      "internal.app.master.setup.system.BuildSystemModule",
		"operation": "setup",
		"option":    "setup.system.begin",
		"func_name": "setup.system.BuildSystemModule",
	}).Info("开始构建系统管理模块")

	provide := func(ctx context.Context) (context.Context, pipeline.UnitOfWork) {
		return auth.UnitOfWork.Provide(ctx)
	}
	p := pipeline.New(provide, pipeline.NewMetrics(reg))

	r := auth.Repos
	svc := systemService.NewService(r.Users, r.Roles, r.Permissions, r.Menus, r.Departments,
		auth.PasswordHasher, auth.RBACService, systemService.Options{MaxDepth: cfg.Permission.MaxRoleDepth})

	e := &SystemEndpoints{
		// 用户
		CreateUser:         pipeline.Register(p, "CreateUser", svc.CreateUser, systemService.ValidateNewUserPassword),
		UpdateUserProfile:  pipeline.Register(p, "UpdateUserProfile", svc.UpdateUserProfile),
		ChangeUserPassword: pipeline.Register(p, "ChangeUserPassword", svc.ChangeUserPassword, systemService.ValidateChangedPassword),
		SetUserActive:      pipeline.Register(p, "SetUserActive", svc.SetUserActive),
		DeleteUser:         pipeline.Register(p, "DeleteUser", svc.DeleteUser),
		AssignRoleToUser:   pipeline.Register(p, "AssignRoleToUser", svc.AssignRoleToUser),
		RemoveRoleFromUser: pipeline.Register(p, "RemoveRoleFromUser", svc.RemoveRoleFromUser),
		GetUser:            pipeline.Register(p, "GetUser", svc.GetUser),
		ListUsers:          pipeline.Register(p, "ListUsers", svc.ListUsers),
		GetUserPermissions: pipeline.Register(p, "GetUserPermissions", svc.GetUserPermissions),
		GetUserMenuTree:    pipeline.Register(p, "GetUserMenuTree", svc.GetUserMenuTree),

		// 角色
		CreateRole:               pipeline.Register(p, "CreateRole", svc.CreateRole),
		UpdateRole:               pipeline.Register(p, "UpdateRole", svc.UpdateRole),
		DeleteRole:               pipeline.Register(p, "DeleteRole", svc.DeleteRole),
		SetRoleParent:            pipeline.Register(p, "SetRoleParent", svc.SetRoleParent),
		AssignPermissionToRole:   pipeline.Register(p, "AssignPermissionToRole", svc.AssignPermissionToRole),
		RemovePermissionFromRole: pipeline.Register(p, "RemovePermissionFromRole", svc.RemovePermissionFromRole),
		SetRolePermissions:       pipeline.Register(p, "SetRolePermissions", svc.SetRolePermissions),
		AssignMenuToRole:         pipeline.Register(p, "AssignMenuToRole", svc.AssignMenuToRole),
		RemoveMenuFromRole:       pipeline.Register(p, "RemoveMenuFromRole", svc.RemoveMenuFromRole),
		SetRoleMenus:             pipeline.Register(p, "SetRoleMenus", svc.SetRoleMenus),
		GetRole:                  pipeline.Register(p, "GetRole", svc.GetRole),
		ListRoles:                pipeline.Register(p, "ListRoles", svc.ListRoles),
		GetRolePermissions:       pipeline.Register(p, "GetRolePermissions", svc.GetRolePermissions),
		GetRoleMenus:             pipeline.Register(p, "GetRoleMenus", svc.GetRoleMenus),

		// 权限
		CreatePermission: pipeline.Register(p, "CreatePermission", svc.CreatePermission, systemService.ValidateCreatePermission),
		UpdatePermission: pipeline.Register(p, "UpdatePermission", svc.UpdatePermission, systemService.ValidateUpdatePermission),
		DeletePermission: pipeline.Register(p, "DeletePermission", svc.DeletePermission),
		ListPermissions:  pipeline.Register(p, "ListPermissions", svc.ListPermissions),

		// 菜单
		CreateMenu:    pipeline.Register(p, "CreateMenu", svc.CreateMenu),
		UpdateMenu:    pipeline.Register(p, "UpdateMenu", svc.UpdateMenu),
		SetMenuParent: pipeline.Register(p, "SetMenuParent", svc.SetMenuParent),
		DeleteMenu:    pipeline.Register(p, "DeleteMenu", svc.DeleteMenu),
		GetMenu:       pipeline.Register(p, "GetMenu", svc.GetMenu),
		GetMenuTree:   pipeline.Register(p, "GetMenuTree", svc.GetMenuTree),

		// 部门
		CreateDepartment:         pipeline.Register(p, "CreateDepartment", svc.CreateDepartment),
		UpdateDepartment:         pipeline.Register(p, "UpdateDepartment", svc.UpdateDepartment),
		SetDepartmentParent:      pipeline.Register(p, "SetDepartmentParent", svc.SetDepartmentParent),
		DeleteDepartment:         pipeline.Register(p, "DeleteDepartment", svc.DeleteDepartment),
		AddUserToDepartment:      pipeline.Register(p, "AddUserToDepartment", svc.AddUserToDepartment),
		RemoveUserFromDepartment: pipeline.Register(p, "RemoveUserFromDepartment", svc.RemoveUserFromDepartment),
		SetUserPrimaryDepartment: pipeline.Register(p, "SetUserPrimaryDepartment", svc.SetUserPrimaryDepartment),
		GetDepartment:            pipeline.Register(p, "GetDepartment", svc.GetDepartment),
		GetDepartmentTree:        pipeline.Register(p, "GetDepartmentTree", svc.GetDepartmentTree),
		GetDepartmentUsers:       pipeline.Register(p, "GetDepartmentUsers", svc.GetDepartmentUsers),
		GetUserDepartments:       pipeline.Register(p, "GetUserDepartments", svc.GetUserDepartments),
	}

	logger.WithFields(map[string]interface{}{
		"path":      "internal.app.master.setup.system.BuildSystemModule",
		"operation": "setup",
		"option":    "setup.system.done",
		"func_name": "setup.system.BuildSystemModule",
		"endpoints": len(p.Names()),
	}).Info("系统管理模块构建完成")

	return &SystemModule{Pipeline: p, Service: svc, Endpoints: e}
}
