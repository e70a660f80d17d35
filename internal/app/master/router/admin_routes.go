/**
 * 路由:管理路由
 * @author: sun977
 * @date: 2025.10.10
 * @description: 用户、角色、权限、菜单、部门管理路由，每个接口按 (path, method) 做权限校验
 * @func:
 */
package router

import (
	"github.com/gin-gonic/gin"
)

// setupAdminRoutes 设置管理路由
func (r *Router) setupAdminRoutes(v1 *gin.RouterGroup) {
	admin := v1.Group("/admin")
	admin.Use(r.middlewareManager.GinJWTAuthMiddleware())   // JWT认证中间件
	admin.Use(r.middlewareManager.GinPermissionMiddleware()) // 接口权限中间件
	{
		// 用户管理
		users := admin.Group("/users")
		{
			users.GET("", r.userHandler.ListUsers) // ?page=&page_size=&search=
			users.POST("", r.userHandler.CreateUser)
			users.GET("/:id", r.userHandler.GetUser)
			users.PUT("/:id", r.userHandler.UpdateUserProfile)
			users.DELETE("/:id", r.userHandler.DeleteUser)
			users.PUT("/:id/status", r.userHandler.SetUserActive)
			users.PUT("/:id/password", r.userHandler.ResetUserPassword)
			users.GET("/:id/permissions", r.userHandler.GetUserPermissions)
			users.GET("/:id/menus", r.userHandler.GetUserMenuTree)
			users.POST("/:id/roles/:role_id", r.userHandler.AssignRole)
			users.DELETE("/:id/roles/:role_id", r.userHandler.RemoveRole)
			users.GET("/:id/departments", r.userHandler.GetUserDepartments)
			users.POST("/:id/departments/:department_id", r.userHandler.AddDepartment)
			users.DELETE("/:id/departments/:department_id", r.userHandler.RemoveDepartment)
			users.PUT("/:id/departments/:department_id/primary", r.userHandler.SetPrimaryDepartment)
		}

		// 角色管理
		roles := admin.Group("/roles")
		{
			roles.GET("", r.roleHandler.ListRoles)
			roles.POST("", r.roleHandler.CreateRole)
			roles.GET("/:id", r.roleHandler.GetRole)
			roles.PUT("/:id", r.roleHandler.UpdateRole)
			roles.DELETE("/:id", r.roleHandler.DeleteRole)
			roles.PUT("/:id/parent", r.roleHandler.SetParent)
			roles.GET("/:id/permissions", r.roleHandler.GetPermissions)
			roles.PUT("/:id/permissions", r.roleHandler.SetPermissions) // 批量替换
			roles.POST("/:id/permissions/:permission_id", r.roleHandler.AssignPermission)
			roles.DELETE("/:id/permissions/:permission_id", r.roleHandler.RemovePermission)
			roles.GET("/:id/menus", r.roleHandler.GetMenus)
			roles.PUT("/:id/menus", r.roleHandler.SetMenus) // 批量替换
			roles.POST("/:id/menus/:menu_id", r.roleHandler.AssignMenu)
			roles.DELETE("/:id/menus/:menu_id", r.roleHandler.RemoveMenu)
		}

		// 权限管理
		permissions := admin.Group("/permissions")
		{
			permissions.GET("", r.permissionHandler.ListPermissions) // ?group_name=
			permissions.POST("", r.permissionHandler.CreatePermission)
			permissions.PUT("/:id", r.permissionHandler.UpdatePermission)
			permissions.DELETE("/:id", r.permissionHandler.DeletePermission)
		}

		// 菜单管理
		menus := admin.Group("/menus")
		{
			menus.GET("", r.menuHandler.GetMenuTree)
			menus.POST("", r.menuHandler.CreateMenu)
			menus.GET("/:id", r.menuHandler.GetMenu)
			menus.PUT("/:id", r.menuHandler.UpdateMenu)
			menus.PUT("/:id/parent", r.menuHandler.SetParent)
			menus.DELETE("/:id", r.menuHandler.DeleteMenu)
		}

		// 部门管理
		departments := admin.Group("/departments")
		{
			departments.GET("", r.departmentHandler.GetDepartmentTree)
			departments.POST("", r.departmentHandler.CreateDepartment)
			departments.GET("/:id", r.departmentHandler.GetDepartment)
			departments.PUT("/:id", r.departmentHandler.UpdateDepartment)
			departments.PUT("/:id/parent", r.departmentHandler.SetParent)
			departments.DELETE("/:id", r.departmentHandler.DeleteDepartment)
			departments.GET("/:id/users", r.departmentHandler.GetDepartmentUsers)
		}

		// 指定用户的授权检查
		admin.POST("/authz/check", r.authzHandler.CheckUser)
	}
}
