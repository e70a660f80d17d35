package setup

import (
	"context"

	"accesscore/internal/model"
	"accesscore/internal/model/system"
	"accesscore/internal/pkg/hierarchy"
	"accesscore/internal/pkg/logger"
	"accesscore/internal/repo/mysql"
)

// SeedOptions 初始数据选项，AdminPassword 为空时不创建管理员账号
type SeedOptions struct {
	AdminRoleCode string
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// SeedResult 本次新建的条目数
type SeedResult struct {
	Permissions int
	Roles       int
	Menus       int
	Departments int
	Users       int
}

type seedPermission struct {
	code, name, group, path, method string
}

// 管理接口的系统权限；读权限限定 GET，写权限覆盖所有方法
var systemPermissions = []seedPermission{
	{"system.user.read", "查看用户", "user", "/api/v1/admin/users/**", "GET"},
	{"system.user.write", "管理用户", "user", "/api/v1/admin/users/**", ""},
	{"system.role.read", "查看角色", "role", "/api/v1/admin/roles/**", "GET"},
	{"system.role.write", "管理角色", "role", "/api/v1/admin/roles/**", ""},
	{"system.permission.read", "查看权限", "permission", "/api/v1/admin/permissions/**", "GET"},
	{"system.permission.write", "管理权限", "permission", "/api/v1/admin/permissions/**", ""},
	{"system.menu.read", "查看菜单", "menu", "/api/v1/admin/menus/**", "GET"},
	{"system.menu.write", "管理菜单", "menu", "/api/v1/admin/menus/**", ""},
	{"system.department.read", "查看部门", "department", "/api/v1/admin/departments/**", "GET"},
	{"system.department.write", "管理部门", "department", "/api/v1/admin/departments/**", ""},
	{"system.authz.check", "授权检查", "authz", "/api/v1/admin/authz/check", "POST"},
}

type seedMenu struct {
	code, name, path string
	sort             int
}

var systemMenus = []seedMenu{
	{"system.users", "用户管理", "/system/users", 1},
	{"system.roles", "角色管理", "/system/roles", 2},
	{"system.permissions", "权限管理", "/system/permissions", 3},
	{"system.menus", "菜单管理", "/system/menus", 4},
	{"system.departments", "部门管理", "/system/departments", 5},
}

const (
	rootMenuCode       = "system"
	rootDepartmentCode = "root"
	auditorRoleCode    = "auditor"
)

// Seed 写入系统权限、系统角色、根部门、系统菜单和管理员账号
// 已存在的编码跳过，可重复执行
func Seed(ctx context.Context, auth *AuthModule, opts SeedOptions) (*SeedResult, error) {
	if opts.AdminRoleCode == "" {
		opts.AdminRoleCode = "admin"
	}
	ctx, uow := auth.UnitOfWork.Provide(ctx)
	if err := uow.BeginTransaction(ctx); err != nil {
		return nil, err
	}
	res, err := seed(ctx, auth, opts)
	if err != nil {
		_ = uow.Rollback()
		return nil, err
	}
	if err := uow.Commit(ctx); err != nil && !system.IsPostCommit(err) {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"path":        "setup.Seed",
		"operation":   "seed",
		"option":      "seed.done",
		"func_name":   "setup.Seed",
		"permissions": res.Permissions,
		"roles":       res.Roles,
		"menus":       res.Menus,
		"departments": res.Departments,
		"users":       res.Users,
	}).Info("初始数据写入完成")
	return res, nil
}

func seed(ctx context.Context, auth *AuthModule, opts SeedOptions) (*SeedResult, error) {
	repos := auth.Repos
	res := &SeedResult{}

	// 1. 系统权限
	existing, err := repos.Permissions.List(ctx, "")
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*model.Permission, len(existing))
	for _, p := range existing {
		byCode[p.Code] = p
	}
	for i, sp := range systemPermissions {
		if _, ok := byCode[sp.code]; ok {
			continue
		}
		p := model.NewPermission(sp.code, model.PermissionSpec{
			Name:         sp.name,
			GroupName:    sp.group,
			ResourceType: "API",
			ResourcePath: sp.path,
			HTTPMethod:   sp.method,
			SortOrder:    i,
		}, true)
		if err := repos.Permissions.Save(ctx, p); err != nil {
			return nil, err
		}
		byCode[sp.code] = p
		res.Permissions++
	}
	if _, err := mysql.SaveChanges(ctx); err != nil {
		return nil, err
	}

	// 2. 系统角色：管理员持有全部系统权限，审计员持有全部只读权限
	var all, readOnly []uint64
	for _, sp := range systemPermissions {
		id := byCode[sp.code].ID
		all = append(all, id)
		if sp.method == "GET" {
			readOnly = append(readOnly, id)
		}
	}
	admin, created, err := ensureSystemRole(ctx, auth, opts.AdminRoleCode, "超级管理员", all)
	if err != nil {
		return nil, err
	}
	if created {
		res.Roles++
	}
	if _, created, err = ensureSystemRole(ctx, auth, auditorRoleCode, "审计员", readOnly); err != nil {
		return nil, err
	} else if created {
		res.Roles++
	}

	// 3. 根部门
	depts, err := repos.Departments.List(ctx)
	if err != nil {
		return nil, err
	}
	var root *model.Department
	for _, d := range depts {
		if d.Code == rootDepartmentCode {
			root = d
		}
	}
	if root == nil {
		root = model.NewDepartment("总部", rootDepartmentCode, "", 0)
		if err := repos.Departments.Save(ctx, root); err != nil {
			return nil, err
		}
		res.Departments++
	}

	// 4. 系统菜单
	n, err := seedMenus(ctx, auth)
	if err != nil {
		return nil, err
	}
	res.Menus = n
	if _, err := mysql.SaveChanges(ctx); err != nil {
		return nil, err
	}

	// 5. 管理员账号
	if opts.AdminPassword == "" || opts.AdminUsername == "" {
		return res, nil
	}
	taken, err := repos.Users.ExistsUsername(ctx, opts.AdminUsername, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return res, nil
	}
	hash, err := auth.PasswordHasher.Hash(opts.AdminPassword)
	if err != nil {
		return nil, system.NewInternalError("hash admin password", err)
	}
	user := model.NewUser(opts.AdminUsername, opts.AdminEmail, hash, "系统管理员")
	if _, err := user.AddRole(admin.ID); err != nil {
		return nil, err
	}
	if _, err := user.AddDepartment(root.ID, true); err != nil {
		return nil, err
	}
	if err := repos.Users.Save(ctx, user); err != nil {
		return nil, err
	}
	res.Users++
	return res, nil
}

func ensureSystemRole(ctx context.Context, auth *AuthModule, code, name string, permissionIDs []uint64) (*model.Role, bool, error) {
	role, err := auth.Repos.Roles.GetByCode(ctx, code)
	if err == nil {
		return role, false, nil
	}
	if !system.IsNotFound(err) {
		return nil, false, err
	}
	role = model.NewSystemRole(name, code, "", permissionIDs)
	if err := auth.Repos.Roles.Save(ctx, role); err != nil {
		return nil, false, err
	}
	if _, err := mysql.SaveChanges(ctx); err != nil {
		return nil, false, err
	}
	return role, true, nil
}

// seedMenus 根菜单和各管理页菜单，子菜单落库后再挂到根菜单下
func seedMenus(ctx context.Context, auth *AuthModule) (int, error) {
	repo := auth.Repos.Menus
	menus, err := repo.List(ctx)
	if err != nil {
		return 0, err
	}
	byCode := make(map[string]*model.Menu, len(menus))
	for _, m := range menus {
		byCode[m.Code] = m
	}

	created := 0
	root, ok := byCode[rootMenuCode]
	if !ok {
		root = model.NewMenu(rootMenuCode, model.MenuSpec{Name: "系统管理", Path: "/system", Icon: "setting", Visible: true}, true)
		if err := repo.Save(ctx, root); err != nil {
			return 0, err
		}
		created++
	}
	var children []*model.Menu
	for _, sm := range systemMenus {
		if _, ok := byCode[sm.code]; ok {
			continue
		}
		m := model.NewMenu(sm.code, model.MenuSpec{Name: sm.name, Path: sm.path, SortOrder: sm.sort, Visible: true}, true)
		if err := repo.Save(ctx, m); err != nil {
			return 0, err
		}
		children = append(children, m)
		created++
	}
	if len(children) == 0 {
		return created, nil
	}
	if _, err := mysql.SaveChanges(ctx); err != nil {
		return 0, err
	}

	forest, err := repo.Forest(ctx, hierarchy.DefaultMaxDepth)
	if err != nil {
		return 0, err
	}
	for _, m := range children {
		if _, err := m.SetParent(&root.ID, forest); err != nil {
			return 0, err
		}
		if err := repo.Save(ctx, m); err != nil {
			return 0, err
		}
	}
	return created, nil
}
