/*
*
  - 数据库迁移工具
  - @author: Sun977
  - @date: 2025.10.15
  - @description: 数据库模型迁移和初始数据写入工具
  - @usage: go run main.go -env=test -seed=true -drop=true
    -config string
    配置文件目录 (默认 ./configs)
    -drop
    是否先删除表（危险操作）
    -env string
    环境标识 (test, development, production) (default "test")
    -seed
    是否写入系统权限、系统角色、根部门与系统菜单 (default true)
    -admin-password string
    非空时同时创建管理员账号

示例:
main.exe -env=test -seed=true -admin-password=Admin@123456   # 测试环境迁移并初始化管理员
main.exe -env=production -seed=false                         # 生产环境仅迁移表结构
*/
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"accesscore/internal/app/master/setup"
	"accesscore/internal/config"
	"accesscore/internal/pkg/database"
	"accesscore/internal/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MigrateOptions 迁移选项配置
type MigrateOptions struct {
	ConfigPath    string
	Environment   string
	SeedData      bool
	DropFirst     bool
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

func main() {
	opts := parseFlags()

	cfg, err := config.LoadConfig(opts.ConfigPath, opts.Environment)
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	if _, err := logger.InitLogger(&cfg.Log); err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}

	start := time.Now()
	logger.WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "database_migration",
		"option":    "migrate.start",
		"func_name": "main",
		"env":       opts.Environment,
		"driver":    cfg.Database.MySQL.Driver,
		"seed":      opts.SeedData,
		"drop":      opts.DropFirst,
	}).Info("开始数据库迁移")

	db, err := database.NewConnection(&cfg.Database.MySQL)
	if err != nil {
		logger.WithField("error", err).Fatal("数据库连接失败")
	}

	if err := migrate(db, opts); err != nil {
		logger.WithField("error", err).Fatal("数据库迁移失败")
	}

	if opts.SeedData {
		auth, err := setup.BuildAuthModule(db, nil, seedConfig(cfg), nil)
		if err != nil {
			logger.WithField("error", err).Fatal("认证模块构建失败")
		}
		res, err := setup.Seed(context.Background(), auth, setup.SeedOptions{
			AdminRoleCode: cfg.Permission.AdminRoleCode,
			AdminUsername: opts.AdminUsername,
			AdminEmail:    opts.AdminEmail,
			AdminPassword: opts.AdminPassword,
		})
		if err != nil {
			logger.WithField("error", err).Fatal("初始数据写入失败")
		}
		logger.WithFields(logrus.Fields{
			"permissions": res.Permissions,
			"roles":       res.Roles,
			"menus":       res.Menus,
			"departments": res.Departments,
			"users":       res.Users,
		}).Info("初始数据写入完成")
	}

	logger.LogSystemEvent("migrate", "done", "数据库迁移完成", logrus.InfoLevel, map[string]interface{}{
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func parseFlags() MigrateOptions {
	var opts MigrateOptions
	flag.StringVar(&opts.ConfigPath, "config", "", "配置文件目录")
	flag.StringVar(&opts.Environment, "env", "test", "环境标识 (test, development, production)")
	flag.BoolVar(&opts.SeedData, "seed", true, "是否写入初始数据")
	flag.BoolVar(&opts.DropFirst, "drop", false, "是否先删除表（危险操作）")
	flag.StringVar(&opts.AdminUsername, "admin-username", "admin", "管理员用户名")
	flag.StringVar(&opts.AdminEmail, "admin-email", "admin@example.com", "管理员邮箱")
	flag.StringVar(&opts.AdminPassword, "admin-password", "", "管理员密码，为空时不创建管理员")
	flag.Parse()
	return opts
}

// migrate 按需删表后自动迁移全部模型
func migrate(db *gorm.DB, opts MigrateOptions) error {
	if opts.DropFirst {
		logger.WithField("env", opts.Environment).Warn("删除全部表")
		models := database.Models()
		// 逆序删除，先删关联表
		for i := len(models) - 1; i >= 0; i-- {
			if err := db.Migrator().DropTable(models[i]); err != nil {
				return err
			}
		}
	}
	return database.AutoMigrate(db)
}

// seedConfig 迁移工具不连接 Redis，权限缓存固定使用内存存储
func seedConfig(cfg *config.Config) *config.Config {
	c := *cfg
	c.Permission.CacheStore = "memory"
	if c.Permission.CacheSize <= 0 {
		c.Permission.CacheSize = 128
	}
	return &c
}
