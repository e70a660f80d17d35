/**
 * 应用:主服务
 * @author: sun977
 * @date: 2025.09.05
 * @description: 组装数据库、缓存、权限模块、命令管道与HTTP路由，负责服务启停
 * @func: NewApp、Start、Stop
 */
package master

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"accesscore/internal/app/master/router"
	"accesscore/internal/app/master/setup"
	"accesscore/internal/config"
	"accesscore/internal/pkg/database"
	"accesscore/internal/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// App 应用程序结构体
type App struct {
	config   *config.Config
	db       *gorm.DB
	redis    *redis.Client
	registry *prometheus.Registry
	auth     *setup.AuthModule
	system   *setup.SystemModule
	router   *router.Router
	server   *http.Server
}

// NewApp 创建新的应用程序实例
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.NewConnection(&cfg.Database.MySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 只有权限缓存放在 Redis 时才连接 Redis
	var redisClient *redis.Client
	if cfg.Permission.UsesRedisCache() {
		redisClient, err = database.NewRedisConnection(&cfg.Database.Redis)
		if err != nil {
			closeDB(db)
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
	}

	return newApp(cfg, db, redisClient)
}

// newApp 在已有连接上组装应用
func newApp(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	authModule, err := setup.BuildAuthModule(db, redisClient, cfg, registry)
	if err != nil {
		return nil, err
	}
	systemModule := setup.BuildSystemModule(authModule, cfg, registry)

	r := router.NewRouter(cfg, db, authModule, systemModule, registry)
	r.SetupRoutes()

	server := &http.Server{
		Addr:           cfg.Server.GetAddress(),
		Handler:        r.GetEngine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return &App{
		config:   cfg,
		db:       db,
		redis:    redisClient,
		registry: registry,
		auth:     authModule,
		system:   systemModule,
		router:   r,
		server:   server,
	}, nil
}

// GetRouter 获取路由器实例
func (a *App) GetRouter() *router.Router {
	return a.router
}

// GetConfig 获取启动配置
func (a *App) GetConfig() *config.Config {
	return a.config
}

// Start 启动HTTP服务，阻塞直到服务关闭
func (a *App) Start() error {
	logger.WithFields(map[string]interface{}{
		"path":      "app.master.Start",
		"operation": "server_start",
		"option":    "server.listen",
		"func_name": "master.App.Start",
		"address":   a.server.Addr,
		"endpoints": len(a.system.Pipeline.Names()),
	}).Info("HTTP服务启动")

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭HTTP服务并释放连接
func (a *App) Stop(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if a.redis != nil {
		if cerr := a.redis.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	closeDB(a.db)

	logger.WithFields(map[string]interface{}{
		"path":      "app.master.Stop",
		"operation": "server_stop",
		"option":    "server.shutdown",
		"func_name": "master.App.Stop",
	}).Info("HTTP服务已停止")
	return err
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
