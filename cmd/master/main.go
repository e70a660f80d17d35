/*
 * @author: sun977
 * @date: 2025.09.05
 * @description: 主程序入口
 * @func: 加载配置、初始化日志、组装应用、启动服务器、监听配置变更、等待中断信号
 */

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"accesscore/internal/app/master"
	"accesscore/internal/config"
	"accesscore/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "配置文件目录(默认 ./configs)")
	env := flag.String("env", "", "运行环境(development/test/production)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *env)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logManager, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	app, err := master.NewApp(cfg)
	if err != nil {
		logger.WithField("error", err).Fatal("Failed to create app")
	}

	// 配置文件变更时只热更新日志配置，其余配置需要重启生效
	watcher, err := config.NewConfigWatcher(*configPath, *env)
	if err != nil {
		logger.WithField("error", err).Warn("config watcher disabled")
	} else {
		watcher.AddCallback(func(oldConfig, newConfig *config.Config) error {
			if sections := config.RestartRequired(oldConfig, newConfig); len(sections) > 0 {
				logger.WithField("sections", sections).Warn("config changed, restart required to apply")
			}
			return logManager.UpdateConfig(&newConfig.Log)
		})
		if err := watcher.Start(); err != nil {
			logger.WithField("error", err).Warn("config watcher disabled")
		} else {
			defer watcher.Stop()
		}
	}

	go func() {
		if err := app.Start(); err != nil {
			logger.WithField("error", err).Fatal("Failed to start server")
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.WithFields(logrus.Fields{"signal": sig.String()}).Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.WithField("error", err).Error("Server forced to shutdown")
	}
	logger.LogSystemEvent("master", "shutdown", "Server exiting", logrus.InfoLevel, nil)
}
