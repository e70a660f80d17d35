/*
ConfigWatcher 配置文件监听器
监听配置目录，配置文件写入或重建后防抖重载，并把新旧配置交给注册的回调。
回调失败只记录日志，不影响其他回调执行。
*/
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify" // 文件系统监听库
	"github.com/sirupsen/logrus"
)

// debounceInterval 重载防抖间隔
const debounceInterval = 500 * time.Millisecond

// ConfigWatcher 配置文件监听器
type ConfigWatcher struct {
	watcher    *fsnotify.Watcher  // 文件系统监听器
	configPath string             // 配置文件目录
	env        string             // 环境标识
	callbacks  []ReloadCallback   // 重载回调函数列表
	mu         sync.RWMutex       // 读写锁
	ctx        context.Context    // 上下文
	cancel     context.CancelFunc // 取消函数
	done       chan struct{}      // 完成信号
	log        logrus.FieldLogger
}

// ReloadCallback 配置重载回调函数类型
type ReloadCallback func(oldConfig, newConfig *Config) error

// RestartRequired 返回新旧配置间发生变化且需要重启才能生效的配置段
// 只有日志配置支持热重载，其余配置段(包括权限缓存TTL)在启动时一次性装配
func RestartRequired(oldConfig, newConfig *Config) []string {
	if oldConfig == nil || newConfig == nil {
		return nil
	}
	sections := []struct {
		name     string
		old, new interface{}
	}{
		{"server", oldConfig.Server, newConfig.Server},
		{"database", oldConfig.Database, newConfig.Database},
		{"security", oldConfig.Security, newConfig.Security},
		{"permission", oldConfig.Permission, newConfig.Permission},
		{"monitor", oldConfig.Monitor, newConfig.Monitor},
		{"app", oldConfig.App, newConfig.App},
	}
	var changed []string
	for _, section := range sections {
		if !reflect.DeepEqual(section.old, section.new) {
			changed = append(changed, section.name)
		}
	}
	return changed
}

// NewConfigWatcher 创建配置文件监听器
func NewConfigWatcher(configPath, env string) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ConfigWatcher{
		watcher:    watcher,
		configPath: configPath,
		env:        env,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		log:        logrus.WithField("component", "config_watcher"),
	}, nil
}

// Start 启动配置文件监听
func (cw *ConfigWatcher) Start() error {
	if cw.configPath == "" {
		cw.configPath = getDefaultConfigPath()
	}

	if err := cw.watcher.Add(cw.configPath); err != nil {
		return fmt.Errorf("failed to add config path to watcher: %w", err)
	}

	go cw.watchLoop()

	cw.log.WithField("path", cw.configPath).Info("config watcher started")
	return nil
}

// Stop 停止配置文件监听
func (cw *ConfigWatcher) Stop() error {
	cw.cancel()

	select {
	case <-cw.done:
	case <-time.After(5 * time.Second):
		cw.log.Warn("config watcher stop timeout")
	}

	return cw.watcher.Close()
}

// AddCallback 添加配置重载回调函数
func (cw *ConfigWatcher) AddCallback(callback ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// watchLoop 监听循环
func (cw *ConfigWatcher) watchLoop() {
	defer close(cw.done)

	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}

	for {
		select {
		case <-cw.ctx.Done():
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			// 只处理写入和创建事件
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && isConfigFile(event.Name) {
				cw.log.WithField("file", event.Name).Debug("config file changed")
				debounceTimer.Reset(debounceInterval)
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.WithError(err).Warn("config watcher error")

		case <-debounceTimer.C:
			if err := cw.reloadConfig(); err != nil {
				cw.log.WithError(err).Error("failed to reload config")
			}
		}
	}
}

// isConfigFile 检查是否为配置文件
func isConfigFile(filename string) bool {
	switch filepath.Base(filename) {
	case "config.yaml", "config.yml",
		"config.test.yaml", "config.test.yml",
		"config.prod.yaml", "config.prod.yml":
		return true
	}
	return false
}

// reloadConfig 重载配置并依次执行回调
func (cw *ConfigWatcher) reloadConfig() error {
	oldConfig := GlobalConfig

	newConfig, err := LoadConfig(cw.configPath, cw.env)
	if err != nil {
		return fmt.Errorf("failed to load new config: %w", err)
	}

	cw.mu.RLock()
	callbacks := make([]ReloadCallback, len(cw.callbacks))
	copy(callbacks, cw.callbacks)
	cw.mu.RUnlock()

	for _, callback := range callbacks {
		if err := callback(oldConfig, newConfig); err != nil {
			cw.log.WithError(err).Warn("config reload callback error")
		}
	}

	cw.log.Info("config reloaded")
	return nil
}
