package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

// LoadConfig 加载配置文件
// configPath: 配置文件路径，如果为空则使用默认路径
// env: 环境标识，支持 development, test, production
func LoadConfig(configPath, env string) (*Config, error) {
	if env == "" {
		env = getEnvFromEnvironment()
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	// 根据环境选择配置文件
	configFile := getConfigFileName(configPath, env)
	v.SetConfigFile(configFile)

	// 环境变量覆盖: ACCESSCORE_DATABASE_MYSQL_HOST 等
	v.SetEnvPrefix("ACCESSCORE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvironmentVariables(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	GlobalConfig = &config

	return &config, nil
}

// getEnvFromEnvironment 从环境变量获取环境标识
func getEnvFromEnvironment() string {
	env := os.Getenv("ACCESSCORE_ENV")
	if env == "" {
		env = os.Getenv("GO_ENV")
	}
	if env == "" {
		env = "development" // 默认开发环境
	}
	return env
}

// getDefaultConfigPath 获取默认配置文件路径
func getDefaultConfigPath() string {
	if configPath := os.Getenv("ACCESSCORE_CONFIG_PATH"); configPath != "" {
		return configPath
	}
	return "configs"
}

// getConfigFileName 根据环境获取配置文件名
func getConfigFileName(configPath, env string) string {
	var configFile string

	switch env {
	case "production", "prod":
		configFile = filepath.Join(configPath, "config.prod.yaml")
	case "test", "testing":
		configFile = filepath.Join(configPath, "config.test.yaml")
	default:
		configFile = filepath.Join(configPath, "config.yaml")
	}

	// 环境专属文件不存在时回退到默认配置文件
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		defaultConfig := filepath.Join(configPath, "config.yaml")
		if _, err := os.Stat(defaultConfig); err == nil {
			return defaultConfig
		}
	}

	return configFile
}

// bindEnvironmentVariables 绑定环境变量
func bindEnvironmentVariables(v *viper.Viper) {
	// 数据库配置
	v.BindEnv("database.mysql.host", "ACCESSCORE_MYSQL_HOST")
	v.BindEnv("database.mysql.port", "ACCESSCORE_MYSQL_PORT")
	v.BindEnv("database.mysql.username", "ACCESSCORE_MYSQL_USERNAME")
	v.BindEnv("database.mysql.password", "ACCESSCORE_MYSQL_PASSWORD")
	v.BindEnv("database.mysql.database", "ACCESSCORE_MYSQL_DATABASE")

	v.BindEnv("database.redis.host", "ACCESSCORE_REDIS_HOST")
	v.BindEnv("database.redis.port", "ACCESSCORE_REDIS_PORT")
	v.BindEnv("database.redis.password", "ACCESSCORE_REDIS_PASSWORD")

	// JWT配置
	v.BindEnv("security.jwt.secret", "ACCESSCORE_JWT_SECRET")
	v.BindEnv("security.jwt.issuer", "ACCESSCORE_JWT_ISSUER")

	// 权限配置
	v.BindEnv("permission.admin_role_code", "ACCESSCORE_ADMIN_ROLE_CODE")
	v.BindEnv("permission.cache_store", "ACCESSCORE_PERMISSION_CACHE_STORE")
	v.BindEnv("permission.cache_ttl", "ACCESSCORE_PERMISSION_CACHE_TTL")

	// 服务器配置
	v.BindEnv("server.host", "ACCESSCORE_SERVER_HOST")
	v.BindEnv("server.port", "ACCESSCORE_SERVER_PORT")
	v.BindEnv("server.mode", "ACCESSCORE_SERVER_MODE")

	v.BindEnv("app.environment", "ACCESSCORE_APP_ENVIRONMENT")
}

// applyDefaults 填充未配置项的默认值
func applyDefaults(config *Config) {
	if config == nil {
		return
	}

	p := &config.Permission
	if strings.TrimSpace(p.AdminRoleCode) == "" {
		p.AdminRoleCode = "admin"
	}
	if p.CacheTTL <= 0 {
		p.CacheTTL = 30 * time.Minute
	}
	if p.CacheStore == "" {
		p.CacheStore = "memory"
	}
	if p.CacheSize <= 0 {
		p.CacheSize = 10000
	}
	if p.RedisKeyPrefix == "" {
		p.RedisKeyPrefix = "accesscore:perm:"
	}
	if p.MaxRoleDepth <= 0 {
		p.MaxRoleDepth = 32
	}

	rl := &config.Security.RateLimit
	if rl.Requests <= 0 {
		rl.Requests = 120
	}
	if rl.Window <= 0 {
		rl.Window = time.Minute
	}
	if rl.MaxClients <= 0 {
		rl.MaxClients = 10000
	}

	if config.Monitor.Metrics.Path == "" {
		config.Monitor.Metrics.Path = "/metrics"
	}
	if config.Monitor.Health.Path == "" {
		config.Monitor.Health.Path = "/health"
	}
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Server.Mode != "debug" && config.Server.Mode != "release" && config.Server.Mode != "test" {
		return fmt.Errorf("invalid server mode: %s", config.Server.Mode)
	}

	switch config.Database.MySQL.Driver {
	case "", "mysql":
		if config.Database.MySQL.Host == "" {
			return fmt.Errorf("mysql host is required")
		}
		if config.Database.MySQL.Database == "" {
			return fmt.Errorf("mysql database name is required")
		}
	case "sqlite":
		if config.Database.MySQL.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required when driver is sqlite")
		}
	default:
		return fmt.Errorf("invalid database driver: %s", config.Database.MySQL.Driver)
	}

	if config.Security.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	if len(config.Security.JWT.Secret) < 32 {
		return fmt.Errorf("jwt secret must be at least 32 characters long")
	}

	validLogLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	if !contains(validLogLevels, config.Log.Level) {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, config.Log.Format) {
		return fmt.Errorf("invalid log format: %s", config.Log.Format)
	}

	validLogOutputs := []string{"stdout", "stderr", "file"}
	if !contains(validLogOutputs, config.Log.Output) {
		return fmt.Errorf("invalid log output: %s", config.Log.Output)
	}

	if config.Log.Output == "file" && config.Log.FilePath == "" {
		return fmt.Errorf("log file path is required when output is file")
	}

	validCacheStores := []string{"memory", "redis"}
	if !contains(validCacheStores, config.Permission.CacheStore) {
		return fmt.Errorf("invalid permission cache store: %s", config.Permission.CacheStore)
	}

	// 只有权限缓存放在 Redis 时才需要 Redis
	if config.Permission.UsesRedisCache() && config.Database.Redis.Host == "" {
		return fmt.Errorf("redis host is required when permission cache store is redis")
	}

	return nil
}

// contains 检查切片是否包含指定元素
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	return GlobalConfig
}

// MustLoadConfig 加载配置，如果失败则panic
func MustLoadConfig(configPath, env string) *Config {
	config, err := LoadConfig(configPath, env)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	return config
}
