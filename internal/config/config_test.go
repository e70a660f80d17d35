package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfig = `
server:
  host: "localhost"
  port: 8080
  mode: "test"
database:
  mysql:
    host: "localhost"
    port: 3306
    database: "test_db"
  redis:
    host: "localhost"
    port: 6379
log:
  level: "info"
  format: "json"
  output: "stdout"
security:
  jwt:
    secret: "test_jwt_secret_key_at_least_32_chars"
    issuer: "accesscore-test"
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	return dir
}

// TestLoadConfig 测试配置加载与默认值
func TestLoadConfig(t *testing.T) {
	dir := writeConfig(t, "config.yaml", baseConfig)

	cfg, err := LoadConfig(dir, "development")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:8080", cfg.Server.GetAddress())
	assert.Equal(t, "localhost:6379", cfg.Database.Redis.GetRedisAddress())

	// 权限配置未填写时使用默认值
	assert.Equal(t, "admin", cfg.Permission.AdminRoleCode)
	assert.Equal(t, 30*time.Minute, cfg.Permission.CacheTTL)
	assert.Equal(t, "memory", cfg.Permission.CacheStore)
	assert.Equal(t, 32, cfg.Permission.MaxRoleDepth)
	assert.False(t, cfg.Permission.CaseInsensitivePaths)
	assert.Equal(t, 120, cfg.Security.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.Security.RateLimit.Window)
	assert.False(t, cfg.Security.RateLimit.Enabled)
	assert.Same(t, cfg, GetConfig())
}

// TestLoadConfigPermissionSection 测试权限配置解析
func TestLoadConfigPermissionSection(t *testing.T) {
	content := baseConfig + `
permission:
  admin_role_code: "root"
  cache_ttl: 5m
  cache_store: "redis"
  max_role_depth: 8
  case_insensitive_paths: true
`
	dir := writeConfig(t, "config.yaml", content)

	cfg, err := LoadConfig(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "root", cfg.Permission.AdminRoleCode)
	assert.Equal(t, 5*time.Minute, cfg.Permission.CacheTTL)
	assert.True(t, cfg.Permission.UsesRedisCache())
	assert.Equal(t, 8, cfg.Permission.MaxRoleDepth)
	assert.True(t, cfg.Permission.CaseInsensitivePaths)
}

// TestLoadConfigEnvOverride 测试环境变量覆盖
func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, "config.yaml", baseConfig)
	t.Setenv("ACCESSCORE_MYSQL_HOST", "db.internal")
	t.Setenv("ACCESSCORE_ADMIN_ROLE_CODE", "superuser")

	cfg, err := LoadConfig(dir, "development")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.MySQL.Host)
	assert.Equal(t, "superuser", cfg.Permission.AdminRoleCode)
}

// TestLoadConfigFallback 测试环境专属文件缺失时回退到 config.yaml
func TestLoadConfigFallback(t *testing.T) {
	dir := writeConfig(t, "config.yaml", baseConfig)

	cfg, err := LoadConfig(dir, "production")
	require.NoError(t, err)
	assert.Equal(t, "test_db", cfg.Database.MySQL.Database)
}

// TestValidateConfig 测试配置校验
func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"short jwt secret", `
server: {port: 8080, mode: "test"}
database: {mysql: {host: "h", database: "d"}}
log: {level: "info", format: "json", output: "stdout"}
security: {jwt: {secret: "short"}}
`},
		{"bad cache store", baseConfig + `
permission:
  cache_store: "memcached"
`},
		{"bad server mode", `
server: {port: 8080, mode: "turbo"}
database: {mysql: {host: "h", database: "d"}}
log: {level: "info", format: "json", output: "stdout"}
security: {jwt: {secret: "test_jwt_secret_key_at_least_32_chars"}}
`},
		{"sqlite without path", `
server: {port: 8080, mode: "test"}
database: {mysql: {driver: "sqlite"}}
log: {level: "info", format: "json", output: "stdout"}
security: {jwt: {secret: "test_jwt_secret_key_at_least_32_chars"}}
`},
		{"redis cache without redis host", `
server: {port: 8080, mode: "test"}
database: {mysql: {host: "h", database: "d"}}
log: {level: "info", format: "json", output: "stdout"}
security: {jwt: {secret: "test_jwt_secret_key_at_least_32_chars"}}
permission: {cache_store: "redis"}
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeConfig(t, "config.yaml", tc.content)
			_, err := LoadConfig(dir, "development")
			assert.Error(t, err)
		})
	}
}

func TestIsConfigFile(t *testing.T) {
	assert.True(t, isConfigFile("/etc/app/config.yaml"))
	assert.True(t, isConfigFile("config.test.yml"))
	assert.False(t, isConfigFile("config.json"))
	assert.False(t, isConfigFile("other.yaml"))
}

// TestConfigWatcherReload 测试配置文件变更触发回调
func TestConfigWatcherReload(t *testing.T) {
	dir := writeConfig(t, "config.yaml", baseConfig)
	_, err := LoadConfig(dir, "development")
	require.NoError(t, err)

	watcher, err := NewConfigWatcher(dir, "development")
	require.NoError(t, err)

	reloaded := make(chan *Config, 1)
	watcher.AddCallback(func(oldConfig, newConfig *Config) error {
		select {
		case reloaded <- newConfig:
		default:
		}
		return nil
	})
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	updated := baseConfig + `
permission:
  cache_ttl: 10m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(updated), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 10*time.Minute, cfg.Permission.CacheTTL)
	case <-time.After(5 * time.Second):
		t.Fatal("config reload callback not invoked")
	}
}

// TestRestartRequired 测试识别需要重启才能生效的配置段
func TestRestartRequired(t *testing.T) {
	dir := writeConfig(t, "config.yaml", baseConfig)
	oldConfig, err := LoadConfig(dir, "development")
	require.NoError(t, err)

	logOnly := *oldConfig
	logOnly.Log.Level = "debug"
	assert.Empty(t, RestartRequired(oldConfig, &logOnly))

	ttlChanged := *oldConfig
	ttlChanged.Permission.CacheTTL = oldConfig.Permission.CacheTTL + time.Minute
	ttlChanged.Server.Port = oldConfig.Server.Port + 1
	assert.Equal(t, []string{"server", "permission"}, RestartRequired(oldConfig, &ttlChanged))

	assert.Nil(t, RestartRequired(nil, oldConfig))
}
