package master

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"accesscore/internal/config"
	"accesscore/internal/pkg/database"
	"accesscore/internal/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func appConfig(store string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, Mode: gin.TestMode},
		Security: config.SecurityConfig{
			JWT:      config.JWTConfig{Secret: "app-secret", Issuer: "accesscore", AccessTokenExpire: time.Hour},
			Password: config.PasswordConfig{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		},
		Permission: config.PermissionConfig{
			AdminRoleCode:  "admin",
			CacheTTL:       time.Minute,
			CacheStore:     store,
			CacheSize:      16,
			MaxRoleDepth:   8,
			RedisKeyPrefix: "test:perm:",
		},
		Monitor: config.MonitorConfig{
			Health:  config.HealthConfig{Enabled: true, Path: "/health"},
			Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
		},
	}
}

func TestNewAppServesHealthAndMetrics(t *testing.T) {
	l, _ := test.NewNullLogger()
	logger.Use(l)
	t.Cleanup(func() { logger.LoggerInstance = nil })

	db, err := database.NewSQLiteConnection(":memory:", gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	app, err := newApp(appConfig("memory"), db, nil)
	require.NoError(t, err)
	engine := app.GetRouter().GetEngine()

	for _, path := range []string{"/api/health", "/api/ready", "/api/live", "/metrics"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestNewAppRedisCacheStore(t *testing.T) {
	l, _ := test.NewNullLogger()
	logger.Use(l)
	t.Cleanup(func() { logger.LoggerInstance = nil })

	db, err := database.NewSQLiteConnection(":memory:", gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	_, err = newApp(appConfig("redis"), db, nil)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	app, err := newApp(appConfig("redis"), db, client)
	require.NoError(t, err)
	assert.NotNil(t, app.GetRouter())
}
