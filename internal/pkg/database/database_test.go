package database

import (
	"strconv"
	"testing"

	"accesscore/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestSQLiteConnectionAndMigrate(t *testing.T) {
	db, err := NewSQLiteConnection(":memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"users", "roles", "permissions", "menus", "departments", "user_roles", "user_departments", "role_permissions", "role_menus"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestNewConnectionSelectsSQLite(t *testing.T) {
	db, err := NewConnection(&config.MySQLConfig{Driver: "sqlite", SQLitePath: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
}

func TestNewRedisConnection(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisConnection(&config.RedisConfig{Host: mr.Host(), Port: atoiPort(t, mr.Port())})
	require.NoError(t, err)
	defer client.Close()

	_, err = NewRedisConnection(&config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}

func atoiPort(t *testing.T, s string) int {
	t.Helper()
	port, err := strconv.Atoi(s)
	require.NoError(t, err)
	return port
}
