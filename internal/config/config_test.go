package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"RETAILCORE_HTTP_ADDR", "RETAILCORE_GRPC_ADDR", "RETAILCORE_DB_DRIVER", "RETAILCORE_DB_DSN",
	"RETAILCORE_DATA_DIR", "RETAILCORE_LOAD_ON_START", "RETAILCORE_CONFIRM_TOKEN_TTL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "RETAILCORE_REORDER_CRON", "RETAILCORE_LOG_LEVEL",
}

// clearEnv blanks every key for the test; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, ":50051", cfg.Server.GRPCAddr)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "./data/retail.db", cfg.Database.DSN)
	assert.True(t, cfg.Database.LoadOnStart)
	assert.Equal(t, 900*time.Second, cfg.Confirm.TokenTTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Scheduler.ReorderCron)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := "RETAILCORE_DB_DRIVER=mysql\n" +
		"RETAILCORE_DB_DSN=root:root@tcp(localhost:3306)/retailops\n" +
		"RETAILCORE_CONFIRM_TOKEN_TTL=2m\n" +
		"RETAILCORE_REORDER_CRON=0 6 * * *\n" +
		"REDIS_ADDR=localhost:6379\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Confirm.TokenTTL)
	assert.Equal(t, "0 6 * * *", cfg.Scheduler.ReorderCron)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown driver", "RETAILCORE_DB_DRIVER", "postgres"},
		{"mysql without dsn", "RETAILCORE_DB_DRIVER", "mysql"},
		{"bad ttl", "RETAILCORE_CONFIRM_TOKEN_TTL", "soon"},
		{"negative ttl", "RETAILCORE_CONFIRM_TOKEN_TTL", "-1s"},
		{"bad bool", "RETAILCORE_LOAD_ON_START", "maybe"},
		{"bad cron", "RETAILCORE_REORDER_CRON", "every day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	var c *Config
	assert.Error(t, c.Validate())
}
