package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.App.StorageDriver)
	assert.Equal(t, 5*time.Second, cfg.Ledger.StorageTimeout)
	assert.Equal(t, int64(10), cfg.Ledger.LowStockThreshold)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.False(t, cfg.Signup.Enabled())
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("LEDGER_STORAGE_TIMEOUT_MS", "1500")
	t.Setenv("LEDGER_LOW_STOCK_THRESHOLD", "25")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SIGNUP_COMPANY_ID", "co-tienda")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.App.StorageDriver)
	assert.Equal(t, 1500*time.Millisecond, cfg.Ledger.StorageTimeout)
	assert.Equal(t, int64(25), cfg.Ledger.LowStockThreshold)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Signup.Enabled())
	assert.Equal(t, "co-tienda", cfg.Signup.CompanyID)
}

func TestLoad_DriverInvalido(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := Load()
	assert.ErrorContains(t, err, "STORAGE_DRIVER")
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/ledger?sslmode=disable", c.DSN())
	assert.Equal(t, "postgres://x", DBConfig{DatabaseURL: "postgres://x"}.ConnectionString())
}
