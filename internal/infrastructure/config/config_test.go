package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, StockPolicyStrict, cfg.Checkout.StockPolicy)
	assert.Equal(t, "2024-2025", cfg.Checkout.DefaultAcademicYear)
	assert.Equal(t, DispatchLocal, cfg.Notification.Dispatch)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expire)
	assert.False(t, cfg.Order.StrictTransitions)
}

func TestLoadFrom_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9000
checkout:
  stock_policy: lenient
  default_academic_year: "2025-2026"
database:
  driver: mysql
  host: db
  port: 3307
  user: app
  password: secret
  dbname: books
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("BOOKSTORE_SERVER_PORT", "9100")
	t.Setenv("BOOKSTORE_ORDER_STRICT_TRANSITIONS", "true")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, StockPolicyLenient, cfg.Checkout.StockPolicy)
	assert.Equal(t, "2025-2026", cfg.Checkout.DefaultAcademicYear)
	assert.True(t, cfg.Order.StrictTransitions)
	assert.Equal(t, "app:secret@tcp(db:3307)/books?charset=utf8mb4&parseTime=true&loc=Local", cfg.Database.DSN())
}

func TestLoadFrom_EnvSpecificFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.test.yaml"), []byte("server:\n  port: 7000\n"), 0o644))
	t.Setenv("BOOKSTORE_ENV", "test")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadFrom(t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Checkout.StockPolicy = "optimistic"
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Notification.Dispatch = "kafka"
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Database.Driver = "postgres"
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Server.Mode = "release"
	assert.Error(t, validate(cfg), "默认JWT密钥不允许用于生产环境")

	cfg.JWT.Secret = "prod-secret"
	assert.Error(t, validate(cfg), "生产环境必须配置管理口令")

	cfg.Admin.Passcode = "letmein"
	assert.NoError(t, validate(cfg))
}
