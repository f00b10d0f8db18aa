package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VincentYu328/luckystar-sub000/inventory"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "tailorshop.db", cfg.DBPath)
	assert.Equal(t, inventory.ModeProd, cfg.Mode())
	assert.True(t, cfg.AllowNegativeStock)
	assert.Equal(t, 15*time.Minute, cfg.StockAuditInterval)
	assert.Equal(t, 5, cfg.OrderNumberAttempts)
	assert.Len(t, cfg.CORSOrigins, 2)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("TAILOR_DB_PATH", ":memory:")
	t.Setenv("TAILOR_DEFAULT_MODE", "dev")
	t.Setenv("TAILOR_ALLOW_NEGATIVE_STOCK", "false")
	t.Setenv("TAILOR_STOCK_AUDIT_INTERVAL", "0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, inventory.ModeDev, cfg.Mode())
	assert.False(t, cfg.AllowNegativeStock)
	assert.Zero(t, cfg.StockAuditInterval)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TAILOR_HTTP_ADDR=:9090\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TAILOR_HTTP_ADDR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"TAILOR_DEFAULT_MODE":          "staging",
		"TAILOR_LOG_LEVEL":             "loud",
		"TAILOR_LOG_FORMAT":            "xml",
		"TAILOR_ORDER_NUMBER_ATTEMPTS": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
