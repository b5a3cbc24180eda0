package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 2*time.Minute, cfg.Dashboard.Refresh)
	assert.Equal(t, 3*time.Second, cfg.Notice.TTL)
	assert.Equal(t, "PHP", cfg.Format.Currency)
	assert.Equal(t, filepath.Join(dir, "state", "pos", "pos.db"), cfg.SessionDB)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("POS_BASE_URL", "http://pos.test:9000")
	t.Setenv("POS_LOW_STOCK_THRESHOLD", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://pos.test:9000", cfg.BaseURL)
	assert.Equal(t, 3, cfg.LowStockThreshold)
}

func TestLoadConfig_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "terminal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: http://yaml.test\nlow_stock_threshold: 5\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://yaml.test", cfg.BaseURL)
	assert.Equal(t, 5, cfg.LowStockThreshold)
}

func TestLoadConfig_Invalid(t *testing.T) {
	isolate(t)
	t.Setenv("POS_PAGE_SIZE", "0")

	_, err := LoadConfig()
	require.Error(t, err)
}
