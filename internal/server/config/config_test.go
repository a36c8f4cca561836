package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.Equal(t, 15*time.Minute, cfg.PresignExpiry)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestParseEnv_OverridesDefaults(t *testing.T) {
	t.Setenv("HARMONIA_ADDRESS", ":9999")
	t.Setenv("HARMONIA_SECRET_KEY", "from-env")
	t.Setenv("HARMONIA_PRESIGN_EXPIRY", "30m")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddr)
	assert.Equal(t, "from-env", cfg.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.PresignExpiry)
}

func TestParseEnv_EmptyValuesKeepDefaults(t *testing.T) {
	t.Setenv("HARMONIA_ADDRESS", "")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":8080", cfg.EndpointAddr)
}

func TestParseJson_OverlaysFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")

	payload, err := json.Marshal(map[string]any{
		"endpoint_addr":    ":7070",
		"database_dsn":     "postgres://json",
		"presign_expiry":   "45m",
		"shutdown_timeout": "10s",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, payload, 0o600))

	oldArgs := os.Args
	os.Args = []string{"harmonia", "-c", path}
	defer func() { os.Args = oldArgs }()

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":7070", cfg.EndpointAddr)
	assert.Equal(t, "postgres://json", cfg.DatabaseDSN)
	assert.Equal(t, 45*time.Minute, cfg.PresignExpiry)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	// untouched fields keep defaults
	assert.Equal(t, "secretKey", cfg.SecretKey)
}

func TestParseFlags_Overrides(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"harmonia", "-a", ":6060", "-x", "60"}
	defer func() { os.Args = oldArgs }()

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, ":6060", cfg.EndpointAddr)
	assert.Equal(t, 60*time.Minute, cfg.PresignExpiry)
}
