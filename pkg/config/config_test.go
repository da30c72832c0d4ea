package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(&mapSource{})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "blob-gateway", cfg.AppName)
	assert.Equal(t, "default-container", cfg.DefaultContainer)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.Empty(t, cfg.StorageAccountName)
}

func TestLoadConfigFromSource(t *testing.T) {
	cfg, err := LoadConfig(&mapSource{values: map[string]string{
		"STORAGE_ACCOUNT_NAME": "devstoreaccount1",
		"STORAGE_ACCOUNT_KEY":  "secret",
		"HTTP_PORT":            "9090",
		"RATE_LIMIT_RPS":       "50",
		"LOG_LEVEL":            "debug",
	}})
	require.NoError(t, err)

	assert.Equal(t, "devstoreaccount1", cfg.StorageAccountName)
	assert.Equal(t, "secret", cfg.StorageAccountKey)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 50, cfg.RateLimitRPS)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_BadIntFallsBackToDefault(t *testing.T) {
	cfg, err := LoadConfig(&mapSource{values: map[string]string{
		"HTTP_PORT": "not-a-number",
	}})
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestStorageEndpointURL(t *testing.T) {
	cfg := &Config{StorageAccountName: "acct"}
	assert.Equal(t, "https://acct.blob.core.windows.net", cfg.StorageEndpointURL())

	cfg.StorageEndpoint = "http://127.0.0.1:10000/acct"
	assert.Equal(t, "http://127.0.0.1:10000/acct", cfg.StorageEndpointURL())

	empty := &Config{}
	assert.Empty(t, empty.StorageEndpointURL())
}

func TestFileConfigSourceYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  container: media\nHTTP_PORT: 9091\n"), 0o600))

	src, err := NewFileConfigSource(path)
	require.NoError(t, err)

	val, ok := src.Get("storage.container")
	assert.True(t, ok)
	assert.Equal(t, "media", val)

	// Non-string scalars are stringified.
	assert.Equal(t, "9091", src.GetWithDefault("HTTP_PORT", "0"))

	_, ok = src.Get("storage.missing")
	assert.False(t, ok)
}

func TestFileConfigSource_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o600))

	_, err := NewFileConfigSource(path)
	assert.Error(t, err)
}

func TestCompositeConfigSourcePrecedence(t *testing.T) {
	first := &mapSource{values: map[string]string{"KEY": "from-first"}}
	second := &mapSource{values: map[string]string{"KEY": "from-second", "OTHER": "x"}}
	composite := &CompositeConfigSource{sources: []ConfigSource{first, second}}

	assert.Equal(t, "from-first", composite.GetWithDefault("KEY", "d"))
	assert.Equal(t, "x", composite.GetWithDefault("OTHER", "d"))
	assert.Equal(t, "d", composite.GetWithDefault("MISSING", "d"))
}

// mapSource is a test double for ConfigSource.
type mapSource struct {
	values map[string]string
}

func (m *mapSource) Get(key string) (string, bool) {
	val, ok := m.values[key]
	return val, ok
}

func (m *mapSource) GetWithDefault(key, defaultValue string) string {
	if val, ok := m.values[key]; ok {
		return val
	}
	return defaultValue
}
