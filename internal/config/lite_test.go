package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 512, cfg.CacheMaxItems)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 512, cfg.CacheMaxItems)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	os.Setenv("SNF_ADMIT_DATA_DIR", "/tmp/test-snf")
	os.Setenv("SNF_ADMIT_CACHE_MAX_ITEMS", "128")
	os.Setenv("SNF_ADMIT_CACHE_TTL", "30m")
	os.Setenv("SNF_ADMIT_HTTP_PORT", "9090")
	os.Setenv("SNF_ADMIT_LOG_LEVEL", "debug")
	os.Setenv("SNF_ADMIT_EXTRACTION_API_KEY", "test-key")

	defer clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-snf", cfg.DataDir)
	assert.Equal(t, 128, cfg.CacheMaxItems)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "test-key", cfg.ExtractionAPIKey)
}

func TestLiteConfig_AssessmentDBPath(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.snf-admission-engine"}

	path := cfg.AssessmentDBPath()

	assert.Equal(t, "/home/user/.snf-admission-engine/assessments.db", path)
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	cfg := &LiteConfig{DataDir: filepath.Join(tmpDir, "snf")}

	err = cfg.EnsureDataDir()
	require.NoError(t, err)

	_, err = os.Stat(cfg.DataDir)
	assert.NoError(t, err)

	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"SNF_ADMIT_DATA_DIR",
		"SNF_ADMIT_CACHE_MAX_ITEMS",
		"SNF_ADMIT_CACHE_TTL",
		"SNF_ADMIT_EXTRACTION_URL",
		"SNF_ADMIT_EXTRACTION_API_KEY",
		"SNF_ADMIT_HTTP_PORT",
		"SNF_ADMIT_LOG_LEVEL",
		"SNF_ADMIT_LOG_FORMAT",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
