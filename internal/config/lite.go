// Package config provides configuration management for the assessment engine.
// This file contains the lightweight configuration for standalone operation.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no Postgres or Redis and stores assessments in a local
// SQLite database.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for data files

	// Cache settings
	CacheMaxItems int           // Maximum rate records in memory cache
	CacheTTL      time.Duration // Default cache TTL

	// Extraction service settings
	ExtractionURL    string // Clinical extraction service base URL
	ExtractionAPIKey string // Optional API key for the extraction service

	// HTTP settings
	HTTPPort int // HTTP port

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".snf-admission-engine")

	return &LiteConfig{
		DataDir:       dataDir,
		CacheMaxItems: 512,
		CacheTTL:      10 * time.Minute,
		HTTPPort:      8080,
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	// Data directory
	if v := os.Getenv("SNF_ADMIT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Cache settings
	if v := os.Getenv("SNF_ADMIT_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("SNF_ADMIT_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}

	// Extraction service
	if v := os.Getenv("SNF_ADMIT_EXTRACTION_URL"); v != "" {
		cfg.ExtractionURL = v
	}
	cfg.ExtractionAPIKey = os.Getenv("SNF_ADMIT_EXTRACTION_API_KEY")

	// HTTP
	if v := os.Getenv("SNF_ADMIT_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	// Logging
	if v := os.Getenv("SNF_ADMIT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SNF_ADMIT_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// AssessmentDBPath returns the path to the assessment SQLite database.
func (c *LiteConfig) AssessmentDBPath() string {
	return filepath.Join(c.DataDir, "assessments.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}
