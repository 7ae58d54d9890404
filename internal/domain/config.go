package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Cost       CostConfig       `mapstructure:"cost"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TLSEnabled   bool          `mapstructure:"tls_enabled"`
	CertFile     string        `mapstructure:"cert_file"`
	KeyFile      string        `mapstructure:"key_file"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AuditConfig selects and configures the assessment audit store backend.
type AuditConfig struct {
	Backend    string `mapstructure:"backend"` // "postgres" or "sqlite"
	SQLitePath string `mapstructure:"sqlite_path"`
}

// ExtractionConfig represents the clinical feature extraction service
// configuration.
type ExtractionConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  int           `mapstructure:"rate_limit"`
	RetryCount int           `mapstructure:"retry_count"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	RedisURL     string        `mapstructure:"redis_url"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	RateCacheTTL time.Duration `mapstructure:"rate_cache_ttl"`
	RateCacheLen int           `mapstructure:"rate_cache_len"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ScoringConfig carries the tunable scoring weights and decision thresholds.
type ScoringConfig struct {
	MarginWeight      float64 `mapstructure:"margin_weight"`
	CensusWeight      float64 `mapstructure:"census_weight"`
	DenialRiskWeight  float64 `mapstructure:"denial_risk_weight"`
	ComplexityWeight  float64 `mapstructure:"complexity_weight"`
	ReadmitRiskWeight float64 `mapstructure:"readmit_risk_weight"`
	AcceptThreshold   float64 `mapstructure:"accept_threshold"`
	DeferThreshold    float64 `mapstructure:"defer_threshold"`
	TargetCensusPct   float64 `mapstructure:"target_census_pct"`
}

// Weights converts the configured values to ScoringWeights.
func (c ScoringConfig) Weights() ScoringWeights {
	return ScoringWeights{
		Margin:      c.MarginWeight,
		Census:      c.CensusWeight,
		DenialRisk:  c.DenialRiskWeight,
		Complexity:  c.ComplexityWeight,
		ReadmitRisk: c.ReadmitRiskWeight,
	}
}

// Thresholds converts the configured values to ScoreThresholds.
func (c ScoringConfig) Thresholds() ScoreThresholds {
	return ScoreThresholds{
		Accept: c.AcceptThreshold,
		Defer:  c.DeferThreshold,
	}
}

// CostConfig carries the tunable cost policy constants.
type CostConfig struct {
	OverheadRate       float64 `mapstructure:"overhead_rate"`
	AvgDenialLossPct   float64 `mapstructure:"avg_denial_loss_pct"`
	DefaultDenialRisk  float64 `mapstructure:"default_denial_risk"`
	AmbulanceCost      float64 `mapstructure:"ambulance_cost"`
	WheelchairVanCost  float64 `mapstructure:"wheelchair_van_cost"`
	BaseMedsCostPerDay float64 `mapstructure:"base_meds_cost_per_day"`
}

// Policy converts the configured values to a CostPolicy.
func (c CostConfig) Policy() CostPolicy {
	return CostPolicy{
		OverheadRate:       c.OverheadRate,
		AvgDenialLossPct:   c.AvgDenialLossPct,
		DefaultDenialRisk:  c.DefaultDenialRisk,
		AmbulanceCost:      c.AmbulanceCost,
		WheelchairVanCost:  c.WheelchairVanCost,
		BaseMedsCostPerDay: c.BaseMedsCostPerDay,
	}
}
