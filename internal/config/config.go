package config

import (
	"os"
	"strconv"
	"time"

	"shelflife/internal/errors"
	"shelflife/internal/ich"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Data     DataConfig
	Analysis AnalysisConfig
	Metrics  MetricsConfig
}

// DatabaseConfig holds database connection settings. Persistence is disabled when URL is empty.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Enabled reports whether runs should be stored in PostgreSQL
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string
	UIPort       string
	GinMode      string
	MaxUploadMB  int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DataConfig holds data source settings
type DataConfig struct {
	ExcelFile      string // Workbook shown by the viewer; synthetic data when empty
	ConditionsFile string // YAML condition-category table layered over the defaults
}

// AnalysisConfig holds engine settings
type AnalysisConfig struct {
	Workers          int
	DefaultSpecLimit float64
	Criteria         ich.Criteria
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	defaults := ich.DefaultCriteria()
	config := &Config{
		Database: DatabaseConfig{
			URL:             getEnvOrDefault("DATABASE_URL", ""),
			MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
			ConnMaxLifetime: getEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Server: ServerConfig{
			Port:         getEnvOrDefault("PORT", "8080"),
			UIPort:       getEnvOrDefault("UI_PORT", "8081"),
			GinMode:      getEnvOrDefault("GIN_MODE", "release"),
			MaxUploadMB:  int64(getEnvIntOrDefault("MAX_UPLOAD_MB", 10)),
			ReadTimeout:  getEnvDurationOrDefault("READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDurationOrDefault("WRITE_TIMEOUT", 30*time.Second),
		},
		Data: DataConfig{
			ExcelFile:      getEnvOrDefault("EXCEL_FILE", ""),
			ConditionsFile: getEnvOrDefault("CONDITIONS_FILE", ""),
		},
		Analysis: AnalysisConfig{
			Workers:          getEnvIntOrDefault("ANALYSIS_WORKERS", 4),
			DefaultSpecLimit: getEnvFloatOrDefault("SPEC_LIMIT", 90),
			Criteria: ich.Criteria{
				MinTimepoints: getEnvIntOrDefault("MIN_TIMEPOINTS", defaults.MinTimepoints),
				MinRSquared:   getEnvFloatOrDefault("MIN_R_SQUARED", defaults.MinRSquared),
			},
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBoolOrDefault("METRICS_ENABLED", true),
			Path:    getEnvOrDefault("METRICS_PATH", "/metrics"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Server.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Analysis.Workers < 1 {
		return errors.ConfigInvalid("ANALYSIS_WORKERS must be at least 1")
	}
	if config.Analysis.Criteria.MinTimepoints < 2 {
		return errors.ConfigInvalid("MIN_TIMEPOINTS must be at least 2")
	}
	if r2 := config.Analysis.Criteria.MinRSquared; r2 < 0 || r2 > 1 {
		return errors.ConfigInvalid("MIN_R_SQUARED must be within [0, 1]")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
