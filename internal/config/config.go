package config

import (
	"os"
	"strconv"

	"gosynergy/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Analysis  AnalysisConfig
	Export    ExportConfig
	Profiling ProfilingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds database connection settings. URL is optional: with no
// database configured the service runs on the in-memory store only.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// AnalysisConfig holds the engine's tunable parameters
type AnalysisConfig struct {
	ConfidenceLevel  float64
	PolynomialDegree int
	MaxFitIterations int
}

// ExportConfig holds export settings
type ExportConfig struct {
	Dir            string
	FloatPrecision int
}

// ProfilingConfig holds the debug/ops endpoint settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Analysis: AnalysisConfig{
			ConfidenceLevel:  getEnvFloatOrDefault("CONFIDENCE_LEVEL", 0.95),
			PolynomialDegree: getEnvIntOrDefault("POLYNOMIAL_DEGREE", 2),
			MaxFitIterations: getEnvIntOrDefault("MAX_FIT_ITERATIONS", 5000),
		},
		Export: ExportConfig{
			Dir:            getEnvOrDefault("EXPORT_DIR", "exports"),
			FloatPrecision: getEnvIntOrDefault("FLOAT_PRECISION", 4),
		},
		Profiling: ProfilingConfig{
			Port:    getEnvOrDefault("PROFILING_PORT", "6060"),
			Enabled: getEnvBoolOrDefault("PROFILING_ENABLED", false),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Analysis.ConfidenceLevel <= 0 || cfg.Analysis.ConfidenceLevel >= 1 {
		return errors.ConfigInvalid("CONFIDENCE_LEVEL must be in (0, 1)")
	}
	if cfg.Analysis.PolynomialDegree < 1 {
		return errors.ConfigInvalid("POLYNOMIAL_DEGREE must be >= 1")
	}
	if cfg.Analysis.MaxFitIterations < 1 {
		return errors.ConfigInvalid("MAX_FIT_ITERATIONS must be >= 1")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
