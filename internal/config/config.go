package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Pricing  PricingConfig
	Fees     FeesConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// PricingConfig holds fare derivation rates and the wallet seed grant.
type PricingConfig struct {
	PerKmRate      float64
	PerHourRate    float64
	InitialBalance float64
}

// FeesConfig holds the commitment and penalty split percentages.
type FeesConfig struct {
	CommitmentFeeRate        float64
	PlatformFeePercentage    float64
	ConvenienceFeePercentage float64
	DriverBonusRate          float64
}

// Load loads configuration from environment variables. Fee percentages are
// validated here so an invalid split never reaches the settlement path.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "prebook"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "prebook-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Pricing: PricingConfig{
			PerKmRate:      getFloatEnv("FARE_PER_KM", 20),
			PerHourRate:    getFloatEnv("FARE_PER_HOUR", 250),
			InitialBalance: getFloatEnv("INITIAL_WALLET_BALANCE", 10000),
		},
		Fees: FeesConfig{
			CommitmentFeeRate:        getFloatEnv("COMMITMENT_FEE_RATE", 0.20),
			PlatformFeePercentage:    getFloatEnv("PLATFORM_FEE_PERCENTAGE", 0.10),
			ConvenienceFeePercentage: getFloatEnv("CONVENIENCE_FEE_PERCENTAGE", 0.90),
			DriverBonusRate:          getFloatEnv("DRIVER_BONUS_RATE", 0.05),
		},
	}

	if err := cfg.Fees.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fee split invariants.
func (f FeesConfig) Validate() error {
	if f.PlatformFeePercentage < 0 || f.PlatformFeePercentage > 1 {
		return fmt.Errorf("platform fee percentage must be between 0 and 1, got %v", f.PlatformFeePercentage)
	}
	if f.ConvenienceFeePercentage < 0 || f.ConvenienceFeePercentage > 1 {
		return fmt.Errorf("convenience fee percentage must be between 0 and 1, got %v", f.ConvenienceFeePercentage)
	}
	if math.Abs(f.PlatformFeePercentage+f.ConvenienceFeePercentage-1) > 1e-9 {
		return fmt.Errorf("platform and convenience fee percentages must sum to 1, got %v",
			f.PlatformFeePercentage+f.ConvenienceFeePercentage)
	}
	if f.CommitmentFeeRate <= 0 || f.CommitmentFeeRate >= 1 {
		return fmt.Errorf("commitment fee rate must be between 0 and 1, got %v", f.CommitmentFeeRate)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
