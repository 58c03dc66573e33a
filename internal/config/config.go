package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for the lending engine
type Config struct {
	Server   ServerConfig   `mapstructure:",squash"`
	Database DatabaseConfig `mapstructure:",squash"`
	Redis    RedisConfig    `mapstructure:",squash"`
	Logging  LoggingConfig  `mapstructure:",squash"`
	Business BusinessConfig `mapstructure:",squash"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"SERVER_PORT"`
	Host            string        `mapstructure:"SERVER_HOST"`
	Env             string        `mapstructure:"ENV"`
	ReadTimeout     time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SERVER_SHUTDOWN_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type LoggingConfig struct {
	Level string `mapstructure:"LOG_LEVEL"`
}

type BusinessConfig struct {
	DefaultInterestRate      string `mapstructure:"DEFAULT_INTEREST_RATE"`
	PreclosurePenaltyPercent string `mapstructure:"PRECLOSURE_PENALTY_PERCENT"`
	ClosureTolerance         string `mapstructure:"CLOSURE_TOLERANCE"`
	DefaultThresholdMonths   int    `mapstructure:"DEFAULT_THRESHOLD_MONTHS"`
	LoanCacheTTL             string `mapstructure:"LOAN_CACHE_TTL"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DEFAULT_INTEREST_RATE", "12")
	viper.SetDefault("PRECLOSURE_PENALTY_PERCENT", "2")
	viper.SetDefault("CLOSURE_TOLERANCE", "1")
	viper.SetDefault("DEFAULT_THRESHOLD_MONTHS", 3)
	viper.SetDefault("LOAN_CACHE_TTL", "10m")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Business.DefaultThresholdMonths <= 0 {
		return fmt.Errorf("DEFAULT_THRESHOLD_MONTHS must be greater than 0")
	}

	if _, err := decimal.NewFromString(c.Business.DefaultInterestRate); err != nil {
		return fmt.Errorf("DEFAULT_INTEREST_RATE must be a valid decimal: %w", err)
	}

	if _, err := decimal.NewFromString(c.Business.PreclosurePenaltyPercent); err != nil {
		return fmt.Errorf("PRECLOSURE_PENALTY_PERCENT must be a valid decimal: %w", err)
	}

	if _, err := decimal.NewFromString(c.Business.ClosureTolerance); err != nil {
		return fmt.Errorf("CLOSURE_TOLERANCE must be a valid decimal: %w", err)
	}

	if _, err := time.ParseDuration(c.Business.LoanCacheTTL); err != nil {
		return fmt.Errorf("LOAN_CACHE_TTL must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetDefaultInterestRate returns the default annual interest rate as decimal
func (c *Config) GetDefaultInterestRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.DefaultInterestRate)
	return rate
}

// GetPreclosurePenaltyPercent returns the pre-closure penalty percent as decimal
func (c *Config) GetPreclosurePenaltyPercent() decimal.Decimal {
	pct, _ := decimal.NewFromString(c.Business.PreclosurePenaltyPercent)
	return pct
}

// GetClosureTolerance returns the residual principal below which a loan is
// considered fully repaid
func (c *Config) GetClosureTolerance() decimal.Decimal {
	tol, _ := decimal.NewFromString(c.Business.ClosureTolerance)
	return tol
}

// GetLoanCacheTTL returns the borrower loan-list cache TTL
func (c *Config) GetLoanCacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Business.LoanCacheTTL)
	return ttl
}
