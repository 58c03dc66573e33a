package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{URL: "postgres://localhost/lending"},
		Business: BusinessConfig{
			DefaultInterestRate:      "12",
			PreclosurePenaltyPercent: "2",
			ClosureTolerance:         "1",
			DefaultThresholdMonths:   3,
			LoanCacheTTL:             "10m",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "Valid", mutate: func(c *Config) {}},
		{name: "Missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: true},
		{name: "Missing database URL", mutate: func(c *Config) { c.Database.URL = "" }, wantErr: true},
		{name: "Zero default threshold", mutate: func(c *Config) { c.Business.DefaultThresholdMonths = 0 }, wantErr: true},
		{name: "Bad interest rate", mutate: func(c *Config) { c.Business.DefaultInterestRate = "twelve" }, wantErr: true},
		{name: "Bad penalty percent", mutate: func(c *Config) { c.Business.PreclosurePenaltyPercent = "2%" }, wantErr: true},
		{name: "Bad closure tolerance", mutate: func(c *Config) { c.Business.ClosureTolerance = "" }, wantErr: true},
		{name: "Bad cache TTL", mutate: func(c *Config) { c.Business.LoanCacheTTL = "ten minutes" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_BusinessGetters(t *testing.T) {
	cfg := validConfig()

	assert.True(t, cfg.GetDefaultInterestRate().Equal(decimal.NewFromInt(12)))
	assert.True(t, cfg.GetPreclosurePenaltyPercent().Equal(decimal.NewFromInt(2)))
	assert.True(t, cfg.GetClosureTolerance().Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 10*time.Minute, cfg.GetLoanCacheTTL())
}
