package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Database:        "giftkart",
			MaxConnections:  25,
			MinConnections:  5,
			MaxConnLifetime: 300,
		},
		Redis: RedisConfig{
			Host:       "localhost",
			Port:       6379,
			SessionTTL: 30 * time.Minute,
		},
		Logger:  LoggerConfig{Level: "info", Format: "json"},
		Auth:    AuthConfig{APIKey: "test-key"},
		Gateway: GatewayConfig{BackendBaseURL: "http://localhost:9000", SettlementCurrency: "INR"},
		Checkout: CheckoutConfig{
			BaseCurrency:  "INR",
			CurrencyRates: map[string]float64{"INR": 1, "USD": 0.012},
			DeliveryFee:   100,
			OrderGrace:    5 * time.Second,
			BackupGrace:   3 * time.Second,
		},
	}
}

func TestConfig_Validate_Valid(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid server port", func(c *Config) { c.Server.Port = 0 }},
		{"missing database host", func(c *Config) { c.Database.Host = "" }},
		{"missing database user", func(c *Config) { c.Database.User = "" }},
		{"min conns above max", func(c *Config) { c.Database.MinConnections = 50 }},
		{"missing redis host", func(c *Config) { c.Redis.Host = "" }},
		{"non-positive session ttl", func(c *Config) { c.Redis.SessionTTL = 0 }},
		{"missing API key", func(c *Config) { c.Auth.APIKey = "" }},
		{"missing backend URL", func(c *Config) { c.Gateway.BackendBaseURL = "" }},
		{"missing base currency", func(c *Config) { c.Checkout.BaseCurrency = "" }},
		{"base currency rate not 1", func(c *Config) { c.Checkout.CurrencyRates["INR"] = 2 }},
		{"negative conversion rate", func(c *Config) { c.Checkout.CurrencyRates["USD"] = -1 }},
		{"negative delivery fee", func(c *Config) { c.Checkout.DeliveryFee = -1 }},
		{"invalid log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"invalid log format", func(c *Config) { c.Logger.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Load_Defaults(t *testing.T) {
	t.Setenv("API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "giftkart", cfg.Database.Database)
	assert.Equal(t, 30*time.Minute, cfg.Redis.SessionTTL)
	assert.Equal(t, "INR", cfg.Checkout.BaseCurrency)
	assert.Equal(t, 1.0, cfg.Checkout.CurrencyRates["INR"])
	assert.Equal(t, 100.0, cfg.Checkout.DeliveryFee)
}

func TestConfig_Load_RatesFromEnv(t *testing.T) {
	t.Setenv("API_KEY", "test-key")
	t.Setenv("CURRENCY_RATES", "INR=1,USD=0.012,AED=0.044")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.012, cfg.Checkout.CurrencyRates["USD"])
	assert.Equal(t, 0.044, cfg.Checkout.CurrencyRates["AED"])
}

func TestServerConfig_Address(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 9090}
	assert.Equal(t, "127.0.0.1:9090", c.Address())
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	c := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "u",
		Password: "p",
		Database: "giftkart",
	}
	assert.Equal(t, "postgres://u:p@db:5432/giftkart?sslmode=disable", c.ConnectionString())
}
