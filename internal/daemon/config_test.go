package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8080)
	}
	if cfg.Credits.BaseUnitsPerCredit != 1000 {
		t.Errorf("Credits.BaseUnitsPerCredit = %d, want 1000", cfg.Credits.BaseUnitsPerCredit)
	}
	if cfg.RateLimit.MaxRequests != 5 {
		t.Errorf("RateLimit.MaxRequests = %d, want 5", cfg.RateLimit.MaxRequests)
	}
	if cfg.RateLimitWindow() != time.Minute {
		t.Errorf("RateLimitWindow = %v, want 1m", cfg.RateLimitWindow())
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Kafka.Topic != "burn-events" {
		t.Errorf("Kafka.Topic = %q, want burn-events", cfg.Kafka.Topic)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burngate.toml")
	content := `
[api]
host = "0.0.0.0"
port = 9090

[solana]
rpc_url = "https://api.devnet.solana.com"
mint = "So11111111111111111111111111111111111111112"

[credits]
base_units_per_credit = 500

[rate_limit]
max_requests = 10
window_seconds = 30
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.Solana.Mint != "So11111111111111111111111111111111111111112" {
		t.Errorf("Solana.Mint = %q", cfg.Solana.Mint)
	}
	if cfg.Credits.BaseUnitsPerCredit != 500 {
		t.Errorf("BaseUnitsPerCredit = %d, want 500", cfg.Credits.BaseUnitsPerCredit)
	}
	if cfg.RateLimitWindow() != 30*time.Second {
		t.Errorf("RateLimitWindow = %v, want 30s", cfg.RateLimitWindow())
	}
	// Unset sections keep their defaults.
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want sqlite default", cfg.Storage.Driver)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	// Defaults have no mint configured, so validation must fail loudly
	// rather than start a daemon that can verify nothing.
	if err == nil {
		t.Fatal("expected validation error for missing mint")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want default 8080", cfg.API.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BURNGATE_MINT", "So11111111111111111111111111111111111111112")
	t.Setenv("PORT", "3000")
	t.Setenv("BURNGATE_RATIO", "250")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Solana.Mint != "So11111111111111111111111111111111111111112" {
		t.Errorf("Solana.Mint = %q", cfg.Solana.Mint)
	}
	if cfg.API.Port != 3000 {
		t.Errorf("API.Port = %d, want 3000", cfg.API.Port)
	}
	if cfg.Credits.BaseUnitsPerCredit != 250 {
		t.Errorf("BaseUnitsPerCredit = %d, want 250", cfg.Credits.BaseUnitsPerCredit)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := DefaultConfig()
		cfg.Solana.Mint = "So11111111111111111111111111111111111111112"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"bad port", func(c *Config) { c.API.Port = 0 }, false},
		{"no rpc url", func(c *Config) { c.Solana.RPCURL = "" }, false},
		{"no mint", func(c *Config) { c.Solana.Mint = "" }, false},
		{"zero ratio", func(c *Config) { c.Credits.BaseUnitsPerCredit = 0 }, false},
		{"zero rate limit", func(c *Config) { c.RateLimit.MaxRequests = 0 }, false},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }, false},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres"; c.Storage.DSN = "" }, false},
		{"postgres with dsn", func(c *Config) {
			c.Storage.Driver = "postgres"
			c.Storage.DSN = "postgres://localhost/burngate"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
