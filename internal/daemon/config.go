// Package daemon wires configuration, storage, verification, and the HTTP
// server into a running burn gateway process.
package daemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, loaded from TOML with environment
// overrides applied on top.
type Config struct {
	API       APIConfig       `toml:"api"`
	Solana    SolanaConfig    `toml:"solana"`
	Credits   CreditsConfig   `toml:"credits"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Storage   StorageConfig   `toml:"storage"`
	Kafka     KafkaConfig     `toml:"kafka"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SolanaConfig configures the ledger RPC client and the asset to verify.
type SolanaConfig struct {
	RPCURL         string `toml:"rpc_url"`
	Mint           string `toml:"mint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// CreditsConfig sets the burned-units-to-credits conversion.
type CreditsConfig struct {
	// BaseUnitsPerCredit base units of the burned asset equal one credit.
	BaseUnitsPerCredit int64 `toml:"base_units_per_credit"`
}

// RateLimitConfig bounds burn submissions per client.
type RateLimitConfig struct {
	MaxRequests    int `toml:"max_requests"`
	WindowSeconds  int `toml:"window_seconds"`
	CleanupSeconds int `toml:"cleanup_seconds"`
}

// StorageConfig selects and configures the account store backend.
type StorageConfig struct {
	Driver string `toml:"driver"` // "sqlite" or "postgres"
	Path   string `toml:"path"`   // sqlite data directory
	DSN    string `toml:"dsn"`    // postgres connection string
}

// KafkaConfig configures the optional burn-event feed. Empty Brokers
// disables publishing.
type KafkaConfig struct {
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Solana: SolanaConfig{
			RPCURL:         "https://api.mainnet-beta.solana.com",
			TimeoutSeconds: 15,
		},
		Credits: CreditsConfig{
			BaseUnitsPerCredit: 1000,
		},
		RateLimit: RateLimitConfig{
			MaxRequests:    5,
			WindowSeconds:  60,
			CleanupSeconds: 300,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   defaultDataDir(),
		},
		Kafka: KafkaConfig{
			Topic: "burn-events",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load reads the configuration file at path, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides file values with BURNGATE_* environment variables.
// Deployment platforms inject secrets this way rather than through files.
func (c *Config) applyEnv() {
	if v := os.Getenv("BURNGATE_HOST"); v != "" {
		c.API.Host = v
	}
	if v := os.Getenv("PORT"); v != "" { // Railway/Render convention
		if p, err := strconv.Atoi(v); err == nil {
			c.API.Port = p
		}
	}
	if v := os.Getenv("BURNGATE_RPC_URL"); v != "" {
		c.Solana.RPCURL = v
	}
	if v := os.Getenv("BURNGATE_MINT"); v != "" {
		c.Solana.Mint = v
	}
	if v := os.Getenv("BURNGATE_RATIO"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Credits.BaseUnitsPerCredit = n
		}
	}
	if v := os.Getenv("BURNGATE_DB_DSN"); v != "" {
		c.Storage.Driver = "postgres"
		c.Storage.DSN = v
	}
	if v := os.Getenv("BURNGATE_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
}

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.Solana.RPCURL == "" {
		return fmt.Errorf("solana.rpc_url is required")
	}
	if c.Solana.Mint == "" {
		return fmt.Errorf("solana.mint is required")
	}
	if c.Credits.BaseUnitsPerCredit <= 0 {
		return fmt.Errorf("credits.base_units_per_credit must be positive")
	}
	if c.RateLimit.MaxRequests <= 0 || c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate_limit.max_requests and window_seconds must be positive")
	}
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// RateLimitWindow returns the fixed window duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// VerifyTimeout returns the per-verification RPC deadline.
func (c *Config) VerifyTimeout() time.Duration {
	return time.Duration(c.Solana.TimeoutSeconds) * time.Second
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return home + "/.burngate"
}
