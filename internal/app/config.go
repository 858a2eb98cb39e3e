package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (POS_ prefix), flags, or YAML config files.
type Config struct {
	DBPath     string `default:"posledger.db" usage:"SQLite database file path" flag:"db-path"`
	HealthAddr string `default:"127.0.0.1:8091" usage:"Health endpoints listen address" flag:"health-addr"`
	ClerkID    int64  `default:"0" usage:"User id seeding the first session (0 until a clerk signs in)" flag:"clerk-id"`
	StoreName  string `default:"" usage:"Store name printed on receipts" flag:"store-name"`
	Queue      QueueConfig
	Graceful   GracefulConfig
}

// QueueConfig controls the per-store serialized write queues.
type QueueConfig struct {
	Buffer int `default:"64" usage:"Pending jobs per write queue before submitters block"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ShutdownTimeout time.Duration `default:"10s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "POS",
		Files:     []string{"posledger.yaml", "/etc/posledger/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	return &cfg, nil
}

// applyPlatformDefaults maps plain environment variables used by packaging
// scripts to the POS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if v := os.Getenv("POSLEDGER_DB"); v != "" && c.DBPath == "posledger.db" {
		c.DBPath = v
	}
}
