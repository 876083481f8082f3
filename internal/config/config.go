package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/status-im/status-identity-go/pkg/store"
	"github.com/status-im/status-identity-go/pkg/wallet"
)

const envPrefix = "IDENTITY"

// Config holds every process setting. Values come from IDENTITY_* environment
// variables and can be overridden by command-line flags.
type Config struct {
	Address         string        `envconfig:"ADDRESS" default:"127.0.0.1:0"`
	StoreBackend    string        `envconfig:"STORE_BACKEND" default:"file"`
	StorePath       string        `envconfig:"STORE_PATH" default:"identity.json"`
	StorePassphrase string        `envconfig:"STORE_PASSPHRASE"`
	ChainType       string        `envconfig:"CHAIN_TYPE" default:"ethereum"`
	LogEnabled      bool          `envconfig:"LOG_ENABLED" default:"true"`
	LogFile         string        `envconfig:"LOG_FILE"`
	RateInterval    time.Duration `envconfig:"RATE_INTERVAL" default:"600ms"`
	RateBurst       int           `envconfig:"RATE_BURST" default:"10"`
}

// Load reads the environment and checks the values that have a fixed domain.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch store.Backend(c.StoreBackend) {
	case store.BackendMemory, store.BackendFile, store.BackendBolt, store.BackendSQLite:
	default:
		return errors.Errorf("unknown store backend %q", c.StoreBackend)
	}

	if _, err := wallet.ParseChainType(c.ChainType); err != nil {
		return err
	}

	if c.RateBurst < 1 {
		return errors.New("rate burst must be at least 1")
	}
	return nil
}

func (c *Config) Chain() wallet.ChainType {
	chain, _ := wallet.ParseChainType(c.ChainType)
	return chain
}
