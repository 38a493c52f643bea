package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config is the process-wide configuration, built once at startup and passed
// explicitly to the components that need it.
type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"9000"`
		Domain string `env:"AUTH_DOMAIN" envDefault:"localhost"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	}

	Content struct {
		BaseURL string `env:"CONTENT_BASE_URL,required"`
		Dataset string `env:"CONTENT_DATASET" envDefault:"production"`
		Token   string `env:"CONTENT_TOKEN" envDefault:""`
	}

	Chain struct {
		RPCURL        string `env:"ETH_RPC_URL" envDefault:"http://localhost:8545"`
		TokenContract string `env:"TOKEN_CONTRACT,required"`
		TokenDecimals int32  `env:"TOKEN_DECIMALS" envDefault:"18"`
	}

	// SignKeyHex is the hex-encoded P-256 key used to sign session tokens.
	// Empty means generate an ephemeral key, which invalidates all sessions
	// on restart.
	SignKeyHex string `env:"SESSION_SIGN_KEY" envDefault:""`
}

// Load reads the configuration from the environment, with an optional .env
// file for local development.
func Load() (*Config, error) {
	// Missing .env is fine; production sets variables directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
