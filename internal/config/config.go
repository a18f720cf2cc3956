// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read from the environment, optionally layered over the YAML file named
// by CONFIG_PATH. Environment variables always win.
type Config struct {
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`

	// NewRoundCooldown delays the automatic deal after a blocked round. 0 disables it.
	NewRoundCooldown time.Duration `yaml:"new-round-cooldown" env:"NEW_ROUND_COOLDOWN" env-default:"5s"`

	// TokenExpireTime of 0 issues identity tokens without an exp claim.
	TokenExpireTime time.Duration `yaml:"token-expire-time" env:"TOKEN_EXPIRE_TIME" env-default:"72h"`

	Redis     Redis     `yaml:"redis"`
	Database  Database  `yaml:"database"`
	Historian Historian `yaml:"historian"`
}

// Redis is optional; an empty address disables the action queue.
type Redis struct {
	Addr  string `yaml:"addr" env:"REDIS_ADDR"`
	DB    int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Queue string `yaml:"queue" env:"HISTORIAN_QUEUE_NAME" env-default:"domino_actions"`
}

// Database is optional; an empty URL disables match persistence.
type Database struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

type Historian struct {
	BatchSize int           `yaml:"batch-size" env:"HISTORIAN_BATCH_SIZE" env-default:"100"`
	FlushMS   int           `yaml:"flush-ms" env:"HISTORIAN_FLUSH_MS" env-default:"500"`
	PopWait   time.Duration `yaml:"pop-wait" env:"HISTORIAN_POP_WAIT" env-default:"1s"`
	// Inactivity marks a match abandoned once it has been silent this long.
	Inactivity time.Duration `yaml:"inactivity" env:"MATCH_INACTIVITY_TIMEOUT" env-default:"10m"`
}

// FlushInterval is the longest a partial batch waits before being written.
func (h Historian) FlushInterval() time.Duration {
	return time.Duration(h.FlushMS) * time.Millisecond
}

// Load reads the configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	var err error
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}
	if cfg.Historian.BatchSize <= 0 {
		return nil, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive, got %d", cfg.Historian.BatchSize)
	}
	return cfg, nil
}

// MustLoad is Load for process bootstrap.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
