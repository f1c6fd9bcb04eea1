// Package config loads bot configuration from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken string   `env:"DISCORD_TOKEN"`
	Prefix       string   `env:"BOT_PREFIX" envDefault:"m!"`
	OwnerIDs     []string `env:"OWNER_IDS" envSeparator:","`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"json"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	PluginsFile   string `env:"PLUGINS_FILE"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
	LogFile   string `env:"LOG_FILE"`

	MetricsAddr string `env:"METRICS_ADDR"`

	SourceURL     string        `env:"SOURCE_URL" envDefault:"https://github.com/MaikaBot/Maika"`
	SupportInvite string        `env:"SUPPORT_INVITE" envDefault:"https://discord.gg/7TtMP2n"`
	EmbedColor    int           `env:"EMBED_COLOR" envDefault:"13322863"`
	MarryTimeout  time.Duration `env:"MARRY_TIMEOUT" envDefault:"30s"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal in containers.
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.OwnerIDs = compact(cfg.OwnerIDs)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no sane fallback.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Prefix) == "" {
		errs = append(errs, errors.New("BOT_PREFIX must not be empty"))
	}
	switch c.StorageDriver {
	case "json", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q is not one of json, sqlite", c.StorageDriver))
	}
	if c.MarryTimeout <= 0 {
		errs = append(errs, errors.New("MARRY_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// RequireToken is checked by the bot entrypoint only; tooling such as the
// CLI runs without a token.
func (c *Config) RequireToken() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is not set")
	}
	return nil
}

func compact(ids []string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
