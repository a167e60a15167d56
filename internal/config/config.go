// Package config provides YAML-based configuration loading for isotrack.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the top-level isotrack configuration, loaded from isotrack.yaml.
type Config struct {
	Project  string         `yaml:"project" env:"ISOTRACK_PROJECT"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Announce AnnounceConfig `yaml:"announce"`
	Lock     LockConfig     `yaml:"lock"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// DatabaseConfig selects and addresses the backing SQL store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"ISOTRACK_DB_DRIVER"` // mysql, postgres, sqlite
	Host     string `yaml:"host" env:"ISOTRACK_DB_HOST"`
	Port     int    `yaml:"port" env:"ISOTRACK_DB_PORT"`
	User     string `yaml:"user" env:"ISOTRACK_DB_USER"`
	Password string `yaml:"password" env:"ISOTRACK_DB_PASSWORD"`
	Name     string `yaml:"name" env:"ISOTRACK_DB_NAME"`
	Path     string `yaml:"path" env:"ISOTRACK_DB_PATH"` // sqlite only
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Mode string `yaml:"mode" env:"ISOTRACK_LOG_MODE"` // dev, prod
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port           int      `yaml:"port" env:"ISOTRACK_PORT"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ISOTRACK_ALLOWED_ORIGINS" envSeparator:","`
}

// AnnounceConfig tunes announcement batch processing.
type AnnounceConfig struct {
	Workers int `yaml:"workers" env:"ISOTRACK_ANNOUNCE_WORKERS"`
}

// LockConfig selects the per-isometric lock backend.
type LockConfig struct {
	Backend       string `yaml:"backend" env:"ISOTRACK_LOCK_BACKEND"` // local, redis
	RedisAddr     string `yaml:"redis_addr" env:"ISOTRACK_REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"ISOTRACK_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"ISOTRACK_REDIS_DB"`
	TTLSeconds    int    `yaml:"ttl_seconds" env:"ISOTRACK_LOCK_TTL_SECONDS"`
}

// NotifyConfig lists the chat channels that receive impact summaries.
type NotifyConfig struct {
	Slack   ChannelConfig `yaml:"slack" envPrefix:"ISOTRACK_SLACK_"`
	Discord ChannelConfig `yaml:"discord" envPrefix:"ISOTRACK_DISCORD_"`
}

// ChannelConfig addresses one chat channel through a bot token.
type ChannelConfig struct {
	BotToken  string `yaml:"bot_token" env:"BOT_TOKEN"`
	ChannelID string `yaml:"channel_id" env:"CHANNEL_ID"`
}

// Enabled reports whether both a token and a channel are configured.
func (c ChannelConfig) Enabled() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes, applies environment overrides and returns a
// validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	switch c.Database.Driver {
	case "mysql":
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
	case "postgres":
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.User == "" {
			c.Database.User = "postgres"
		}
	case "sqlite":
		if c.Database.Path == "" {
			c.Database.Path = "isotrack.db"
		}
	}
	if c.Database.Name == "" {
		c.Database.Name = "isotrack"
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "dev"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Announce.Workers <= 0 {
		c.Announce.Workers = 4
	}
	if c.Lock.Backend == "" {
		c.Lock.Backend = "local"
	}
	if c.Lock.TTLSeconds <= 0 {
		c.Lock.TTLSeconds = 60
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not one of mysql, postgres, sqlite", c.Database.Driver))
	}
	switch c.Log.Mode {
	case "dev", "prod", "production":
	default:
		errs = append(errs, fmt.Sprintf("log.mode %q is not one of dev, prod", c.Log.Mode))
	}
	switch c.Lock.Backend {
	case "local":
	case "redis":
		if c.Lock.RedisAddr == "" {
			errs = append(errs, "lock.redis_addr is required for the redis backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("lock.backend %q is not one of local, redis", c.Lock.Backend))
	}
	if c.Notify.Slack.BotToken != "" && c.Notify.Slack.ChannelID == "" {
		errs = append(errs, "notify.slack.channel_id is required when a bot token is set")
	}
	if c.Notify.Discord.BotToken != "" && c.Notify.Discord.ChannelID == "" {
		errs = append(errs, "notify.discord.channel_id is required when a bot token is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
