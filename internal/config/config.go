package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Alarms   AlarmsConfig   `yaml:"alarms"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"MOODTRACK_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"MOODTRACK_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"MOODTRACK_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"MOODTRACK_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds the SQLite file location.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"MOODTRACK_DB_PATH" env-default:"moodtrack.db"`
}

// AuthConfig holds the owner-account token settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"MOODTRACK_JWT_SECRET" env-default:"moodtrack-dev-secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"MOODTRACK_TOKEN_TTL"  env-default:"720h"`
}

// AlarmsConfig tunes the alarm coordinator and its timer host.
type AlarmsConfig struct {
	// AllowExact mimics the host exact-alarm capability; when false every
	// arm request degrades to an inexact wake-up.
	AllowExact     bool          `yaml:"allow_exact"     env:"MOODTRACK_EXACT_ALARMS"   env-default:"true"`
	InexactSlack   time.Duration `yaml:"inexact_slack"   env:"MOODTRACK_INEXACT_SLACK"  env-default:"5m"`
	ResyncInterval time.Duration `yaml:"resync_interval" env:"MOODTRACK_RESYNC_INTERVAL" env-default:"24h"`
	SnoozeDelay    time.Duration `yaml:"snooze_delay"    env:"MOODTRACK_SNOOZE_DELAY"   env-default:"10m"`
	// Timezone for time-of-day arithmetic; empty means the system zone.
	Timezone string `yaml:"timezone" env:"MOODTRACK_TZ"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"MOODTRACK_LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults. The file path comes from CONFIG_PATH
// (fallback "./config.yaml"); a missing default file is not an error.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Alarms.ResyncInterval <= 0 {
		return fmt.Errorf("resync interval must be positive")
	}
	if c.Alarms.SnoozeDelay <= 0 {
		return fmt.Errorf("snooze delay must be positive")
	}
	if c.Alarms.Timezone != "" {
		if _, err := time.LoadLocation(c.Alarms.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}
	return nil
}

// Location resolves the configured timezone, defaulting to the system one.
func (c *Config) Location() *time.Location {
	if c.Alarms.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Alarms.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
