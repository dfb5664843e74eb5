// Package config loads settings from defaults, an optional TOML file,
// RELATIONS_* environment variables and bound command-line flags, in
// increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/royalrew/sintari-relations-sub003/internal/errors"
)

// EnvPrefix prefixes every environment variable, e.g. RELATIONS_DB.
const EnvPrefix = "RELATIONS"

// Keys.
const (
	KeyDB          = "db"
	KeyMemory      = "memory"
	KeyLogLevel    = "log_level"
	KeyLogJSON     = "log_json"
	KeyCooldownTTL = "cooldown_ttl"
	KeyUser        = "user"
)

// Config holds the resolved settings.
type Config struct {
	DB          string        `mapstructure:"db"`
	Memory      bool          `mapstructure:"memory"`
	LogLevel    string        `mapstructure:"log_level"`
	LogJSON     bool          `mapstructure:"log_json"`
	CooldownTTL time.Duration `mapstructure:"cooldown_ttl"`
	User        string        `mapstructure:"user"`
}

// Dir returns the per-user state directory, ~/.relations.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".relations")
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDB, filepath.Join(Dir(), "subjects.db"))
	v.SetDefault(KeyMemory, false)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogJSON, false)
	v.SetDefault(KeyCooldownTTL, 10*time.Second)
	v.SetDefault(KeyUser, "local")
}

// New returns a viper instance with defaults and environment binding. The
// config file is read by Load.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file (RELATIONS_CONFIG, or
// ~/.relations/config.toml) and unmarshals v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if cfg.CooldownTTL <= 0 {
		return nil, errors.WithHint(
			errors.Newf("invalid cooldown_ttl %s", cfg.CooldownTTL),
			"use a positive duration such as 10s or 2m")
	}
	return &cfg, nil
}
