// Package config loads the YAML runtime configuration. Application settings
// that users change day to day live in the database instead.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/config"

	"github.com/julianstephens/habitlit/internal/constants"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "HABITLIT_CONFIG"

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Daemon   DaemonConfig   `yaml:"daemon"`
	Backup   BackupConfig   `yaml:"backup"`
	Theme    ThemeConfig    `yaml:"theme"`
}

// DatabaseConfig selects the store. A non-empty URL selects PostgreSQL; the
// URL must not carry a password (see the keyring commands).
type DatabaseConfig struct {
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
}

type LogConfig struct {
	Debug bool   `yaml:"debug"`
	Dir   string `yaml:"dir"`
}

type DaemonConfig struct {
	SyncInterval time.Duration `yaml:"sync_interval"`
}

// BackupConfig controls SQLite snapshots. Keep is the number of snapshots
// retained after each new one.
type BackupConfig struct {
	Keep int `yaml:"keep"`
}

// ThemeConfig recolours priority categories, e.g. {"urgent": "#ff8800"}.
type ThemeConfig struct {
	Colors map[string]string `yaml:"colors"`
}

func defaults() map[string]any {
	return map[string]any{
		"database": map[string]any{
			"path": constants.DefaultDBPath,
			"url":  "",
		},
		"log": map[string]any{
			"debug": false,
			"dir":   constants.DefaultConfigDir,
		},
		"daemon": map[string]any{
			"sync_interval": constants.DefaultDaemonSyncInterval.String(),
		},
		"backup": map[string]any{
			"keep": constants.DefaultBackupKeep,
		},
	}
}

// Path resolves the config file location: explicit flag, then
// HABITLIT_CONFIG, then the default.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return constants.DefaultConfigFile
}

// Load reads path over the built-in defaults. A missing file is not an error.
// ${VAR} and ${VAR:default} references are expanded from the environment.
func Load(path string) (*Config, error) {
	opts := []config.YAMLOption{
		config.Static(defaults()),
		config.Expand(os.LookupEnv),
	}

	resolved := ExpandHome(path)
	if resolved != "" {
		if _, err := os.Stat(resolved); err == nil {
			opts = append(opts, config.File(resolved))
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	provider, err := config.NewYAML(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create config provider: %w", err)
	}

	var cfg Config
	if err := provider.Get(config.Root).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("failed to populate config: %w", err)
	}

	cfg.Database.Path = ExpandHome(cfg.Database.Path)
	cfg.Log.Dir = ExpandHome(cfg.Log.Dir)
	if cfg.Daemon.SyncInterval <= 0 {
		cfg.Daemon.SyncInterval = constants.DefaultDaemonSyncInterval
	}
	if cfg.Backup.Keep <= 0 {
		cfg.Backup.Keep = constants.DefaultBackupKeep
	}
	return &cfg, nil
}

// UsesPostgres reports whether the config selects the PostgreSQL store.
func (c *Config) UsesPostgres() bool {
	return strings.TrimSpace(c.Database.URL) != ""
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + strings.TrimPrefix(path, "~")
}
