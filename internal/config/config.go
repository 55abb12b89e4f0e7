// Package config loads layered configuration: built-in defaults, then
// ~/.paperwave/config.toml if present, then PAPERWAVE_* environment
// variables. A missing config file is not an error; first run works on
// defaults alone.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the resolved application configuration.
type Config struct {
	API struct {
		BaseURL   string  `koanf:"base_url"`
		Token     string  `koanf:"token"`
		RateLimit float64 `koanf:"rate_limit"` // requests per second
	} `koanf:"api"`

	Feed struct {
		Source       string   `koanf:"source"`
		Sources      []string `koanf:"sources"` // tab-cycle order
		InitialBatch int      `koanf:"initial_batch"`
		PageSize     int      `koanf:"page_size"`
		Lookahead    int      `koanf:"lookahead"`
	} `koanf:"feed"`

	Playback struct {
		Rate     float64 `koanf:"rate"`
		AutoPlay bool    `koanf:"auto_play"`
	} `koanf:"playback"`

	Storage struct {
		Path string `koanf:"path"` // sqlite file; empty means the default under ~/.paperwave
	} `koanf:"storage"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

// Authenticated reports whether an API token is configured. It decides
// whether interactions load from the remote account or the local cache only.
func (c *Config) Authenticated() bool {
	return c.API.Token != ""
}

// Dir returns ~/.paperwave, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	dir := filepath.Join(homeDir, ".paperwave")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("config: create app directory: %w", err)
	}
	return dir, nil
}

// Load resolves the configuration. configPath overrides the default file
// location when non-empty; pass "" for normal startup.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"api.base_url":       "https://api.paperwave.app",
		"api.rate_limit":     4.0,
		"feed.source":        "arxiv",
		"feed.sources":       []string{"arxiv", "biorxiv", "medrxiv"},
		"feed.initial_batch": 30,
		"feed.page_size":     10,
		"feed.lookahead":     3,
		"playback.rate":      1.0,
		"playback.auto_play": true,
		"log.level":          "info",
	}, "."), nil)

	if configPath == "" {
		if dir, err := Dir(); err == nil {
			configPath = filepath.Join(dir, "config.toml")
		}
	}
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", configPath, err)
			}
		}
	}

	// Every key is section_leaf, so only the first underscore separates the
	// section (PAPERWAVE_API_BASE_URL -> api.base_url).
	k.Load(env.Provider("PAPERWAVE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "PAPERWAVE_")), "_", ".", 1)
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.Storage.Path == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		cfg.Storage.Path = filepath.Join(dir, "paperwave.db")
	}

	return &cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func Validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("config: api.base_url is required")
	}
	if cfg.Feed.PageSize <= 0 {
		return fmt.Errorf("config: feed.page_size must be positive")
	}
	if cfg.Feed.InitialBatch < cfg.Feed.PageSize {
		return fmt.Errorf("config: feed.initial_batch must be at least feed.page_size")
	}
	if cfg.Feed.Lookahead <= 0 {
		return fmt.Errorf("config: feed.lookahead must be positive")
	}
	return nil
}
