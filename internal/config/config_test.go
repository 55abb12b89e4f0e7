package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}

	if cfg.API.BaseURL != "https://api.paperwave.app" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.Feed.Source != "arxiv" {
		t.Errorf("source = %q", cfg.Feed.Source)
	}
	if len(cfg.Feed.Sources) != 3 {
		t.Errorf("sources = %v, want three defaults", cfg.Feed.Sources)
	}
	if cfg.Feed.InitialBatch != 30 || cfg.Feed.PageSize != 10 || cfg.Feed.Lookahead != 3 {
		t.Errorf("feed paging = %d/%d/%d", cfg.Feed.InitialBatch, cfg.Feed.PageSize, cfg.Feed.Lookahead)
	}
	if !cfg.Playback.AutoPlay || cfg.Playback.Rate != 1.0 {
		t.Errorf("playback defaults = %v/%v", cfg.Playback.AutoPlay, cfg.Playback.Rate)
	}
	if cfg.Storage.Path == "" {
		t.Error("storage path not resolved")
	}
	if cfg.Authenticated() {
		t.Error("authenticated without a token")
	}
}

func TestLoadFileAndEnvLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "https://staging.paperwave.app"
token = "tok_abc"

[feed]
page_size = 20

[playback]
auto_play = false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAPERWAVE_API_BASE_URL", "https://env.paperwave.app")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.BaseURL != "https://env.paperwave.app" {
		t.Errorf("base url = %q, env should win over file", cfg.API.BaseURL)
	}
	if cfg.API.Token != "tok_abc" {
		t.Errorf("token = %q, want file value", cfg.API.Token)
	}
	if !cfg.Authenticated() {
		t.Error("token set but not authenticated")
	}
	if cfg.Feed.PageSize != 20 {
		t.Errorf("page size = %d, file should win over default", cfg.Feed.PageSize)
	}
	if cfg.Playback.AutoPlay {
		t.Error("auto_play = true, file disabled it")
	}
	if cfg.Feed.Lookahead != 3 {
		t.Errorf("lookahead = %d, untouched keys keep defaults", cfg.Feed.Lookahead)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api\nbase_url ="), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted malformed TOML")
	}
}

func TestValidate(t *testing.T) {
	load := func(t *testing.T) *Config {
		t.Helper()
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	t.Run("defaults pass", func(t *testing.T) {
		if err := Validate(load(t)); err != nil {
			t.Errorf("Validate(defaults) = %v", err)
		}
	})
	t.Run("missing base url", func(t *testing.T) {
		cfg := load(t)
		cfg.API.BaseURL = ""
		if Validate(cfg) == nil {
			t.Error("empty base url accepted")
		}
	})
	t.Run("zero page size", func(t *testing.T) {
		cfg := load(t)
		cfg.Feed.PageSize = 0
		if Validate(cfg) == nil {
			t.Error("zero page size accepted")
		}
	})
	t.Run("initial batch below page size", func(t *testing.T) {
		cfg := load(t)
		cfg.Feed.InitialBatch = cfg.Feed.PageSize - 1
		if Validate(cfg) == nil {
			t.Error("initial batch below page size accepted")
		}
	})
	t.Run("zero lookahead", func(t *testing.T) {
		cfg := load(t)
		cfg.Feed.Lookahead = 0
		if Validate(cfg) == nil {
			t.Error("zero lookahead accepted")
		}
	})
}
