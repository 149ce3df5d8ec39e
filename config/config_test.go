package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoad_MissingFileYieldsZeroConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Config{}) {
		t.Fatalf("Load = %+v, want zero Config", cfg)
	}
	if opts := cfg.Options(); len(opts) != 0 {
		t.Fatalf("Options() produced %d options for zero config, want 0", len(opts))
	}
}

func TestLoad_ParsesAllFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listflow.toml")
	if err := os.WriteFile(path, []byte(`
cache_max_entries = 20
cache_ttl_seconds = 120
debounce_delay_ms = 100
batch_size = 16
batch_tick_delay_ms = 8
pool_max_size = 32
immediate_threshold = 12
query_rate_per_sec = 5.0
query_burst = 2
strict_pool = true
categories = ["tools", "games"]
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.CacheMaxEntries != 20 {
		t.Fatalf("CacheMaxEntries = %d, want 20", cfg.CacheMaxEntries)
	}
	if cfg.CacheTTLSeconds != 120 {
		t.Fatalf("CacheTTLSeconds = %d, want 120", cfg.CacheTTLSeconds)
	}
	if !cfg.StrictPool {
		t.Fatalf("StrictPool = false, want true")
	}
	if len(cfg.Categories) != 2 {
		t.Fatalf("Categories = %v, want two entries", cfg.Categories)
	}

	opts := cfg.Options()
	if len(opts) != 10 {
		t.Fatalf("Options() produced %d options, want 10", len(opts))
	}
}

func TestLoad_ExpandsCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "listflow.toml")
	if err := os.WriteFile(path, []byte(`cache_dir = "  ~/.cache/listflow  "`+"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !strings.HasPrefix(cfg.CacheDir, home) {
		t.Fatalf("CacheDir = %q, want it under HOME %q", cfg.CacheDir, home)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listflow.toml")
	if err := os.WriteFile(path, []byte(`batch_size = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_EmptyPathErrors(t *testing.T) {
	if _, err := Load("   "); err == nil {
		t.Fatalf("Load returned nil error, want error")
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}
