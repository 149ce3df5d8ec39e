// Package config loads pipeline tuning from a TOML file and turns it
// into listflow options. Hosts that embed listflow can hand their users
// a single config file instead of wiring options in code.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/hupe1980/listflow"
)

// Config captures the tunable pipeline parameters. Zero values mean
// "use the built-in default"; only non-zero fields produce options.
type Config struct {
	CacheMaxEntries  int      `toml:"cache_max_entries"`
	CacheTTLSeconds  int      `toml:"cache_ttl_seconds"`
	CacheDir         string   `toml:"cache_dir"`
	DebounceDelayMS  int      `toml:"debounce_delay_ms"`
	BatchSize        int      `toml:"batch_size"`
	BatchTickDelayMS int      `toml:"batch_tick_delay_ms"`
	PoolMaxSize      int      `toml:"pool_max_size"`
	ImmediateCutoff  int      `toml:"immediate_threshold"`
	QueryRatePerSec  float64  `toml:"query_rate_per_sec"`
	QueryBurst       int      `toml:"query_burst"`
	StrictPool       bool     `toml:"strict_pool"`
	Categories       []string `toml:"categories"`
}

// Load parses the TOML file at path. A missing file yields the zero
// Config (all defaults) rather than an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	bytes, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.CacheDir = strings.TrimSpace(cfg.CacheDir)
	if cfg.CacheDir != "" {
		cfg.CacheDir = mustExpand(cfg.CacheDir)
	}
	return cfg, nil
}

// Options converts the non-zero fields into listflow options, in a
// stable order.
func (c Config) Options() []listflow.Option {
	var opts []listflow.Option
	if c.CacheMaxEntries > 0 {
		opts = append(opts, listflow.WithCacheMaxEntries(c.CacheMaxEntries))
	}
	if c.CacheTTLSeconds > 0 {
		opts = append(opts, listflow.WithCacheTTL(time.Duration(c.CacheTTLSeconds)*time.Second))
	}
	if c.CacheDir != "" {
		opts = append(opts, listflow.WithCacheDir(c.CacheDir))
	}
	if c.DebounceDelayMS > 0 {
		opts = append(opts, listflow.WithDebounceDelay(time.Duration(c.DebounceDelayMS)*time.Millisecond))
	}
	if c.BatchSize > 0 {
		opts = append(opts, listflow.WithBatchSize(c.BatchSize))
	}
	if c.BatchTickDelayMS > 0 {
		opts = append(opts, listflow.WithBatchTickDelay(time.Duration(c.BatchTickDelayMS)*time.Millisecond))
	}
	if c.PoolMaxSize > 0 {
		opts = append(opts, listflow.WithPoolMaxSize(c.PoolMaxSize))
	}
	if c.ImmediateCutoff > 0 {
		opts = append(opts, listflow.WithImmediateThreshold(c.ImmediateCutoff))
	}
	if c.QueryRatePerSec > 0 {
		opts = append(opts, listflow.WithQueryRateLimit(c.QueryRatePerSec, c.QueryBurst))
	}
	if c.StrictPool {
		opts = append(opts, listflow.WithStrictPool(true))
	}
	if len(c.Categories) > 0 {
		opts = append(opts, listflow.WithCategories(c.Categories...))
	}
	return opts
}

func resolvePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("config path is empty")
	}
	return expandPath(trimmed)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
