// Package config carries the tunables for a Store: cache sizing, the
// directory backend's clean-cache budget, and the fan-out width used by the
// derived operations. Mirrors triedb/pathdb's Config struct.
package config

import (
	"os"

	"github.com/naoina/toml"
)

// Config holds the tunables for opening a Store.
type Config struct {
	// CacheEntries bounds the number of Layer values the layer Cache
	// retains at once. Zero means DefaultCacheEntries.
	CacheEntries int

	// CleanCacheBytes bounds the directory backend's fastcache-backed byte
	// cache of serialized layer blobs. Zero means DefaultCleanCacheBytes.
	CleanCacheBytes int

	// BuilderConcurrency bounds the goroutine fan-out used by squash.
	// apply_delta and apply_diff always run two goroutines and do not read
	// it. Zero means DefaultBuilderConcurrency.
	BuilderConcurrency int
}

// Defaults, applied by WithDefaults the way newDiskLayer falls back when a
// configured cache size is zero.
const (
	DefaultCacheEntries       = 256
	DefaultCleanCacheBytes    = 32 * 1024 * 1024
	DefaultBuilderConcurrency = 4
)

// WithDefaults returns a copy of cfg with zero fields replaced by defaults.
func (cfg Config) WithDefaults() Config {
	if cfg.CacheEntries <= 0 {
		cfg.CacheEntries = DefaultCacheEntries
	}
	if cfg.CleanCacheBytes <= 0 {
		cfg.CleanCacheBytes = DefaultCleanCacheBytes
	}
	if cfg.BuilderConcurrency <= 0 {
		cfg.BuilderConcurrency = DefaultBuilderConcurrency
	}
	return cfg
}

// Load reads a TOML-encoded Config from path.
func Load(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg.WithDefaults(), nil
}
