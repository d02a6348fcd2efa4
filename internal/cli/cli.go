// Package cli implements the driftwall command-line interface.
//
// This package provides commands for resolving deterministic tile content,
// exploring the masonry layout interactively, serving a debug HTTP surface,
// and managing the backend page cache. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - resolve: Resolve tile content for a coordinate or rectangle
//   - pan: Interactively pan the masonry layout in the terminal
//   - serve: Run the debug HTTP server
//   - cache: Manage the backend page cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/driftwall/pkg/cache"
	"github.com/matzehuels/driftwall/pkg/errors"
)

// appName is the application name used for directories and display.
const appName = "driftwall"

// cacheDir returns the cache directory using XDG standard (~/.cache/driftwall/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// newCacheBackend builds the page cache named by the configuration.
func newCacheBackend(ctx context.Context, cfg *Config, logger *log.Logger) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheMemory:
		return cache.NewMemoryCache(), nil
	case CacheFile:
		dir := cfg.Cache.Dir
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				logger.Warn("cache directory unavailable, caching disabled", "error", err)
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	case CacheRedis:
		return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	case CacheMongo:
		return cache.NewMongoCache(ctx, cfg.Cache.MongoURI, cfg.Cache.MongoDatabase, "pages")
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", cfg.Cache.Backend)
	}
}
