package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/driftwall/pkg/errors"
)

// Cache backend names accepted in configuration.
const (
	CacheFile   = "file"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheMongo  = "mongo"
	CacheNone   = "none"
)

// Config is the on-disk CLI configuration, read from a TOML file. Flags
// override file values; file values override defaults.
type Config struct {
	// BaseURL is the backend collection endpoint.
	BaseURL string `toml:"base_url"`

	Cache  CacheConfig  `toml:"cache"`
	Layout LayoutConfig `toml:"layout"`
	Canvas CanvasConfig `toml:"canvas"`
}

// CacheConfig selects and parameterizes the page cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// LayoutConfig parameterizes the masonry engine.
type LayoutConfig struct {
	ColumnWidth float64 `toml:"column_width"`
	ColumnGap   float64 `toml:"column_gap"`
	RowGap      float64 `toml:"row_gap"`
	OverscanY   float64 `toml:"overscan_y"`
}

// CanvasConfig parameterizes the deterministic tile path.
type CanvasConfig struct {
	ChunkSize  int    `toml:"chunk_size"`
	MaxSectors int    `toml:"max_sectors"`
	Seed       uint64 `toml:"seed"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend:       CacheFile,
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: appName,
		},
		Layout: LayoutConfig{
			ColumnWidth: 240,
			ColumnGap:   16,
			RowGap:      16,
		},
	}
}

// defaultConfigPath returns the XDG config file location
// (~/.config/driftwall/config.toml).
func defaultConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// LoadConfig reads the configuration at path, or the default location when
// path is empty. A missing file yields defaults; a malformed file is an
// error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = defaultConfigPath(); err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "config file %s does not exist", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return cfg, nil
}
