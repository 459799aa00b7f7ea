package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lucidfort/snapgram/cache"
	"github.com/lucidfort/snapgram/docstore"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SNAPGRAM_"

// Environments.
const (
	EnvLocal      = "local"
	EnvProduction = "production"
)

// Config is the application configuration.
type Config struct {
	Env      string      `yaml:"env"`
	LogLevel string      `yaml:"log_level"`
	Store    StoreConfig `yaml:"store"`
	Cache    CacheConfig `yaml:"cache"`
	NATS     NATSConfig  `yaml:"nats"`
}

type StoreConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// CacheConfig is the file form of cache.Config.
type CacheConfig struct {
	Capacity           int           `yaml:"capacity"`
	NumShards          int           `yaml:"num_shards"`
	TTL                time.Duration `yaml:"ttl"`
	EvictionPercentage int           `yaml:"eviction_percentage"`
	EarlyRefresh       bool          `yaml:"early_refresh"`
}

// NATSConfig enables cross-process invalidation when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Default returns a local configuration backed by an in-memory SQLite
// database.
func Default() Config {
	c := cache.DefaultConfig()
	return Config{
		Env:      EnvLocal,
		LogLevel: "info",
		Store: StoreConfig{
			Driver:       docstore.DriverSQLite,
			DSN:          "file:snapgram?mode=memory&cache=shared&_foreign_keys=on",
			MaxOpenConns: 1,
		},
		Cache: CacheConfig{
			Capacity:           c.Capacity,
			NumShards:          c.NumShards,
			TTL:                c.TTL,
			EvictionPercentage: c.EvictionPercentage,
			EarlyRefresh:       c.EarlyRefresh != nil,
		},
		NATS: NATSConfig{Subject: "snapgram.cache.invalidate"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (when
// path is not empty), a .env file in the working directory (when present) and
// SNAPGRAM_* environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("ENV", &c.Env)
	str("LOG_LEVEL", &c.LogLevel)
	str("STORE_DRIVER", &c.Store.Driver)
	str("STORE_DSN", &c.Store.DSN)
	str("NATS_URL", &c.NATS.URL)
	str("NATS_SUBJECT", &c.NATS.Subject)

	if v, ok := lookup(EnvPrefix + "CACHE_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sCACHE_TTL: %w", EnvPrefix, err)
		}
		c.Cache.TTL = ttl
	}
	if v, ok := lookup(EnvPrefix + "CACHE_CAPACITY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCACHE_CAPACITY: %w", EnvPrefix, err)
		}
		c.Cache.Capacity = n
	}
	return nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Env, validation.Required),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Store),
		validation.Field(&c.Cache),
		validation.Field(&c.NATS),
	)
}

func (s StoreConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.Required, validation.In(docstore.DriverSQLite, docstore.DriverPostgres)),
		validation.Field(&s.DSN, validation.Required),
		validation.Field(&s.MaxOpenConns, validation.Min(0)),
	)
}

func (c CacheConfig) Validate() error {
	return c.ToCache().Validate()
}

func (n NATSConfig) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.URL, is.RequestURL),
		validation.Field(&n.Subject, validation.When(n.URL != "", validation.Required)),
	)
}

// ToCache converts the section to the cache service configuration. Early
// refresh uses the cache defaults when enabled.
func (c CacheConfig) ToCache() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Capacity = c.Capacity
	cfg.NumShards = c.NumShards
	cfg.TTL = c.TTL
	cfg.EvictionPercentage = c.EvictionPercentage
	if !c.EarlyRefresh {
		cfg.EarlyRefresh = nil
	}
	return cfg
}

// NewLogger returns a text logger for local runs and a JSON logger otherwise.
func (c Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if c.Env == EnvLocal {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func (c Config) level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}
