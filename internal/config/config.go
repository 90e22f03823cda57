// Package config loads fable.yaml, a .env file and FABLE_* environment
// overrides into one Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "fable.yaml"

// Save store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Templates  string           `yaml:"templates"`
	Datasets   string           `yaml:"datasets"`
	Saves      SavesConfig      `yaml:"saves"`
	Resolver   ResolverConfig   `yaml:"resolver"`
	Generation GenerationConfig `yaml:"generation"`
	HTTP       HTTPConfig       `yaml:"http"`
}

type SavesConfig struct {
	Driver string      `yaml:"driver"`
	Path   string      `yaml:"path"`
	Redis  RedisConfig `yaml:"redis"`

	// EncryptionKey is a base64 AES-256 key. Empty stores saves in clear.
	EncryptionKey string `yaml:"encryption_key"`
	// FallbackKeys decrypt saves written before a key rotation.
	FallbackKeys []string `yaml:"fallback_keys"`
	// Mask lists key patterns whose values are masked before storing.
	Mask []string `yaml:"mask"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	// Lock enables the distributed save lock.
	Lock bool `yaml:"lock"`
}

type ResolverConfig struct {
	MaxDepth int `yaml:"max_depth"`
	// Unresolved is "literal" (keep the placeholder text) or "empty".
	Unresolved string `yaml:"unresolved"`
}

type GenerationConfig struct {
	// Generators is the path of a generators.yaml file.
	Generators string `yaml:"generators"`
	// Generator selects an entry of Generators by name.
	Generator  string        `yaml:"generator"`
	Attempts   int           `yaml:"attempts"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel:  "info",
		Templates: "templates",
		Datasets:  "datasets",
		Saves: SavesConfig{
			Driver: DriverFile,
			Path:   ".fable/saves",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "fable:",
			},
		},
		Resolver: ResolverConfig{
			MaxDepth:   20,
			Unresolved: "literal",
		},
		Generation: GenerationConfig{
			Generators: "generators.yaml",
			Attempts:   3,
			RetryDelay: 2 * time.Second,
			Timeout:    30 * time.Second,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
	}
}

// Load reads path over the defaults, then applies .env and FABLE_*
// overrides. A missing file is fine unless it was named explicitly.
func Load(path string) (Config, error) {
	// variables already set in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	switch c.Saves.Driver {
	case DriverMemory, DriverFile, DriverRedis:
	default:
		return fmt.Errorf("unknown saves driver %q", c.Saves.Driver)
	}
	switch c.Resolver.Unresolved {
	case "", "literal", "keep", "keep_literal", "empty":
	default:
		return fmt.Errorf("unknown unresolved policy %q", c.Resolver.Unresolved)
	}
	if c.Resolver.MaxDepth < 1 {
		return fmt.Errorf("resolver.max_depth must be positive, got %d", c.Resolver.MaxDepth)
	}
	if c.Generation.Attempts < 1 {
		return fmt.Errorf("generation.attempts must be positive, got %d", c.Generation.Attempts)
	}
	if c.Generation.RetryDelay < 0 || c.Generation.Timeout < 0 {
		return fmt.Errorf("generation durations must not be negative")
	}
	return nil
}

type envVar struct {
	name  string
	apply func(string) error
}

func applyEnv(cfg *Config) error {
	str := func(dst *string) func(string) error {
		return func(v string) error { *dst = v; return nil }
	}
	num := func(dst *int) func(string) error {
		return func(v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		}
	}
	dur := func(dst *time.Duration) func(string) error {
		return func(v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			*dst = d
			return nil
		}
	}
	boolean := func(dst *bool) func(string) error {
		return func(v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			*dst = b
			return nil
		}
	}

	vars := []envVar{
		{"FABLE_LOG_LEVEL", str(&cfg.LogLevel)},
		{"FABLE_TEMPLATES", str(&cfg.Templates)},
		{"FABLE_DATASETS", str(&cfg.Datasets)},
		{"FABLE_SAVES_DRIVER", str(&cfg.Saves.Driver)},
		{"FABLE_SAVES_PATH", str(&cfg.Saves.Path)},
		{"FABLE_SAVES_KEY", str(&cfg.Saves.EncryptionKey)},
		{"FABLE_REDIS_ADDR", str(&cfg.Saves.Redis.Addr)},
		{"FABLE_REDIS_PASSWORD", str(&cfg.Saves.Redis.Password)},
		{"FABLE_REDIS_DB", num(&cfg.Saves.Redis.DB)},
		{"FABLE_REDIS_PREFIX", str(&cfg.Saves.Redis.Prefix)},
		{"FABLE_REDIS_TTL", dur(&cfg.Saves.Redis.TTL)},
		{"FABLE_REDIS_LOCK", boolean(&cfg.Saves.Redis.Lock)},
		{"FABLE_MAX_DEPTH", num(&cfg.Resolver.MaxDepth)},
		{"FABLE_UNRESOLVED", str(&cfg.Resolver.Unresolved)},
		{"FABLE_GENERATORS", str(&cfg.Generation.Generators)},
		{"FABLE_GENERATOR", str(&cfg.Generation.Generator)},
		{"FABLE_ATTEMPTS", num(&cfg.Generation.Attempts)},
		{"FABLE_RETRY_DELAY", dur(&cfg.Generation.RetryDelay)},
		{"FABLE_TIMEOUT", dur(&cfg.Generation.Timeout)},
		{"FABLE_HTTP_ADDR", str(&cfg.HTTP.Addr)},
	}
	for _, v := range vars {
		val, ok := os.LookupEnv(v.name)
		if !ok || val == "" {
			continue
		}
		if err := v.apply(val); err != nil {
			return fmt.Errorf("invalid %s: %w", v.name, err)
		}
	}
	return nil
}
