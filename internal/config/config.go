// Package config loads nextstep settings from a TOML file and the
// environment.
//
// Values are layered: built-in defaults, then the config file, then
// NEXTSTEP_* environment variables. The result is validated before use.
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	settings := cfg.Graph.Settings()
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nextstep/pkg/errors"
	"github.com/matzehuels/nextstep/pkg/graph"
	"github.com/matzehuels/nextstep/pkg/integrations"
)

const appName = "nextstep"

// Cache and store backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"

	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

// Duration is a time.Duration written as a string such as "15s" in TOML.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats d as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete nextstep configuration.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Backend BackendConfig `toml:"backend"`
	Cache   CacheConfig   `toml:"cache"`
	Store   StoreConfig   `toml:"store"`
	Server  ServerConfig  `toml:"server"`
	Graph   GraphConfig   `toml:"graph"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// BackendConfig points at the prediction backend.
type BackendConfig struct {
	URL     string        `toml:"url" validate:"required,url"`
	Timeout Duration      `toml:"timeout" validate:"gt=0"`
	Breaker BreakerConfig `toml:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the backend.
type BreakerConfig struct {
	MaxRequests      uint32   `toml:"max_requests" validate:"gte=1"`
	Interval         Duration `toml:"interval" validate:"gte=0"`
	Timeout          Duration `toml:"timeout" validate:"gt=0"`
	FailureThreshold float64  `toml:"failure_threshold" validate:"gt=0,lte=1"`
	MinRequests      uint32   `toml:"min_requests" validate:"gte=1"`
}

// Integration converts b to the client's breaker settings.
func (b BreakerConfig) Integration(name string) integrations.BreakerConfig {
	return integrations.BreakerConfig{
		Name:             name,
		MaxRequests:      b.MaxRequests,
		Interval:         b.Interval.Std(),
		Timeout:          b.Timeout.Std(),
		FailureThreshold: b.FailureThreshold,
		MinRequests:      b.MinRequests,
	}
}

// CacheConfig selects where prediction and analytics responses are cached.
type CacheConfig struct {
	Type  string      `toml:"type" validate:"oneof=none file redis"`
	Dir   string      `toml:"dir"`
	TTL   Duration    `toml:"ttl" validate:"gt=0"`
	Redis RedisConfig `toml:"redis"`
}

// StoreConfig selects where saved graphs are kept.
type StoreConfig struct {
	Type  string      `toml:"type" validate:"oneof=memory file redis mongo"`
	Dir   string      `toml:"dir"`
	Redis RedisConfig `toml:"redis"`
	Mongo MongoConfig `toml:"mongo"`
}

// RedisConfig addresses a Redis server.
type RedisConfig struct {
	Addr     string `toml:"addr" validate:"omitempty,hostname_port"`
	Password string `toml:"password"`
	DB       int    `toml:"db" validate:"gte=0"`
	Prefix   string `toml:"prefix"`
}

// MongoConfig addresses a MongoDB collection.
type MongoConfig struct {
	URI        string `toml:"uri" validate:"omitempty,startswith=mongodb"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string   `toml:"addr" validate:"required,hostname_port"`
	ShutdownTimeout Duration `toml:"shutdown_timeout" validate:"gt=0"`
}

// GraphConfig holds the settings of new graphs.
type GraphConfig struct {
	Probability float64 `toml:"probability" validate:"gte=0,lte=1"`
	Support     int     `toml:"support" validate:"gte=0"`
	Auto        bool    `toml:"auto"`
	Matrix      string  `toml:"matrix" validate:"required"`
	ShowPreview bool    `toml:"show_preview"`
}

// Settings converts g to graph settings.
func (g GraphConfig) Settings() graph.Settings {
	return graph.Settings{
		ProbabilityMin: g.Probability,
		SupportMin:     g.Support,
		Auto:           g.Auto,
		Matrix:         g.Matrix,
		ShowPreview:    g.ShowPreview,
	}
}

// Default returns the built-in configuration.
func Default() Config {
	s := graph.DefaultSettings()
	b := integrations.DefaultBreakerConfig("")
	return Config{
		Log: LogConfig{Level: "info"},
		Backend: BackendConfig{
			URL:     "http://localhost:5000",
			Timeout: Duration(15 * time.Second),
			Breaker: BreakerConfig{
				MaxRequests:      b.MaxRequests,
				Interval:         Duration(b.Interval),
				Timeout:          Duration(b.Timeout),
				FailureThreshold: b.FailureThreshold,
				MinRequests:      b.MinRequests,
			},
		},
		Cache: CacheConfig{
			Type:  CacheFile,
			TTL:   Duration(time.Hour),
			Redis: RedisConfig{Addr: "localhost:6379", Prefix: appName + ":"},
		},
		Store: StoreConfig{
			Type:  StoreFile,
			Redis: RedisConfig{Addr: "localhost:6379"},
			Mongo: MongoConfig{URI: "mongodb://localhost:27017", Database: appName},
		},
		Server: ServerConfig{
			Addr:            "localhost:8080",
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Graph: GraphConfig{
			Probability: s.ProbabilityMin,
			Support:     s.SupportMin,
			Auto:        s.Auto,
			Matrix:      s.Matrix,
			ShowPreview: s.ShowPreview,
		},
	}
}

// Load reads the config file at path over the defaults, applies
// environment overrides and validates the result. An empty path reads
// [DefaultPath] and tolerates its absence; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, err, "locate config")
		}
		path = p
	}
	if err := cfg.decodeFile(path, explicit); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.Backend.URL = integrations.NormalizeBaseURL(cfg.Backend.URL)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string, required bool) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if required {
			return errors.New(errors.ErrCodeFileNotFound, "config file %s not found", path)
		}
		return nil
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfiguration, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/nextstep/config.toml, falling back
// to ~/.config/nextstep/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// DefaultCacheDir returns $XDG_CACHE_HOME/nextstep, falling back to
// ~/.cache/nextstep.
func DefaultCacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// CacheDir returns the configured file cache directory or the default.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return DefaultCacheDir()
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// StoreDir returns the configured file store directory, falling back to
// $XDG_DATA_HOME/nextstep/graphs or ~/.local/share/nextstep/graphs.
func (c Config) StoreDir() (string, error) {
	if c.Store.Dir != "" {
		return c.Store.Dir, nil
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName, "graphs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "graphs"), nil
}
