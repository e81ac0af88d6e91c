package config

import (
	"strconv"
	"time"

	"github.com/matzehuels/nextstep/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NEXTSTEP_"

type envVar struct {
	name string
	set  func(c *Config, v string) error
}

var envVars = []envVar{
	{"LOG_LEVEL", func(c *Config, v string) error { c.Log.Level = v; return nil }},
	{"BACKEND_URL", func(c *Config, v string) error { c.Backend.URL = v; return nil }},
	{"BACKEND_TIMEOUT", func(c *Config, v string) error { return setDuration(&c.Backend.Timeout, v) }},
	{"CACHE_TYPE", func(c *Config, v string) error { c.Cache.Type = v; return nil }},
	{"CACHE_DIR", func(c *Config, v string) error { c.Cache.Dir = v; return nil }},
	{"CACHE_TTL", func(c *Config, v string) error { return setDuration(&c.Cache.TTL, v) }},
	{"CACHE_REDIS_ADDR", func(c *Config, v string) error { c.Cache.Redis.Addr = v; return nil }},
	{"STORE_TYPE", func(c *Config, v string) error { c.Store.Type = v; return nil }},
	{"STORE_DIR", func(c *Config, v string) error { c.Store.Dir = v; return nil }},
	{"STORE_REDIS_ADDR", func(c *Config, v string) error { c.Store.Redis.Addr = v; return nil }},
	{"STORE_MONGO_URI", func(c *Config, v string) error { c.Store.Mongo.URI = v; return nil }},
	{"STORE_MONGO_DATABASE", func(c *Config, v string) error { c.Store.Mongo.Database = v; return nil }},
	{"SERVER_ADDR", func(c *Config, v string) error { c.Server.Addr = v; return nil }},
	{"MATRIX", func(c *Config, v string) error { c.Graph.Matrix = v; return nil }},
	{"PROBABILITY", func(c *Config, v string) error { return setFloat(&c.Graph.Probability, v) }},
	{"SUPPORT", func(c *Config, v string) error { return setInt(&c.Graph.Support, v) }},
	{"AUTO", func(c *Config, v string) error { return setBool(&c.Graph.Auto, v) }},
	{"SHOW_PREVIEW", func(c *Config, v string) error { return setBool(&c.Graph.ShowPreview, v) }},
}

// EnvNames lists the supported environment variables.
func EnvNames() []string {
	names := make([]string, len(envVars))
	for i, e := range envVars {
		names[i] = EnvPrefix + e.name
	}
	return names
}

// applyEnv overlays every set NEXTSTEP_* variable on c.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, e := range envVars {
		v, ok := lookup(EnvPrefix + e.name)
		if !ok {
			continue
		}
		if err := e.set(c, v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfiguration, err, "%s%s", EnvPrefix, e.name)
		}
	}
	return nil
}

func setDuration(d *Duration, v string) error {
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func setFloat(f *float64, v string) error {
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func setInt(i *int, v string) error {
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func setBool(b *bool, v string) error {
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
