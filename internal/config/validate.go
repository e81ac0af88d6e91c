package config

import (
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/nextstep/internal/validate"
	"github.com/matzehuels/nextstep/pkg/errors"
)

func init() {
	validate.RegisterStruct(validateCache, CacheConfig{})
	validate.RegisterStruct(validateStore, StoreConfig{})
}

// Validate checks every field and the backend-specific requirements of the
// cache and store sections.
func (c Config) Validate() error {
	return validate.Struct(c, errors.ErrCodeInvalidConfiguration)
}

func validateCache(sl validator.StructLevel) {
	c := sl.Current().Interface().(CacheConfig)
	if c.Type == CacheRedis && c.Redis.Addr == "" {
		sl.ReportError(c.Redis.Addr, "redis.addr", "Addr", "required", "")
	}
}

func validateStore(sl validator.StructLevel) {
	s := sl.Current().Interface().(StoreConfig)
	switch s.Type {
	case StoreRedis:
		if s.Redis.Addr == "" {
			sl.ReportError(s.Redis.Addr, "redis.addr", "Addr", "required", "")
		}
	case StoreMongo:
		if s.Mongo.URI == "" {
			sl.ReportError(s.Mongo.URI, "mongo.uri", "URI", "required", "")
		}
		if s.Mongo.Database == "" {
			sl.ReportError(s.Mongo.Database, "mongo.database", "Database", "required", "")
		}
	}
}
