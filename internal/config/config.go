// Package config decodes the application settings collected by viper.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/malik-zulfi/Jiggar-sub000/internal/retry"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"

	StoreFile     = "file"
	StorePostgres = "postgres"

	DefaultSessionDir = ".jiggar/sessions"
)

type Config struct {
	Judge *JudgeConfig `mapstructure:"judge" validate:"required"`
	Retry retry.Config `mapstructure:"retry"`
	Cache *CacheConfig `mapstructure:"cache" validate:"required"`
	Store *StoreConfig `mapstructure:"store" validate:"required"`
	// Session is the id of the session commands operate on.
	Session string `mapstructure:"session"`
}

type JudgeConfig struct {
	Provider     string `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	Model        string `mapstructure:"model"`
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
	// Focus and Instructions are free-text hiring preferences passed to the judge.
	Focus        string `mapstructure:"focus"`
	Instructions string `mapstructure:"instructions"`
}

type CacheConfig struct {
	Backend    string        `mapstructure:"backend" validate:"omitempty,oneof=memory redis"`
	TTL        time.Duration `mapstructure:"ttl" validate:"gte=0"`
	MaxEntries int           `mapstructure:"max-entries" validate:"gte=0"`
	Redis      *RedisConfig  `mapstructure:"redis" validate:"required_if=Backend redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Prefix   string `mapstructure:"prefix"`
}

type StoreConfig struct {
	Backend     string `mapstructure:"backend" validate:"omitempty,oneof=file postgres"`
	Dir         string `mapstructure:"dir" validate:"required_unless=Backend postgres"`
	DatabaseURL string `mapstructure:"database-url" validate:"required_if=Backend postgres"`
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	d := retry.DefaultConfig()
	// Empty defaults make the keys visible to environment overrides.
	for _, key := range []string{"judge.model", "judge.api-key", "judge.api-key-file", "judge.focus", "judge.instructions", "store.database-url"} {
		v.SetDefault(key, "")
	}
	v.SetDefault("judge.provider", "gemini")
	v.SetDefault("judge.max-log-length", 200)
	v.SetDefault("retry.max-attempts", d.MaxAttempts)
	v.SetDefault("retry.base-delay", d.BaseDelay)
	v.SetDefault("retry.max-backoff", d.MaxBackoff)
	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.max-entries", 256)
	v.SetDefault("store.backend", StoreFile)
	v.SetDefault("store.dir", DefaultSessionDir)
}

// Load decodes every setting known to v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	if c.Judge == nil {
		c.Judge = &JudgeConfig{}
	}
	if c.Cache == nil {
		c.Cache = &CacheConfig{}
	}
	if c.Store == nil {
		c.Store = &StoreConfig{}
	}
	c.Judge.Provider = strings.ToLower(strings.TrimSpace(c.Judge.Provider))
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.Session = strings.TrimSpace(c.Session)
}

var validate = newValidator()

// newValidator reports fields by their config keys, e.g. "cache.redis.address".
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, fieldError(fe))
		}
	}

	if c.Cache.Backend == CacheRedis && c.Cache.Redis != nil && c.Cache.Redis.Address == "" {
		errs = append(errs, errors.New("cache.redis.address is required"))
	}
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("retry.max-attempts must not be negative"))
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxBackoff < 0 {
		errs = append(errs, errors.New("retry delays must not be negative"))
	}

	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) error {
	key := fe.Namespace()
	if i := strings.Index(key, "."); i >= 0 {
		key = key[i+1:]
	}

	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return fmt.Errorf("%s is required", key)
	case "oneof":
		return fmt.Errorf("%s: %q is not one of [%s]", key, fe.Value(), fe.Param())
	default:
		return fmt.Errorf("%s: invalid value %v (%s)", key, fe.Value(), fe.Tag())
	}
}
