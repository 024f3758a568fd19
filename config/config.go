// Package config loads dyntl-server settings from an optional YAML file
// and DYNTL_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ZaguanLabs/dyntl"
)

// Provider kinds.
const (
	ProviderLibreTranslate = "libretranslate"
	ProviderOpenAI         = "openai"
	ProviderMock           = "mock"
)

// Durable cache kinds.
const (
	CacheNone  = "none"
	CacheRedis = "redis"
	CacheFile  = "file"
)

// Config is the complete server configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Translation TranslationConfig `yaml:"translation"`
	Provider    ProviderConfig    `yaml:"provider"`
	Cache       CacheConfig       `yaml:"cache"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

type TranslationConfig struct {
	DefaultLocale    string        `yaml:"default_locale"`
	SourceLang       string        `yaml:"source_lang"`
	MinLength        int           `yaml:"min_length"`
	Concurrency      int           `yaml:"concurrency"`
	FailureTTL       time.Duration `yaml:"failure_ttl"`
	Context          string        `yaml:"context"`
	SupportedLocales []string      `yaml:"supported_locales"`
}

type ProviderConfig struct {
	Kind              string        `yaml:"kind"`
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

type CacheConfig struct {
	Durable    string        `yaml:"durable"`
	RedisURL   string        `yaml:"redis_url"`
	KeyPrefix  string        `yaml:"key_prefix"`
	TTL        time.Duration `yaml:"ttl"`
	FilePath   string        `yaml:"file_path"`
	MaxEntries int           `yaml:"max_entries"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    4 << 20,
		},
		Translation: TranslationConfig{
			DefaultLocale: dyntl.DefaultLocale,
			SourceLang:    dyntl.AutoDetect,
			MinLength:     dyntl.DefaultMinLength,
			Concurrency:   dyntl.DefaultConcurrency,
			FailureTTL:    dyntl.DefaultFailureTTL,
		},
		Provider: ProviderConfig{
			Kind:              ProviderLibreTranslate,
			BaseURL:           "http://localhost:5000",
			Timeout:           8 * time.Second,
			MaxRetries:        2,
			RequestsPerMinute: 600,
		},
		Cache: CacheConfig{
			Durable:   CacheFile,
			KeyPrefix: "dyntl:",
			FilePath:  "dyntl-cache.json",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then environment overrides. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := cfg.readYAML(path); err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if cfg.Translation.MinLength < 1 {
		errs = append(errs, fmt.Errorf("translation.min_length must be at least 1, got %d", cfg.Translation.MinLength))
	}
	if cfg.Translation.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("translation.concurrency must be at least 1, got %d", cfg.Translation.Concurrency))
	}
	if cfg.Translation.DefaultLocale == "" {
		errs = append(errs, errors.New("translation.default_locale is required"))
	}

	switch cfg.Provider.Kind {
	case ProviderLibreTranslate:
		if err := validateURL("provider.base_url", cfg.Provider.BaseURL); err != nil {
			errs = append(errs, err)
		}
	case ProviderOpenAI:
		if cfg.Provider.APIKey == "" {
			errs = append(errs, errors.New("provider.api_key is required for openai"))
		}
	case ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown provider.kind %q", cfg.Provider.Kind))
	}
	if cfg.Provider.MaxRetries < 0 {
		errs = append(errs, errors.New("provider.max_retries cannot be negative"))
	}

	switch cfg.Cache.Durable {
	case CacheNone:
	case CacheRedis:
		if cfg.Cache.RedisURL == "" {
			errs = append(errs, errors.New("cache.redis_url is required for the redis durable tier"))
		}
	case CacheFile:
		if cfg.Cache.FilePath == "" {
			errs = append(errs, errors.New("cache.file_path is required for the file durable tier"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.durable %q", cfg.Cache.Durable))
	}

	switch cfg.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", cfg.Log.Format))
	}

	return errors.Join(errs...)
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || !strings.HasPrefix(u.Scheme, "http") {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, raw)
	}
	return nil
}
