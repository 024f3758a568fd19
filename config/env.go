package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DYNTL_"

// applyEnv overrides fields from DYNTL_* variables. Unset or empty
// variables leave the current value alone; malformed numbers are errors.
func (cfg *Config) applyEnv() error {
	e := envReader{}

	e.str("ADDR", &cfg.Server.Addr)
	e.duration("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	e.str("DEFAULT_LOCALE", &cfg.Translation.DefaultLocale)
	e.str("SOURCE_LANG", &cfg.Translation.SourceLang)
	e.integer("MIN_LENGTH", &cfg.Translation.MinLength)
	e.integer("CONCURRENCY", &cfg.Translation.Concurrency)
	e.duration("FAILURE_TTL", &cfg.Translation.FailureTTL)
	e.str("CONTEXT", &cfg.Translation.Context)
	e.list("SUPPORTED_LOCALES", &cfg.Translation.SupportedLocales)

	e.str("PROVIDER", &cfg.Provider.Kind)
	e.str("PROVIDER_URL", &cfg.Provider.BaseURL)
	e.str("PROVIDER_API_KEY", &cfg.Provider.APIKey)
	e.str("PROVIDER_MODEL", &cfg.Provider.Model)
	e.duration("PROVIDER_TIMEOUT", &cfg.Provider.Timeout)
	e.integer("PROVIDER_MAX_RETRIES", &cfg.Provider.MaxRetries)
	e.integer("PROVIDER_RPM", &cfg.Provider.RequestsPerMinute)

	e.str("CACHE", &cfg.Cache.Durable)
	e.str("REDIS_URL", &cfg.Cache.RedisURL)
	e.str("CACHE_KEY_PREFIX", &cfg.Cache.KeyPrefix)
	e.duration("CACHE_TTL", &cfg.Cache.TTL)
	e.str("CACHE_FILE", &cfg.Cache.FilePath)
	e.integer("CACHE_MAX_ENTRIES", &cfg.Cache.MaxEntries)

	e.str("LOG_LEVEL", &cfg.Log.Level)
	e.str("LOG_FORMAT", &cfg.Log.Format)

	return e.err
}

// envReader records the first parse error and skips the rest.
type envReader struct {
	err error
}

func (e *envReader) lookup(name string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v := strings.TrimSpace(os.Getenv(EnvPrefix + name))
	return v, v != ""
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.lookup(name); ok {
		*dst = v
	}
}

func (e *envReader) list(name string, dst *[]string) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func (e *envReader) integer(name string, dst *int) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		return
	}
	*dst = n
}

func (e *envReader) duration(name string, dst *time.Duration) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		return
	}
	*dst = d
}
