// Command dyntl-server serves the translation engine over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/dyntl"
	"github.com/ZaguanLabs/dyntl/cache"
	"github.com/ZaguanLabs/dyntl/config"
	"github.com/ZaguanLabs/dyntl/provider"
	"github.com/ZaguanLabs/dyntl/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("DYNTL_CONFIG"), "Path to a YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.SetupLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// app holds the wired components so that main can close them.
type app struct {
	translator *dyntl.Translator
	fields     *dyntl.FieldAdapter
	health     func(ctx context.Context) error
	closers    []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	httpServer := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.NewRouter(server.Options{
			Translator:       a.translator,
			Fields:           a.fields,
			SupportedLocales: cfg.Translation.SupportedLocales,
			MaxBodyBytes:     cfg.Server.MaxBodyBytes,
			Health:           a.health,
			Logger:           logger,
			Debug:            cfg.Log.Level == "debug",
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Str("provider", cfg.Provider.Kind).
			Str("durable_cache", cfg.Cache.Durable).
			Str("version", dyntl.FullVersion()).
			Msg("HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	// Let background single-field fetches finish writing to the cache.
	a.fields.Wait()
	return nil
}

func build(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{}

	p, err := buildProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	durable, err := buildDurable(ctx, cfg.Cache, a)
	if err != nil {
		return nil, err
	}

	store := cache.NewDualTierCache(
		cache.NewInMemoryCache(0),
		durable,
		cache.WithLogger(logger.With().Str("component", "cache").Logger()),
	)

	a.translator = dyntl.NewTranslator(p,
		dyntl.WithCache(store),
		dyntl.WithDefaultLocale(cfg.Translation.DefaultLocale),
		dyntl.WithSourceLang(cfg.Translation.SourceLang),
		dyntl.WithMinLength(cfg.Translation.MinLength),
		dyntl.WithConcurrency(cfg.Translation.Concurrency),
		dyntl.WithFailureTTL(cfg.Translation.FailureTTL),
		dyntl.WithContext(cfg.Translation.Context),
		dyntl.WithLogger(logger.With().Str("component", "translator").Logger()),
	)
	a.fields = dyntl.NewFieldAdapter(a.translator, dyntl.WithFetchTimeout(cfg.Provider.Timeout*time.Duration(cfg.Provider.MaxRetries+1)))

	return a, nil
}

func buildProvider(cfg config.ProviderConfig) (dyntl.Provider, error) {
	var p dyntl.Provider

	switch cfg.Kind {
	case config.ProviderLibreTranslate:
		p = provider.NewLibreTranslateProvider(provider.LibreTranslateConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
		})
	case config.ProviderOpenAI:
		p = provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	case config.ProviderMock:
		p = provider.NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Kind)
	}

	return wrapProvider(p, cfg), nil
}

// wrapProvider applies rate limiting below retries, so every upstream
// attempt, retries included, waits for a token.
func wrapProvider(p dyntl.Provider, cfg config.ProviderConfig) dyntl.Provider {
	if cfg.RequestsPerMinute > 0 {
		p = dyntl.NewRateLimitedProvider(p, dyntl.RateLimitConfig{RequestsPerMinute: cfg.RequestsPerMinute})
	}

	retryCfg := dyntl.DefaultRetryConfig()
	retryCfg.MaxRetries = cfg.MaxRetries
	return dyntl.NewRetryableProvider(p, retryCfg)
}

func buildDurable(ctx context.Context, cfg config.CacheConfig, a *app) (cache.TranslationCache, error) {
	switch cfg.Durable {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			URL:       cfg.RedisURL,
			TTL:       cfg.TTL,
			KeyPrefix: cfg.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, rc)
		a.health = rc.Ping
		return rc, nil
	case config.CacheFile:
		fc, err := cache.NewFileCache(cache.FileConfig{Path: cfg.FilePath, MaxEntries: cfg.MaxEntries})
		if err != nil {
			return nil, fmt.Errorf("opening cache file: %w", err)
		}
		a.closers = append(a.closers, fc)
		return fc, nil
	default:
		return nil, nil
	}
}
