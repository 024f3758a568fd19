package main

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/dyntl"
	"github.com/ZaguanLabs/dyntl/config"
)

func TestBuildProvider(t *testing.T) {
	tests := []struct {
		kind    string
		rpm     int
		wantErr bool
	}{
		{config.ProviderMock, 0, false},
		{config.ProviderLibreTranslate, 60, false},
		{config.ProviderOpenAI, 0, false},
		{"deepl", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			p, err := buildProvider(config.ProviderConfig{Kind: tt.kind, BaseURL: "http://localhost:5000", RequestsPerMinute: tt.rpm})
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			// Retries are outermost so each attempt goes through the limiter.
			if _, ok := p.(*dyntl.RetryableProvider); !ok {
				t.Errorf("got %T, want *dyntl.RetryableProvider", p)
			}
		})
	}
}

// unavailableProvider always fails with a retryable error.
type unavailableProvider struct {
	calls atomic.Int32
}

func (p *unavailableProvider) Translate(ctx context.Context, req dyntl.TranslateRequest) (string, error) {
	p.calls.Add(1)
	return "", &dyntl.ProviderError{Message: "HTTP 503", StatusCode: 503, Retryable: true}
}

func TestWrapProvider_RetriesWaitForTokens(t *testing.T) {
	upstream := &unavailableProvider{}
	p := wrapProvider(upstream, config.ProviderConfig{MaxRetries: 3, RequestsPerMinute: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := p.Translate(ctx, dyntl.TranslateRequest{Text: "Welcome", TargetLang: "es"}); err == nil {
		t.Fatal("expected an error from an unavailable provider")
	}

	// One request per minute with a burst of one grants a single token in
	// this window, so no retry may reach the upstream.
	if got := upstream.calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (tokens granted)", got)
	}
}

func TestWrapProvider_RetriesWithoutLimit(t *testing.T) {
	upstream := &unavailableProvider{}
	p := wrapProvider(upstream, config.ProviderConfig{MaxRetries: 1})

	if _, err := p.Translate(context.Background(), dyntl.TranslateRequest{Text: "Welcome", TargetLang: "es"}); err == nil {
		t.Fatal("expected an error from an unavailable provider")
	}
	if got := upstream.calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2", got)
	}
}

func TestBuild_FileCache(t *testing.T) {
	cfg := config.Default()
	cfg.Provider.Kind = config.ProviderMock
	cfg.Cache.FilePath = filepath.Join(t.TempDir(), "cache.json")

	a, err := build(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	result, err := a.translator.Translate(context.Background(), map[string]any{"title": "Welcome"}, "es")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got := result.Data.(map[string]any)["title"]; got != "Bienvenido" {
		t.Errorf("title = %v", got)
	}

	// Closing flushes the file; a fresh build over it sees the translation.
	a.Close()

	b, err := build(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	defer b.Close()

	if v, pending := b.fields.Resolve("Welcome", "es"); v != "Bienvenido" || pending {
		t.Errorf("Resolve = (%q, %v), want cached translation", v, pending)
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	cfg := config.Default()
	cfg.Server.Addr = addr
	cfg.Provider.Kind = config.ProviderMock
	cfg.Cache.Durable = config.CacheNone

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, zerolog.Nop()) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Post("http://"+addr+"/v1/translate?locale=es", "application/json", strings.NewReader(`{"data":"Welcome"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("translate status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
