package dyntl

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// FormatPlainText is the only content format dyntl sends to providers.
const FormatPlainText = "text"

// Provider is the interface for machine-translation backends.
// One call translates one string.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) (string, error)
}

// TranslateRequest contains the parameters for a translation request.
type TranslateRequest struct {
	Text       string
	TargetLang string
	SourceLang string // AutoDetect when unknown
	Format     string // FormatPlainText
	Context    string // Optional domain hint for providers that accept one
}

// Transport is the fail-soft boundary around a Provider. It never returns
// an error and never panics: every failure yields the original text.
type Transport struct {
	provider Provider
	context  string
	logger   zerolog.Logger
}

// NewTransport wraps a provider. A nil provider makes every call a no-op.
func NewTransport(provider Provider, logger zerolog.Logger) *Transport {
	return &Transport{provider: provider, logger: logger}
}

type transportResult struct {
	text string
	err  error
}

// Translate returns the provider's translation and true, or text and false
// when the provider fails, panics, returns an empty string, or ctx is done
// before the response arrives.
func (t *Transport) Translate(ctx context.Context, text, target, source string) (string, bool) {
	if t == nil || t.provider == nil {
		return text, false
	}
	if ctx.Err() != nil {
		return text, false
	}

	if source == "" {
		source = AutoDetect
	}

	req := TranslateRequest{
		Text:       text,
		TargetLang: target,
		SourceLang: source,
		Format:     FormatPlainText,
		Context:    t.context,
	}

	done := make(chan transportResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- transportResult{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		out, err := t.provider.Translate(ctx, req)
		done <- transportResult{text: out, err: err}
	}()

	select {
	case <-ctx.Done():
		t.logger.Debug().
			Str("target", target).
			Err(ctx.Err()).
			Msg("Translation abandoned")
		return text, false
	case res := <-done:
		if res.err != nil {
			t.logger.Warn().
				Str("target", target).
				Int("length", len(text)).
				Err(res.err).
				Msg("Translation failed, keeping original text")
			return text, false
		}
		if ctx.Err() != nil {
			return text, false
		}
		if strings.TrimSpace(res.text) == "" {
			t.logger.Warn().
				Str("target", target).
				Msg("Provider returned empty translation, keeping original text")
			return text, false
		}
		return res.text, true
	}
}
