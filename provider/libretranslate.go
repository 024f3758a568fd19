package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ZaguanLabs/dyntl"
)

// DefaultLibreTranslateTimeout bounds a single request.
const DefaultLibreTranslateTimeout = 8 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// LibreTranslateConfig holds configuration for the LibreTranslate provider.
type LibreTranslateConfig struct {
	BaseURL    string        // e.g. "http://localhost:5000"
	APIKey     string        // Optional; sent as api_key
	Timeout    time.Duration // Per-request timeout (default: 8s)
	HTTPClient *http.Client  // Optional; overrides Timeout
}

// LibreTranslateProvider talks to a LibreTranslate-compatible /translate
// endpoint.
type LibreTranslateProvider struct {
	base   string
	apiKey string
	http   *http.Client
}

// NewLibreTranslateProvider creates a new LibreTranslate provider.
func NewLibreTranslateProvider(cfg LibreTranslateConfig) *LibreTranslateProvider {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultLibreTranslateTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &LibreTranslateProvider{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey: cfg.APIKey,
		http:   client,
	}
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

// Translate sends one string to /translate. LibreTranslate identifies
// languages by base code, so regional subtags are dropped from both the
// source and the target.
func (p *LibreTranslateProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	source := req.SourceLang
	if source != dyntl.AutoDetect {
		source = dyntl.BaseLanguage(source)
	}
	if source == "" {
		source = dyntl.AutoDetect
	}

	format := req.Format
	if format == "" {
		format = dyntl.FormatPlainText
	}

	body, err := json.Marshal(libreRequest{
		Q:      req.Text,
		Source: source,
		Target: dyntl.BaseLanguage(req.TargetLang),
		Format: format,
		APIKey: p.apiKey,
	})
	if err != nil {
		return "", &dyntl.ProviderError{Message: "encoding request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", &dyntl.ProviderError{Message: "building request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", dyntl.UserAgent())

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return "", &dyntl.ProviderError{
			Message:   "LibreTranslate request failed",
			Cause:     err,
			Retryable: isTimeout(err) && ctx.Err() == nil,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &dyntl.ProviderError{Message: "reading response", Cause: err, StatusCode: resp.StatusCode, Retryable: true}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("LibreTranslate HTTP %d", resp.StatusCode)
		if detail := gjson.GetBytes(raw, "error"); detail.Type == gjson.String {
			msg += ": " + detail.String()
		}
		return "", &dyntl.ProviderError{
			Message:    msg,
			StatusCode: resp.StatusCode,
			Retryable:  retryableStatus(resp.StatusCode),
		}
	}

	if !gjson.ValidBytes(raw) {
		return "", &dyntl.ProviderError{Message: "invalid JSON from LibreTranslate", StatusCode: resp.StatusCode}
	}

	translated := gjson.GetBytes(raw, "translatedText")
	if translated.Type != gjson.String {
		return "", &dyntl.ProviderError{Message: "translatedText missing or not a string", StatusCode: resp.StatusCode}
	}

	return translated.String(), nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

var _ Provider = (*LibreTranslateProvider)(nil)
