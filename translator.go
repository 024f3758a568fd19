package dyntl

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaguanLabs/dyntl/cache"
)

// DefaultFailureTTL is how long a failed translation is served as the
// original text before the provider is asked again.
const DefaultFailureTTL = time.Minute

// TranslationCache is the interface for translation caching.
type TranslationCache = cache.TranslationCache

// Translator is the payload translation engine. It is safe for concurrent
// use; share one instance (and therefore one cache) per process.
type Translator struct {
	defaultLocale string
	sourceLang    string
	minLength     int
	concurrency   int
	failureTTL    time.Duration
	context       string
	cache         TranslationCache
	failures      *cache.InMemoryCache
	transport     *Transport
	logger        zerolog.Logger
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithCache sets the translation cache, normally a *cache.DualTierCache.
func WithCache(c TranslationCache) TranslatorOption {
	return func(t *Translator) {
		t.cache = c
	}
}

// WithDefaultLocale sets the authoring locale. Translating into it is
// always the identity and never touches the provider.
func WithDefaultLocale(lang string) TranslatorOption {
	return func(t *Translator) {
		t.defaultLocale = lang
	}
}

// WithSourceLang sets the source-language hint sent to the provider.
func WithSourceLang(lang string) TranslatorOption {
	return func(t *Translator) {
		t.sourceLang = lang
	}
}

// WithMinLength sets the default minimum eligible string length.
func WithMinLength(n int) TranslatorOption {
	return func(t *Translator) {
		t.minLength = n
	}
}

// WithConcurrency bounds in-flight provider calls per Translate call.
func WithConcurrency(n int) TranslatorOption {
	return func(t *Translator) {
		t.concurrency = n
	}
}

// WithFailureTTL sets how long failed translations are remembered as
// identity results. Zero or less disables remembering failures.
func WithFailureTTL(d time.Duration) TranslatorOption {
	return func(t *Translator) {
		t.failureTTL = d
	}
}

// WithContext sets a domain hint passed to providers that accept one.
func WithContext(hint string) TranslatorOption {
	return func(t *Translator) {
		t.context = hint
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) TranslatorOption {
	return func(t *Translator) {
		t.logger = logger
	}
}

// NewTranslator creates a new Translator backed by the given provider.
func NewTranslator(provider Provider, opts ...TranslatorOption) *Translator {
	t := &Translator{
		defaultLocale: DefaultLocale,
		sourceLang:    AutoDetect,
		minLength:     DefaultMinLength,
		concurrency:   DefaultConcurrency,
		failureTTL:    DefaultFailureTTL,
		logger:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.cache == nil {
		t.cache = cache.NewDualTierCache(nil, nil)
	}
	if t.concurrency <= 0 {
		t.concurrency = DefaultConcurrency
	}
	if t.failureTTL > 0 {
		t.failures = cache.NewInMemoryCache(t.failureTTL)
	}

	t.transport = NewTransport(provider, t.logger)
	t.transport.context = t.context

	return t
}

// Translate returns a deep copy of data with every eligible string leaf
// translated into target. data must be acyclic decoded JSON
// (map[string]any, []any, string, float64, json.Number, bool, nil);
// map[string]string and []string are accepted too, and any other value is
// passed through untouched.
//
// Provider and storage failures never surface: affected leaves keep their
// original text. The only error is a *TranslationError wrapping ctx.Err()
// when ctx is done before the pass completes; the partial Result must be
// discarded.
func (t *Translator) Translate(ctx context.Context, data any, target string, opts ...CallOption) (*Result, error) {
	co := callOptions{minLength: t.minLength, sourceHint: t.sourceLang}
	for _, opt := range opts {
		opt(&co)
	}

	result := &Result{}

	if t.IsDefaultLocale(target) {
		w := &walker{identity: true, stats: result}
		result.Data = w.walkRoot(data)[0]
		return result, nil
	}

	start := time.Now()
	ns := NormalizeLocale(target)

	w := &walker{
		minLength: co.minLength,
		lookup:    func(text string) (string, bool) { return t.lookup(ns, text) },
		stats:     result,
	}
	box := w.walkRoot(data)

	if len(w.pending) == 0 {
		result.Data = box[0]
		return result, nil
	}

	unique := uniqueSources(w.pending)
	result.UniqueMisses = len(unique)

	translations := t.translateUnique(ctx, unique, target, ns, co.sourceHint, result)

	if err := ctx.Err(); err != nil {
		result.Data = box[0]
		return result, &TranslationError{Message: "translation pass cancelled", Cause: err}
	}

	for _, leaf := range w.pending {
		leaf.fill(translations[leaf.source])
	}
	result.Data = box[0]

	t.logger.Debug().
		Str("target", ns).
		Int("leaves", result.TotalLeaves).
		Int("eligible", result.EligibleLeaves).
		Int("cached", result.CachedCount).
		Int("unique_misses", result.UniqueMisses).
		Int("failed", result.FailedCount).
		Dur("elapsed", time.Since(start)).
		Msg("Translated payload")

	return result, nil
}

// TranslateJSON translates a raw JSON document. Numbers are decoded as
// json.Number so they round-trip exactly.
func (t *Translator) TranslateJSON(ctx context.Context, raw []byte, target string, opts ...CallOption) ([]byte, *Result, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, nil, &PayloadError{Message: "decoding JSON", Cause: err}
	}
	if dec.More() {
		return nil, nil, &PayloadError{Message: "decoding JSON: trailing data after document"}
	}

	result, err := t.Translate(ctx, data, target, opts...)
	if err != nil {
		return nil, result, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result.Data); err != nil {
		return nil, result, &PayloadError{Message: "encoding JSON", Cause: err}
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), result, nil
}

// TranslateValue translates a typed value by round-tripping it through JSON.
// Only exported string fields that survive encoding/json are translated.
func TranslateValue[T any](ctx context.Context, t *Translator, v T, target string, opts ...CallOption) (T, *Result, error) {
	var zero T

	raw, err := json.Marshal(v)
	if err != nil {
		return zero, nil, &PayloadError{Message: "encoding value", Cause: err}
	}

	out, result, err := t.TranslateJSON(ctx, raw, target, opts...)
	if err != nil {
		return zero, result, err
	}

	var translated T
	if err := json.Unmarshal(out, &translated); err != nil {
		return zero, result, &PayloadError{Message: "decoding translated value", Cause: err}
	}
	return translated, result, nil
}

// CollectEligible returns the distinct strings in data that would be sent
// for translation on a cold cache, in first-seen order.
func CollectEligible(data any, minLength int) []string {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	w := &walker{
		minLength: minLength,
		lookup:    func(string) (string, bool) { return "", false },
		stats:     &Result{},
	}
	w.walkRoot(data)
	return uniqueSources(w.pending)
}

// lookup consults the cache, then remembered failures.
func (t *Translator) lookup(ns, text string) (string, bool) {
	key := namespacedKey(ns, text)
	if val, ok := t.cache.Get(key); ok {
		return val, true
	}
	if t.failures != nil {
		if val, ok := t.failures.Get(key); ok {
			return val, true
		}
	}
	return "", false
}

// store records a transport outcome. Successes are cached permanently;
// fail-soft results are remembered only in the short-lived failure tier;
// cancelled calls are not recorded at all.
func (t *Translator) store(ctx context.Context, ns, text, translated string, ok bool) {
	key := namespacedKey(ns, text)

	if ok {
		if err := t.cache.Set(key, translated); err != nil {
			t.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache translation")
		}
		return
	}

	if ctx.Err() != nil || t.failures == nil {
		return
	}
	_ = t.failures.Set(key, text)
}

// IsDefaultLocale reports whether locale is the authoring locale (or
// empty), for which translation is the identity.
func (t *Translator) IsDefaultLocale(locale string) bool {
	return locale == "" || SameLanguage(locale, t.defaultLocale)
}

// DefaultLocale returns the authoring locale.
func (t *Translator) DefaultLocale() string {
	return t.defaultLocale
}

// SourceLang returns the source-language hint.
func (t *Translator) SourceLang() string {
	return t.sourceLang
}

// MinLength returns the default minimum eligible length.
func (t *Translator) MinLength() int {
	return t.minLength
}

// Cache returns the shared translation cache.
func (t *Translator) Cache() TranslationCache {
	return t.cache
}

// Transport returns the fail-soft transport.
func (t *Translator) Transport() *Transport {
	return t.transport
}
