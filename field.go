package dyntl

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds a background single-field translation.
const DefaultFetchTimeout = 10 * time.Second

// FieldAdapter translates one string at a time for view code that renders
// a field (a title, a label) and re-renders when the locale changes. It
// never blocks a render: a miss shows the original text at once and the
// translation is fetched in the background.
//
// It shares the Translator's cache and transport, so a translation fetched
// through either path is a cache hit for the other.
type FieldAdapter struct {
	translator *Translator
	flight     singleflight.Group
	timeout    time.Duration
	wg         sync.WaitGroup
}

// FieldOption configures a FieldAdapter.
type FieldOption func(*FieldAdapter)

// WithFetchTimeout bounds each background fetch.
func WithFetchTimeout(d time.Duration) FieldOption {
	return func(a *FieldAdapter) {
		a.timeout = d
	}
}

// NewFieldAdapter creates an adapter over t's cache and transport.
func NewFieldAdapter(t *Translator, opts ...FieldOption) *FieldAdapter {
	a := &FieldAdapter{
		translator: t,
		timeout:    DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// settle returns the value to show immediately. settled is false when the
// text is an eligible cache miss; ns is then the normalized locale to fetch.
func (a *FieldAdapter) settle(text, locale string) (value, ns string, settled bool) {
	t := a.translator
	if t.IsDefaultLocale(locale) || !IsEligible(text, t.minLength) {
		return text, "", true
	}

	ns = NormalizeLocale(locale)
	if val, ok := t.lookup(ns, text); ok {
		return val, ns, true
	}
	return text, ns, false
}

// Resolve returns the value to render now. On a miss it returns text and
// pending=true, and starts a background fetch that fills the cache; a later
// Resolve for the same pair returns the translation.
func (a *FieldAdapter) Resolve(text, locale string) (value string, pending bool) {
	value, ns, settled := a.settle(text, locale)
	if settled {
		return value, false
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.fetch(context.Background(), ns, text, locale)
	}()
	return value, true
}

// Fetch translates text synchronously, returning text itself when it is
// ineligible, the locale is the default, or translation fails.
func (a *FieldAdapter) Fetch(ctx context.Context, text, locale string) string {
	value, ns, settled := a.settle(text, locale)
	if settled {
		return value
	}
	return a.fetch(ctx, ns, text, locale)
}

// Wait blocks until background fetches started by Resolve have finished.
func (a *FieldAdapter) Wait() {
	a.wg.Wait()
}

// fetch collapses concurrent requests for the same (text, locale). The
// shared request runs detached from any one caller, bounded by the fetch
// timeout; a caller whose ctx ends stops waiting and gets text back.
func (a *FieldAdapter) fetch(ctx context.Context, ns, text, locale string) string {
	t := a.translator
	key := namespacedKey(ns, text)

	ch := a.flight.DoChan(key, func() (any, error) {
		if val, ok := t.lookup(ns, text); ok {
			return val, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		translated, ok := t.transport.Translate(fetchCtx, text, locale, t.sourceLang)
		t.store(fetchCtx, ns, text, translated, ok)
		return translated, nil
	})

	select {
	case <-ctx.Done():
		return text
	case res := <-ch:
		return res.Val.(string)
	}
}

// Field is a reactive binding of one rendered string. Each Update supersedes
// the previous one: its in-flight fetch is cancelled and a late result is
// discarded, so a slow translation for an old locale never lands after a
// newer one.
type Field struct {
	adapter  *FieldAdapter
	onChange func(value string)

	mu     sync.Mutex
	token  uint64
	live   bool // value belongs to text and locale and nothing was abandoned
	cancel context.CancelFunc
	text   string
	locale string
	value  string
}

// NewField creates a Field. onChange is called from a background goroutine
// when a fetched translation replaces the current value.
func (a *FieldAdapter) NewField(onChange func(value string)) *Field {
	return &Field{adapter: a, onChange: onChange}
}

// Update re-derives the field for a new input or locale and returns the
// value to render now.
func (f *Field) Update(text, locale string) string {
	f.mu.Lock()

	if f.live && text == f.text && locale == f.locale {
		value := f.value
		f.mu.Unlock()
		return value
	}

	f.token++
	token := f.token
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}

	value, ns, settled := f.adapter.settle(text, locale)
	f.text, f.locale, f.value = text, locale, value
	f.live = true
	if settled {
		f.mu.Unlock()
		return value
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.mu.Unlock()

	go func() {
		defer cancel()
		translated := f.adapter.fetch(ctx, ns, text, locale)

		f.mu.Lock()
		if f.token != token || translated == f.value {
			f.mu.Unlock()
			return
		}
		f.value = translated
		f.cancel = nil
		onChange := f.onChange
		f.mu.Unlock()

		if onChange != nil {
			onChange(translated)
		}
	}()

	return value
}

// Value returns the current value.
func (f *Field) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Close abandons any in-flight fetch; no onChange call is made for it.
// A later Update starts over, even for the same text and locale.
func (f *Field) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token++
	f.live = false
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// Scope memoizes single-field lookups for one render pass, so the same
// literal rendered by many sibling views resolves once and triggers at most
// one fetch.
type Scope struct {
	adapter *FieldAdapter
	ctx     context.Context

	mu   sync.Mutex
	memo map[string]string
	wg   sync.WaitGroup
}

// NewScope starts a render pass. Fetches it triggers stop when ctx ends.
func (a *FieldAdapter) NewScope(ctx context.Context) *Scope {
	return &Scope{
		adapter: a,
		ctx:     ctx,
		memo:    make(map[string]string),
	}
}

// Text returns the value to render for text in locale during this pass.
func (s *Scope) Text(text, locale string) string {
	memoKey := locale + "\x00" + text

	s.mu.Lock()
	if val, ok := s.memo[memoKey]; ok {
		s.mu.Unlock()
		return val
	}

	value, ns, settled := s.adapter.settle(text, locale)
	s.memo[memoKey] = value
	if !settled {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if !settled {
		go func() {
			defer s.wg.Done()
			s.adapter.fetch(s.ctx, ns, text, locale)
		}()
	}
	return value
}

// Wait blocks until fetches triggered by this pass have settled.
func (s *Scope) Wait() {
	s.wg.Wait()
}
