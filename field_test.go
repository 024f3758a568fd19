package dyntl

import (
	"context"
	"sync"
	"testing"
	"time"
)

// gatedProvider blocks each call until its target's gate is released
type gatedProvider struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	calls map[string]int
}

func newGatedProvider() *gatedProvider {
	return &gatedProvider{
		gates: make(map[string]chan struct{}),
		calls: make(map[string]int),
	}
}

func (p *gatedProvider) gate(target string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.gates[target]
	if !ok {
		g = make(chan struct{})
		p.gates[target] = g
	}
	return g
}

func (p *gatedProvider) callCount(target string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[target]
}

func (p *gatedProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	p.mu.Lock()
	p.calls[req.TargetLang]++
	p.mu.Unlock()

	select {
	case <-p.gate(req.TargetLang):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return req.TargetLang + ":" + req.Text, nil
}

func TestFieldAdapter_Resolve(t *testing.T) {
	provider := newMockProvider()
	adapter := NewFieldAdapter(NewTranslator(provider))

	value, pending := adapter.Resolve("Welcome", "ar")
	if value != "Welcome" || !pending {
		t.Errorf("first Resolve = (%q, %v), want original and pending", value, pending)
	}

	adapter.Wait()

	value, pending = adapter.Resolve("Welcome", "ar")
	if value != "مرحبا" || pending {
		t.Errorf("second Resolve = (%q, %v), want translation", value, pending)
	}
	if provider.callCount() != 1 {
		t.Errorf("Expected 1 call, got %d", provider.callCount())
	}
}

func TestFieldAdapter_ResolveSettled(t *testing.T) {
	provider := newMockProvider()
	adapter := NewFieldAdapter(NewTranslator(provider))

	tests := []struct {
		text, locale string
	}{
		{"Welcome", "en"},
		{"Welcome", ""},
		{"OK", "ar"},
		{"https://example.com", "ar"},
	}

	for _, tt := range tests {
		value, pending := adapter.Resolve(tt.text, tt.locale)
		if value != tt.text || pending {
			t.Errorf("Resolve(%q, %q) = (%q, %v)", tt.text, tt.locale, value, pending)
		}
	}
	if provider.callCount() != 0 {
		t.Errorf("Expected no calls, got %d", provider.callCount())
	}
}

func TestFieldAdapter_SharesCacheWithTranslator(t *testing.T) {
	provider := newMockProvider()
	tr := NewTranslator(provider)
	adapter := NewFieldAdapter(tr)

	if got := adapter.Fetch(context.Background(), "Watch Now", "ar"); got != "شاهد الآن" {
		t.Fatalf("Fetch = %q", got)
	}

	result, err := tr.Translate(context.Background(), map[string]any{"cta": "Watch Now"}, "ar")
	if err != nil {
		t.Fatal(err)
	}
	if result.CachedCount != 1 || provider.callCount() != 1 {
		t.Errorf("CachedCount=%d calls=%d, want 1 and 1", result.CachedCount, provider.callCount())
	}
}

func TestFieldAdapter_FetchCollapsesConcurrentRequests(t *testing.T) {
	provider := newGatedProvider()
	adapter := NewFieldAdapter(NewTranslator(provider))

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = adapter.Fetch(context.Background(), "Welcome", "ar")
		}()
	}

	// Let every caller join the shared request before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(provider.gate("ar"))
	wg.Wait()

	if n := provider.callCount("ar"); n != 1 {
		t.Errorf("Expected 1 call, got %d", n)
	}
	for i, r := range results {
		if r != "ar:Welcome" {
			t.Errorf("result %d = %q", i, r)
		}
	}
}

func TestField_LocaleSwitchDiscardsStaleResult(t *testing.T) {
	provider := newGatedProvider()
	adapter := NewFieldAdapter(NewTranslator(provider))

	changes := make(chan string, 4)
	field := adapter.NewField(func(value string) { changes <- value })
	defer field.Close()

	if got := field.Update("Welcome", "fr"); got != "Welcome" {
		t.Errorf("Update(fr) = %q, want original while pending", got)
	}
	if got := field.Update("Welcome", "de"); got != "Welcome" {
		t.Errorf("Update(de) = %q, want original while pending", got)
	}

	close(provider.gate("de"))
	select {
	case v := <-changes:
		if v != "de:Welcome" {
			t.Errorf("onChange(%q), want de:Welcome", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for de translation")
	}

	// The superseded fr request must never land.
	close(provider.gate("fr"))
	select {
	case v := <-changes:
		t.Errorf("stale onChange(%q)", v)
	case <-time.After(50 * time.Millisecond):
	}
	if got := field.Value(); got != "de:Welcome" {
		t.Errorf("Value = %q", got)
	}
}

func TestField_UpdateSettled(t *testing.T) {
	provider := newMockProvider()
	adapter := NewFieldAdapter(NewTranslator(provider))
	if got := adapter.Fetch(context.Background(), "Hello", "es"); got != "Hola" {
		t.Fatalf("Fetch = %q", got)
	}

	field := adapter.NewField(func(string) { t.Error("unexpected onChange") })
	if got := field.Update("Hello", "es"); got != "Hola" {
		t.Errorf("cached Update = %q", got)
	}
	if got := field.Update("Hello", "en"); got != "Hello" {
		t.Errorf("default locale Update = %q", got)
	}
	if got := field.Update("Hello", "en"); got != "Hello" {
		t.Errorf("repeated Update = %q", got)
	}
}

func TestField_CloseStopsUpdates(t *testing.T) {
	provider := newGatedProvider()
	adapter := NewFieldAdapter(NewTranslator(provider))

	changes := make(chan string, 1)
	field := adapter.NewField(func(value string) { changes <- value })
	field.Update("Welcome", "it")
	field.Close()
	close(provider.gate("it"))

	select {
	case v := <-changes:
		t.Errorf("onChange(%q) after Close", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestField_UpdateAfterCloseRefetches(t *testing.T) {
	provider := newGatedProvider()
	adapter := NewFieldAdapter(NewTranslator(provider))

	changes := make(chan string, 1)
	field := adapter.NewField(func(value string) { changes <- value })
	field.Update("Welcome", "it")
	field.Close()

	if got := field.Update("Welcome", "it"); got != "Welcome" {
		t.Errorf("Update after Close = %q, want original while pending", got)
	}
	close(provider.gate("it"))

	select {
	case v := <-changes:
		if v != "it:Welcome" {
			t.Errorf("onChange(%q), want it:Welcome", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Update after Close never delivered a translation")
	}
	if field.Value() != "it:Welcome" {
		t.Errorf("Value = %q", field.Value())
	}
}

func TestScope_MemoizesWithinPass(t *testing.T) {
	provider := newMockProvider()
	adapter := NewFieldAdapter(NewTranslator(provider))

	scope := adapter.NewScope(context.Background())
	for i := 0; i < 10; i++ {
		if got := scope.Text("Featured", "ar"); got != "Featured" {
			t.Errorf("Text = %q, want original during first pass", got)
		}
	}
	scope.Wait()

	if provider.callCount() != 1 {
		t.Errorf("Expected 1 call, got %d", provider.callCount())
	}

	next := adapter.NewScope(context.Background())
	if got := next.Text("Featured", "ar"); got != "مميز" {
		t.Errorf("next pass Text = %q", got)
	}
}
