package dyntl

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// gaugeProvider records the peak number of concurrent calls
type gaugeProvider struct {
	delay    time.Duration
	inFlight int64
	peak     int64
	calls    int64
}

func (p *gaugeProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	atomic.AddInt64(&p.calls, 1)
	n := atomic.AddInt64(&p.inFlight, 1)
	defer atomic.AddInt64(&p.inFlight, -1)

	for {
		peak := atomic.LoadInt64(&p.peak)
		if n <= peak || atomic.CompareAndSwapInt64(&p.peak, peak, n) {
			break
		}
	}

	time.Sleep(p.delay)
	return "T:" + req.Text, nil
}

func manyStrings(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = fmt.Sprintf("Item number %d", i)
	}
	return out
}

func TestTranslateUnique_ConcurrencyBound(t *testing.T) {
	provider := &gaugeProvider{delay: 10 * time.Millisecond}
	tr := NewTranslator(provider, WithConcurrency(3))

	result, err := tr.Translate(context.Background(), manyStrings(20), "de")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}

	if got := atomic.LoadInt64(&provider.calls); got != 20 {
		t.Errorf("Expected 20 calls, got %d", got)
	}
	if peak := atomic.LoadInt64(&provider.peak); peak > 3 {
		t.Errorf("Expected at most 3 concurrent calls, saw %d", peak)
	}
	if result.TranslatedCount != 20 {
		t.Errorf("TranslatedCount = %d, want 20", result.TranslatedCount)
	}
	for i, v := range result.Data.([]any) {
		if want := fmt.Sprintf("T:Item number %d", i); v != want {
			t.Errorf("item %d = %v, want %q", i, v, want)
		}
	}
}

func TestTranslateUnique_FasterThanSequential(t *testing.T) {
	provider := &gaugeProvider{delay: 20 * time.Millisecond}
	tr := NewTranslator(provider, WithConcurrency(10))

	start := time.Now()
	if _, err := tr.Translate(context.Background(), manyStrings(10), "de"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	elapsed := time.Since(start)

	// Sequential would take at least 200ms.
	if elapsed > 150*time.Millisecond {
		t.Errorf("Expected concurrent calls, took %v", elapsed)
	}
}

func TestTranslate_ConcurrentCallers(t *testing.T) {
	provider := newMockProvider()
	tr := NewTranslator(provider)

	payload := map[string]any{"title": "Welcome", "cta": "Watch Now"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := tr.Translate(context.Background(), payload, "ar")
			if err != nil {
				t.Errorf("Translate failed: %v", err)
				return
			}
			if got := result.Data.(map[string]any)["title"]; got != "مرحبا" {
				t.Errorf("title = %v", got)
			}
		}()
	}
	wg.Wait()

	// Concurrent passes may each miss, but never more than once per pass.
	if n := provider.callCount(); n < 2 || n > 32 {
		t.Errorf("unexpected call count %d", n)
	}
}

func BenchmarkTranslateUnique(b *testing.B) {
	provider := &gaugeProvider{}
	payload := manyStrings(100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr := NewTranslator(provider)
		_, _ = tr.Translate(context.Background(), payload, "de")
	}
}
