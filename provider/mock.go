package provider

import (
	"context"
	"sync"
	"time"
)

// MockProvider is a mock provider for tests and dry runs. It is safe for
// concurrent use.
type MockProvider struct {
	Translations map[string]string // Map of source text to translation
	Err          error             // Returned from every call when set
	Delay        time.Duration     // Simulated latency

	mu    sync.Mutex
	calls []TranslateRequest
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello":     "Hola",
			"Welcome":   "Bienvenido",
			"Watch Now": "Ver ahora",
		},
	}
}

// Translate returns the mapped translation, or the text prefixed with the
// target locale when there is none.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.Err != nil {
		return "", m.Err
	}

	if translation, ok := m.Translations[req.Text]; ok {
		return translation, nil
	}
	return "[" + req.TargetLang + "] " + req.Text, nil
}

// CallCount returns the number of Translate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of every request received.
func (m *MockProvider) Calls() []TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TranslateRequest(nil), m.calls...)
}

// Reset forgets recorded calls.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

var _ Provider = (*MockProvider)(nil)
