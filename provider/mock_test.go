package provider

import (
	"context"
	"errors"
	"testing"
)

func TestMockProvider(t *testing.T) {
	m := NewMockProvider()

	out, err := m.Translate(context.Background(), TranslateRequest{Text: "Hello", TargetLang: "es"})
	if err != nil {
		t.Fatalf("MockProvider.Translate failed: %v", err)
	}
	if out != "Hola" {
		t.Errorf("Expected 'Hola', got %q", out)
	}

	out, _ = m.Translate(context.Background(), TranslateRequest{Text: "Unknown text", TargetLang: "es"})
	if out != "[es] Unknown text" {
		t.Errorf("Expected '[es] Unknown text', got %q", out)
	}

	if m.CallCount() != 2 {
		t.Errorf("Expected CallCount 2, got %d", m.CallCount())
	}
	if calls := m.Calls(); calls[1].Text != "Unknown text" {
		t.Errorf("unexpected calls %+v", calls)
	}

	m.Reset()
	if m.CallCount() != 0 {
		t.Error("Reset should clear calls")
	}
}

func TestMockProvider_Err(t *testing.T) {
	m := NewMockProvider()
	m.Err = errors.New("down")

	if _, err := m.Translate(context.Background(), TranslateRequest{Text: "Hello"}); err == nil {
		t.Error("Expected error")
	}
}
