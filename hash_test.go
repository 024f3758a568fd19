package dyntl

import (
	"strconv"
	"strings"
	"testing"
)

func TestHashText(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "simple text", input: "Hello World"},
		{name: "arabic text", input: "شاهد الآن"},
		{name: "empty string", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := HashText(tt.input)
			second := HashText(tt.input)
			if first != second {
				t.Errorf("HashText(%q) not deterministic: %q vs %q", tt.input, first, second)
			}
			if _, err := strconv.ParseUint(first, 36, 64); err != nil {
				t.Errorf("HashText(%q) = %q is not a base-36 uint64: %v", tt.input, first, err)
			}
		})
	}
}

func TestHashText_WhitespaceIsSignificant(t *testing.T) {
	// Leaves are substituted verbatim, so padded text is a distinct source.
	if HashText("Hello") == HashText(" Hello ") {
		t.Error("HashText should distinguish padded text")
	}
}

func TestDeriveKey(t *testing.T) {
	key := DeriveKey("Welcome", "ar")
	if !strings.HasPrefix(key, "ar:") {
		t.Errorf("DeriveKey() = %q, want ar: prefix", key)
	}
	if key != DeriveKey("Welcome", "AR") {
		t.Error("DeriveKey should normalize the locale")
	}
	if key == DeriveKey("Welcome", "fr") {
		t.Error("DeriveKey should namespace by locale")
	}
	if key == DeriveKey("Welcome!", "ar") {
		t.Error("DeriveKey should differ for different text")
	}
}

func TestDeriveKey_NoCollisionsInCorpus(t *testing.T) {
	seen := make(map[string]string)
	for i := 0; i < 10000; i++ {
		text := "Featured story number " + strconv.Itoa(i)
		key := DeriveKey(text, "es_ES")
		if prev, ok := seen[key]; ok {
			t.Fatalf("collision between %q and %q", prev, text)
		}
		seen[key] = text
	}
}

func TestCacheKey(t *testing.T) {
	result := CacheKey("abc123", "es_ES")
	expected := "es-ES:abc123"

	if result != expected {
		t.Errorf("CacheKey() = %q, want %q", result, expected)
	}
}
