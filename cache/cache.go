// Package cache provides the translation cache tiers: an in-memory fast
// tier, durable tiers backed by Redis or a local file, and DualTierCache
// which composes one of each.
package cache

import (
	"errors"
	"fmt"
)

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	// Get retrieves a cached translation. Returns empty string and false if not found or expired.
	Get(key string) (string, bool)

	// Set stores a translation in the cache.
	Set(key string, value string) error
}

// Enumerable is a cache that can list its live entries.
type Enumerable interface {
	TranslationCache
	Entries() map[string]string
}

// ErrQuotaExceeded is returned by durable tiers that refuse new entries.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// StorageError indicates a durable-tier operation failure.
type StorageError struct {
	Op    string // "get", "set", "load", "persist"
	Key   string
	Cause error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Cause)
	}
	return fmt.Sprintf("cache %s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}
