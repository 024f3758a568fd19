package dyntl

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// HashText computes a compact, stable, non-cryptographic hash of text.
//
// The 64-bit xxhash space makes accidental collisions negligible for
// realistic content corpora. A collision would surface one wrong cached
// translation; it cannot corrupt a payload.
func HashText(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(text), 36)
}

// DeriveKey generates the cache key for a (text, locale) pair. The
// normalized locale namespaces the hash so the same text cached for two
// locales never shares a key.
func DeriveKey(text, locale string) string {
	return CacheKey(HashText(text), locale)
}

// CacheKey joins a text hash with its locale namespace.
func CacheKey(hash, locale string) string {
	return NormalizeLocale(locale) + ":" + hash
}

// namespacedKey is DeriveKey for a locale that is already normalized.
func namespacedKey(ns, text string) string {
	return ns + ":" + HashText(text)
}
