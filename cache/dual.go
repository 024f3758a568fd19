package cache

import (
	"fmt"

	"github.com/rs/zerolog"
)

// lookuper is implemented by durable tiers that can tell a miss from a
// failed read.
type lookuper interface {
	Lookup(key string) (string, bool, error)
}

// DualTierCache reads the fast tier first and falls back to the durable
// tier, backfilling the fast tier on a durable hit. Writes go to both.
//
// Durable-tier failures, including panics from a misbehaving store, are
// logged and swallowed: the cache then behaves as fast-tier only for that
// operation. A Set followed by a Get always sees the value.
type DualTierCache struct {
	fast    TranslationCache
	durable TranslationCache
	logger  zerolog.Logger
}

// DualOption configures a DualTierCache.
type DualOption func(*DualTierCache)

// WithLogger sets the logger used for swallowed durable-tier failures.
func WithLogger(logger zerolog.Logger) DualOption {
	return func(c *DualTierCache) {
		c.logger = logger
	}
}

// NewDualTierCache composes a fast and a durable tier. A nil fast tier
// becomes an unbounded InMemoryCache; a nil durable tier is allowed.
func NewDualTierCache(fast, durable TranslationCache, opts ...DualOption) *DualTierCache {
	if fast == nil {
		fast = NewInMemoryCache(0)
	}

	c := &DualTierCache{
		fast:    fast,
		durable: durable,
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get checks the fast tier, then the durable tier.
func (c *DualTierCache) Get(key string) (string, bool) {
	if val, ok := c.fast.Get(key); ok {
		return val, true
	}

	if c.durable == nil {
		return "", false
	}

	val, ok, err := c.durableGet(key)
	if err != nil {
		c.logger.Debug().
			Str("key", key).
			Err(err).
			Msg("Durable cache read failed, treating as miss")
		return "", false
	}
	if !ok {
		return "", false
	}

	_ = c.fast.Set(key, val)
	return val, true
}

// Set writes both tiers. Only a fast-tier failure is returned.
func (c *DualTierCache) Set(key string, value string) error {
	if err := c.fast.Set(key, value); err != nil {
		return err
	}

	if c.durable == nil {
		return nil
	}

	if err := c.durableSet(key, value); err != nil {
		c.logger.Warn().
			Str("key", key).
			Err(err).
			Msg("Durable cache write failed, continuing with fast tier")
	}
	return nil
}

func (c *DualTierCache) durableGet(key string) (val string, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			val, ok, err = "", false, &StorageError{Op: "get", Key: key, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	if l, isLookuper := c.durable.(lookuper); isLookuper {
		return l.Lookup(key)
	}
	val, ok = c.durable.Get(key)
	return val, ok, nil
}

func (c *DualTierCache) durableSet(key, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &StorageError{Op: "set", Key: key, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	return c.durable.Set(key, value)
}

// Entries returns the fast tier's entries when it is enumerable.
func (c *DualTierCache) Entries() map[string]string {
	if e, ok := c.fast.(Enumerable); ok {
		return e.Entries()
	}
	return map[string]string{}
}

// Durable returns the durable tier, which may be nil.
func (c *DualTierCache) Durable() TranslationCache {
	return c.durable
}

// Verify DualTierCache implements Enumerable
var _ Enumerable = (*DualTierCache)(nil)
