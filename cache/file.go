package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"
)

const fileFormatVersion = "1.0"

// fileContents is the on-disk layout of a FileCache.
type fileContents struct {
	Version string            `json:"version"`
	Entries map[string]string `json:"entries"`
}

// DefaultFlushInterval is how often a FileCache writes pending changes.
const DefaultFlushInterval = time.Second

// FileConfig holds configuration for the file cache.
type FileConfig struct {
	Path          string        // JSON file location; parent directories are created
	MaxEntries    int           // Quota; 0 means unlimited
	FlushInterval time.Duration // 0 means DefaultFlushInterval; negative disables background flushing
}

// FileCache is a durable translation tier persisted to a local JSON file,
// scoped to one device or user profile. Sets only touch memory; changes are
// written in one atomic rewrite per flush interval and on Close, so a crash
// never leaves a torn file behind and loses at most one interval of writes.
type FileCache struct {
	path       string
	maxEntries int

	mu    sync.RWMutex
	data  map[string]string
	dirty bool

	flushMu   sync.Mutex
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewFileCache opens (or lazily creates) the cache file at cfg.Path.
// A missing file is an empty cache; an unreadable or corrupt file is an error.
// Call Close to write outstanding changes.
func NewFileCache(cfg FileConfig) (*FileCache, error) {
	c := &FileCache{
		path:       cfg.Path,
		maxEntries: cfg.MaxEntries,
		data:       make(map[string]string),
	}

	raw, err := os.ReadFile(cfg.Path) // #nosec G304 - path comes from operator configuration
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &StorageError{Op: "load", Cause: err}
	}
	if err == nil {
		var contents fileContents
		if err := json.Unmarshal(raw, &contents); err != nil {
			return nil, &StorageError{Op: "load", Cause: err}
		}
		if contents.Entries != nil {
			c.data = contents.Entries
		}
	}

	interval := cfg.FlushInterval
	if interval == 0 {
		interval = DefaultFlushInterval
	}
	if interval > 0 {
		c.stop = make(chan struct{})
		c.done = make(chan struct{})
		go c.flushLoop(interval)
	}

	return c, nil
}

func (c *FileCache) flushLoop(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// A failed write leaves the cache dirty; the next tick retries.
			_ = c.Flush()
		case <-c.stop:
			return
		}
	}
}

// Get retrieves a value from the file-backed map.
func (c *FileCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.data[key]
	return val, ok
}

// Set stores a value; it reaches disk on the next flush. New keys beyond
// MaxEntries are rejected with ErrQuotaExceeded; overwriting an existing
// key is allowed.
func (c *FileCache) Set(key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, existed := c.data[key]
	if !existed && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		return &StorageError{Op: "set", Key: key, Cause: ErrQuotaExceeded}
	}
	if existed && prev == value {
		return nil
	}

	c.data[key] = value
	c.dirty = true
	return nil
}

// Flush writes pending changes to disk. It is a no-op when nothing changed.
func (c *FileCache) Flush() error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	payload, err := json.Marshal(fileContents{Version: fileFormatVersion, Entries: c.data})
	c.dirty = false
	c.mu.Unlock()

	if err == nil {
		err = c.write(payload)
	}
	if err != nil {
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
		return &StorageError{Op: "persist", Cause: err}
	}
	return nil
}

func (c *FileCache) write(payload []byte) error {
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return atomic.WriteFile(c.path, bytes.NewReader(payload))
}

// Close stops background flushing and writes outstanding changes.
func (c *FileCache) Close() error {
	c.closeOnce.Do(func() {
		if c.stop != nil {
			close(c.stop)
			<-c.done
		}
	})
	return c.Flush()
}

// Len returns the number of stored entries.
func (c *FileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Entries returns a copy of all stored entries.
func (c *FileCache) Entries() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]string, len(c.data))
	for k, v := range c.data {
		result[k] = v
	}
	return result
}

// Path returns the backing file location.
func (c *FileCache) Path() string {
	return c.path
}

// Verify FileCache implements Enumerable
var _ Enumerable = (*FileCache)(nil)
