package appconfig

import (
	"fmt"
	"sync"
	"time"

	"github.com/blockberries/dango/types"
)

// Key identifies one cached registry: the client it was fetched through
// and the height it was fetched at (0 = latest).
type Key struct {
	ClientID string
	Height   types.Height
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%d", k.ClientID, k.Height)
}

// Cache stores registries by Key. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(key Key) (types.AppConfig, bool)
	Set(key Key, cfg types.AppConfig)
	Delete(key Key)
	Clear()
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = NoopCache{}
)

type cacheEntry struct {
	cfg      types.AppConfig
	cachedAt time.Time
}

type memoryCacheConfig struct {
	maxKeys   int64
	latestTTL time.Duration
	now       func() time.Time
}

// MemoryCacheOption customizes a MemoryCache.
type MemoryCacheOption func(*memoryCacheConfig) error

// WithMaxKeys bounds the number of cached registries. Once exceeded,
// the oldest entry is evicted. 0 disables the bound.
func WithMaxKeys(n int64) MemoryCacheOption {
	return func(c *memoryCacheConfig) error {
		if n < 0 {
			return fmt.Errorf("max keys must be non-negative, got %d", n)
		}
		c.maxKeys = n
		return nil
	}
}

// WithLatestTTL expires registries cached for height 0 after d.
// Historical heights never expire. 0 disables expiry.
func WithLatestTTL(d time.Duration) MemoryCacheOption {
	return func(c *memoryCacheConfig) error {
		if d < 0 {
			return fmt.Errorf("latest TTL must be non-negative, got %s", d)
		}
		c.latestTTL = d
		return nil
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryCacheOption {
	return func(c *memoryCacheConfig) error {
		c.now = now
		return nil
	}
}

// MemoryCache is a concurrency-safe in-memory Cache with FIFO eviction.
type MemoryCache struct {
	config memoryCacheConfig

	mu     sync.RWMutex
	values map[Key]cacheEntry
}

// NewMemoryCache creates a MemoryCache. Without WithMaxKeys it is
// unbounded, so every registry stays cached for the cache's lifetime.
func NewMemoryCache(opts ...MemoryCacheOption) (*MemoryCache, error) {
	config := memoryCacheConfig{
		now: time.Now,
	}
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}
	return &MemoryCache{
		config: config,
		values: make(map[Key]cacheEntry),
	}, nil
}

// Get returns the registry cached under key, if present and not
// expired.
func (c *MemoryCache) Get(key Key) (types.AppConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.values[key]
	if !ok {
		return nil, false
	}
	// Expired entries are left for the next Set or eviction to overwrite.
	if key.Height == types.LatestHeight && c.config.latestTTL > 0 &&
		c.config.now().Sub(entry.cachedAt) > c.config.latestTTL {
		return nil, false
	}
	return entry.cfg, true
}

// Set caches cfg under key, evicting the oldest entry if the cache is
// full.
func (c *MemoryCache) Set(key Key, cfg types.AppConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[key] = cacheEntry{cfg: cfg, cachedAt: c.config.now()}
	c.evict()
}

func (c *MemoryCache) Delete(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[Key]cacheEntry)
}

// Len returns the number of cached entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// evict drops the oldest entry once maxKeys is exceeded. Callers hold
// the write lock.
func (c *MemoryCache) evict() {
	if c.config.maxKeys <= 0 || int64(len(c.values)) <= c.config.maxKeys {
		return
	}
	var (
		first      = true
		oldestKey  Key
		oldestTime time.Time
	)
	for key, entry := range c.values {
		if first || entry.cachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.cachedAt
		}
		first = false
	}
	delete(c.values, oldestKey)
}

// NoopCache caches nothing: every lookup is a miss.
type NoopCache struct{}

func (NoopCache) Get(Key) (types.AppConfig, bool) { return nil, false }
func (NoopCache) Set(Key, types.AppConfig)        {}
func (NoopCache) Delete(Key)                      {}
func (NoopCache) Clear()                          {}
