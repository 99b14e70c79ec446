package resultcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shieldgate/shieldgate/pkg/types"
)

type ttlEntry struct {
	result    *types.SecurityResult
	expiresAt time.Time
}

// MemoryClient is an in-process backend with per-entry TTL. Expired entries
// are dropped lazily on read.
type MemoryClient struct {
	mu      sync.RWMutex
	entries map[string]*ttlEntry
	ttl     time.Duration

	hits   int64
	misses int64
}

func NewMemoryClient(defaultTTL time.Duration) *MemoryClient {
	return &MemoryClient{
		entries: make(map[string]*ttlEntry),
		ttl:     defaultTTL,
	}
}

func (c *MemoryClient) Get(_ context.Context, text string, direction types.Direction) (*types.SecurityResult, error) {
	key := Key(text, direction)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && time.Now().After(current.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		atomic.AddInt64(&c.misses, 1)
		return nil, ErrNotFound
	}

	atomic.AddInt64(&c.hits, 1)
	return entry.result, nil
}

func (c *MemoryClient) Set(_ context.Context, text string, direction types.Direction, result *types.SecurityResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key(text, direction)] = &ttlEntry{
		result:    result,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *MemoryClient) ClearAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*ttlEntry)
	return nil
}

func (c *MemoryClient) HealthCheck(_ context.Context) error {
	return nil
}

func (c *MemoryClient) Statistics(_ context.Context) map[string]interface{} {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()

	return map[string]interface{}{
		"backend": "memory",
		"entries": size,
		"hits":    atomic.LoadInt64(&c.hits),
		"misses":  atomic.LoadInt64(&c.misses),
	}
}
