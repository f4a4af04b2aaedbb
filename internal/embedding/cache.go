package embedding

import (
	"context"
	"sync"
)

// defaultCacheSize bounds the cached provider when no size is given.
const defaultCacheSize = 512

// CachedProvider wraps a Provider with a bounded per-content cache. Eviction
// is FIFO by insertion order; the findings a run re-embeds most (for search
// and clustering) are recent anyway.
type CachedProvider struct {
	inner Provider

	mu      sync.Mutex
	cache   map[string][]float32
	order   []string
	maxSize int
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider wraps inner with a cache of at most maxSize entries.
// maxSize <= 0 selects the default.
func NewCachedProvider(inner Provider, maxSize int) *CachedProvider {
	if maxSize <= 0 {
		maxSize = defaultCacheSize
	}
	return &CachedProvider{
		inner:   inner,
		cache:   make(map[string][]float32),
		maxSize: maxSize,
	}
}

// Name identifies the wrapped provider.
func (c *CachedProvider) Name() string { return c.inner.Name() }

// Dimensions returns the wrapped provider's vector size.
func (c *CachedProvider) Dimensions() int { return c.inner.Dimensions() }

// Embed returns the cached vector when present, otherwise delegates and
// caches the result. Errors are never cached.
func (c *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	if vec, ok := c.cache[text]; ok {
		c.mu.Unlock()
		return vec, nil
	}
	c.mu.Unlock()

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.cache[text]; !ok {
		if len(c.order) >= c.maxSize {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.cache, oldest)
		}
		c.cache[text] = vec
		c.order = append(c.order, text)
	}
	return vec, nil
}

// Size returns the current number of cached entries.
func (c *CachedProvider) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}
