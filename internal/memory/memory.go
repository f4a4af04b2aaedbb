// Package memory implements the engine's semantic memory: an in-memory store
// of findings searchable by meaning rather than keywords. Items are immutable
// once stored; all similarity is cosine over provider embeddings.
package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/deepscout/deepscout/internal/embedding"
	"github.com/deepscout/deepscout/internal/errors"
	"github.com/deepscout/deepscout/internal/event"
)

// Item is one stored memory entry. Immutable after Store returns.
type Item struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
	StoredAt  time.Time
}

// Match pairs an item with its similarity to a search query.
type Match struct {
	Item       Item
	Similarity float64
}

// Memory is the semantic store. Safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	items    []Item
	byID     map[string]int
	seq      int
	provider embedding.Provider
	bus      *event.Bus
	rng      *rand.Rand
	rngMu    sync.Mutex
}

// Option configures a Memory.
type Option func(*Memory)

// WithRand sets the random source used for cluster seeding, making
// clustering reproducible in tests.
func WithRand(rng *rand.Rand) Option {
	return func(m *Memory) { m.rng = rng }
}

// WithBus publishes memory.stored events to the given bus.
func WithBus(bus *event.Bus) Option {
	return func(m *Memory) { m.bus = bus }
}

// New creates a Memory over the given embedding provider. A nil provider
// selects the offline hashed provider behind a bounded cache.
func New(provider embedding.Provider, opts ...Option) *Memory {
	if provider == nil {
		provider = embedding.NewCachedProvider(embedding.NewHashedProvider(0), 0)
	}
	m := &Memory{
		byID:     make(map[string]int),
		provider: provider,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store embeds content and appends it as a new immutable item, returning the
// assigned monotonic id.
func (m *Memory) Store(ctx context.Context, content string, metadata map[string]string) (string, error) {
	vec, err := m.provider.Embed(ctx, content)
	if err != nil {
		return "", errors.Wrapf(err, "embed content")
	}

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	m.mu.Lock()
	m.seq++
	id := fmt.Sprintf("mem-%d", m.seq)
	m.byID[id] = len(m.items)
	m.items = append(m.items, Item{
		ID:        id,
		Content:   content,
		Metadata:  meta,
		Embedding: vec,
		StoredAt:  time.Now(),
	})
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(event.NewMemoryStoredEvent(id))
	}
	return id, nil
}

// Get returns the item with the given id.
func (m *Memory) Get(id string) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.byID[id]
	if !ok {
		return Item{}, errors.Wrapf(errors.ErrItemNotFound, "id %s", id)
	}
	return m.items[idx], nil
}

// Len returns the number of stored items.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Search returns up to topK items whose similarity to the query is at least
// threshold, sorted by descending similarity with ties broken by recency.
// An empty store yields an empty result.
func (m *Memory) Search(ctx context.Context, query string, topK int, threshold float64) ([]Match, error) {
	vec, err := m.provider.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "embed query")
	}
	return m.searchByVector(vec, topK, threshold, ""), nil
}

// FindRelated returns up to topK items most similar to the stored item,
// excluding the item itself. No threshold applies.
func (m *Memory) FindRelated(ctx context.Context, id string, topK int) ([]Match, error) {
	item, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return m.searchByVector(item.Embedding, topK, -1, id), nil
}

// searchByVector ranks all items against vec. excludeID skips one item;
// threshold below -1 disables filtering.
func (m *Memory) searchByVector(vec []float32, topK int, threshold float64, excludeID string) []Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.items))
	for _, item := range m.items {
		if item.ID == excludeID {
			continue
		}
		sim := embedding.Cosine(vec, item.Embedding)
		if sim < threshold {
			continue
		}
		matches = append(matches, Match{Item: item, Similarity: sim})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Item.StoredAt.After(matches[j].Item.StoredAt)
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// Stats is a snapshot of memory state for reports and logs.
type Stats struct {
	ItemCount  int    `yaml:"item_count"`
	CacheSize  int    `yaml:"cache_size"`
	Dimensions int    `yaml:"dimensions"`
	Provider   string `yaml:"provider"`
}

// Stats returns the current memory statistics.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	count := len(m.items)
	m.mu.RUnlock()

	cacheSize := 0
	if cached, ok := m.provider.(*embedding.CachedProvider); ok {
		cacheSize = cached.Size()
	}
	return Stats{
		ItemCount:  count,
		CacheSize:  cacheSize,
		Dimensions: m.provider.Dimensions(),
		Provider:   m.provider.Name(),
	}
}
