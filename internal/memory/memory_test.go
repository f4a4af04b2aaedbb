package memory

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/deepscout/deepscout/internal/embedding"
	"github.com/deepscout/deepscout/internal/errors"
	"github.com/deepscout/deepscout/internal/event"
)

func TestStoreAssignsMonotonicIDs(t *testing.T) {
	m := New(nil)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		id, err := m.Store(ctx, fmt.Sprintf("content %d", i), nil)
		if err != nil {
			t.Fatalf("Store() error: %v", err)
		}
		if want := fmt.Sprintf("mem-%d", i); id != want {
			t.Errorf("Store() id = %s, want %s", id, want)
		}
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}

func TestStoreCopiesMetadata(t *testing.T) {
	m := New(nil)
	meta := map[string]string{"source": "test"}

	id, err := m.Store(context.Background(), "content", meta)
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	meta["source"] = "mutated"

	item, err := m.Get(id)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if item.Metadata["source"] != "test" {
		t.Error("stored metadata shares the caller's map")
	}
}

func TestGetMissingItem(t *testing.T) {
	m := New(nil)
	if _, err := m.Get("mem-99"); !errors.Is(err, errors.ErrItemNotFound) {
		t.Errorf("Get() error = %v, want ErrItemNotFound", err)
	}
}

func TestSearchEmptyStore(t *testing.T) {
	m := New(nil)

	matches, err := m.Search(context.Background(), "anything", 5, 0.1)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Search() on empty store = %d matches, want 0", len(matches))
	}
}

func TestSearchExactContentRanksFirst(t *testing.T) {
	m := New(nil)
	ctx := context.Background()

	m.Store(ctx, "solar panel efficiency improvements in laboratories", nil)
	m.Store(ctx, "medieval castle architecture in France", nil)
	targetID, _ := m.Store(ctx, "wind turbine blade design advances", nil)

	matches, err := m.Search(ctx, "wind turbine blade design advances", 3, 0.0)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("Search() returned no matches")
	}
	if matches[0].Item.ID != targetID {
		t.Errorf("top match = %s, want %s (identical content)", matches[0].Item.ID, targetID)
	}
	if matches[0].Similarity < 0.999 {
		t.Errorf("identical content similarity = %v, want ~1.0", matches[0].Similarity)
	}
}

func TestSearchAppliesThresholdAndTopK(t *testing.T) {
	m := New(nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		m.Store(ctx, fmt.Sprintf("solar energy research result number %d", i), nil)
	}

	matches, err := m.Search(ctx, "solar energy research", 2, 0.3)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Search() = %d matches, want topK of 2", len(matches))
	}
	for _, match := range matches {
		if match.Similarity < 0.3 {
			t.Errorf("match %s below threshold: %v", match.Item.ID, match.Similarity)
		}
	}

	// Sorted descending.
	if len(matches) == 2 && matches[0].Similarity < matches[1].Similarity {
		t.Error("matches not sorted by descending similarity")
	}
}

func TestSearchHighThresholdFiltersAll(t *testing.T) {
	m := New(nil)
	ctx := context.Background()
	m.Store(ctx, "completely unrelated topic", nil)

	matches, err := m.Search(ctx, "quantum chromodynamics", 5, 0.95)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Search() = %d matches, want 0 above threshold 0.95", len(matches))
	}
}

func TestFindRelatedExcludesSelf(t *testing.T) {
	m := New(nil)
	ctx := context.Background()

	id, _ := m.Store(ctx, "solar panel efficiency gains", nil)
	m.Store(ctx, "solar panel efficiency records", nil)
	m.Store(ctx, "unrelated gardening advice", nil)

	matches, err := m.FindRelated(ctx, id, 5)
	if err != nil {
		t.Fatalf("FindRelated() error: %v", err)
	}
	for _, match := range matches {
		if match.Item.ID == id {
			t.Fatal("FindRelated() returned the item itself")
		}
	}
	if len(matches) != 2 {
		t.Errorf("FindRelated() = %d matches, want 2 (all others)", len(matches))
	}
}

func TestFindRelatedMissingItem(t *testing.T) {
	m := New(nil)
	if _, err := m.FindRelated(context.Background(), "mem-1", 3); !errors.Is(err, errors.ErrItemNotFound) {
		t.Errorf("FindRelated() error = %v, want ErrItemNotFound", err)
	}
}

func TestClusterPartitionsAllItems(t *testing.T) {
	m := New(nil, WithRand(rand.New(rand.NewSource(42))))
	ctx := context.Background()

	texts := []string{
		"solar panel efficiency laboratory results",
		"solar energy photovoltaic installations",
		"solar power generation capacity",
		"medieval castle defensive architecture",
		"medieval fortress stone construction",
		"castle moat and drawbridge design",
	}
	for _, text := range texts {
		if _, err := m.Store(ctx, text, nil); err != nil {
			t.Fatalf("Store() error: %v", err)
		}
	}

	groups, err := m.Cluster(2)
	if err != nil {
		t.Fatalf("Cluster() error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("Cluster() returned %d groups, want 2", len(groups))
	}

	seen := make(map[string]int)
	total := 0
	for _, group := range groups {
		for _, item := range group {
			seen[item.ID]++
			total++
		}
	}
	if total != len(texts) {
		t.Errorf("clusters hold %d items, want all %d", total, len(texts))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("item %s appears in %d groups, want exactly 1", id, n)
		}
	}
}

func TestClusterDeterministicWithSeed(t *testing.T) {
	build := func() [][]Item {
		m := New(nil, WithRand(rand.New(rand.NewSource(7))))
		ctx := context.Background()
		for i := 0; i < 6; i++ {
			m.Store(ctx, fmt.Sprintf("topic %d content words here", i%2), nil)
		}
		groups, err := m.Cluster(2)
		if err != nil {
			t.Fatalf("Cluster() error: %v", err)
		}
		return groups
	}

	a, b := build(), build()
	for g := range a {
		if len(a[g]) != len(b[g]) {
			t.Fatalf("group %d sizes differ across identical seeded runs: %d vs %d", g, len(a[g]), len(b[g]))
		}
	}
}

func TestClusterMoreGroupsThanItems(t *testing.T) {
	m := New(nil)
	ctx := context.Background()
	m.Store(ctx, "only item one", nil)
	m.Store(ctx, "only item two", nil)

	groups, err := m.Cluster(5)
	if err != nil {
		t.Fatalf("Cluster() error: %v", err)
	}
	if len(groups) != 5 {
		t.Fatalf("Cluster() returned %d groups, want 5", len(groups))
	}
	nonEmpty := 0
	for _, g := range groups {
		if len(g) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty != 2 {
		t.Errorf("%d non-empty groups, want 2 (one per item)", nonEmpty)
	}
}

func TestClusterEmptyStore(t *testing.T) {
	m := New(nil)
	groups, err := m.Cluster(3)
	if err != nil {
		t.Fatalf("Cluster() error: %v", err)
	}
	if len(groups) != 3 {
		t.Errorf("Cluster() on empty store returned %d groups, want 3 empty ones", len(groups))
	}
}

func TestClusterInvalidK(t *testing.T) {
	m := New(nil)
	if _, err := m.Cluster(0); err == nil {
		t.Error("Cluster(0) should error")
	}
}

func TestStatsReflectsState(t *testing.T) {
	provider := embedding.NewCachedProvider(embedding.NewHashedProvider(64), 10)
	m := New(provider)
	ctx := context.Background()

	m.Store(ctx, "first", nil)
	m.Store(ctx, "second", nil)

	stats := m.Stats()
	if stats.ItemCount != 2 {
		t.Errorf("ItemCount = %d, want 2", stats.ItemCount)
	}
	if stats.CacheSize != 2 {
		t.Errorf("CacheSize = %d, want 2", stats.CacheSize)
	}
	if stats.Dimensions != 64 {
		t.Errorf("Dimensions = %d, want 64", stats.Dimensions)
	}
	if stats.Provider != "hashed" {
		t.Errorf("Provider = %q, want hashed", stats.Provider)
	}
}

func TestStorePublishesEvent(t *testing.T) {
	bus := event.NewBus()
	var gotID string
	bus.Subscribe("memory.stored", func(e event.Event) {
		gotID = e.(event.MemoryStoredEvent).ItemID
	})

	m := New(nil, WithBus(bus))
	id, err := m.Store(context.Background(), "content", nil)
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	if gotID != id {
		t.Errorf("event carried id %q, want %q", gotID, id)
	}
}
