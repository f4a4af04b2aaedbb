package memory

import (
	"github.com/deepscout/deepscout/internal/embedding"
	"github.com/deepscout/deepscout/internal/errors"
)

// maxClusterRounds bounds centroid refinement; convergence usually happens
// well before this on run-sized stores.
const maxClusterRounds = 10

// Cluster partitions all stored items into k groups by iterative nearest
// centroid assignment over cosine distance. Centroids are seeded from a
// random sample of items. k greater than the item count reduces to one item
// per group with empty remainder groups; k < 1 is an error.
func (m *Memory) Cluster(k int) ([][]Item, error) {
	if k < 1 {
		return nil, errors.New("cluster count must be at least 1")
	}

	m.mu.RLock()
	items := make([]Item, len(m.items))
	copy(items, m.items)
	m.mu.RUnlock()

	if len(items) == 0 {
		return make([][]Item, k), nil
	}
	if k >= len(items) {
		groups := make([][]Item, k)
		for i, item := range items {
			groups[i] = []Item{item}
		}
		return groups, nil
	}

	centroids := m.seedCentroids(items, k)
	assignment := make([]int, len(items))

	for round := 0; round < maxClusterRounds; round++ {
		changed := false
		for i, item := range items {
			best := nearestCentroid(item.Embedding, centroids)
			if best != assignment[i] || round == 0 {
				assignment[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		centroids = recomputeCentroids(items, assignment, k, centroids)
	}

	groups := make([][]Item, k)
	for i, item := range items {
		groups[assignment[i]] = append(groups[assignment[i]], item)
	}
	return groups, nil
}

// seedCentroids picks k distinct item embeddings at random.
func (m *Memory) seedCentroids(items []Item, k int) [][]float32 {
	m.rngMu.Lock()
	perm := m.rng.Perm(len(items))
	m.rngMu.Unlock()

	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		src := items[perm[i]].Embedding
		c := make([]float32, len(src))
		copy(c, src)
		centroids[i] = c
	}
	return centroids
}

// nearestCentroid returns the index of the centroid with the highest cosine
// similarity to vec. Ties and all-zero comparisons resolve to the lowest
// index, so every item always lands in exactly one group.
func nearestCentroid(vec []float32, centroids [][]float32) int {
	best := 0
	bestSim := embedding.Cosine(vec, centroids[0])
	for i := 1; i < len(centroids); i++ {
		if sim := embedding.Cosine(vec, centroids[i]); sim > bestSim {
			best, bestSim = i, sim
		}
	}
	return best
}

// recomputeCentroids averages the members of each group. Empty groups keep
// their previous centroid rather than collapsing to zero.
func recomputeCentroids(items []Item, assignment []int, k int, prev [][]float32) [][]float32 {
	dims := len(items[0].Embedding)
	sums := make([][]float64, k)
	counts := make([]int, k)
	for i := range sums {
		sums[i] = make([]float64, dims)
	}

	for i, item := range items {
		g := assignment[i]
		counts[g]++
		for d, v := range item.Embedding {
			sums[g][d] += float64(v)
		}
	}

	centroids := make([][]float32, k)
	for g := 0; g < k; g++ {
		if counts[g] == 0 {
			centroids[g] = prev[g]
			continue
		}
		c := make([]float32, dims)
		for d := range c {
			c[d] = float32(sums[g][d] / float64(counts[g]))
		}
		centroids[g] = c
	}
	return centroids
}
