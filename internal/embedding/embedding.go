// Package embedding defines the text embedding boundary of semantic memory
// and an offline provider so the engine runs with no external service.
package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Provider turns text into a fixed-dimension vector. Implementations must be
// safe for concurrent use.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Name() string
}

// defaultDimensions is the vector size of the offline provider.
const defaultDimensions = 256

// HashedProvider is a deterministic offline Provider: each word hashes to a
// dimension index, the vector accumulates word frequencies, and the result
// is L2-normalized. No network, no model weights, identical text always
// embeds identically.
type HashedProvider struct {
	dims int
}

var _ Provider = (*HashedProvider)(nil)

// NewHashedProvider creates a HashedProvider. dims <= 0 selects the default.
func NewHashedProvider(dims int) *HashedProvider {
	if dims <= 0 {
		dims = defaultDimensions
	}
	return &HashedProvider{dims: dims}
}

// Name identifies the provider in stats and logs.
func (p *HashedProvider) Name() string { return "hashed" }

// Dimensions returns the vector size.
func (p *HashedProvider) Dimensions() int { return p.dims }

// Embed builds the normalized hashed word-frequency vector. Text with no
// words embeds as the zero vector.
func (p *HashedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, p.dims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()[]")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%uint32(p.dims)]++
	}

	normalize(vec)
	return vec, nil
}

// normalize scales vec to unit length in place. Zero vectors stay zero.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

// Cosine returns the cosine similarity of two vectors. Mismatched lengths
// and zero vectors compare as 0; there is no division by zero path.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
