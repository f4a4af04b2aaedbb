package executor

import (
	"context"
	"sort"
	"strings"
)

// SearchHit is one raw result from a search provider.
type SearchHit struct {
	Title   string
	URL     string
	Snippet string
	Score   float64
}

// SearchProvider supplies raw hits for a query. Implementations must be safe
// for concurrent use; the orchestrator fans searches out across workers.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
	Name() string
}

// CorpusDoc is one document of an offline corpus.
type CorpusDoc struct {
	Title string
	URL   string
	Body  string
}

// CorpusProvider is a deterministic offline SearchProvider backed by an
// in-memory document corpus. Scoring is term overlap between the query and
// the document body; no network, no state.
type CorpusProvider struct {
	docs []CorpusDoc
}

var _ SearchProvider = (*CorpusProvider)(nil)

// NewCorpusProvider creates a provider over the given documents.
func NewCorpusProvider(docs []CorpusDoc) *CorpusProvider {
	return &CorpusProvider{docs: docs}
}

// Name identifies the provider in logs and stats.
func (p *CorpusProvider) Name() string { return "corpus" }

// Search scores every document by query-term overlap and returns the top
// matches. Documents sharing no term with the query are omitted.
func (p *CorpusProvider) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	hits := make([]SearchHit, 0, len(p.docs))
	for _, doc := range p.docs {
		score := overlapScore(terms, tokenize(doc.Title+" "+doc.Body))
		if score == 0 {
			continue
		}
		hits = append(hits, SearchHit{
			Title:   doc.Title,
			URL:     doc.URL,
			Snippet: snippet(doc.Body, 200),
			Score:   score,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func tokenize(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?\"'()[]")
		if len(w) > 2 {
			out[w] = true
		}
	}
	return out
}

// overlapScore is the fraction of query terms present in the document.
func overlapScore(query, doc map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	matched := 0
	for t := range query {
		if doc[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(query))
}

func snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
