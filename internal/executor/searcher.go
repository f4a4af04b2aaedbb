package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deepscout/deepscout/internal/errors"
	"github.com/deepscout/deepscout/internal/judge"
	"github.com/deepscout/deepscout/internal/logging"
)

// defaultSearchLimit bounds how many hits one search request returns.
const defaultSearchLimit = 8

// Searcher gathers raw hits for a sub-query through a SearchProvider. A
// judgment delegate, when configured, may rewrite the query for better
// recall before it is issued; the rewrite is best-effort and failures fall
// back to the original query.
type Searcher struct {
	provider SearchProvider
	delegate judge.Delegate
	logger   *logging.Logger
	limit    int
}

var _ Executor = (*Searcher)(nil)

// NewSearcher creates a Searcher over the given provider. delegate may be
// nil; the query is then used verbatim.
func NewSearcher(provider SearchProvider, delegate judge.Delegate, logger *logging.Logger) *Searcher {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Searcher{
		provider: provider,
		delegate: delegate,
		logger:   logger.WithRole(string(RoleSearcher)),
		limit:    defaultSearchLimit,
	}
}

// Role returns RoleSearcher.
func (s *Searcher) Role() Role { return RoleSearcher }

// Process optimizes the query, runs the search, and reports the hits. A
// provider failure is a typed executor error; zero hits is a valid result
// with zero confidence, not an error.
func (s *Searcher) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	queryUsed := s.optimize(ctx, req.Query)

	hits, err := s.provider.Search(ctx, queryUsed, s.limit)
	if err != nil {
		return nil, errors.NewExecutorError(string(RoleSearcher), req.Query, err)
	}

	sources := make([]string, 0, len(hits))
	for _, h := range hits {
		sources = append(sources, h.URL)
	}

	confidence := 0.0
	if len(hits) > 0 {
		confidence = 0.7
	}

	s.logger.Debug("search complete", "query", queryUsed, "hits", len(hits))
	return &Result{
		Role:       RoleSearcher,
		Findings:   []Finding{},
		Confidence: confidence,
		Sources:    sources,
		QueryUsed:  queryUsed,
		Hits:       hits,
		Elapsed:    time.Since(start),
	}, nil
}

// optimize asks the delegate for a sharper phrasing of the query. Any
// failure, or an empty rewrite, keeps the original.
func (s *Searcher) optimize(ctx context.Context, query string) string {
	if s.delegate == nil {
		return query
	}

	parsed, err := s.delegate.Judge(ctx, optimizePrompt(query))
	if err != nil {
		s.logger.Debug("query optimization failed, using original", "error", err)
		return query
	}
	if rewritten := strings.TrimSpace(judge.String(parsed, "optimized_query", "")); rewritten != "" {
		return rewritten
	}
	return query
}

func optimizePrompt(query string) string {
	return fmt.Sprintf(`Rewrite the search query for maximum recall on the topic. Keep it short.

Query: %s

Respond with JSON only: {"optimized_query": "..."}`, query)
}
