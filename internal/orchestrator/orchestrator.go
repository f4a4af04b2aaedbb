// Package orchestrator runs batches of research subtasks concurrently. Each
// subtask searches and then analyzes one query; the batch result preserves
// input order and isolates failures to their own slot, so a stuck or failing
// query can never take the batch down with it.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/deepscout/deepscout/internal/errors"
	"github.com/deepscout/deepscout/internal/event"
	"github.com/deepscout/deepscout/internal/executor"
	"github.com/deepscout/deepscout/internal/logging"
)

// Defaults applied when an Option does not override them.
const (
	DefaultPoolSize     = 5
	DefaultMaxBatchSize = 3
	DefaultTaskTimeout  = 30 * time.Second
)

// TaskResult is the per-query outcome of a batch. Exactly one TaskResult
// exists per input query, in input order. Failed slots carry Err and empty
// evidence; they are never dropped.
type TaskResult struct {
	Query          string
	QueryUsed      string
	Findings       []executor.Finding
	Sources        []string
	Hits           []executor.SearchHit
	Gaps           []string
	Contradictions []string
	Confidence     float64
	Elapsed        time.Duration
	Err            error
}

// Success reports whether the subtask completed without substitution.
func (r TaskResult) Success() bool { return r.Err == nil }

// Orchestrator dispatches search-then-analyze subtasks over a bounded worker
// pool. Safe for concurrent RunBatch calls; the semaphore bounds concurrency
// across all of them.
type Orchestrator struct {
	registry *executor.Registry
	bus      *event.Bus
	logger   *logging.Logger
	metrics  *executor.Metrics

	sem          *semaphore.Weighted
	maxBatchSize int
	taskTimeout  time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPoolSize bounds how many subtasks run concurrently.
func WithPoolSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithMaxBatchSize caps how many queries one RunBatch call accepts; extra
// queries are truncated before dispatch.
func WithMaxBatchSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxBatchSize = n
		}
	}
}

// WithTaskTimeout sets the per-subtask deadline.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.taskTimeout = d
		}
	}
}

// New creates an Orchestrator over the given executor registry. bus and
// logger may be nil.
func New(registry *executor.Registry, bus *event.Bus, logger *logging.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	o := &Orchestrator{
		registry:     registry,
		bus:          bus,
		logger:       logger,
		metrics:      executor.NewMetrics(),
		sem:          semaphore.NewWeighted(DefaultPoolSize),
		maxBatchSize: DefaultMaxBatchSize,
		taskTimeout:  DefaultTaskTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Metrics returns the per-role execution metrics tracker.
func (o *Orchestrator) Metrics() *executor.Metrics { return o.metrics }

// RunBatch executes one subtask per query and returns their results in input
// order. Individual failures are substituted in place; the only errors
// RunBatch itself returns are an empty batch and a parent context already
// done before dispatch.
func (o *Orchestrator) RunBatch(ctx context.Context, queries []string) ([]TaskResult, error) {
	if len(queries) == 0 {
		return nil, errors.ErrEmptyBatch
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(queries) > o.maxBatchSize {
		o.logger.Warn("batch truncated", "requested", len(queries), "cap", o.maxBatchSize)
		queries = queries[:o.maxBatchSize]
	}

	start := time.Now()
	o.publish(event.NewBatchStartedEvent(queries))

	results := make([]TaskResult, len(queries))
	var wg sync.WaitGroup
	for i, query := range queries {
		wg.Add(1)
		go func(slot int, q string) {
			defer wg.Done()
			// Each worker writes only its own slot.
			results[slot] = o.runTask(ctx, q)
		}(i, query)
	}
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Success() {
			succeeded++
		}
	}
	elapsed := time.Since(start)
	o.publish(event.NewBatchCompletedEvent(len(results), succeeded, len(results)-succeeded, elapsed))
	o.logger.Info("batch complete",
		"total", len(results), "succeeded", succeeded, "elapsed", elapsed.String())

	return results, nil
}

// runTask acquires a pool slot and runs search-then-analyze for one query
// under the subtask deadline. Every failure path returns a substituted
// TaskResult; runTask never panics the batch.
func (o *Orchestrator) runTask(parent context.Context, query string) TaskResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(parent, o.taskTimeout)
	defer cancel()

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return o.substitute(query, start, errors.NewTimeoutError("acquire worker slot", o.taskTimeout))
	}
	defer o.sem.Release(1)

	searcher, err := o.registry.Get(executor.RoleSearcher)
	if err != nil {
		return o.substitute(query, start, err)
	}
	analyzer, err := o.registry.Get(executor.RoleAnalyzer)
	if err != nil {
		return o.substitute(query, start, err)
	}

	searchRes, err := searcher.Process(ctx, executor.Request{Query: query})
	if err != nil {
		return o.substitute(query, start, o.classify(ctx, executor.RoleSearcher, query, err))
	}

	analyzeRes, err := analyzer.Process(ctx, executor.Request{Query: query, Hits: searchRes.Hits})
	if err != nil {
		return o.substitute(query, start, o.classify(ctx, executor.RoleAnalyzer, query, err))
	}

	elapsed := time.Since(start)
	o.metrics.Record(executor.RoleSearcher, searchRes.Elapsed.Seconds(), len(searchRes.Hits) > 0)
	o.metrics.Record(executor.RoleAnalyzer, analyzeRes.Elapsed.Seconds(), len(analyzeRes.Findings) > 0)
	o.publish(event.NewTaskCompletedEvent(query, true, elapsed))

	return TaskResult{
		Query:          query,
		QueryUsed:      searchRes.QueryUsed,
		Findings:       analyzeRes.Findings,
		Sources:        analyzeRes.Sources,
		Hits:           searchRes.Hits,
		Gaps:           analyzeRes.Gaps,
		Contradictions: analyzeRes.Contradictions,
		Confidence:     analyzeRes.Confidence,
		Elapsed:        elapsed,
	}
}

// classify maps a subtask failure onto the error taxonomy: deadline
// expiries become timeout errors, everything else an executor error.
func (o *Orchestrator) classify(ctx context.Context, role executor.Role, query string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.NewTimeoutError(string(role)+" subtask", o.taskTimeout)
	}
	var execErr *errors.ExecutorError
	if errors.As(err, &execErr) {
		return err
	}
	return errors.NewExecutorError(string(role), query, err)
}

// substitute produces the empty, error-marked result for a failed slot.
func (o *Orchestrator) substitute(query string, start time.Time, err error) TaskResult {
	elapsed := time.Since(start)
	o.logger.Warn("subtask substituted", "query", query, "error", err)
	o.publish(event.NewTaskCompletedEvent(query, false, elapsed))
	return TaskResult{
		Query:    query,
		Findings: []executor.Finding{},
		Elapsed:  elapsed,
		Err:      err,
	}
}

func (o *Orchestrator) publish(e event.Event) {
	if o.bus != nil {
		o.bus.Publish(e)
	}
}
