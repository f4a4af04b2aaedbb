// Package research wires the workflow machine, orchestrator, memory, and
// validator into the adaptive control loop. The engine owns no policy of its
// own beyond metric derivation: what happens next is always the machine's
// decision.
package research

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/deepscout/deepscout/internal/errors"
	"github.com/deepscout/deepscout/internal/event"
	"github.com/deepscout/deepscout/internal/executor"
	"github.com/deepscout/deepscout/internal/logging"
	"github.com/deepscout/deepscout/internal/memory"
	"github.com/deepscout/deepscout/internal/orchestrator"
	"github.com/deepscout/deepscout/internal/validation"
	"github.com/deepscout/deepscout/internal/workflow"
)

// progressEpsilon is the minimum confidence movement that counts as progress
// between iterations.
const progressEpsilon = 0.05

// step is one completed research subtask with its evidence.
type step struct {
	query          string
	findings       []executor.Finding
	hits           []executor.SearchHit
	gaps           []string
	contradictions []string
	confidence     float64
	failed         bool
}

// Engine runs one adaptive research loop per Execute call. The Engine itself
// is reusable across calls; all per-run state lives in the run struct.
type Engine struct {
	registry  *executor.Registry
	orch      *orchestrator.Orchestrator
	mem       *memory.Memory
	validator *validation.Validator
	bus       *event.Bus
	logger    *logging.Logger

	maxIterations int
	maxDuration   time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxIterations bounds the control loop.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithMaxDuration sets the wall-clock budget for one run. Zero disables it.
func WithMaxDuration(d time.Duration) Option {
	return func(e *Engine) { e.maxDuration = d }
}

// New creates an Engine. registry must hold planner, searcher, and analyzer
// executors; orch, mem, and validator must be non-nil. bus and logger may be
// nil.
func New(registry *executor.Registry, orch *orchestrator.Orchestrator, mem *memory.Memory,
	validator *validation.Validator, bus *event.Bus, logger *logging.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NopLogger()
	}
	e := &Engine{
		registry:      registry,
		orch:          orch,
		mem:           mem,
		validator:     validator,
		bus:           bus,
		logger:        logger,
		maxIterations: 10,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run is the per-execution state of one research loop.
type run struct {
	query       string
	machine     *workflow.Machine
	plan        []executor.PlanStep
	pending     []string
	steps       []step
	validations []validation.Result
	report      string

	prevConfidence float64
	stalls         int
	refinements    int
}

// Execute runs the full adaptive loop for one query and always returns a
// report when the configuration is sound: partial evidence produces a
// degraded report, never a nil one. Only fatal configuration problems and a
// canceled parent context return an error.
func (e *Engine) Execute(ctx context.Context, query string) (*Report, error) {
	for _, role := range []executor.Role{executor.RolePlanner, executor.RoleSearcher, executor.RoleAnalyzer} {
		if _, err := e.registry.Get(role); err != nil {
			return nil, errors.NewConfigError("executors", err)
		}
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.NewConfigError("query", errors.New("query must not be empty"))
	}

	start := time.Now()
	r := &run{query: query, machine: workflow.NewMachine()}
	logger := e.logger.WithRun(fmt.Sprintf("run-%d", start.UnixNano()))
	logger.Info("research started", "query", query)

	iterations := 0
	for iterations < e.maxIterations {
		iterations++
		state := r.machine.Current()

		if err := ctx.Err(); err != nil {
			logger.Warn("run canceled", "iteration", iterations)
			break
		}
		if e.maxDuration > 0 && time.Since(start) > e.maxDuration {
			logger.Warn("wall-clock budget exhausted", "iteration", iterations)
			break
		}

		e.handle(ctx, r, logger.WithPhase(state.String()))

		wctx := e.buildContext(r)
		e.publish(event.NewProgressEvent(state.String(), iterations, wctx.Confidence, wctx.Coverage,
			fmt.Sprintf("%d steps, %d validations", len(r.steps), len(r.validations))))

		next := r.machine.Next(wctx)
		last := r.machine.History()[r.machine.TransitionCount()-1]
		e.publish(event.NewTransitionEvent(last.From.String(), last.To.String(), last.Reason))
		logger.Info("transition", "from", last.From.String(), "to", last.To.String(), "reason", last.Reason)

		if next.IsTerminal() {
			break
		}
	}

	// Partial evidence still yields a report.
	if r.report == "" {
		e.synthesize(ctx, r)
	}

	report := e.buildReport(r, iterations, time.Since(start))
	logger.Info("research finished",
		"state", r.machine.Current().String(),
		"iterations", iterations,
		"confidence", report.Confidence)
	return report, nil
}

// handle dispatches to the state handler for the machine's current state.
func (e *Engine) handle(ctx context.Context, r *run, logger *logging.Logger) {
	switch r.machine.Current() {
	case workflow.StatePlanning:
		e.plan(ctx, r, logger)
	case workflow.StateSearching:
		e.search(ctx, r, logger)
	case workflow.StateAnalyzing:
		e.analyze(ctx, r, logger)
	case workflow.StateValidating:
		e.validate(ctx, r, logger)
	case workflow.StateRefining:
		e.refine(r, logger)
	case workflow.StateSynthesizing:
		e.synthesize(ctx, r)
	}
}

// plan decomposes the root query. The planner guarantees a non-empty plan.
func (e *Engine) plan(ctx context.Context, r *run, logger *logging.Logger) {
	planner, _ := e.registry.Get(executor.RolePlanner)
	res, err := planner.Process(ctx, executor.Request{Query: r.query})
	if err != nil || len(res.Plan) == 0 {
		// The planner degrades internally; reaching this means a broken
		// implementation was registered. Recover with a single-step plan.
		logger.Warn("planner returned no plan, using the root query directly", "error", err)
		r.plan = []executor.PlanStep{{Step: 1, Query: r.query, Reasoning: "direct research of the root query"}}
	} else {
		r.plan = res.Plan
	}
	for _, stepDef := range r.plan {
		r.pending = append(r.pending, stepDef.Query)
	}
	logger.Info("plan ready", "steps", len(r.plan))
}

// search dispatches the next pending queries as one batch and folds the
// results into the run. Findings are stored in semantic memory as they
// arrive.
func (e *Engine) search(ctx context.Context, r *run, logger *logging.Logger) {
	if len(r.pending) == 0 {
		// Nothing planned remains; revisit the weakest step instead of
		// idling so the machine still gets fresh signal.
		r.pending = append(r.pending, r.query)
	}

	batch := r.pending
	results, err := e.orch.RunBatch(ctx, batch)
	if err != nil {
		logger.Warn("batch dispatch failed", "error", err)
		return
	}
	r.pending = r.pending[len(results):]

	for _, res := range results {
		s := step{
			query:          res.Query,
			findings:       res.Findings,
			hits:           res.Hits,
			gaps:           res.Gaps,
			contradictions: res.Contradictions,
			confidence:     res.Confidence,
			failed:         !res.Success(),
		}
		r.steps = append(r.steps, s)

		for _, f := range res.Findings {
			meta := map[string]string{"query": res.Query}
			if len(f.Sources) > 0 {
				meta["source"] = f.Sources[0]
			}
			if _, err := e.mem.Store(ctx, f.Text, meta); err != nil {
				logger.Warn("memory store failed", "error", err)
			}
		}
	}
	logger.Info("batch folded", "results", len(results), "pending", len(r.pending))
}

// analyze enqueues follow-up queries for reported gaps. Per-result analysis
// already happened inside the batch; this pass works across steps.
func (e *Engine) analyze(_ context.Context, r *run, logger *logging.Logger) {
	seen := make(map[string]bool, len(r.pending))
	for _, q := range r.pending {
		seen[q] = true
	}
	for _, s := range r.steps {
		seen[s.query] = true
	}

	added := 0
	for _, s := range r.steps {
		for _, gap := range s.gaps {
			q := gapQuery(gap)
			if q == "" || seen[q] {
				continue
			}
			seen[q] = true
			r.pending = append(r.pending, q)
			added++
		}
	}
	if added > 0 {
		logger.Info("gap follow-ups queued", "count", added)
	}
}

// gapQuery turns an analyzer gap note into a follow-up query.
func gapQuery(gap string) string {
	gap = strings.TrimSpace(gap)
	if gap == "" {
		return ""
	}
	if idx := strings.Index(gap, ":"); idx >= 0 {
		gap = strings.TrimSpace(gap[idx+1:])
	}
	return gap
}

// validate grades every accumulated finding against the accumulated hits.
func (e *Engine) validate(ctx context.Context, r *run, logger *logging.Logger) {
	var findings []executor.Finding
	var hits []executor.SearchHit
	for _, s := range r.steps {
		findings = append(findings, s.findings...)
		hits = append(hits, s.hits...)
	}

	r.validations = e.validator.ValidateAll(ctx, findings, hits)
	logger.Info("validation pass complete", "claims", len(r.validations))
}

// refine adjusts the strategy after poor progress. The chosen strategy is a
// note plus, for the broaden case, a wider replacement query.
func (e *Engine) refine(r *run, logger *logging.Logger) {
	r.refinements++

	var strategy string
	switch {
	case countResults(r.steps) == 0:
		strategy = "broaden_search"
		broadened := broaden(r.query, r.refinements)
		if broadened != "" {
			r.pending = append(r.pending, broadened)
		}
	case len(r.validations) > 0 && countFailedValidations(r.validations) > 0:
		strategy = "seek_better_sources"
	default:
		strategy = "new_angle"
		r.pending = append(r.pending, r.query+" alternative perspectives")
	}
	logger.Info("strategy refined", "strategy", strategy)
}

// broaden produces progressively wider variants of the root query.
func broaden(query string, attempt int) string {
	words := strings.Fields(query)
	switch {
	case attempt == 1:
		return query + " introduction"
	case len(words) > 2:
		// Drop the most specific trailing words.
		return strings.Join(words[:len(words)-1], " ")
	default:
		return ""
	}
}

// synthesize composes the report text from accumulated evidence. Safe to
// call repeatedly; it rebuilds the draft from scratch each time.
func (e *Engine) synthesize(_ context.Context, r *run) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Research Report: %s\n\n", r.query)

	findings := collectFindings(r.steps)
	if len(findings) == 0 {
		b.WriteString("No findings could be gathered within the research budget. ")
		b.WriteString("The queries below were attempted without conclusive results.\n\n")
		for _, s := range r.steps {
			fmt.Fprintf(&b, "- %s\n", s.query)
		}
		r.report = b.String()
		return
	}

	b.WriteString("## Findings\n\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "- %s", f.Text)
		if len(f.Sources) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(f.Sources, ", "))
		}
		b.WriteString("\n")
	}

	if len(r.validations) > 0 {
		b.WriteString("\n## Validation\n\n")
		fmt.Fprintf(&b, "Reliability score: %.2f\n\n", validation.ReliabilityScore(r.validations))
		for _, v := range r.validations {
			fmt.Fprintf(&b, "- [%s] %s", v.Level, v.Claim)
			if v.Explanation != "" {
				fmt.Fprintf(&b, ": %s", v.Explanation)
			}
			b.WriteString("\n")
		}
	}

	if gaps := collectGaps(r.steps); len(gaps) > 0 {
		b.WriteString("\n## Open Gaps\n\n")
		for _, g := range gaps {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}

	r.report = b.String()
}

// buildContext derives the workflow context from the run's raw results.
// Every field is recomputed from scratch; nothing is carried over between
// iterations except the stall counter's inputs.
func (e *Engine) buildContext(r *run) workflow.Context {
	confidence := meanConfidence(r.steps)

	coverage := 0.0
	if len(r.plan) > 0 {
		coverage = float64(completedPlanned(r)) / float64(len(r.plan))
		if coverage > 1.0 {
			coverage = 1.0
		}
	}

	if math.Abs(confidence-r.prevConfidence) > progressEpsilon {
		r.stalls = 0
	} else {
		r.stalls++
	}
	r.prevConfidence = confidence

	return workflow.Context{
		Confidence:                confidence,
		Coverage:                  coverage,
		Contradictions:            countFailedValidations(r.validations) + countContradictions(r.steps),
		ResultsFound:              countResults(r.steps),
		IterationsWithoutProgress: r.stalls,
		ValidationPassed:          recentValidationsPassed(r.validations),
		SynthesisQuality:          synthesisQuality(r.report, confidence),
	}
}

// completedPlanned counts plan steps whose query has a completed subtask.
func completedPlanned(r *run) int {
	done := make(map[string]bool, len(r.steps))
	for _, s := range r.steps {
		if !s.failed {
			done[s.query] = true
		}
	}
	n := 0
	for _, stepDef := range r.plan {
		if done[stepDef.Query] {
			n++
		}
	}
	return n
}

func meanConfidence(steps []step) float64 {
	if len(steps) == 0 {
		return 0
	}
	var sum float64
	for _, s := range steps {
		sum += s.confidence
	}
	return sum / float64(len(steps))
}

// countResults counts steps that produced any evidence.
func countResults(steps []step) int {
	n := 0
	for _, s := range steps {
		if len(s.findings) > 0 || len(s.hits) > 0 {
			n++
		}
	}
	return n
}

func countContradictions(steps []step) int {
	n := 0
	for _, s := range steps {
		n += len(s.contradictions)
	}
	return n
}

func countFailedValidations(results []validation.Result) int {
	n := 0
	for _, v := range results {
		if v.Level == validation.LevelFailed {
			n++
		}
	}
	return n
}

// recentValidationsPassed reports whether the last three validations contain
// no failure. Vacuously true when nothing has been validated.
func recentValidationsPassed(results []validation.Result) bool {
	start := len(results) - 3
	if start < 0 {
		start = 0
	}
	for _, v := range results[start:] {
		if v.Level == validation.LevelFailed {
			return false
		}
	}
	return true
}

// synthesisQuality blends report length (saturating at 1000 characters) with
// confidence.
func synthesisQuality(report string, confidence float64) float64 {
	if report == "" {
		return 0
	}
	length := float64(len(report)) / 1000.0
	if length > 1.0 {
		length = 1.0
	}
	return (length + confidence) / 2.0
}

func collectFindings(steps []step) []executor.Finding {
	var out []executor.Finding
	for _, s := range steps {
		out = append(out, s.findings...)
	}
	return out
}

func collectGaps(steps []step) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range steps {
		for _, g := range s.gaps {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out
}

func (e *Engine) publish(ev event.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}
