package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deepscout/deepscout/internal/judge"
	"github.com/deepscout/deepscout/internal/logging"
)

// maxPlanSteps caps how many sub-queries a single plan may contain.
const maxPlanSteps = 5

// Planner decomposes a research query into an ordered plan of sub-queries.
// When a judgment delegate is configured it drives the decomposition; without
// one, or when the delegate's output fails validation, the planner falls back
// to a derived default plan with reduced confidence.
type Planner struct {
	delegate judge.Delegate
	logger   *logging.Logger
}

var _ Executor = (*Planner)(nil)

// NewPlanner creates a Planner. delegate may be nil for offline operation.
func NewPlanner(delegate judge.Delegate, logger *logging.Logger) *Planner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Planner{delegate: delegate, logger: logger.WithRole(string(RolePlanner))}
}

// Role returns RolePlanner.
func (p *Planner) Role() Role { return RolePlanner }

// Process produces a research plan for the request query.
func (p *Planner) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	plan, confidence := p.plan(ctx, req.Query)

	res := &Result{
		Role:       RolePlanner,
		Findings:   []Finding{},
		Confidence: confidence,
		Plan:       plan,
		Elapsed:    time.Since(start),
	}
	p.logger.Debug("plan produced", "steps", len(plan), "confidence", confidence)
	return res, nil
}

func (p *Planner) plan(ctx context.Context, query string) ([]PlanStep, float64) {
	if p.delegate == nil {
		return defaultPlan(query), 0.6
	}

	prompt := planPrompt(query)
	parsed, err := p.delegate.Judge(ctx, prompt)
	if err != nil {
		p.logger.Warn("planning judgment failed, using default plan", "error", err)
		return defaultPlan(query), 0.6
	}

	steps := parsePlan(parsed)
	if len(steps) == 0 {
		p.logger.Warn("judged plan failed validation, using default plan")
		return defaultPlan(query), 0.6
	}
	return steps, 0.9
}

// parsePlan validates the judged structure. Every step needs a query and a
// reasoning; step numbers are reassigned sequentially. Invalid plans yield
// nil so the caller substitutes the default.
func parsePlan(parsed map[string]any) []PlanStep {
	raw := judge.Objects(parsed, "plan")
	if len(raw) == 0 {
		return nil
	}
	if len(raw) > maxPlanSteps {
		raw = raw[:maxPlanSteps]
	}

	steps := make([]PlanStep, 0, len(raw))
	for i, obj := range raw {
		q := strings.TrimSpace(judge.String(obj, "query", ""))
		reasoning := strings.TrimSpace(judge.String(obj, "reasoning", ""))
		if q == "" || reasoning == "" {
			return nil
		}
		steps = append(steps, PlanStep{Step: i + 1, Query: q, Reasoning: reasoning})
	}
	return steps
}

// defaultPlan derives three standard angles from the root query.
func defaultPlan(query string) []PlanStep {
	return []PlanStep{
		{Step: 1, Query: query + " overview and background", Reasoning: "establish foundational context"},
		{Step: 2, Query: query + " recent developments", Reasoning: "capture the current state"},
		{Step: 3, Query: query + " analysis and implications", Reasoning: "assess significance and open questions"},
	}
}

func planPrompt(query string) string {
	return fmt.Sprintf(`Decompose the research question into at most %d focused sub-queries.

Question: %s

Respond with JSON only:
{"plan": [{"step": 1, "query": "...", "reasoning": "..."}]}`, maxPlanSteps, query)
}
