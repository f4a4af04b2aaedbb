// Package validation cross-checks findings against their sources and grades
// each claim with a reliability level. Judgment failures degrade the claim
// instead of failing the run; the validator never returns an error for a
// claim it could not settle.
package validation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/deepscout/deepscout/internal/event"
	"github.com/deepscout/deepscout/internal/executor"
	"github.com/deepscout/deepscout/internal/judge"
	"github.com/deepscout/deepscout/internal/logging"
)

// Level grades how well a claim is supported by its sources.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
	LevelFailed Level = "failed"
)

// levelWeights feed the reliability score. Failed claims contribute nothing.
var levelWeights = map[Level]float64{
	LevelHigh:   1.0,
	LevelMedium: 0.7,
	LevelLow:    0.4,
	LevelFailed: 0.0,
}

// Weight returns the level's contribution factor to the reliability score.
func (l Level) Weight() float64 { return levelWeights[l] }

// Result is the verdict for one claim.
type Result struct {
	Claim                string
	Level                Level
	Confidence           float64
	SupportingSources    []string
	ContradictingSources []string
	Explanation          string
}

// Validator grades claims against sources. Safe for concurrent use; verdicts
// are cached per claim text for the validator's lifetime.
type Validator struct {
	delegate judge.Delegate
	bus      *event.Bus
	logger   *logging.Logger

	mu    sync.Mutex
	cache map[string]Result
}

// New creates a Validator. delegate may be nil; grading then falls back to a
// term-overlap heuristic. bus and logger may be nil.
func New(delegate judge.Delegate, bus *event.Bus, logger *logging.Logger) *Validator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Validator{
		delegate: delegate,
		bus:      bus,
		logger:   logger,
		cache:    make(map[string]Result),
	}
}

// Validate grades one finding against the given sources. Identical claim
// text returns the cached verdict.
func (v *Validator) Validate(ctx context.Context, finding executor.Finding, sources []executor.SearchHit) Result {
	v.mu.Lock()
	if cached, ok := v.cache[finding.Text]; ok {
		v.mu.Unlock()
		return cached
	}
	v.mu.Unlock()

	res := v.grade(ctx, finding, sources)

	v.mu.Lock()
	v.cache[finding.Text] = res
	v.mu.Unlock()

	if v.bus != nil {
		v.bus.Publish(event.NewValidationCompletedEvent(res.Claim, string(res.Level), res.Confidence))
	}
	v.logger.Debug("claim validated", "level", string(res.Level), "confidence", res.Confidence)
	return res
}

// ValidateAll grades every finding, in order.
func (v *Validator) ValidateAll(ctx context.Context, findings []executor.Finding, sources []executor.SearchHit) []Result {
	results := make([]Result, 0, len(findings))
	for _, f := range findings {
		results = append(results, v.Validate(ctx, f, sources))
	}
	return results
}

func (v *Validator) grade(ctx context.Context, finding executor.Finding, sources []executor.SearchHit) Result {
	if v.delegate == nil {
		return v.heuristic(finding, sources)
	}

	parsed, err := v.delegate.Judge(ctx, validatePrompt(finding, sources))
	if err != nil {
		// Degrade, never error: an unjudgeable claim is a weak claim.
		v.logger.Warn("validation judgment failed, degrading to low", "error", err)
		return Result{
			Claim:       finding.Text,
			Level:       LevelLow,
			Confidence:  0.3,
			Explanation: "validation inconclusive",
		}
	}

	level := parseLevel(judge.String(parsed, "level", ""))
	if level == "" {
		level = LevelLow
	}
	return Result{
		Claim:                finding.Text,
		Level:                level,
		Confidence:           clamp01(judge.Float(parsed, "confidence", 0.3)),
		SupportingSources:    judge.Strings(parsed, "supporting_sources"),
		ContradictingSources: judge.Strings(parsed, "contradicting_sources"),
		Explanation:          judge.String(parsed, "explanation", ""),
	}
}

// heuristic grades by term overlap between the claim and each source
// snippet. Strong overlap in multiple sources grades high; a claim no
// source touches fails.
func (v *Validator) heuristic(finding executor.Finding, sources []executor.SearchHit) Result {
	var supporting []string
	for _, src := range sources {
		if overlap(finding.Text, src.Title+" "+src.Snippet) >= 0.4 {
			supporting = append(supporting, src.URL)
		}
	}

	var level Level
	var confidence float64
	var explanation string
	switch {
	case len(supporting) >= 2:
		level, confidence = LevelHigh, 0.85
		explanation = "claim supported by multiple sources"
	case len(supporting) == 1:
		level, confidence = LevelMedium, 0.6
		explanation = "claim supported by a single source"
	case len(sources) == 0:
		level, confidence = LevelLow, 0.3
		explanation = "no sources available to check the claim against"
	default:
		level, confidence = LevelFailed, 0.2
		explanation = "no source supports the claim"
	}

	return Result{
		Claim:             finding.Text,
		Level:             level,
		Confidence:        confidence,
		SupportingSources: supporting,
		Explanation:       explanation,
	}
}

// ReliabilityScore aggregates verdicts into one score: the mean of level
// weight times confidence. Empty input scores 0.0.
func ReliabilityScore(results []Result) float64 {
	if len(results) == 0 {
		return 0.0
	}
	var sum float64
	for _, r := range results {
		sum += r.Level.Weight() * r.Confidence
	}
	return sum / float64(len(results))
}

func parseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return LevelHigh
	case "medium":
		return LevelMedium
	case "low":
		return LevelLow
	case "failed":
		return LevelFailed
	default:
		return ""
	}
}

// overlap is the fraction of claim terms present in the source text.
func overlap(claim, source string) float64 {
	claimTerms := terms(claim)
	if len(claimTerms) == 0 {
		return 0
	}
	sourceTerms := terms(source)
	matched := 0
	for t := range claimTerms {
		if sourceTerms[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(claimTerms))
}

func terms(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?\"'()[]")
		if len(w) > 2 {
			out[w] = true
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func validatePrompt(finding executor.Finding, sources []executor.SearchHit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Check the claim against the sources.\n\nClaim: %s\n\nSources:\n", finding.Text)
	for i, src := range sources {
		fmt.Fprintf(&b, "%d. %s (%s)\n   %s\n", i+1, src.Title, src.URL, src.Snippet)
	}
	b.WriteString(`
Respond with JSON only:
{"level": "high|medium|low|failed", "confidence": 0.0, "supporting_sources": ["..."], "contradicting_sources": ["..."], "explanation": "..."}`)
	return b.String()
}
