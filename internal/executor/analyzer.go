package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deepscout/deepscout/internal/judge"
	"github.com/deepscout/deepscout/internal/logging"
)

// Analyzer extracts findings, gaps, and contradictions from raw search hits.
// With a judgment delegate the extraction is semantic; without one a term
// based heuristic produces findings directly from the top hits. Extraction
// failures degrade to an empty findings list with zero confidence rather
// than erroring, so one bad response never poisons a batch.
type Analyzer struct {
	delegate judge.Delegate
	logger   *logging.Logger
}

var _ Executor = (*Analyzer)(nil)

// NewAnalyzer creates an Analyzer. delegate may be nil for offline operation.
func NewAnalyzer(delegate judge.Delegate, logger *logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Analyzer{delegate: delegate, logger: logger.WithRole(string(RoleAnalyzer))}
}

// Role returns RoleAnalyzer.
func (a *Analyzer) Role() Role { return RoleAnalyzer }

// Process analyzes req.Hits for the request query.
func (a *Analyzer) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	var res *Result
	if a.delegate != nil {
		res = a.judged(ctx, req)
	}
	if res == nil {
		res = a.heuristic(req)
	}
	res.Elapsed = time.Since(start)

	a.logger.Debug("analysis complete",
		"findings", len(res.Findings),
		"gaps", len(res.Gaps),
		"contradictions", len(res.Contradictions),
		"confidence", res.Confidence)
	return res, nil
}

// judged runs the delegate and parses its structure. A judgment failure is
// a degraded empty result, not a fallback to the heuristic path: the
// heuristic only substitutes when no delegate is configured at all.
func (a *Analyzer) judged(ctx context.Context, req Request) *Result {
	parsed, err := a.delegate.Judge(ctx, analyzePrompt(req))
	if err != nil {
		a.logger.Warn("analysis judgment failed, degrading", "error", err)
		return &Result{Role: RoleAnalyzer, Findings: []Finding{}, Confidence: 0}
	}

	rawFindings := judge.Objects(parsed, "key_findings")
	confidence := clamp01(judge.Float(parsed, "confidence", 0))

	findings := make([]Finding, 0, len(rawFindings))
	for _, obj := range rawFindings {
		text := strings.TrimSpace(judge.String(obj, "finding", ""))
		if text == "" {
			continue
		}
		f := Finding{Text: text, Confidence: confidence}
		if src := strings.TrimSpace(judge.String(obj, "source", "")); src != "" {
			f.Sources = []string{src}
		}
		findings = append(findings, f)
	}

	return &Result{
		Role:           RoleAnalyzer,
		Findings:       findings,
		Confidence:     confidence,
		Sources:        sourcesOf(findings),
		Gaps:           judge.Strings(parsed, "gaps"),
		Contradictions: judge.Strings(parsed, "contradictions"),
	}
}

// heuristic builds findings straight from the highest scoring hits. The
// confidence scales with evidence volume and never reaches the threshold
// that would mark analysis as authoritative.
func (a *Analyzer) heuristic(req Request) *Result {
	findings := make([]Finding, 0, len(req.Hits))
	for _, hit := range req.Hits {
		if hit.Snippet == "" {
			continue
		}
		findings = append(findings, Finding{
			Text:       hit.Snippet,
			Sources:    []string{hit.URL},
			Confidence: clamp01(hit.Score),
		})
		if len(findings) == 3 {
			break
		}
	}

	confidence := 0.0
	if len(findings) > 0 {
		confidence = 0.4 + 0.1*float64(len(findings))
	}

	var gaps []string
	if len(req.Hits) == 0 {
		gaps = []string{"no search results available for: " + req.Query}
	}

	return &Result{
		Role:       RoleAnalyzer,
		Findings:   findings,
		Confidence: confidence,
		Sources:    sourcesOf(findings),
		Gaps:       gaps,
	}
}

func sourcesOf(findings []Finding) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range findings {
		for _, s := range f.Sources {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
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

func analyzePrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the search results for the question: %s\n\nResults:\n", req.Query)
	for i, hit := range req.Hits {
		fmt.Fprintf(&b, "%d. %s (%s)\n   %s\n", i+1, hit.Title, hit.URL, hit.Snippet)
	}
	b.WriteString(`
Respond with JSON only:
{"key_findings": [{"finding": "...", "source": "..."}], "confidence": 0.0, "gaps": ["..."], "contradictions": ["..."]}`)
	return b.String()
}
