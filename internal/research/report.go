package research

import (
	"time"

	"github.com/deepscout/deepscout/internal/memory"
	"github.com/deepscout/deepscout/internal/validation"
)

// Report is the final outcome of one research run.
type Report struct {
	Query string `yaml:"query"`
	// Text is the synthesized report body in Markdown.
	Text string `yaml:"-"`

	FinalState       string        `yaml:"final_state"`
	StatePath        []string      `yaml:"state_path"`
	TotalTransitions int           `yaml:"total_transitions"`
	IterationsRun    int           `yaml:"iterations_run"`
	Elapsed          time.Duration `yaml:"elapsed"`

	Confidence       float64      `yaml:"confidence"`
	ReliabilityScore float64      `yaml:"reliability_score"`
	FindingCount     int          `yaml:"finding_count"`
	ValidationCount  int          `yaml:"validation_count"`
	MemoryStats      memory.Stats `yaml:"memory_stats"`
}

// buildReport assembles the Report from the finished run.
func (e *Engine) buildReport(r *run, iterations int, elapsed time.Duration) *Report {
	return &Report{
		Query:            r.query,
		Text:             r.report,
		FinalState:       r.machine.Current().String(),
		StatePath:        r.machine.StatePath(),
		TotalTransitions: r.machine.TransitionCount(),
		IterationsRun:    iterations,
		Elapsed:          elapsed,
		Confidence:       meanConfidence(r.steps),
		ReliabilityScore: validation.ReliabilityScore(r.validations),
		FindingCount:     len(collectFindings(r.steps)),
		ValidationCount:  len(r.validations),
		MemoryStats:      e.mem.Stats(),
	}
}
