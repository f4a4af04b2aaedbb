package workflow

// State identifies a phase of the adaptive research workflow.
type State int

const (
	// StatePlanning is the initial phase: decompose the query into sub-queries.
	StatePlanning State = iota

	// StateSearching gathers raw results for the current sub-queries.
	StateSearching

	// StateAnalyzing extracts findings and confidence from gathered results.
	StateAnalyzing

	// StateValidating cross-checks findings against their sources.
	StateValidating

	// StateRefining adjusts the search strategy after poor or stalled progress.
	StateRefining

	// StateSynthesizing composes the final report from accumulated findings.
	StateSynthesizing

	// StateCompleted is the successful terminal state.
	StateCompleted

	// StateFailed is the fatal-error terminal state. It is never produced by
	// the transition rules; only an external fatal signal reaches it.
	StateFailed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StatePlanning:
		return "planning"
	case StateSearching:
		return "searching"
	case StateAnalyzing:
		return "analyzing"
	case StateValidating:
		return "validating"
	case StateRefining:
		return "refining"
	case StateSynthesizing:
		return "synthesizing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the workflow stops in this state.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Context is the per-iteration snapshot of research-quality metrics that
// drives transition decisions. It is rebuilt from scratch every iteration;
// each field must be independently derivable from the current raw results.
type Context struct {
	// Confidence is the mean confidence across research steps, in [0,1].
	Confidence float64

	// Coverage estimates the fraction of planned sub-queries addressed, in [0,1].
	Coverage float64

	// Contradictions counts detected conflicts between findings.
	Contradictions int

	// ResultsFound counts research steps that produced results.
	ResultsFound int

	// IterationsWithoutProgress counts consecutive iterations where
	// confidence did not move meaningfully.
	IterationsWithoutProgress int

	// ValidationPassed reports whether recent validations found no failures.
	ValidationPassed bool

	// SynthesisQuality estimates the quality of the current draft report, in [0,1].
	SynthesisQuality float64
}
