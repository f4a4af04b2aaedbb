// Package workflow implements the adaptive state machine that decides what a
// research run does next. Decisions are driven by a per-iteration Context
// snapshot rather than a fixed script: the machine escalates to validation
// when contradictions pile up, breaks out of stalls by refining, and forces
// synthesis rather than looping forever.
package workflow

import (
	"fmt"
	"sync"
	"time"
)

// Transition is an immutable record of one state change.
type Transition struct {
	From      State
	To        State
	Reason    string
	Timestamp time.Time
}

// rule is one entry of the ordered decision table. The first rule whose
// predicate matches decides the next state; this ordering is part of the
// machine's contract, not an implementation detail.
type rule struct {
	name string
	when func(current State, ctx Context) bool
	next func(current State, ctx Context) (State, string)
}

// Machine is the single source of truth for workflow progression within one
// research run. It owns an append-only transition log; instantiate one
// Machine per run, never share one as a package-level singleton.
//
// Next is deterministic given (current state, context) and appends exactly
// one transition per call. The log is written only by the control goroutine
// driving the run.
type Machine struct {
	mu      sync.RWMutex
	current State
	history []Transition
	rules   []rule
}

// NewMachine creates a Machine starting in StatePlanning with an empty log.
func NewMachine() *Machine {
	m := &Machine{current: StatePlanning}
	m.rules = []rule{
		// Contradictions demand validation, but never while already
		// validating: without that guard the machine oscillates
		// VALIDATING→VALIDATING indefinitely.
		{
			name: "contradictions_detected",
			when: func(current State, ctx Context) bool {
				return ctx.Contradictions > 2 && ctx.ResultsFound > 0 && current != StateValidating
			},
			next: func(State, Context) (State, string) {
				return StateValidating, "contradictions_detected"
			},
		},
		// Stalled progress escalates to refining, but never while already
		// refining: the forced-escape rule below handles a stall that
		// persists through refinement.
		{
			name: "stuck_in_loop",
			when: func(current State, ctx Context) bool {
				return ctx.IterationsWithoutProgress > 2 && current != StateRefining
			},
			next: func(State, Context) (State, string) {
				return StateRefining, "stuck_in_loop"
			},
		},
		// Completion requires a synthesized report plus strong metrics.
		{
			name: "objectives_met",
			when: func(current State, ctx Context) bool {
				return current == StateSynthesizing &&
					ctx.Confidence > 0.8 && ctx.Coverage > 0.75 && ctx.Contradictions == 0
			},
			next: func(State, Context) (State, string) {
				return StateCompleted, "objectives_met"
			},
		},
		// Fall through to the per-state default table.
		{
			name: "default",
			when: func(State, Context) bool { return true },
			next: defaultTransition,
		},
	}
	return m
}

// defaultTransition is the per-state default table applied when no priority
// rule matched.
func defaultTransition(current State, ctx Context) (State, string) {
	switch current {
	case StatePlanning:
		return StateSearching, "plan_complete"

	case StateSearching:
		if ctx.ResultsFound == 0 {
			return StateRefining, "no_results"
		}
		return StateAnalyzing, "results_found"

	case StateAnalyzing:
		switch {
		case ctx.Confidence < 0.6:
			return StateSearching, "low_confidence"
		case ctx.Contradictions > 2:
			return StateValidating, "contradictions_found"
		case ctx.Coverage > 0.7:
			return StateSynthesizing, "sufficient_coverage"
		default:
			return StateSearching, "coverage_incomplete"
		}

	case StateValidating:
		if ctx.ValidationPassed {
			return StateSynthesizing, "validation_passed"
		}
		return StateRefining, "validation_failed"

	case StateRefining:
		// Forced escape: a stall that survives refinement synthesizes
		// whatever evidence exists instead of looping back to search.
		if ctx.IterationsWithoutProgress > 2 && ctx.ResultsFound == 0 {
			return StateSynthesizing, "forcing_synthesis_stuck_in_loop"
		}
		return StateSearching, "strategy_refined"

	case StateSynthesizing:
		if ctx.SynthesisQuality > 0.8 {
			return StateCompleted, "high_quality_synthesis"
		}
		return StateAnalyzing, "synthesis_needs_improvement"

	default:
		// Terminal states hold.
		return current, "terminal"
	}
}

// Next evaluates the rule table against the given context and advances the
// machine. Exactly one transition is appended per call, even when the state
// does not change.
func (m *Machine) Next(ctx Context) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rules {
		if r.when(m.current, ctx) {
			to, reason := r.next(m.current, ctx)
			m.transitionTo(to, reason)
			return to
		}
	}

	// Unreachable: the default rule always matches.
	return m.current
}

// Fail forces the machine into StateFailed. The rule table never produces
// Failed; this is the externally signaled fatal-error path only.
func (m *Machine) Fail(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionTo(StateFailed, reason)
}

// transitionTo records the transition and updates the current state.
// Must be called with mu held.
func (m *Machine) transitionTo(to State, reason string) {
	m.history = append(m.history, Transition{
		From:      m.current,
		To:        to,
		Reason:    reason,
		Timestamp: time.Now(),
	})
	m.current = to
}

// Current returns the current workflow state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// History returns a copy of the transition log in append order.
func (m *Machine) History() []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}

// TransitionCount returns the number of recorded transitions.
func (m *Machine) TransitionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.history)
}

// StatePath returns the sequence of states traversed so far, starting with
// the initial state.
func (m *Machine) StatePath() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	path := make([]string, 0, len(m.history)+1)
	if len(m.history) == 0 {
		return append(path, m.current.String())
	}
	path = append(path, m.history[0].From.String())
	for _, t := range m.history {
		path = append(path, t.To.String())
	}
	return path
}

// CanBacktrack reports whether any transitions remain to undo.
func (m *Machine) CanBacktrack() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.history) > 0
}

// Backtrack pops the last steps transitions and restores the prior state.
// It is an operator and debugging facility; the control loop never calls it.
// Returns an error when steps exceeds the recorded history.
func (m *Machine) Backtrack(steps int) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if steps <= 0 {
		return m.current, fmt.Errorf("backtrack steps must be positive, got %d", steps)
	}
	if steps > len(m.history) {
		return m.current, fmt.Errorf("cannot backtrack %d steps: only %d transitions recorded", steps, len(m.history))
	}

	m.history = m.history[:len(m.history)-steps]
	if len(m.history) > 0 {
		m.current = m.history[len(m.history)-1].To
	} else {
		m.current = StatePlanning
	}
	return m.current, nil
}
