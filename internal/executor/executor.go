// Package executor defines the role-based task executors of the research
// engine. Each role transforms a Request into a Result; the orchestrator and
// the research controller depend only on the Executor interface and the
// Registry, never on a concrete role implementation.
package executor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/deepscout/deepscout/internal/errors"
)

// Role identifies an executor specialization.
type Role string

const (
	// RolePlanner decomposes a research query into ordered sub-queries.
	RolePlanner Role = "planner"
	// RoleSearcher gathers raw hits for a sub-query.
	RoleSearcher Role = "searcher"
	// RoleAnalyzer extracts findings and confidence from raw hits.
	RoleAnalyzer Role = "analyzer"
)

// Request is the input to one executor invocation.
type Request struct {
	// Query is the question or sub-query to work on.
	Query string
	// Hints carries optional steering notes accumulated by the controller,
	// such as refinement strategies from earlier iterations.
	Hints []string
	// Hits carries raw search results for roles that consume them
	// (the analyzer); empty for other roles.
	Hits []SearchHit
}

// Finding is one extracted piece of evidence. Immutable once produced.
type Finding struct {
	Text       string
	Sources    []string
	Confidence float64
}

// PlanStep is one entry of a research plan.
type PlanStep struct {
	Step      int
	Query     string
	Reasoning string
}

// Result is the outcome of one executor invocation. Findings is always
// non-nil on a nil-error return, possibly empty; absence of evidence is
// expressed through an empty list plus a low confidence, never a nil slice.
type Result struct {
	Role       Role
	Findings   []Finding
	Confidence float64
	Sources    []string

	// Gaps and Contradictions are produced by the analyzer role.
	Gaps           []string
	Contradictions []string

	// Plan is produced by the planner role.
	Plan []PlanStep

	// QueryUsed and Hits are produced by the searcher role. QueryUsed may
	// differ from the request query after optimization.
	QueryUsed string
	Hits      []SearchHit

	Elapsed time.Duration
}

// Executor processes one request for a single role.
type Executor interface {
	Role() Role
	Process(ctx context.Context, req Request) (*Result, error)
}

// Registry maps roles to their executor implementations.
type Registry struct {
	mu        sync.RWMutex
	executors map[Role]Executor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[Role]Executor)}
}

// Register binds an executor to its role, replacing any prior binding.
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[e.Role()] = e
}

// Get returns the executor for the role, or ErrNoExecutor.
func (r *Registry) Get(role Role) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[role]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNoExecutor, "role %s", role)
	}
	return e, nil
}

// Roles returns the registered roles in sorted order.
func (r *Registry) Roles() []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roles := make([]Role, 0, len(r.executors))
	for role := range r.executors {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}
