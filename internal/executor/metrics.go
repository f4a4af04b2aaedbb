package executor

import "sync"

// Metrics tracks per-role execution statistics with running averages, so a
// long run never accumulates per-task samples.
type Metrics struct {
	mu             sync.Mutex
	tasksCompleted map[Role]int
	avgLatency     map[Role]float64
	successRate    map[Role]float64
}

// NewMetrics creates an empty Metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{
		tasksCompleted: make(map[Role]int),
		avgLatency:     make(map[Role]float64),
		successRate:    make(map[Role]float64),
	}
}

// Record folds one completed task into the running averages for the role.
// Latency is in seconds.
func (m *Metrics) Record(role Role, latencySeconds float64, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.tasksCompleted[role] + 1
	m.tasksCompleted[role] = n

	m.avgLatency[role] = (m.avgLatency[role]*float64(n-1) + latencySeconds) / float64(n)

	s := 0.0
	if success {
		s = 1.0
	}
	m.successRate[role] = (m.successRate[role]*float64(n-1) + s) / float64(n)
}

// RoleStats is a snapshot of one role's metrics.
type RoleStats struct {
	TasksCompleted int
	AvgLatency     float64
	SuccessRate    float64
}

// Snapshot returns per-role statistics for every role with recorded tasks.
func (m *Metrics) Snapshot() map[Role]RoleStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[Role]RoleStats, len(m.tasksCompleted))
	for role, n := range m.tasksCompleted {
		out[role] = RoleStats{
			TasksCompleted: n,
			AvgLatency:     m.avgLatency[role],
			SuccessRate:    m.successRate[role],
		}
	}
	return out
}
