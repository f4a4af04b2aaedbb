// Package event defines the event bus and event types that decouple the
// research engine from progress consumers. Convention for event type names
// is "category.action", e.g. "workflow.transition", "batch.completed".
package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{eventType: eventType, timestamp: time.Now()}
}

// TransitionEvent is emitted for every workflow state change.
type TransitionEvent struct {
	baseEvent
	From   string // Previous state name
	To     string // New state name
	Reason string // Rule that produced the transition
}

// NewTransitionEvent creates a TransitionEvent.
func NewTransitionEvent(from, to, reason string) TransitionEvent {
	return TransitionEvent{
		baseEvent: newBaseEvent("workflow.transition"),
		From:      from,
		To:        to,
		Reason:    reason,
	}
}

// ProgressEvent is the per-iteration progress snapshot exposed for streaming.
type ProgressEvent struct {
	baseEvent
	State      string  // Current workflow state
	Iteration  int     // 1-based iteration counter
	Confidence float64 // Mean confidence across research steps
	Coverage   float64 // Fraction of planned sub-queries addressed
	Message    string  // Human-readable progress note
}

// NewProgressEvent creates a ProgressEvent.
func NewProgressEvent(state string, iteration int, confidence, coverage float64, message string) ProgressEvent {
	return ProgressEvent{
		baseEvent:  newBaseEvent("iteration.progress"),
		State:      state,
		Iteration:  iteration,
		Confidence: confidence,
		Coverage:   coverage,
		Message:    message,
	}
}

// BatchStartedEvent is emitted when the orchestrator dispatches a batch.
type BatchStartedEvent struct {
	baseEvent
	Queries []string // Queries in dispatch order
}

// NewBatchStartedEvent creates a BatchStartedEvent.
func NewBatchStartedEvent(queries []string) BatchStartedEvent {
	return BatchStartedEvent{
		baseEvent: newBaseEvent("batch.started"),
		Queries:   queries,
	}
}

// BatchCompletedEvent is emitted when all subtasks of a batch have joined.
type BatchCompletedEvent struct {
	baseEvent
	Total     int           // Subtasks dispatched
	Succeeded int           // Subtasks that produced results
	Failed    int           // Subtasks substituted with empty results
	Elapsed   time.Duration // Wall-clock batch duration
}

// NewBatchCompletedEvent creates a BatchCompletedEvent.
func NewBatchCompletedEvent(total, succeeded, failed int, elapsed time.Duration) BatchCompletedEvent {
	return BatchCompletedEvent{
		baseEvent: newBaseEvent("batch.completed"),
		Total:     total,
		Succeeded: succeeded,
		Failed:    failed,
		Elapsed:   elapsed,
	}
}

// TaskCompletedEvent is emitted when a single subtask finishes.
type TaskCompletedEvent struct {
	baseEvent
	Query   string        // Query the subtask served
	Success bool          // False when the slot was error-substituted
	Elapsed time.Duration // Subtask duration
}

// NewTaskCompletedEvent creates a TaskCompletedEvent.
func NewTaskCompletedEvent(query string, success bool, elapsed time.Duration) TaskCompletedEvent {
	return TaskCompletedEvent{
		baseEvent: newBaseEvent("task.completed"),
		Query:     query,
		Success:   success,
		Elapsed:   elapsed,
	}
}

// MemoryStoredEvent is emitted when a finding is stored in semantic memory.
type MemoryStoredEvent struct {
	baseEvent
	ItemID string // Assigned memory item ID
}

// NewMemoryStoredEvent creates a MemoryStoredEvent.
func NewMemoryStoredEvent(itemID string) MemoryStoredEvent {
	return MemoryStoredEvent{
		baseEvent: newBaseEvent("memory.stored"),
		ItemID:    itemID,
	}
}

// ValidationCompletedEvent is emitted when a finding has been validated.
type ValidationCompletedEvent struct {
	baseEvent
	Claim      string  // Validated claim text
	Level      string  // Reliability level name
	Confidence float64 // Validator confidence
}

// NewValidationCompletedEvent creates a ValidationCompletedEvent.
func NewValidationCompletedEvent(claim, level string, confidence float64) ValidationCompletedEvent {
	return ValidationCompletedEvent{
		baseEvent:  newBaseEvent("validation.completed"),
		Claim:      claim,
		Level:      level,
		Confidence: confidence,
	}
}
