package event

import (
	"testing"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.Subscribe("workflow.transition", func(e Event) {
		te := e.(TransitionEvent)
		got = append(got, te.From+"->"+te.To)
	})

	bus.Publish(NewTransitionEvent("planning", "searching", "plan_complete"))
	bus.Publish(NewProgressEvent("searching", 1, 0.5, 0.2, "dispatching"))

	if len(got) != 1 || got[0] != "planning->searching" {
		t.Errorf("handler received %v, want [planning->searching]", got)
	}
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewBus()

	count := 0
	bus.SubscribeAll(func(Event) { count++ })

	bus.Publish(NewBatchStartedEvent([]string{"a", "b"}))
	bus.Publish(NewBatchCompletedEvent(2, 2, 0, 0))
	bus.Publish(NewMemoryStoredEvent("mem-1"))

	if count != 3 {
		t.Errorf("wildcard handler called %d times, want 3", count)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	count := 0
	id := bus.Subscribe("task.completed", func(Event) { count++ })

	bus.Publish(NewTaskCompletedEvent("q", true, 0))
	if !bus.Unsubscribe(id) {
		t.Fatal("Unsubscribe returned false for live subscription")
	}
	bus.Publish(NewTaskCompletedEvent("q", true, 0))

	if count != 1 {
		t.Errorf("handler called %d times, want 1", count)
	}
	if bus.Unsubscribe(id) {
		t.Error("Unsubscribe returned true for removed subscription")
	}
}

func TestPanickingHandlerDoesNotBlockDelivery(t *testing.T) {
	bus := NewBus()

	delivered := false
	bus.Subscribe("validation.completed", func(Event) { panic("boom") })
	bus.Subscribe("validation.completed", func(Event) { delivered = true })

	bus.Publish(NewValidationCompletedEvent("claim", "high", 0.9))

	if !delivered {
		t.Error("second handler not called after first panicked")
	}
}

func TestSubscriptionCountAndClear(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("a", func(Event) {})
	bus.Subscribe("b", func(Event) {})
	bus.SubscribeAll(func(Event) {})

	if got := bus.SubscriptionCount(); got != 3 {
		t.Errorf("SubscriptionCount() = %d, want 3", got)
	}

	bus.Clear()
	if got := bus.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() after Clear = %d, want 0", got)
	}
}
