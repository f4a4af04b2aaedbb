// Package internal contains integration tests that verify the research
// packages work together: executor registry, orchestrator batches, event bus
// routing, and the full engine loop over an offline corpus.
package internal

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deepscout/deepscout/internal/event"
	"github.com/deepscout/deepscout/internal/executor"
	"github.com/deepscout/deepscout/internal/memory"
	"github.com/deepscout/deepscout/internal/orchestrator"
	"github.com/deepscout/deepscout/internal/research"
	"github.com/deepscout/deepscout/internal/validation"
)

func offlineStack(t *testing.T) (*executor.Registry, *event.Bus) {
	t.Helper()

	provider := executor.NewCorpusProvider([]executor.CorpusDoc{
		{Title: "Battery storage economics", URL: "https://example.org/battery",
			Body: "Grid battery storage costs fell sharply as lithium cell production scaled."},
		{Title: "Battery recycling", URL: "https://example.org/recycling",
			Body: "Battery recycling recovers lithium and cobalt from retired storage cells."},
		{Title: "Grid stability", URL: "https://example.org/grid",
			Body: "Battery storage smooths grid load and stabilizes renewable generation."},
	})

	reg := executor.NewRegistry()
	reg.Register(executor.NewPlanner(nil, nil))
	reg.Register(executor.NewSearcher(provider, nil, nil))
	reg.Register(executor.NewAnalyzer(nil, nil))
	return reg, event.NewBus()
}

// TestEventBusIntegration verifies that orchestrator and memory events reach
// subscribers across component boundaries.
func TestEventBusIntegration(t *testing.T) {
	reg, bus := offlineStack(t)

	var mu sync.Mutex
	received := make(map[string]int)
	bus.SubscribeAll(func(e event.Event) {
		mu.Lock()
		received[e.EventType()]++
		mu.Unlock()
	})

	orch := orchestrator.New(reg, bus, nil)
	mem := memory.New(nil, memory.WithBus(bus))

	results, err := orch.RunBatch(context.Background(), []string{"battery storage", "grid stability"})
	if err != nil {
		t.Fatalf("RunBatch() error: %v", err)
	}
	for _, r := range results {
		for _, f := range r.Findings {
			if _, err := mem.Store(context.Background(), f.Text, nil); err != nil {
				t.Fatalf("Store() error: %v", err)
			}
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, want := range []string{"batch.started", "batch.completed", "task.completed", "memory.stored"} {
		if received[want] == 0 {
			t.Errorf("no %s event received; got %v", want, received)
		}
	}
}

// TestFullRunIntegration runs the engine end to end and checks that every
// layer contributed: plan, batches, memory, validation, report.
func TestFullRunIntegration(t *testing.T) {
	reg, bus := offlineStack(t)
	orch := orchestrator.New(reg, bus, nil, orchestrator.WithTaskTimeout(5*time.Second))
	mem := memory.New(nil, memory.WithBus(bus))
	val := validation.New(nil, bus, nil)
	engine := research.New(reg, orch, mem, val, bus, nil, research.WithMaxIterations(8))

	report, err := engine.Execute(context.Background(), "battery storage")
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if report.FindingCount == 0 {
		t.Error("run produced no findings from a matching corpus")
	}
	if report.MemoryStats.ItemCount == 0 {
		t.Error("run stored nothing in semantic memory")
	}
	if !strings.Contains(report.Text, "battery storage") {
		t.Error("report does not mention the query")
	}
	if len(report.StatePath) < 2 {
		t.Errorf("StatePath = %v, want at least one transition", report.StatePath)
	}

	// Stored findings are searchable by meaning afterward.
	matches, err := mem.Search(context.Background(), "battery storage costs", 3, 0.1)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(matches) == 0 {
		t.Error("semantic memory returned nothing for a topical query")
	}
}
