package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deepscout/deepscout/internal/research"
)

func TestResearchCommandRegistered(t *testing.T) {
	for _, c := range rootCmd.Commands() {
		if c.Name() == "research" {
			return
		}
	}
	t.Fatal("research command not registered on root")
}

func TestBuildSearchProviderBuiltin(t *testing.T) {
	p, err := buildSearchProvider("")
	if err != nil {
		t.Fatalf("buildSearchProvider(\"\") error: %v", err)
	}
	hits, err := p.Search(context.Background(), "quantum computing", 5)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(hits) == 0 {
		t.Error("builtin corpus should match a quantum computing query")
	}
}

func TestBuildSearchProviderFromDirectory(t *testing.T) {
	dir := t.TempDir()
	content := []byte("Tidal power stations convert ocean currents into electricity.")
	if err := os.WriteFile(filepath.Join(dir, "tidal.txt"), content, 0644); err != nil {
		t.Fatal(err)
	}

	p, err := buildSearchProvider(dir)
	if err != nil {
		t.Fatalf("buildSearchProvider() error: %v", err)
	}
	hits, err := p.Search(context.Background(), "tidal power electricity", 5)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Title != "tidal" {
		t.Errorf("hit title = %q, want file basename", hits[0].Title)
	}
}

func TestBuildSearchProviderEmptyDirectory(t *testing.T) {
	if _, err := buildSearchProvider(t.TempDir()); err == nil {
		t.Error("empty corpus directory should error")
	}
}

func TestRenderSummaryContainsRunFacts(t *testing.T) {
	report := &research.Report{
		Query:            "test query",
		FinalState:       "completed",
		StatePath:        []string{"planning", "searching", "completed"},
		TotalTransitions: 2,
		IterationsRun:    3,
		FindingCount:     4,
	}

	out := renderSummary(report, "/tmp/report.md")
	for _, want := range []string{"test query", "completed", "planning", "/tmp/report.md"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}
