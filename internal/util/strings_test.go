package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string cut", "hello world", 8, "hello..."},
		{"tiny budget", "hello", 3, "..."},
		{"multibyte runes", "héllö wörld", 8, "héllö..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestEllipsizePlainText(t *testing.T) {
	if got := Ellipsize("hello world", 8); got != "hello..." {
		t.Errorf("Ellipsize() = %q, want %q", got, "hello...")
	}
	if got := Ellipsize("short", 20); got != "short" {
		t.Errorf("Ellipsize() = %q, want unchanged input", got)
	}
}

func TestEllipsizeStyledText(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("a rather long styled string")

	got := Ellipsize(styled, 10)
	if w := lipgloss.Width(got); w > 10 {
		t.Errorf("Ellipsize() visual width = %d, want <= 10", w)
	}
}
