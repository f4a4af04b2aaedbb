// Package util provides small string helpers shared across the codebase.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Truncate shortens s to at most maxLen runes, appending "..." when it cuts.
// It ignores styling; use Ellipsize for styled terminal output.
func Truncate(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// Ellipsize shortens s to at most maxWidth visual columns, appending "..."
// when it cuts. ANSI escape sequences and wide characters are measured
// correctly, so styled summary rows keep their colors when trimmed.
func Ellipsize(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth-3, "") + "..."
}
