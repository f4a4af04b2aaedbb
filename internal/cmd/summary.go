package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/deepscout/deepscout/internal/research"
	"github.com/deepscout/deepscout/internal/util"
)

// summaryValueWidth bounds how wide a single summary value may render.
const summaryValueWidth = 72

var (
	summaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)

	summaryTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	summaryLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14)

	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	degradedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// renderSummary formats the final run summary block.
func renderSummary(report *research.Report, path string) string {
	state := degradedStyle.Render(report.FinalState)
	if report.FinalState == "completed" {
		state = completedStyle.Render(report.FinalState)
	}

	rows := []string{
		summaryTitle.Render("Research complete"),
		"",
		row("Query", util.Truncate(report.Query, summaryValueWidth)),
		row("Final state", state),
		row("Iterations", fmt.Sprintf("%d", report.IterationsRun)),
		row("Transitions", fmt.Sprintf("%d", report.TotalTransitions)),
		row("Path", util.Ellipsize(strings.Join(report.StatePath, " > "), summaryValueWidth)),
		row("Findings", fmt.Sprintf("%d", report.FindingCount)),
		row("Validated", fmt.Sprintf("%d (reliability %.2f)", report.ValidationCount, report.ReliabilityScore)),
		row("Confidence", fmt.Sprintf("%.2f", report.Confidence)),
		row("Memory", fmt.Sprintf("%d items (%s, %dd)", report.MemoryStats.ItemCount,
			report.MemoryStats.Provider, report.MemoryStats.Dimensions)),
		row("Elapsed", elapsedString(report.Elapsed)),
		row("Report", path),
	}

	return summaryBox.Render(strings.Join(rows, "\n"))
}

func row(label, value string) string {
	return summaryLabel.Render(label) + " " + value
}
