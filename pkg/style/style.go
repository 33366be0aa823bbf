// Package style renders rig's user-facing output: warning lines with
// severity prefixes as they happen, and the end-of-run summary.
package style

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"

	"github.com/pcornish/rig/pkg/types"
)

// Severity of an output line.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// SeverityStyle returns the pterm style for a severity prefix.
func SeverityStyle(sev Severity) *pterm.Style {
	switch sev {
	case SeverityWarn:
		return pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	case SeverityError:
		return pterm.NewStyle(pterm.FgRed, pterm.Bold)
	default:
		return pterm.NewStyle(pterm.FgCyan)
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	indentStyle = lipgloss.NewStyle().PaddingLeft(2)
)

// TitleLine renders a section heading.
func TitleLine(s string) string {
	return titleStyle.Render(s)
}

// ItemLine renders an indented item with a muted annotation.
func ItemLine(name, note string) string {
	return indentStyle.Render(name + " " + mutedStyle.Render("("+note+")"))
}

// WarningLine formats one warning for immediate printing.
func WarningLine(w types.Warning) string {
	prefix := SeverityStyle(SeverityWarn).Sprint("WARN")
	line := fmt.Sprintf("%s [%s] %s: %s", prefix, w.Code, w.Item, w.Message)
	if w.Err != nil {
		line += mutedStyle.Render(fmt.Sprintf(" (%v)", w.Err))
	}
	return line
}

// RenderSummary renders the end-of-run report: counters per action
// kind, then the collected warnings.
func RenderSummary(rep *types.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Run summary") + "\n")

	counters := []struct {
		label string
		value int
	}{
		{"packages installed", rep.Installed},
		{"packages already present", rep.Present},
		{"symlinks created", rep.Linked},
		{"files copied", rep.Copied},
		{"blocks appended", rep.Appended},
		{"files synced", rep.Synced},
		{"files deleted", rep.Deleted},
		{"actions skipped", rep.Skipped},
	}
	for _, c := range counters {
		if c.value == 0 {
			continue
		}
		b.WriteString(indentStyle.Render(fmt.Sprintf("%-26s %d", c.label, c.value)) + "\n")
	}
	if !rep.Changed() {
		b.WriteString(indentStyle.Render(mutedStyle.Render("nothing to do, system already converged")) + "\n")
	}

	if rep.HasWarnings() {
		b.WriteString("\n" + SeverityStyle(SeverityWarn).Sprintf("%d warning(s):", len(rep.Warnings)) + "\n")
		for _, w := range rep.Warnings {
			b.WriteString(indentStyle.Render(WarningLine(w)) + "\n")
		}
	}

	if rep.Fatal != nil {
		b.WriteString("\n" + SeverityStyle(SeverityError).Sprint("FATAL") + " " + rep.Fatal.Error() + "\n")
	}

	return b.String()
}
