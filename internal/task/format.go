package task

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rnwolfe/triage/internal/ui"
)

// Column display widths for consistent alignment across CLI and TUI renderers.
// Use these constants with lipgloss.NewStyle().Width(N).Render() for ANSI-safe padding.
const (
	// ColWidthID is the display width of the short ID column.
	ColWidthID = 8
	// ColWidthPrio is the display width of the priority icon column (emoji = 2 cells).
	ColWidthPrio = 2
)

// ShortID returns the display form of a task ID: the first 8 characters of
// the UUID, enough to disambiguate within one user's list.
func ShortID(id string) string {
	if len(id) <= ColWidthID {
		return id
	}
	return id[:ColWidthID]
}

// FormatDeadline renders a deadline relative to now, styled by urgency.
func FormatDeadline(deadline, now time.Time) string {
	remaining := deadline.Sub(now)
	switch {
	case remaining < 0:
		return ui.OverdueStyle.Render(fmt.Sprintf("(overdue %s)", humanizeDuration(remaining)))
	case remaining < 24*time.Hour:
		return ui.DueSoonStyle.Render(fmt.Sprintf("(due in %s)", humanizeDuration(remaining)))
	case remaining < 7*24*time.Hour:
		return ui.Muted.Render("(due " + deadline.Local().Format("Mon 15:04") + ")")
	default:
		return ui.Muted.Render("(due " + deadline.Local().Format("Jan 2") + ")")
	}
}

// FormatLine renders one task as a single aligned list row.
func FormatLine(t Task, now time.Time) string {
	marker := " "
	switch {
	case t.Completed:
		marker = ui.Success.Render("✓")
	case t.Pending:
		marker = ui.Muted.Render("…")
	}

	id := ui.Muted.Render(fmt.Sprintf("%-*s", ColWidthID, ShortID(t.ID)))
	prio := lipgloss.NewStyle().Width(ColWidthPrio).Render(t.Priority.Icon())

	title := t.Title
	switch {
	case t.Completed:
		title = ui.Muted.Render(title)
	case t.Pending:
		title = ui.PendingStyle.Render(title)
	}

	line := fmt.Sprintf("  %s %s %s %s", marker, id, prio, title)
	if t.Category != "" {
		line += ui.Muted.Render(" @" + t.Category)
	}
	if !t.Completed {
		line += " " + FormatDeadline(t.Deadline, now)
	}
	return line
}

// humanizeDuration renders a duration in its largest useful unit. The sign
// is dropped: callers say "overdue" or "due in" themselves.
func humanizeDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
