package task

import (
	"fmt"
	"strings"
	"time"
)

// Priority classifies how important a task is, independent of its deadline.
type Priority int

// Priority levels.
const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

// String returns the canonical serialized form, as stored in the tasks table.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Label returns a short human-readable priority string.
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "med"
	case PriorityLow:
		return "low"
	default:
		return "?"
	}
}

// Icon returns a colored icon for the priority.
func (p Priority) Icon() string {
	switch p {
	case PriorityHigh:
		return "🔴"
	case PriorityMedium:
		return "🟡"
	case PriorityLow:
		return "🟢"
	default:
		return "⚪"
	}
}

// ParsePriority validates and normalizes a priority string.
// Accepts full names and short aliases: l=low, m=medium, h=high.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "l":
		return PriorityLow, nil
	case "medium", "med", "m":
		return PriorityMedium, nil
	case "high", "h":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("invalid priority %q: valid values are low (l), medium (m), high (h)", s)
	}
}

// normalizePriority maps a stored priority string to a Priority, defaulting
// to medium for values written by clients this build does not know about.
func normalizePriority(s string) Priority {
	p, err := ParsePriority(s)
	if err != nil {
		return PriorityMedium
	}
	return p
}

// Selection controls which tasks a view shows.
type Selection int

const (
	SelectionAll Selection = iota
	SelectionActive
	SelectionCompleted
)

// String returns the canonical filter name.
func (s Selection) String() string {
	switch s {
	case SelectionActive:
		return "active"
	case SelectionCompleted:
		return "completed"
	default:
		return "all"
	}
}

// Next cycles to the following view tab: all, active, completed, all.
func (s Selection) Next() Selection {
	switch s {
	case SelectionAll:
		return SelectionActive
	case SelectionActive:
		return SelectionCompleted
	default:
		return SelectionAll
	}
}

// ParseSelection maps a filter string to a Selection. Unrecognized values
// fall back to SelectionAll so a stale or misspelled filter never breaks
// the view.
func ParseSelection(s string) Selection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "open", "a":
		return SelectionActive
	case "completed", "done", "c":
		return SelectionCompleted
	default:
		return SelectionAll
	}
}

// Task is a single task document. The ranking functions read only
// Priority, Deadline and Completed; everything else is opaque payload
// carried through unchanged.
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Category    string
	Priority    Priority
	Deadline    time.Time
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	// Pending marks an optimistic local entry the store has not confirmed
	// yet. Scoring and sorting treat pending tasks like any other.
	Pending bool
}

// MarkDone returns a copy of the task completed at the given instant.
func (t Task) MarkDone(now time.Time) Task {
	t.Completed = true
	t.CompletedAt = &now
	return t
}

// MarkOpen returns a copy of the task reopened.
func (t Task) MarkOpen() Task {
	t.Completed = false
	t.CompletedAt = nil
	return t
}

// Counts summarizes a task collection for filter badges.
// All is always Active plus Completed.
type Counts struct {
	All       int
	Active    int
	Completed int
}
