package task

import (
	"sort"
	"time"
)

// Base score weights per priority.
const (
	weightHigh   = 100
	weightMedium = 50
	weightLow    = 10
)

// Deadline-proximity bonus ladder. First match wins.
const (
	bonusOverdue   = 1000 // deadline already passed
	bonusUnderDay  = 500  // less than 24h remaining
	bonusUnderTwo  = 200  // less than 48h remaining
	bonusUnderWeek = 50   // less than a week remaining
)

// CompletedScore is the fixed score assigned to completed tasks. It
// replaces the priority and deadline terms entirely, parking completed
// work below anything still open.
const CompletedScore = -1000

// deadlinePenaltyCap bounds the distance penalty so a far-future deadline
// stops costing points past this many hours.
const deadlinePenaltyCap = 1000

// Score computes the display score for a single task. Higher means more
// urgent. now is the reference instant; callers read the clock once and
// reuse it across a whole ranking pass so every task is scored against
// the same moment.
//
// Open tasks score their priority weight plus a proximity bonus, minus
// one point per whole hour until the deadline. Overdue tasks have
// negative remaining hours, so the subtraction pushes them higher the
// longer they slip.
func Score(t Task, now time.Time) int {
	if t.Completed {
		return CompletedScore
	}

	score := 0
	switch t.Priority {
	case PriorityHigh:
		score += weightHigh
	case PriorityMedium:
		score += weightMedium
	case PriorityLow:
		score += weightLow
	}

	// Whole hours, truncated toward zero: 30 minutes overdue is still
	// hour 0 and lands in the under-a-day bucket, not the overdue one.
	hours := int(t.Deadline.Sub(now) / time.Hour)

	switch {
	case hours < 0:
		score += bonusOverdue
	case hours < 24:
		score += bonusUnderDay
	case hours < 48:
		score += bonusUnderTwo
	case hours < 168:
		score += bonusUnderWeek
	}

	if hours > deadlinePenaltyCap {
		hours = deadlinePenaltyCap
	}
	score -= hours

	return score
}

// SortByPriority returns the tasks ordered for display: open tasks before
// completed ones, then score descending, then nearest deadline first.
// Residual ties keep their input order. The input slice is not modified.
func SortByPriority(tasks []Task, now time.Time) []Task {
	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		// Completed tasks sink regardless of score, so the ordering
		// survives any future change to the completed sentinel.
		if a.Completed != b.Completed {
			return !a.Completed
		}
		sa, sb := Score(a, now), Score(b, now)
		if sa != sb {
			return sa > sb
		}
		// Tiebreaker: nearer deadline first.
		return a.Deadline.Before(b.Deadline)
	})
	return sorted
}

// Apply returns the subsequence of tasks matching the selection, in input
// order. The result is always a fresh slice; unknown selections behave
// like SelectionAll.
func Apply(tasks []Task, sel Selection) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		switch sel {
		case SelectionActive:
			if t.Completed {
				continue
			}
		case SelectionCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// SortAndFilter applies the selection, then orders the survivors.
// Filtering first keeps the sort from scoring tasks that will not be
// shown.
func SortAndFilter(tasks []Task, sel Selection, now time.Time) []Task {
	return SortByPriority(Apply(tasks, sel), now)
}

// Count summarizes the unfiltered collection for filter badges.
func Count(tasks []Task) Counts {
	c := Counts{All: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			c.Completed++
		} else {
			c.Active++
		}
	}
	return c
}
