package task

import (
	"sort"
	"time"
)

const dayFormat = "2006-01-02"

// Stats summarizes a user's task history at a single point in time.
type Stats struct {
	Counts         Counts
	Overdue        int
	DueToday       int
	Streak         int
	LongestStreak  int
	CompletedWeek  int
	CompletedMonth int
	AvgClose       time.Duration
	ByCategory     []CategoryStats
}

// CategoryStats breaks task counts down by category. Tasks without a
// category are grouped under "(none)".
type CategoryStats struct {
	Name      string
	Active    int
	Completed int
}

// ComputeStats derives Stats from a snapshot of tasks. The snapshot is not
// modified. Day boundaries follow now's location.
func ComputeStats(tasks []Task, now time.Time) Stats {
	s := Stats{Counts: Count(tasks)}

	today := now.Format(dayFormat)
	weekStart := startOfWeek(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var closed int
	var closeTotal time.Duration

	byCat := make(map[string]*CategoryStats)
	for _, t := range tasks {
		name := t.Category
		if name == "" {
			name = "(none)"
		}
		cs := byCat[name]
		if cs == nil {
			cs = &CategoryStats{Name: name}
			byCat[name] = cs
		}

		if !t.Completed {
			cs.Active++
			if t.Deadline.Before(now) {
				s.Overdue++
			} else if t.Deadline.In(now.Location()).Format(dayFormat) == today {
				s.DueToday++
			}
			continue
		}

		cs.Completed++
		if t.CompletedAt == nil {
			continue
		}
		done := t.CompletedAt.In(now.Location())
		if !done.Before(weekStart) {
			s.CompletedWeek++
		}
		if !done.Before(monthStart) {
			s.CompletedMonth++
		}
		if t.CompletedAt.After(t.CreatedAt) {
			closed++
			closeTotal += t.CompletedAt.Sub(t.CreatedAt)
		}
	}
	if closed > 0 {
		s.AvgClose = closeTotal / time.Duration(closed)
	}

	s.Streak, s.LongestStreak = streaks(tasks, now)

	cats := make([]CategoryStats, 0, len(byCat))
	for _, cs := range byCat {
		cats = append(cats, *cs)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Completed != cats[j].Completed {
			return cats[i].Completed > cats[j].Completed
		}
		if cats[i].Active != cats[j].Active {
			return cats[i].Active > cats[j].Active
		}
		return cats[i].Name < cats[j].Name
	})
	s.ByCategory = cats

	return s
}

// streaks returns the current and longest runs of consecutive days that
// closed at least one task. The current run counts as long as its latest
// day is today or yesterday, so a quiet morning does not break it.
func streaks(tasks []Task, now time.Time) (current, longest int) {
	seen := make(map[string]bool)
	for _, t := range tasks {
		if t.CompletedAt == nil {
			continue
		}
		seen[t.CompletedAt.In(now.Location()).Format(dayFormat)] = true
	}
	if len(seen) == 0 {
		return 0, 0
	}

	days := make([]string, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Strings(days)

	// Parsing the day strings back lands them in UTC, so consecutive days
	// are exactly 24 hours apart regardless of DST in now's location.
	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		prev, _ := time.Parse(dayFormat, days[i-1])
		cur, _ := time.Parse(dayFormat, days[i])
		if cur.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	today := now.Format(dayFormat)
	yesterday := now.AddDate(0, 0, -1).Format(dayFormat)
	if last := days[len(days)-1]; last != today && last != yesterday {
		return 0, longest
	}
	return run, longest
}

// startOfWeek returns midnight on the Monday of now's week.
func startOfWeek(now time.Time) time.Time {
	wd := int(now.Weekday())
	if wd == 0 {
		wd = 7
	}
	day := now.AddDate(0, 0, -(wd - 1))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
}
