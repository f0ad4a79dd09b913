package task

import (
	"testing"
	"time"
)

// baseTime is a fixed reference time for deterministic tests.
var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func deadlineIn(d time.Duration) time.Time {
	return baseTime.Add(d)
}

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestScore_CompletedSentinel(t *testing.T) {
	done := Task{Priority: PriorityHigh, Deadline: deadlineIn(-time.Hour), Completed: true}
	if got := Score(done, baseTime); got != CompletedScore {
		t.Errorf("completed task should score the fixed sentinel %d, got %d", CompletedScore, got)
	}

	// The sentinel replaces the other terms, so priority and deadline
	// make no difference once a task is done.
	other := Task{Priority: PriorityLow, Deadline: deadlineIn(900 * time.Hour), Completed: true}
	if got := Score(other, baseTime); got != CompletedScore {
		t.Errorf("expected %d for any completed task, got %d", CompletedScore, got)
	}
}

func TestScore_PriorityWeights(t *testing.T) {
	deadline := deadlineIn(300 * time.Hour) // outside every bonus bucket

	high := Score(Task{Priority: PriorityHigh, Deadline: deadline}, baseTime)
	med := Score(Task{Priority: PriorityMedium, Deadline: deadline}, baseTime)
	low := Score(Task{Priority: PriorityLow, Deadline: deadline}, baseTime)

	// 100 - 300, 50 - 300, 10 - 300
	if high != -200 {
		t.Errorf("high: expected -200, got %d", high)
	}
	if med != -250 {
		t.Errorf("medium: expected -250, got %d", med)
	}
	if low != -290 {
		t.Errorf("low: expected -290, got %d", low)
	}
}

func TestScore_ProximityLadder(t *testing.T) {
	cases := []struct {
		name   string
		offset time.Duration
		want   int
	}{
		{"one hour overdue", -time.Hour, 50 + 1000 + 1},
		{"due this hour", 0, 50 + 500},
		{"half a day out", 12 * time.Hour, 50 + 500 - 12},
		{"exactly one day out", 24 * time.Hour, 50 + 200 - 24},
		{"two days out", 48 * time.Hour, 50 + 50 - 48},
		{"one week out", 168 * time.Hour, 50 - 168},
		{"distant", 500 * time.Hour, 50 - 500},
	}

	for _, tc := range cases {
		got := Score(Task{Priority: PriorityMedium, Deadline: deadlineIn(tc.offset)}, baseTime)
		if got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestScore_SubHourOverdue(t *testing.T) {
	// 30 minutes past the deadline truncates to hour 0, which is the
	// under-a-day bucket, not the overdue one.
	got := Score(Task{Priority: PriorityMedium, Deadline: deadlineIn(-30 * time.Minute)}, baseTime)
	want := 50 + 500
	if got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestScore_OverdueGrowsWithSlip(t *testing.T) {
	slight := Score(Task{Priority: PriorityHigh, Deadline: deadlineIn(-time.Hour)}, baseTime)
	badly := Score(Task{Priority: PriorityHigh, Deadline: deadlineIn(-6 * time.Hour)}, baseTime)

	// 100 + 1000 + 1 vs 100 + 1000 + 6: the longer a task slips, the
	// higher it climbs.
	if badly <= slight {
		t.Errorf("6h overdue should outscore 1h overdue: %d vs %d", badly, slight)
	}
	if badly-slight != 5 {
		t.Errorf("expected diff of 5, got %d", badly-slight)
	}
}

func TestScore_DistantPenaltyCap(t *testing.T) {
	atCap := Score(Task{Priority: PriorityMedium, Deadline: deadlineIn(1000 * time.Hour)}, baseTime)
	pastCap := Score(Task{Priority: PriorityMedium, Deadline: deadlineIn(5000 * time.Hour)}, baseTime)
	justUnder := Score(Task{Priority: PriorityMedium, Deadline: deadlineIn(999 * time.Hour)}, baseTime)

	if atCap != pastCap {
		t.Errorf("penalty should cap at 1000 hours: %d vs %d", atCap, pastCap)
	}
	if justUnder != atCap+1 {
		t.Errorf("999h should score one point above the cap: %d vs %d", justUnder, atCap)
	}
}

func TestScore_UnknownPriorityAddsNoBase(t *testing.T) {
	got := Score(Task{Priority: Priority(9), Deadline: deadlineIn(300 * time.Hour)}, baseTime)
	if got != -300 {
		t.Errorf("unknown priority should contribute no base weight, expected -300, got %d", got)
	}
}

func TestSortByPriority_MixedCollection(t *testing.T) {
	a := Task{ID: "a", Title: "ship the fix", Priority: PriorityHigh, Deadline: deadlineIn(-time.Hour)}
	b := Task{ID: "b", Title: "write up notes", Priority: PriorityMedium, Deadline: deadlineIn(50 * time.Hour)}
	c := Task{ID: "c", Title: "old chore", Priority: PriorityHigh, Deadline: deadlineIn(2 * time.Hour), Completed: true}

	// a: 100 + 1000 + 1 = 1101
	// b: 50 + 50 - 50 = 50
	// c: completed sentinel = -1000
	if got := Score(a, baseTime); got != 1101 {
		t.Errorf("a: expected 1101, got %d", got)
	}
	if got := Score(b, baseTime); got != 50 {
		t.Errorf("b: expected 50, got %d", got)
	}
	if got := Score(c, baseTime); got != -1000 {
		t.Errorf("c: expected -1000, got %d", got)
	}

	sorted := SortByPriority([]Task{b, c, a}, baseTime)
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, sorted[i].ID)
		}
	}

	counts := Count([]Task{a, b, c})
	if counts.All != 3 || counts.Active != 2 || counts.Completed != 1 {
		t.Errorf("expected counts {3 2 1}, got %+v", counts)
	}
}

func TestSortByPriority_CompletedAlwaysLast(t *testing.T) {
	// The weakest possible open task still outranks a completed one.
	faint := Task{ID: "faint", Priority: PriorityLow, Deadline: deadlineIn(5000 * time.Hour)}
	done := Task{ID: "done", Priority: PriorityHigh, Deadline: deadlineIn(-time.Hour), Completed: true}

	sorted := SortByPriority([]Task{done, faint}, baseTime)
	if sorted[0].ID != "faint" {
		t.Errorf("open task should rank above completed, got %q first", sorted[0].ID)
	}
}

func TestSortByPriority_DeadlineTiebreak(t *testing.T) {
	// Both deadlines truncate to 30 whole hours, so the scores tie and
	// the earlier instant wins.
	early := Task{ID: "early", Priority: PriorityMedium, Deadline: deadlineIn(30 * time.Hour)}
	late := Task{ID: "late", Priority: PriorityMedium, Deadline: deadlineIn(30*time.Hour + 30*time.Minute)}

	sorted := SortByPriority([]Task{late, early}, baseTime)
	if sorted[0].ID != "early" {
		t.Errorf("expected earlier deadline first, got %q", sorted[0].ID)
	}
}

func TestSortByPriority_StableOnFullTies(t *testing.T) {
	deadline := deadlineIn(30 * time.Hour)
	first := Task{ID: "first", Priority: PriorityMedium, Deadline: deadline}
	second := Task{ID: "second", Priority: PriorityMedium, Deadline: deadline}

	sorted := SortByPriority([]Task{first, second}, baseTime)
	if sorted[0].ID != "first" || sorted[1].ID != "second" {
		t.Errorf("full ties should keep input order, got %v", ids(sorted))
	}
}

func TestSortByPriority_DoesNotMutateInput(t *testing.T) {
	input := []Task{
		{ID: "z", Priority: PriorityLow, Deadline: deadlineIn(400 * time.Hour)},
		{ID: "y", Priority: PriorityHigh, Deadline: deadlineIn(time.Hour)},
	}

	SortByPriority(input, baseTime)

	if input[0].ID != "z" || input[1].ID != "y" {
		t.Errorf("input slice was reordered: %v", ids(input))
	}
}

func TestApply_Selections(t *testing.T) {
	tasks := []Task{
		{ID: "1"},
		{ID: "2", Completed: true},
		{ID: "3"},
		{ID: "4"},
	}

	active := Apply(tasks, SelectionActive)
	if len(active) != 3 || active[0].ID != "1" || active[1].ID != "3" || active[2].ID != "4" {
		t.Errorf("active: expected [1 3 4], got %v", ids(active))
	}

	completed := Apply(tasks, SelectionCompleted)
	if len(completed) != 1 || completed[0].ID != "2" {
		t.Errorf("completed: expected [2], got %v", ids(completed))
	}

	all := Apply(tasks, SelectionAll)
	if len(all) != 4 {
		t.Errorf("all: expected 4 tasks, got %d", len(all))
	}
}

func TestApply_UnknownSelectionShowsEverything(t *testing.T) {
	tasks := []Task{{ID: "1"}, {ID: "2", Completed: true}}
	got := Apply(tasks, Selection(42))
	if len(got) != 2 {
		t.Errorf("unknown selection should behave like all, got %v", ids(got))
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	tasks := []Task{{ID: "1"}, {ID: "2", Completed: true}}
	got := Apply(tasks, SelectionActive)

	got[0].Title = "changed"
	if tasks[0].Title == "changed" {
		t.Error("filter result should be a fresh slice of values")
	}
	if len(tasks) != 2 {
		t.Errorf("input length changed: %d", len(tasks))
	}
}

func TestSortAndFilter_ActiveView(t *testing.T) {
	a := Task{ID: "a", Priority: PriorityHigh, Deadline: deadlineIn(-time.Hour)}
	b := Task{ID: "b", Priority: PriorityMedium, Deadline: deadlineIn(50 * time.Hour)}
	c := Task{ID: "c", Priority: PriorityHigh, Deadline: deadlineIn(time.Hour), Completed: true}

	got := SortAndFilter([]Task{c, b, a}, SelectionActive, baseTime)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("expected [a b], got %v", ids(got))
	}
}

func TestCount_AllIsActivePlusCompleted(t *testing.T) {
	cases := [][]Task{
		{},
		{{ID: "1"}},
		{{ID: "1", Completed: true}},
		{{ID: "1"}, {ID: "2", Completed: true}, {ID: "3"}, {ID: "4", Completed: true}},
	}

	for i, tasks := range cases {
		c := Count(tasks)
		if c.All != c.Active+c.Completed {
			t.Errorf("case %d: all (%d) != active (%d) + completed (%d)", i, c.All, c.Active, c.Completed)
		}
		if c.All != len(tasks) {
			t.Errorf("case %d: expected all=%d, got %d", i, len(tasks), c.All)
		}
	}
}
