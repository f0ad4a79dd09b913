package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rnwolfe/triage/internal/task"
)

var browserTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// seedBrowser builds a Browser over a MemStore with one open task per title.
// Deadlines step out a day at a time so ranking matches creation order.
func seedBrowser(t *testing.T, titles ...string) (*Browser, *task.MemStore) {
	t.Helper()
	store := task.NewMemStore()
	t.Cleanup(func() { store.Close() })

	for i, title := range titles {
		if _, err := store.Create(context.Background(), task.Task{
			ID:       fmt.Sprintf("t%d", i+1),
			UserID:   "alice",
			Title:    title,
			Priority: task.PriorityMedium,
			Deadline: browserTime.Add(time.Duration(i+1) * 24 * time.Hour),
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	m := NewBrowser(store, "alice", task.SelectionAll, nil)
	m.clock = func() time.Time { return browserTime }
	syncSnapshot(t, m, store)
	return m, store
}

// syncSnapshot feeds the store's current state to the model, the way the
// watch channel would.
func syncSnapshot(t *testing.T, m *Browser, store task.Store) {
	t.Helper()
	snap, err := store.List(context.Background(), "alice")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	m.Update(snapshotMsg(snap))
}

func press(m *Browser, r rune) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return cmd
}

func pressKey(m *Browser, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

// runCmd executes a store command synchronously and feeds any resulting
// message back into the model.
func runCmd(m *Browser, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		m.Update(msg)
	}
}

func TestNewBrowser_LoadsSnapshot(t *testing.T) {
	m, _ := seedBrowser(t, "one", "two", "three")

	if !m.loaded {
		t.Fatal("model should be loaded after the first snapshot")
	}
	if m.cursor != 0 {
		t.Fatalf("cursor should start at 0, got %d", m.cursor)
	}
	if len(m.view) != 3 {
		t.Fatalf("all tasks should be visible initially, got %d", len(m.view))
	}
	if m.counts.All != 3 || m.counts.Active != 3 {
		t.Fatalf("unexpected counts: %+v", m.counts)
	}
	if m.mode != modeNormal {
		t.Fatalf("initial mode should be normal, got %d", m.mode)
	}
}

func TestBrowser_ShowsLoadingBeforeFirstSnapshot(t *testing.T) {
	store := task.NewMemStore()
	defer store.Close()

	m := NewBrowser(store, "alice", task.SelectionAll, nil)
	if !strings.Contains(m.View(), "Loading") {
		t.Fatal("view should show a loading line before the first snapshot")
	}
}

func TestBrowser_NavigateDownUp(t *testing.T) {
	m, _ := seedBrowser(t, "one", "two", "three")

	press(m, 'j')
	if m.cursor != 1 {
		t.Fatalf("cursor should be 1 after j, got %d", m.cursor)
	}

	press(m, 'j')
	press(m, 'j') // clamp at bottom
	if m.cursor != 2 {
		t.Fatalf("cursor should clamp at 2, got %d", m.cursor)
	}

	press(m, 'k')
	if m.cursor != 1 {
		t.Fatalf("cursor should be 1 after k, got %d", m.cursor)
	}

	pressKey(m, tea.KeyUp)
	if m.cursor != 0 {
		t.Fatalf("cursor should be 0 after up arrow, got %d", m.cursor)
	}
}

func TestBrowser_GotoTopBottom(t *testing.T) {
	m, _ := seedBrowser(t, "a", "b", "c", "d")

	press(m, 'G')
	if m.cursor != 3 {
		t.Fatalf("G should move to last row, got %d", m.cursor)
	}

	press(m, 'g')
	if m.cursor != 0 {
		t.Fatalf("g should move to first row, got %d", m.cursor)
	}
}

func TestBrowser_TabsFilterRows(t *testing.T) {
	m, store := seedBrowser(t, "one", "two", "three")

	// Finish "two" out of band, then reconcile.
	done, err := store.Get(context.Background(), "alice", "t2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := store.Update(context.Background(), done.MarkDone(browserTime)); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	syncSnapshot(t, m, store)

	if m.counts.Completed != 1 || m.counts.Active != 2 {
		t.Fatalf("unexpected counts after completion: %+v", m.counts)
	}

	pressKey(m, tea.KeyTab)
	if m.selection != task.SelectionActive || len(m.view) != 2 {
		t.Fatalf("tab should show 2 active rows, got %d (%v)", len(m.view), m.selection)
	}

	pressKey(m, tea.KeyTab)
	if m.selection != task.SelectionCompleted || len(m.view) != 1 {
		t.Fatalf("tab should show 1 completed row, got %d (%v)", len(m.view), m.selection)
	}

	pressKey(m, tea.KeyTab)
	if m.selection != task.SelectionAll || len(m.view) != 3 {
		t.Fatalf("tab should wrap to all 3 rows, got %d (%v)", len(m.view), m.selection)
	}

	press(m, '2')
	if m.selection != task.SelectionActive {
		t.Fatalf("2 should jump to the active tab, got %v", m.selection)
	}
}

func TestBrowser_ToggleWritesThrough(t *testing.T) {
	m, store := seedBrowser(t, "one", "two")

	cmd := press(m, 'x')
	if cmd == nil {
		t.Fatal("toggle should produce a store command")
	}

	// Optimistic: completed rows sink to the bottom immediately, with the
	// cursor following the task.
	if m.view[len(m.view)-1].ID != "t1" || !m.view[len(m.view)-1].Completed {
		t.Fatalf("toggled task should sink to the bottom: %v", m.view)
	}
	if m.view[m.cursor].ID != "t1" {
		t.Fatalf("cursor should follow the toggled task, got %q", m.view[m.cursor].ID)
	}

	runCmd(m, cmd)
	got, err := store.Get(context.Background(), "alice", "t1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Completed {
		t.Fatal("toggle should persist the completion")
	}

	// Toggling again reopens it.
	cmd = press(m, 'x')
	runCmd(m, cmd)
	got, err = store.Get(context.Background(), "alice", "t1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Completed {
		t.Fatal("second toggle should reopen the task")
	}
}

func TestBrowser_DeleteWritesThrough(t *testing.T) {
	m, store := seedBrowser(t, "one", "two", "three")

	cmd := press(m, 'd')
	if len(m.view) != 2 {
		t.Fatalf("row should disappear immediately, got %d", len(m.view))
	}

	runCmd(m, cmd)
	left, err := store.List(context.Background(), "alice")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(left) != 2 {
		t.Fatalf("store should have 2 tasks after delete, got %d", len(left))
	}
	for _, task := range left {
		if task.ID == "t1" {
			t.Fatal("deleted task still present in store")
		}
	}
}

func TestBrowser_AddCreatesPendingThenStores(t *testing.T) {
	m, store := seedBrowser(t, "one")

	press(m, 'a')
	if m.mode != modeAdd {
		t.Fatalf("a should enter add mode, got %d", m.mode)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("pay rent")})
	cmd := pressKey(m, tea.KeyEnter)
	if m.mode != modeNormal {
		t.Fatalf("enter should leave add mode, got %d", m.mode)
	}

	var pending *task.Task
	for i := range m.view {
		if m.view[i].Title == "pay rent" {
			pending = &m.view[i]
		}
	}
	if pending == nil {
		t.Fatal("new task should appear immediately")
	}
	if !pending.Pending {
		t.Fatal("optimistic entry should be marked pending")
	}
	if m.view[m.cursor].Title != "pay rent" {
		t.Fatalf("cursor should land on the new task, got %q", m.view[m.cursor].Title)
	}

	runCmd(m, cmd)
	syncSnapshot(t, m, store)

	for _, row := range m.view {
		if row.Pending {
			t.Fatalf("no rows should stay pending after reconcile: %+v", row)
		}
	}
	if m.counts.All != 2 {
		t.Fatalf("expected 2 tasks after add, got %+v", m.counts)
	}
}

func TestBrowser_AddEmptyTitleDoesNothing(t *testing.T) {
	m, store := seedBrowser(t, "one")

	press(m, 'a')
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("   ")})
	cmd := pressKey(m, tea.KeyEnter)
	if cmd != nil {
		t.Fatal("blank add should not produce a store command")
	}

	left, err := store.List(context.Background(), "alice")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(left) != 1 {
		t.Fatalf("store should be unchanged, got %d tasks", len(left))
	}
}

func TestBrowser_PendingRowsRefuseEdits(t *testing.T) {
	m, store := seedBrowser(t)

	press(m, 'a')
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("slow save")})
	pressKey(m, tea.KeyEnter) // command deliberately not run

	if cmd := press(m, 'x'); cmd != nil {
		t.Fatal("toggling a pending row should not hit the store")
	}
	if m.status == "" {
		t.Fatal("toggling a pending row should explain itself")
	}

	left, err := store.List(context.Background(), "alice")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("store should be untouched, got %d tasks", len(left))
	}
}

func TestBrowser_SearchFiltersRows(t *testing.T) {
	m, _ := seedBrowser(t, "pay rent", "book dentist", "ship release")

	press(m, '/')
	if m.mode != modeSearch {
		t.Fatalf("/ should enter search mode, got %d", m.mode)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("rent")})
	if len(m.view) != 1 || m.view[0].Title != "pay rent" {
		t.Fatalf("search should narrow to 'pay rent', got %v", m.view)
	}

	// Enter keeps the query active.
	pressKey(m, tea.KeyEnter)
	if m.mode != modeNormal || len(m.view) != 1 {
		t.Fatalf("enter should keep the filter, got %d rows", len(m.view))
	}

	// Esc from normal mode clears it.
	pressKey(m, tea.KeyEsc)
	if len(m.view) != 3 {
		t.Fatalf("esc should clear the filter, got %d rows", len(m.view))
	}
}

func TestBrowser_SearchEscClearsInsideSearchMode(t *testing.T) {
	m, _ := seedBrowser(t, "pay rent", "book dentist")

	press(m, '/')
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("xyz")})
	if len(m.view) != 0 {
		t.Fatalf("no rows should match, got %d", len(m.view))
	}

	pressKey(m, tea.KeyEsc)
	if m.mode != modeNormal || len(m.view) != 2 {
		t.Fatalf("esc should clear search and restore rows, got %d", len(m.view))
	}
}

func TestBrowser_SnapshotKeepsCursorOnTask(t *testing.T) {
	m, store := seedBrowser(t, "one", "two", "three")

	press(m, 'j') // select t2
	if m.view[m.cursor].ID != "t2" {
		t.Fatalf("expected cursor on t2, got %q", m.view[m.cursor].ID)
	}

	// A snapshot that removes t1 arrives; the cursor stays on t2.
	if err := store.Delete(context.Background(), "alice", "t1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	syncSnapshot(t, m, store)

	if m.view[m.cursor].ID != "t2" {
		t.Fatalf("cursor should stay on t2 after reconcile, got %q", m.view[m.cursor].ID)
	}
}

func TestBrowser_OpErrorShowsStatusUntilNextSnapshot(t *testing.T) {
	m, store := seedBrowser(t, "one")

	m.Update(opErrMsg{errors.New("disk on fire")})
	if m.status != "disk on fire" {
		t.Fatalf("status should carry the error, got %q", m.status)
	}
	if !strings.Contains(m.View(), "disk on fire") {
		t.Fatal("view should surface the error")
	}

	syncSnapshot(t, m, store)
	if m.status != "" {
		t.Fatalf("snapshot should clear the status, got %q", m.status)
	}
}

func TestBrowser_WatchClosed(t *testing.T) {
	m, _ := seedBrowser(t, "one")

	m.Update(watchClosedMsg{})
	if m.status != "live updates stopped" {
		t.Fatalf("unexpected status: %q", m.status)
	}
}

func TestBrowser_QuitKeys(t *testing.T) {
	m, _ := seedBrowser(t, "one")

	cmd := press(m, 'q')
	if !m.quitting {
		t.Fatal("q should set quitting")
	}
	if cmd == nil {
		t.Fatal("q should return the quit command")
	}
}

func TestBrowser_ViewRendersTabsAndRows(t *testing.T) {
	m, _ := seedBrowser(t, "pay rent", "book dentist")

	out := m.View()
	for _, want := range []string{"triage", "All 2", "Active 2", "Done 0", "pay rent", "book dentist"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}
