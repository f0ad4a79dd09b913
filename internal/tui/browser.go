package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/rnwolfe/triage/internal/task"
	"github.com/rnwolfe/triage/internal/ui"
)

// quickAddDeadline is how far out the deadline lands for tasks captured with
// the in-browser add form, which only takes a title.
const quickAddDeadline = 24 * time.Hour

// Messages delivered to the browser model.
type (
	// snapshotMsg carries a fresh store snapshot for the watched user.
	snapshotMsg []task.Task
	// watchClosedMsg reports that the store closed the update channel.
	watchClosedMsg struct{}
	// opErrMsg reports a failed store write.
	opErrMsg struct{ err error }
)

type browserMode int

const (
	modeNormal browserMode = iota
	modeSearch
	modeAdd
)

// Browser is the full-screen task browser. It keeps a local copy of the
// user's collection, applies edits optimistically for instant feedback, and
// reconciles against the snapshots the store pushes through Watch.
type Browser struct {
	store   task.Store
	userID  string
	updates <-chan []task.Task
	clock   func() time.Time

	tasks     []task.Task // canonical collection, creation order
	view      []task.Task // ranked rows for the active tab and search query
	counts    task.Counts
	derivedAt time.Time // the single instant the current view was ranked at
	selection task.Selection
	cursor    int
	mode      browserMode
	loaded    bool

	search textinput.Model
	add    textinput.Model

	status   string
	width    int
	height   int
	quitting bool
}

// NewBrowser creates a Browser showing the given tab. updates is the
// channel returned by Store.Watch; the first snapshot arrives through it.
func NewBrowser(store task.Store, userID string, selection task.Selection, updates <-chan []task.Task) *Browser {
	search := textinput.New()
	search.Prompt = "/ "
	search.PromptStyle = lipgloss.NewStyle().Foreground(ui.Amber).Bold(true)
	search.Placeholder = "search..."
	search.CharLimit = 100
	search.Width = 40

	add := textinput.New()
	add.Prompt = "add: "
	add.PromptStyle = lipgloss.NewStyle().Foreground(ui.Jade).Bold(true)
	add.Placeholder = "what needs doing?"
	add.CharLimit = 200
	add.Width = 50

	m := &Browser{
		store:     store,
		userID:    userID,
		updates:   updates,
		clock:     time.Now,
		selection: selection,
		search:    search,
		add:       add,
		width:     80,
		height:    24,
	}
	m.refresh()
	return m
}

// RunBrowser launches the interactive browser and blocks until the user
// quits. Store writes happen live; there is nothing to apply afterwards.
func RunBrowser(store task.Store, userID string, selection task.Selection) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := store.Watch(ctx, userID)
	if err != nil {
		return fmt.Errorf("watching tasks: %w", err)
	}

	m := NewBrowser(store, userID, selection, updates)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("task browser: %w", err)
	}
	return nil
}

// waitForSnapshot blocks on the watch channel and converts deliveries into
// messages. The returned command re-arms itself from Update.
func waitForSnapshot(updates <-chan []task.Task) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return watchClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m *Browser) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.updates != nil {
		cmds = append(cmds, waitForSnapshot(m.updates))
	}
	return tea.Batch(cmds...)
}

func (m *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		selected := m.selectedID()
		m.tasks = msg
		m.loaded = true
		m.status = ""
		m.refresh()
		m.moveCursorTo(selected)
		return m, waitForSnapshot(m.updates)

	case watchClosedMsg:
		m.status = "live updates stopped"
		return m, nil

	case opErrMsg:
		m.status = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Everything else (cursor blinks and the like) goes to the focused input.
	return m, m.updateInput(msg)
}

func (m *Browser) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeAdd:
		return m.handleAddKey(msg)
	default:
		return m.handleNormalKey(msg)
	}
}

func (m *Browser) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.refresh()
			m.cursor = 0
		}

	case "j", "down":
		if m.cursor < len(m.view)-1 {
			m.cursor++
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "g":
		m.cursor = 0

	case "G":
		if len(m.view) > 0 {
			m.cursor = len(m.view) - 1
		}

	case "tab":
		return m.setSelection(m.selection.Next())

	case "1":
		return m.setSelection(task.SelectionAll)

	case "2":
		return m.setSelection(task.SelectionActive)

	case "3":
		return m.setSelection(task.SelectionCompleted)

	case "x", " ", "enter":
		return m.toggleSelected()

	case "d":
		return m.deleteSelected()

	case "a":
		m.mode = modeAdd
		m.add.Focus()
		return m, textinput.Blink

	case "/":
		m.mode = modeSearch
		m.search.Focus()
		return m, textinput.Blink
	}

	return m, nil
}

func (m *Browser) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.search.Blur()
		m.search.SetValue("")
		m.refresh()
		m.cursor = 0
		return m, nil

	case "enter":
		// Keep the query active, hand control back to the list.
		m.mode = modeNormal
		m.search.Blur()
		return m, nil
	}

	prev := m.search.Value()
	cmd := m.updateInput(msg)
	if m.search.Value() != prev {
		m.refresh()
		m.cursor = 0
	}
	return m, cmd
}

func (m *Browser) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.add.Blur()
		m.add.SetValue("")
		return m, nil

	case "enter":
		title := strings.TrimSpace(m.add.Value())
		m.mode = modeNormal
		m.add.Blur()
		m.add.SetValue("")
		if title == "" {
			return m, nil
		}

		// Show the entry immediately as pending; the next snapshot
		// replaces it with the stored row.
		now := m.clock()
		t := task.Task{
			ID:        uuid.NewString(),
			UserID:    m.userID,
			Title:     title,
			Priority:  task.PriorityMedium,
			Deadline:  now.Add(quickAddDeadline),
			CreatedAt: now,
			Pending:   true,
		}
		m.tasks = append(m.tasks, t)
		m.refresh()
		m.moveCursorTo(t.ID)
		return m, m.createCmd(t)
	}

	return m, m.updateInput(msg)
}

// updateInput forwards a message to whichever text input is focused.
func (m *Browser) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.mode {
	case modeSearch:
		m.search, cmd = m.search.Update(msg)
	case modeAdd:
		m.add, cmd = m.add.Update(msg)
	}
	return cmd
}

func (m *Browser) setSelection(s task.Selection) (tea.Model, tea.Cmd) {
	selected := m.selectedID()
	m.selection = s
	m.refresh()
	m.moveCursorTo(selected)
	return m, nil
}

func (m *Browser) toggleSelected() (tea.Model, tea.Cmd) {
	if len(m.view) == 0 {
		return m, nil
	}
	t := m.view[m.cursor]
	if t.Pending {
		m.status = "still saving that one"
		return m, nil
	}

	var next task.Task
	if t.Completed {
		next = t.MarkOpen()
	} else {
		next = t.MarkDone(m.clock())
	}
	m.applyLocal(next)
	m.refresh()
	m.moveCursorTo(next.ID)
	return m, m.updateCmd(next)
}

func (m *Browser) deleteSelected() (tea.Model, tea.Cmd) {
	if len(m.view) == 0 {
		return m, nil
	}
	t := m.view[m.cursor]
	if t.Pending {
		m.status = "still saving that one"
		return m, nil
	}

	m.removeLocal(t.ID)
	m.refresh()
	return m, m.deleteCmd(t.ID)
}

// --- store commands ---

func (m *Browser) createCmd(t task.Task) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.store.Create(context.Background(), t); err != nil {
			return opErrMsg{fmt.Errorf("adding %q: %v", t.Title, err)}
		}
		return nil
	}
}

func (m *Browser) updateCmd(t task.Task) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.store.Update(context.Background(), t); err != nil {
			return opErrMsg{fmt.Errorf("updating %q: %v", t.Title, err)}
		}
		return nil
	}
}

func (m *Browser) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.Delete(context.Background(), m.userID, id); err != nil {
			return opErrMsg{fmt.Errorf("deleting task: %v", err)}
		}
		return nil
	}
}

// --- local collection helpers ---

func (m *Browser) applyLocal(t task.Task) {
	for i := range m.tasks {
		if m.tasks[i].ID == t.ID {
			m.tasks[i] = t
			return
		}
	}
}

func (m *Browser) removeLocal(id string) {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}

// refresh re-derives the visible rows from the canonical collection: one
// clock read covers both the ranking and the deadline annotations.
func (m *Browser) refresh() {
	m.counts = task.Count(m.tasks)
	m.derivedAt = m.clock()

	rows := task.SortAndFilter(m.tasks, m.selection, m.derivedAt)
	if q := strings.TrimSpace(m.search.Value()); q != "" {
		matched := rows[:0]
		for _, r := range rows {
			if ok, _ := FuzzyMatch(q, r.Title+" "+r.Category); ok {
				matched = append(matched, r)
			}
		}
		rows = matched
	}
	m.view = rows
	m.clampCursor()
}

func (m *Browser) clampCursor() {
	if m.cursor >= len(m.view) {
		m.cursor = len(m.view) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Browser) selectedID() string {
	if len(m.view) == 0 || m.cursor >= len(m.view) {
		return ""
	}
	return m.view[m.cursor].ID
}

// moveCursorTo keeps the cursor on the same task across re-derivations when
// it is still visible, so a toggle that reorders the list does not strand
// the selection.
func (m *Browser) moveCursorTo(id string) {
	if id == "" {
		m.clampCursor()
		return
	}
	for i, t := range m.view {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
	m.clampCursor()
}

// --- view ---

func (m *Browser) View() string {
	var b strings.Builder

	// Header with filter tabs
	b.WriteString("  " + ui.Title.Render(ui.IconBolt+" triage") + "  " + m.renderTabs() + "\n\n")

	if !m.loaded {
		b.WriteString("  " + ui.Muted.Render("Loading tasks...") + "\n")
		return b.String()
	}

	visHeight := m.height - 9 // header, tabs, input, status, help
	if visHeight < 3 {
		visHeight = 3
	}

	offset := 0
	if m.cursor >= visHeight {
		offset = m.cursor - visHeight + 1
	}

	if len(m.view) == 0 {
		switch {
		case m.search.Value() != "":
			b.WriteString("  " + ui.Muted.Render("No matches. Press esc to clear the search.") + "\n")
		case m.selection == task.SelectionCompleted:
			b.WriteString("  " + ui.Muted.Render("Nothing finished yet.") + "\n")
		default:
			b.WriteString("  " + ui.Muted.Render("No tasks. Press 'a' to add one.") + "\n")
		}
	} else {
		end := offset + visHeight
		if end > len(m.view) {
			end = len(m.view)
		}
		for i := offset; i < end; i++ {
			b.WriteString(m.renderRow(m.view[i], i == m.cursor) + "\n")
		}
	}

	b.WriteString("\n")

	// Input area (search or add mode)
	switch m.mode {
	case modeSearch:
		b.WriteString("  " + m.search.View() + "\n")
	case modeAdd:
		b.WriteString("  " + m.add.View() + "\n")
	default:
		b.WriteString("\n")
	}

	b.WriteString("\n")

	// Status bar
	statusLine := ui.Muted.Render(fmt.Sprintf("  %d shown", len(m.view)))
	if m.status != "" {
		statusLine += ui.Warning.Render("  " + ui.IconWarn + m.status)
	}
	b.WriteString(statusLine + "\n")

	// Help line
	var help string
	switch m.mode {
	case modeSearch:
		help = ui.Muted.Render("  esc clear · enter confirm")
	case modeAdd:
		help = ui.Muted.Render("  enter save · esc cancel")
	default:
		help = ui.Muted.Render("  j/k move · x toggle · a add · d delete · tab filter · / search · q quit")
	}
	b.WriteString(help + "\n")

	return b.String()
}

// renderTabs draws the three filter tabs with their collection counts. All
// always equals Active plus Completed.
func (m *Browser) renderTabs() string {
	tabs := []struct {
		sel   task.Selection
		label string
		count int
	}{
		{task.SelectionAll, "All", m.counts.All},
		{task.SelectionActive, "Active", m.counts.Active},
		{task.SelectionCompleted, "Done", m.counts.Completed},
	}

	parts := make([]string, len(tabs))
	for i, t := range tabs {
		label := fmt.Sprintf("%s %d", t.label, t.count)
		if t.sel == m.selection {
			parts[i] = ui.Accent.Render(label)
		} else {
			parts[i] = ui.Muted.Render(label)
		}
	}
	return strings.Join(parts, ui.Muted.Render(" · "))
}

func (m *Browser) renderRow(t task.Task, selected bool) string {
	pointer := "  "
	titleStyle := lipgloss.NewStyle()
	if selected {
		pointer = ui.Accent.Render(ui.IconArrow + " ")
		titleStyle = lipgloss.NewStyle().Foreground(ui.Amber).Bold(true)
	}

	marker := " "
	switch {
	case t.Completed:
		marker = ui.Success.Render("✓")
	case t.Pending:
		marker = ui.Muted.Render("…")
	}

	id := ui.Muted.Render(fmt.Sprintf("%-*s", task.ColWidthID, task.ShortID(t.ID)))
	prio := lipgloss.NewStyle().Width(task.ColWidthPrio).Render(t.Priority.Icon())

	title := t.Title
	switch {
	case t.Completed:
		title = ui.Muted.Render(title)
	case t.Pending:
		title = ui.PendingStyle.Render(title)
	default:
		title = titleStyle.Render(title)
	}

	line := fmt.Sprintf("  %s%s %s %s %s", pointer, marker, id, prio, title)
	if t.Category != "" {
		line += ui.Muted.Render(" @" + t.Category)
	}
	if !t.Completed {
		line += " " + task.FormatDeadline(t.Deadline, m.derivedAt)
	}
	return line
}
