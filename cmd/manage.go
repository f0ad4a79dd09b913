package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/triage/internal/task"
	"github.com/rnwolfe/triage/internal/tui"
	"github.com/rnwolfe/triage/internal/ui"
)

var doneCmd = &cobra.Command{
	Use:     "done [id]",
	Aliases: []string{"do", "complete", "x"},
	Short:   "Mark a task complete — check it off",
	Long: `Mark a task complete. With no ID on an interactive terminal, opens a
fuzzy picker over the active tasks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDone,
}

var undoCmd = &cobra.Command{
	Use:     "undo <id>",
	Aliases: []string{"reopen"},
	Short:   "Reopen a completed task",
	Args:    cobra.ExactArgs(1),
	RunE:    runUndo,
}

var rmCmd = &cobra.Command{
	Use:     "rm [id]",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove a task from the list",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runRm,
}

var (
	editPriority string
	editDeadline string
	editDesc     string
	editCategory string
)

var editCmd = &cobra.Command{
	Use:   "edit <id> [new title]",
	Short: "Change a task's title, priority, deadline or category",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEdit,
}

func init() {
	editCmd.Flags().StringVarP(&editPriority, "priority", "p", "", "New priority: low, medium, high")
	editCmd.Flags().StringVarP(&editDeadline, "deadline", "d", "", "New deadline (tomorrow, 3h, YYYY-MM-DD)")
	editCmd.Flags().StringVar(&editDesc, "desc", "", "New description")
	editCmd.Flags().StringVarP(&editCategory, "category", "c", "", "New category label")
}

// taskItem adapts a task for the fuzzy picker.
type taskItem struct {
	t   task.Task
	now time.Time
}

func (i taskItem) FilterValue() string { return i.t.Title + " " + i.t.Category }
func (i taskItem) Title() string       { return i.t.Priority.Icon() + " " + i.t.Title }
func (i taskItem) Description() string {
	desc := task.ShortID(i.t.ID)
	if i.t.Category != "" {
		desc += " @" + i.t.Category
	}
	return desc + " " + task.FormatDeadline(i.t.Deadline, i.now)
}

// resolveOrPick returns the referenced task, falling back to an interactive
// picker over the given filter when no reference was supplied.
func resolveOrPick(ctx context.Context, ts task.Store, userID string, args []string, sel task.Selection, title string) (task.Task, error) {
	if len(args) > 0 {
		return matchTask(ctx, ts, userID, args[0])
	}
	if !tui.IsTTY() {
		return task.Task{}, fmt.Errorf("task ID required — use %s to see IDs", ui.Accent.Render("triage list"))
	}

	tasks, err := ts.List(ctx, userID)
	if err != nil {
		return task.Task{}, err
	}
	now := time.Now()
	rows := task.SortAndFilter(tasks, sel, now)
	if len(rows) == 0 {
		return task.Task{}, fmt.Errorf("nothing to pick from")
	}

	items := make([]tui.Item, len(rows))
	for i, t := range rows {
		items[i] = taskItem{t: t, now: now}
	}
	chosen, err := tui.Pick(items, tui.WithTitle(title))
	if err != nil {
		return task.Task{}, err
	}
	if chosen == nil {
		return task.Task{}, fmt.Errorf("canceled")
	}
	return chosen.(taskItem).t, nil
}

func runDone(cmd *cobra.Command, args []string) error {
	_, db, err := loadAndOpen()
	if err != nil {
		return err
	}
	defer db.Close()

	identity, err := requireIdentity(cmd.Context(), db)
	if err != nil {
		return err
	}

	ts := task.NewSQLStore(db.Conn())
	defer ts.Close()

	t, err := resolveOrPick(cmd.Context(), ts, identity.UserID, args, task.SelectionActive, "Check off which task?")
	if err != nil {
		return err
	}
	if t.Completed {
		ui.Inf(fmt.Sprintf("%q is already done", t.Title))
		return nil
	}

	if _, err := ts.Update(cmd.Context(), t.MarkDone(time.Now())); err != nil {
		return err
	}

	fmt.Printf("  %s Done! %s\n", ui.Success.Render("✓"), ui.Muted.Render(t.Title))

	tasks, err := ts.List(cmd.Context(), identity.UserID)
	if err == nil {
		if counts := task.Count(tasks); counts.Active == 0 {
			fmt.Println(ui.Success.Render("  " + ui.IconParty + " All clear! Nothing left to do."))
		} else {
			fmt.Println(ui.Muted.Render(fmt.Sprintf("    %d remaining", counts.Active)))
		}
	}
	fmt.Println()
	return nil
}

func runUndo(cmd *cobra.Command, args []string) error {
	_, db, err := loadAndOpen()
	if err != nil {
		return err
	}
	defer db.Close()

	identity, err := requireIdentity(cmd.Context(), db)
	if err != nil {
		return err
	}

	ts := task.NewSQLStore(db.Conn())
	defer ts.Close()

	t, err := matchTask(cmd.Context(), ts, identity.UserID, args[0])
	if err != nil {
		return err
	}
	if !t.Completed {
		ui.Inf(fmt.Sprintf("%q is still open", t.Title))
		return nil
	}

	if _, err := ts.Update(cmd.Context(), t.MarkOpen()); err != nil {
		return err
	}

	fmt.Printf("  %s Reopened %s\n", ui.Success.Render("✓"), ui.Muted.Render(t.Title))
	fmt.Println()
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	_, db, err := loadAndOpen()
	if err != nil {
		return err
	}
	defer db.Close()

	identity, err := requireIdentity(cmd.Context(), db)
	if err != nil {
		return err
	}

	ts := task.NewSQLStore(db.Conn())
	defer ts.Close()

	t, err := resolveOrPick(cmd.Context(), ts, identity.UserID, args, task.SelectionAll, "Remove which task?")
	if err != nil {
		return err
	}

	if err := ts.Delete(cmd.Context(), identity.UserID, t.ID); err != nil {
		return err
	}

	fmt.Printf("  %s Removed %s\n", ui.Success.Render("✓"), ui.Muted.Render(t.Title))
	fmt.Println()
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	_, db, err := loadAndOpen()
	if err != nil {
		return err
	}
	defer db.Close()

	identity, err := requireIdentity(cmd.Context(), db)
	if err != nil {
		return err
	}

	ts := task.NewSQLStore(db.Conn())
	defer ts.Close()

	t, err := matchTask(cmd.Context(), ts, identity.UserID, args[0])
	if err != nil {
		return err
	}

	changed := false
	if len(args) > 1 {
		t.Title = strings.Join(args[1:], " ")
		changed = true
	}
	if editPriority != "" {
		p, err := task.ParsePriority(editPriority)
		if err != nil {
			return err
		}
		t.Priority = p
		changed = true
	}
	if editDeadline != "" {
		d, err := parseDeadline(editDeadline, time.Now())
		if err != nil {
			return err
		}
		t.Deadline = d
		changed = true
	}
	if cmd.Flags().Changed("desc") {
		t.Description = editDesc
		changed = true
	}
	if cmd.Flags().Changed("category") {
		t.Category = editCategory
		changed = true
	}

	if !changed {
		return fmt.Errorf("nothing to change — pass a new title or one of -p, -d, --desc, -c")
	}

	updated, err := ts.Update(cmd.Context(), t)
	if err != nil {
		return err
	}

	fmt.Printf("  %s Updated %s %s %s\n", ui.Success.Render("✓"),
		ui.Accent.Render(task.ShortID(updated.ID)), updated.Priority.Icon(), updated.Title)
	fmt.Println()
	return nil
}
