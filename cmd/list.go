package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/triage/internal/task"
	"github.com/rnwolfe/triage/internal/tui"
	"github.com/rnwolfe/triage/internal/ui"
)

var (
	listFilter string
	listPlain  bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "Browse tasks, most urgent first",
	Long: `Show tasks ranked by urgency: overdue and imminent deadlines first,
weighted by priority, completed tasks at the bottom.

In an interactive terminal this opens a full-screen browser that follows
store changes live. Pipe the output or pass --plain for scripting.

Keyboard shortcuts (interactive mode):
  j / k        Move down / up
  x / space    Toggle done/undone
  a            Add a task (type title, Enter to save)
  d            Delete selected task
  tab / 1 2 3  Switch filter tab (all, active, completed)
  /            Fuzzy search
  g / G        Jump to top / bottom
  q / Ctrl+C   Quit`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "Filter: all, active, completed")
	listCmd.Flags().BoolVar(&listPlain, "plain", false, "Print a plain list even on a terminal")
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, db, err := loadAndOpen()
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

	selection := resolveSelection(listFilter, cfg)

	if !listPlain && tui.IsTTY() && ui.IsStdoutTTY() {
		return tui.RunBrowser(ts, identity.UserID, selection)
	}

	tasks, err := ts.List(cmd.Context(), identity.UserID)
	if err != nil {
		return err
	}
	printTaskList(tasks, selection)
	return nil
}

// printTaskList renders the ranked list for non-interactive output. The
// clock is read once; ranking and deadline annotations share it.
func printTaskList(tasks []task.Task, selection task.Selection) {
	now := time.Now()
	counts := task.Count(tasks)
	rows := task.SortAndFilter(tasks, selection, now)

	if len(rows) == 0 {
		fmt.Println()
		switch selection {
		case task.SelectionCompleted:
			fmt.Println(ui.Muted.Render("  Nothing finished yet."))
		default:
			fmt.Println(ui.Muted.Render("  No tasks. Life is good?"))
			fmt.Println()
			fmt.Printf("  Add one: %s\n", ui.Accent.Render(`triage add "something important" -d tomorrow`))
		}
		fmt.Println()
		return
	}

	fmt.Println()
	for _, t := range rows {
		fmt.Println(task.FormatLine(t, now))
	}

	fmt.Println()
	fmt.Println(ui.Muted.Render(fmt.Sprintf("  %s · all %d · active %d · completed %d",
		selection, counts.All, counts.Active, counts.Completed)))
	fmt.Println()
}
