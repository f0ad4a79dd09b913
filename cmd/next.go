package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/triage/internal/task"
	"github.com/rnwolfe/triage/internal/ui"
)

var nextCmd = &cobra.Command{
	Use:   "next [n]",
	Short: "Show the most urgent tasks — what should you work on?",
	Long: `Surface the highest-scoring open tasks. The score weighs priority
against time to deadline: overdue beats imminent beats distant, and a
high-priority task outranks a low-priority one at the same distance.

Use 'triage next 3' to see the top 3.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNext,
}

func runNext(cmd *cobra.Command, args []string) error {
	count := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("%q is not a valid count — use %s",
				args[0], ui.Accent.Render("triage next [n]"))
		}
		count = n
	}

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

	tasks, err := ts.List(cmd.Context(), identity.UserID)
	if err != nil {
		return err
	}

	// Capture now once so ranking and rendering use the same reference instant.
	now := time.Now()
	ranked := task.SortAndFilter(tasks, task.SelectionActive, now)

	if len(ranked) == 0 {
		fmt.Println()
		fmt.Println(ui.Success.Render("  " + ui.IconParty + " All clear! No open tasks."))
		fmt.Println()
		return nil
	}

	if count > len(ranked) {
		count = len(ranked)
	}

	fmt.Println()
	for rank, t := range ranked[:count] {
		printTaskCard(t, rank+1, now)
	}
	return nil
}

// printTaskCard prints a detailed card for a single task.
func printTaskCard(t task.Task, rank int, now time.Time) {
	rankStr := ui.Muted.Render(fmt.Sprintf("%d.", rank))
	title := ui.Accent.Render(t.Title)

	fmt.Printf("  %s %s %s\n", rankStr, t.Priority.Icon(), title)
	fmt.Printf("     %s  %s priority  %s\n",
		ui.Muted.Render(task.ShortID(t.ID)),
		ui.Muted.Render(t.Priority.Label()),
		task.FormatDeadline(t.Deadline, now),
	)

	if t.Description != "" {
		fmt.Printf("     %s\n", ui.Muted.Render(t.Description))
	}
	if t.Category != "" {
		fmt.Printf("     %s\n", ui.Muted.Render("@"+t.Category))
	}

	fmt.Println()
}
