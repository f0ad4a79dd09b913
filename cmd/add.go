package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/triage/internal/task"
	"github.com/rnwolfe/triage/internal/ui"
)

var (
	addPriority string
	addDeadline string
	addDesc     string
	addCategory string
)

var addCmd = &cobra.Command{
	Use:     "add <title>",
	Aliases: []string{"a", "new"},
	Short:   "Capture a task before it escapes",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "medium", "Priority: low, medium, high")
	addCmd.Flags().StringVarP(&addDeadline, "deadline", "d", "", "Deadline (tomorrow, 3h, YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "Longer description")
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "Category label")
}

func runAdd(cmd *cobra.Command, args []string) error {
	title := strings.Join(args, " ")

	// Bad priority and deadline spellings are rejected here, at the entry
	// boundary. Nothing downstream re-checks them.
	priority, err := task.ParsePriority(addPriority)
	if err != nil {
		return err
	}

	now := time.Now()
	deadline, err := parseDeadline(addDeadline, now)
	if err != nil {
		return err
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

	created, err := ts.Create(cmd.Context(), task.Task{
		UserID:      identity.UserID,
		Title:       title,
		Description: addDesc,
		Category:    addCategory,
		Priority:    priority,
		Deadline:    deadline,
	})
	if err != nil {
		return err
	}

	fmt.Printf("  %s Added %s %s\n", ui.Success.Render("✓"), created.Priority.Icon(),
		ui.Accent.Render(task.ShortID(created.ID)))
	fmt.Printf("    %s %s\n", created.Title, task.FormatDeadline(created.Deadline, now))
	if created.Category != "" {
		fmt.Printf("    %s\n", ui.Muted.Render("@"+created.Category))
	}
	fmt.Println()
	return nil
}
