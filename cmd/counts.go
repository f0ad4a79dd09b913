package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/triage/internal/task"
	"github.com/rnwolfe/triage/internal/ui"
)

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show the filter badge numbers",
	Long: `Print how many tasks sit behind each filter tab. Counts always come
from the whole collection: all equals active plus completed, whatever
filter a view currently has selected.`,
	RunE: runCounts,
}

func runCounts(cmd *cobra.Command, _ []string) error {
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
	counts := task.Count(tasks)

	fmt.Println()
	ui.Kv("All", fmt.Sprintf("%d", counts.All))
	ui.Kv("Active", fmt.Sprintf("%d", counts.Active))
	ui.Kv("Completed", fmt.Sprintf("%d", counts.Completed))
	fmt.Println()
	return nil
}
