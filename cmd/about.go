package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/triage/internal/ui"
	"github.com/rnwolfe/triage/internal/version"
)

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "What triage is and how the ranking works",
	Run:   runAbout,
}

// aboutPage is rendered as terminal markdown on a TTY and printed raw
// otherwise, so piping `triage about` stays clean.
const aboutPage = `# triage

A task list that sorts itself.

Every open task gets a score: its priority weight (high 100, medium 50,
low 10) plus a deadline bonus — overdue +1000, under a day +500, under
two days +200, under a week +50 — minus one point per hour of slack
(capped at 1000). Completed tasks park at the bottom, always.

The list you see is just that score, highest first. No manual ordering,
no drag-and-drop, no arguing with yourself about what matters.

- ` + "`triage next`" + ` — the one thing to do now
- ` + "`triage list`" + ` — the whole ranked picture, live
- ` + "`triage remind`" + ` — a daemon that taps your shoulder

Accounts are local, tasks live in SQLite, exports are age-encrypted.
`

func runAbout(_ *cobra.Command, _ []string) {
	if ui.IsStdoutTTY() {
		fmt.Print(ui.RenderMarkdown(aboutPage))
	} else {
		fmt.Print(aboutPage)
	}
	ui.Kv("Version", version.Full())
	ui.Kv("Runtime", version.Runtime())
	fmt.Println()
}
