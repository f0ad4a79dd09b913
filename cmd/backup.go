package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/triage/internal/backup"
	"github.com/rnwolfe/triage/internal/task"
	"github.com/rnwolfe/triage/internal/ui"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export your tasks to an encrypted archive",
	Long: `Write every task you own to an age-encrypted, armored archive. The
archive is plain text and safe to mail, sync or stash anywhere; only the
passphrase opens it.`,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import tasks from an encrypted archive",
	Long: `Decrypt an archive produced by 'triage export' and add its tasks to
your collection. Imported tasks become yours regardless of who exported
them; tasks whose ID already exists get a fresh one.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Archive path (default triage-export-<date>.age)")
}

func runExport(cmd *cobra.Command, _ []string) error {
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
	if len(tasks) == 0 {
		ui.Inf("Nothing to export.")
		return nil
	}

	passphrase, err := promptPassword("Passphrase")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm passphrase")
	if err != nil {
		return err
	}
	if passphrase != confirm {
		return fmt.Errorf("passphrases do not match")
	}

	out := exportOutput
	if out == "" {
		out = fmt.Sprintf("triage-export-%s.age", time.Now().Format("2006-01-02"))
	}

	if err := backup.ExportFile(out, tasks, passphrase); err != nil {
		return err
	}

	ui.Ok(fmt.Sprintf("Exported %d task(s) to %s", len(tasks), out))
	ui.Tip("keep the passphrase somewhere safe — there is no recovery without it")
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	_, db, err := loadAndOpen()
	if err != nil {
		return err
	}
	defer db.Close()

	identity, err := requireIdentity(cmd.Context(), db)
	if err != nil {
		return err
	}

	passphrase, err := promptPassword("Passphrase")
	if err != nil {
		return err
	}

	tasks, err := backup.ImportFile(args[0], passphrase)
	if err != nil {
		if errors.Is(err, backup.ErrWrongPassphrase) {
			return fmt.Errorf("that passphrase does not open %s", args[0])
		}
		return err
	}

	ts := task.NewSQLStore(db.Conn())
	defer ts.Close()

	imported := 0
	for _, t := range tasks {
		t.UserID = identity.UserID
		// Archives can collide with tasks already in the store (re-import,
		// or an export from this same collection). A colliding task gets a
		// fresh ID rather than clobbering what is there.
		if t.ID != "" {
			if _, err := ts.Get(cmd.Context(), identity.UserID, t.ID); err == nil {
				t.ID = ""
			}
		}
		if _, err := ts.Create(cmd.Context(), t); err != nil {
			// The ID can also collide with another user's task; the scoped
			// Get above cannot see those.
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				t.ID = ""
				_, err = ts.Create(cmd.Context(), t)
			}
			if err != nil {
				return fmt.Errorf("importing %q: %w", t.Title, err)
			}
		}
		imported++
	}

	ui.Ok(fmt.Sprintf("Imported %d task(s) from %s", imported, args[0]))
	return nil
}
