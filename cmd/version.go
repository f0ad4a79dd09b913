package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/triage/internal/version"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print triage version",
	Run:   runVersion,
}

func runVersion(_ *cobra.Command, _ []string) {
	if versionShort {
		fmt.Println(version.Short())
	} else {
		fmt.Printf("triage %s\n", version.Full())
	}
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
}
