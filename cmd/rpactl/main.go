// Command rpactl is the operator CLI for the RPA workflow engine (spec.md
// §6): loading and validating graphs, running them, and inspecting/loading
// plugins, grounded on the pack's cobra-based CLI idiom (liuprestin-relurpify's
// app/cmd package) rather than the teacher's own flag-based wfctl, since the
// teacher's cmd tree never reaches for cobra despite declaring it nowhere —
// cobra is wired here from the wider pack (SPEC_FULL.md §9 "CLI").
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rpactl",
		Short:         "Run and inspect desktop RPA workflow graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newDebugCmd(),
		newPluginsCmd(),
	)
	return root
}
