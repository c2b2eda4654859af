package main

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version information, set with -ldflags "-X main.version=...".
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			label := color.New(color.FgGreen)
			color.New(color.FgCyan, color.Bold).Fprintf(w, "atp %s\n", version)
			label.Fprint(w, "Git commit: ")
			fmt.Fprintln(w, gitCommit)
			label.Fprint(w, "Built:      ")
			fmt.Fprintln(w, buildDate)
			label.Fprint(w, "Go version: ")
			fmt.Fprintln(w, runtime.Version())
		},
	}
}
