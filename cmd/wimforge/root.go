package main

import (
	"github.com/spf13/cobra"
)

// Exit code contract. The preflight command distinguishes "environment not
// ready" from "could not even run" so CI wrappers can branch on it.
const (
	exitOK       = 0
	exitNotReady = 1
	exitConfig   = 2
	exitInternal = 3
)

type rootFlags struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "wimforge",
		Short:         "WimForge validates and prepares hosts for Windows image builds",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newPreflightCmd(flags))
	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
