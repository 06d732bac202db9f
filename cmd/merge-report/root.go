package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "merge-report",
		Short:         "Case merge inspection tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newResolveCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
