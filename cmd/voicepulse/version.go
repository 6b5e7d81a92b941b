package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/voicepulse/version"
)

func newVersionCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if full {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", serviceName, version.GetShortVersion())
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "include commit, branch and build time")
	return cmd
}
