package main

import (
	"github.com/spf13/cobra"
)

const serviceName = "voicepulse"

type rootOptions struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Lecture delivery and tone analysis",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path to config.yml")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "path to .env file")

	cmd.AddCommand(newAnalyzeCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}
