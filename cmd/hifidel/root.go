package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "hifidel",
		Short:         "Long-read delivery pipeline orchestrator",
		Long: "hifidel turns one raw long-read sequencing movie into a verified " +
			"per-sample delivery bundle by driving external deconcatenation, " +
			"demultiplexing, and conversion tools through a checkpointed, " +
			"resumable stage pipeline.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRunCommand(&configFlag))
	rootCmd.AddCommand(newStatusCommand(&configFlag))
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newConfigCommand(&configFlag))

	return rootCmd
}
