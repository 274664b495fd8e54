package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hifidel/internal/samplesheet"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <samplesheet.csv> [more.csv ...]",
		Short: "Validate sample sheets against the delivery contract",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				table, err := samplesheet.Load(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: OK (%d samples)\n", path, table.Len())
			}
			return nil
		},
	}
}
