package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"hifidel/internal/config"
	"hifidel/internal/journal"
	"hifidel/internal/run"
)

var stageTitler = cases.Title(language.English)

func newStatusCommand(configFlag *string) *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the journal for the configured run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			r := run.Run{Name: cfg.Run.Name, OutputDir: cfg.Run.OutputDir}
			store, err := journal.Open(r.JournalPath())
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if history {
				return printRunHistory(out, store, cmd)
			}
			return printLatestRun(out, store, cmd)
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "List all recorded runs instead of the latest")
	return cmd
}

func printLatestRun(out io.Writer, store *journal.Store, cmd *cobra.Command) error {
	latest, err := store.LatestRun(cmd.Context())
	if err != nil {
		return err
	}
	if latest == nil {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "Run %s (%s): %s\n", latest.Name, latest.ID, latest.Status)
	fmt.Fprintf(out, "Started %s", latest.StartedAt)
	if latest.FinishedAt != "" {
		fmt.Fprintf(out, ", finished %s", latest.FinishedAt)
	}
	fmt.Fprintln(out)

	events, err := store.EventsForRun(cmd.Context(), latest.ID)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			stageLabel(e.Stage),
			e.Unit,
			e.Event,
			truncateDetail(e.Detail),
			e.CreatedAt,
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Stage", "Unit", "Event", "Detail", "At"}, rows))
	return nil
}

func printRunHistory(out io.Writer, store *journal.Store, cmd *cobra.Command) error {
	runs, err := store.ListRuns(cmd.Context(), 50)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{r.ID, r.Name, r.Status, r.StartedAt, r.FinishedAt})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "Run", "Status", "Started", "Finished"}, rows))
	return nil
}

// stageLabel turns a stage name like "stage-inputs" into "Stage Inputs" for
// table display.
func stageLabel(name string) string {
	return stageTitler.String(strings.ReplaceAll(name, "-", " "))
}

func truncateDetail(detail string) string {
	detail = strings.TrimSpace(detail)
	runes := []rune(detail)
	if len(runes) > 72 {
		return string(runes[:69]) + "..."
	}
	return detail
}
