package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/datamaghreb/bankdw/internal/state"
)

func newRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recent builds",
		Long: `List recent build runs from the run-history database. With a run id,
show the per-table results of that run instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.Open(cfg.StatePath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return showRun(cmd, store, args[0])
			}
			return listRuns(cmd, store, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}

func listRuns(cmd *cobra.Command, store *state.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Environment", "Status", "Started", "Duration", "Error"})
	for _, run := range runs {
		duration := ""
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			run.ID, run.Environment, string(run.Status),
			run.StartedAt.Format(time.RFC3339), duration, run.Error,
		})
	}
	t.Render()
	return nil
}

func showRun(cmd *cobra.Command, store *state.Store, runID string) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	tableRuns, err := store.ListTableRuns(run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s): %s\n", run.ID, run.Environment, run.Status)
	if run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", run.Error)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Status", "Rows", "Duration", "Error"})
	for _, tr := range tableRuns {
		t.AppendRow(table.Row{
			tr.Table, string(tr.Status), tr.RowCount,
			(time.Duration(tr.ExecutionMS) * time.Millisecond).String(), tr.Error,
		})
	}
	t.Render()
	return nil
}
