package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/datamaghreb/bankdw/internal/state"
)

func newBuildCommand() *cobra.Command {
	var withSeeds bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the warehouse",
		Long: `Rebuild every warehouse table from the staged inputs.

Dimensions build concurrently; the fact and quarantine tables build
after every dimension has committed. Each table is replaced in a single
transaction, so a failed build never leaves a partial table behind.`,
		Example: `  # Build the warehouse
  bankdw build

  # Reload the CSV exports first, then build
  bankdw build --seed`,
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, withSeeds)
		},
	}

	cmd.Flags().BoolVar(&withSeeds, "seed", false, "Load the CSV exports before building")
	return cmd
}

func runBuild(cmd *cobra.Command, withSeeds bool) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx := cmd.Context()
	start := time.Now()
	out := cmd.OutOrStdout()

	if withSeeds {
		if err := eng.LoadSeeds(ctx); err != nil {
			return fmt.Errorf("failed to load seeds: %w", err)
		}
	}

	run, runErr := eng.Run(ctx)
	if run != nil {
		tableRuns, err := eng.Store().ListTableRuns(run.ID)
		if err == nil {
			renderTableRuns(cmd, tableRuns)
		}
		fmt.Fprintf(out, "Run %s: %s\n", run.ID, run.Status)
		if run.Error != "" {
			fmt.Fprintf(out, "Error: %s\n", run.Error)
		}
	}
	if runErr != nil {
		return fmt.Errorf("build failed: %w", runErr)
	}

	fmt.Fprintf(out, "Completed in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func renderTableRuns(cmd *cobra.Command, tableRuns []*state.TableRun) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Status", "Rows", "Duration"})
	for _, tr := range tableRuns {
		t.AppendRow(table.Row{
			tr.Table, string(tr.Status), tr.RowCount,
			(time.Duration(tr.ExecutionMS) * time.Millisecond).String(),
		})
	}
	t.Render()
}
