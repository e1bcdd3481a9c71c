package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load cleaned CSV exports into the staging tables",
		Long: `Recreate the staging and analytics landing tables and load the
cleaned CSV exports into them. Loading is a full refresh: any previous
load is dropped first.

The seeds directory must contain branches.csv and reviews.csv;
sentiment.csv and topics.csv are loaded when present.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := newEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.LoadSeeds(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load seeds: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Seeds loaded successfully")
			return nil
		},
	}
}
