package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"latticegas/internal/ensemble"
)

func newAggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Merge realization files into an ensemble table",
		Long: `Read realization0.csv through realization<R-1>.csv from --dir and write
the per-cell mean and standard deviation to ensemble.csv.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			r, _ := cmd.Flags().GetInt("realizations")
			sites, _ := cmd.Flags().GetInt("sites")
			remove, _ := cmd.Flags().GetBool("remove")
			if r < 1 {
				return fmt.Errorf("--realizations must be at least 1")
			}

			e, err := ensemble.Load(dir, r)
			if err != nil {
				return err
			}
			s := ensemble.Summarize(e, sites)
			path := filepath.Join(dir, ensemble.FileName)
			if err := ensemble.WriteCSV(path, s); err != nil {
				return err
			}
			if remove {
				if err := ensemble.RemoveRealizations(dir, r); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ensemble of %d realizations: %s\n", r, path)
			return nil
		},
	}
	cmd.Flags().String("dir", "out", "Directory holding the realization files")
	cmd.Flags().Int("realizations", 0, "Number of realizations R")
	cmd.Flags().Int("sites", 0, "Lattice length L, used to compute densities")
	cmd.Flags().Bool("remove", false, "Delete realization files afterwards")
	return cmd
}
