package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"latticegas/internal/ensemble"
	"latticegas/internal/plot"
	"latticegas/internal/realization"
	"latticegas/pkg/lattice"
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render an ensemble table as a PNG figure",
		Long: `Plot the ensemble mean against density, one series per checkpoint,
with the standard deviation as a dashed envelope. A caption describing the
run is written next to the figure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("ensemble")
			out, _ := cmd.Flags().GetString("out")
			modelName, _ := cmd.Flags().GetString("model")
			obsName, _ := cmd.Flags().GetString("observable")
			analytical, _ := cmd.Flags().GetBool("analytical")

			model, err := lattice.ParseModel(modelName)
			if err != nil {
				return err
			}
			obs, err := realization.ParseObservable(obsName)
			if err != nil {
				return err
			}
			s, err := ensemble.ReadCSV(in)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(filepath.Dir(in), plot.FileName(model))
			}

			particles, checkpoints, realizations := describe(s)
			caption, err := plot.Caption(s.Sites, particles, checkpoints, realizations, model, obs)
			if err != nil {
				return err
			}
			err = plot.Save(out, s, plot.Options{Model: model, Observable: obs, Analytical: analytical}, caption)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "figure: %s\n", out)
			return nil
		},
	}
	cmd.Flags().String("ensemble", filepath.Join("out", ensemble.FileName), "Ensemble table to plot")
	cmd.Flags().String("out", "", "Figure path (default: <model>_figure.png next to the table)")
	cmd.Flags().String("model", "clg", "Model the table was produced with")
	cmd.Flags().String("observable", "cid", "Observable in the table: cid or activity")
	cmd.Flags().Bool("analytical", false, "Overlay the mean-field CLG activity curve")
	return cmd
}

// describe recovers the particle counts, checkpoint increments and ensemble
// size from a summary.
func describe(s ensemble.Summary) (particles, checkpoints []int, realizations int) {
	times := s.Times()
	if len(times) == 0 {
		return nil, nil, 0
	}
	for _, r := range s.At(times[0]) {
		particles = append(particles, r.N)
		realizations = max(realizations, r.Count)
	}
	for i := 1; i < len(times); i++ {
		checkpoints = append(checkpoints, times[i]-times[i-1])
	}
	return particles, checkpoints, realizations
}
