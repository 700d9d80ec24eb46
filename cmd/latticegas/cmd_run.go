package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"latticegas/internal/batch"
	"latticegas/internal/config"
	"latticegas/internal/ensemble"
	"latticegas/internal/plot"
	"latticegas/internal/realization"
	"latticegas/pkg/lattice"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an ensemble of realizations",
		Long: `Run R independent realizations, write one realization<i>.csv per
realization and aggregate them into ensemble.csv.

Settings come from the YAML file given with --config (or the defaults);
flags override individual fields.

Examples:
  latticegas run --config runs/clg.yaml
  latticegas run --model manna --sites 1000 --particles 500,1000,1500 --checkpoints 5000
  latticegas run --observable activity --realizations 32 --plot`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				loaded, err := config.Load(path)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}
			if err := applyRunFlags(cmd.Flags(), &cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cmd, cfg.Log.Level)
			res, err := batch.Run(cmd.Context(), cfg, batch.Options{Logger: logger})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s: %d realizations in %s\n", res.RunID, cfg.Realizations, res.Elapsed)
			fmt.Fprintf(out, "ensemble: %s\n", filepath.Join(res.Dir, ensemble.FileName))

			if doPlot, _ := cmd.Flags().GetBool("plot"); doPlot {
				params, _ := cfg.Params()
				caption, err := plot.Caption(cfg.Sites, cfg.Particles, cfg.Checkpoints, cfg.Realizations, params.Model, params.Observable)
				if err != nil {
					return err
				}
				path := filepath.Join(res.Dir, plot.FileName(params.Model))
				err = plot.Save(path, res.Summary, plot.Options{
					Model:      params.Model,
					Observable: params.Observable,
					Analytical: params.Model == lattice.CLG && params.Observable == realization.Activity,
				}, caption)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "figure: %s\n", path)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.String("config", "", "YAML run configuration")
	f.String("model", "", "Model: clg or manna")
	f.Int("sites", 0, "Lattice length L")
	f.IntSlice("particles", nil, "Particle counts N")
	f.IntSlice("checkpoints", nil, "Time increments between samples")
	f.Int("realizations", 0, "Number of realizations R")
	f.Int("workers", 0, "Concurrent realizations (default: number of CPUs)")
	f.Int64("seed", 0, "Seed of realization 0; realization i uses seed+i")
	f.Int("threshold", 0, "Manna activity threshold Z")
	f.Bool("randomized", false, "Move one random active CLG particle per step")
	f.String("observable", "", "Observable: cid or activity")
	f.Bool("shuffle", false, "Normalize Manna CID by a shuffled copy instead of the length")
	f.String("out", "", "Output directory")
	f.String("index", "", "SQLite index path (relative to --out)")
	f.Bool("trajectories", false, "Write zstd-compressed lattice snapshots")
	f.Bool("remove", false, "Delete realization files after aggregation")
	f.Bool("plot", false, "Render the ensemble figure after the run")
	return cmd
}

// applyRunFlags copies explicitly set flags over cfg.
func applyRunFlags(f *pflag.FlagSet, cfg *config.RunConfig) error {
	var err error
	set := func(name string, apply func()) {
		if err == nil && f.Changed(name) {
			apply()
		}
	}
	set("model", func() { cfg.Model, err = f.GetString("model") })
	set("sites", func() { cfg.Sites, err = f.GetInt("sites") })
	set("particles", func() { cfg.Particles, err = f.GetIntSlice("particles") })
	set("checkpoints", func() { cfg.Checkpoints, err = f.GetIntSlice("checkpoints") })
	set("realizations", func() { cfg.Realizations, err = f.GetInt("realizations") })
	set("workers", func() { cfg.Workers, err = f.GetInt("workers") })
	set("seed", func() { cfg.Seed, err = f.GetInt64("seed") })
	set("threshold", func() { cfg.Threshold, err = f.GetInt("threshold") })
	set("randomized", func() { cfg.Randomized, err = f.GetBool("randomized") })
	set("observable", func() { cfg.Observable, err = f.GetString("observable") })
	set("shuffle", func() { cfg.CID.Shuffle, err = f.GetBool("shuffle") })
	set("out", func() { cfg.Output.Dir, err = f.GetString("out") })
	set("index", func() { cfg.Output.Index, err = f.GetString("index") })
	set("trajectories", func() { cfg.Output.Trajectories, err = f.GetBool("trajectories") })
	set("remove", func() {
		var remove bool
		remove, err = f.GetBool("remove")
		cfg.Output.KeepRealizations = !remove
	})
	return err
}
