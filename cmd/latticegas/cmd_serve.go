package main

import (
	"github.com/spf13/cobra"

	"latticegas/internal/cid"
	"latticegas/internal/engine"
	"latticegas/internal/stream"
	"latticegas/pkg/lattice"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream a live realization over a websocket",
		Long: `Advance one realization at --tps steps per second and broadcast a JSON
frame {t, activity, cid, total, absorbing, sites} after every step to all
clients connected to /ws. /healthz reports the current step.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			addr, _ := f.GetString("addr")
			modelName, _ := f.GetString("model")
			model, err := lattice.ParseModel(modelName)
			if err != nil {
				return err
			}
			cfg := stream.Config{Model: model}
			cfg.Sites, _ = f.GetInt("sites")
			cfg.Particles, _ = f.GetInt("particles")
			cfg.Seed, _ = f.GetInt64("seed")
			cfg.TPS, _ = f.GetInt("tps")
			cfg.MaxSteps, _ = f.GetInt("max-steps")
			threshold, _ := f.GetInt("threshold")
			randomized, _ := f.GetBool("randomized")
			shuffle, _ := f.GetBool("shuffle")
			cfg.Options = engine.Options{Threshold: threshold, Randomized: randomized, CID: cid.Options{Shuffle: shuffle}}

			s, err := stream.NewServer(cfg, newLogger(cmd, ""))
			if err != nil {
				return err
			}
			return s.ListenAndServe(cmd.Context(), addr)
		},
	}
	f := cmd.Flags()
	f.String("addr", "127.0.0.1:8080", "Listen address")
	f.String("model", "clg", "Model: clg or manna")
	f.Int("sites", 400, "Lattice length L")
	f.Int("particles", 240, "Particle count N")
	f.Int64("seed", 1, "Random seed")
	f.Int("tps", 20, "Steps per second")
	f.Int("max-steps", 0, "Stop after this many steps (0: run until absorbing)")
	f.Int("threshold", lattice.DefaultThreshold, "Manna activity threshold Z")
	f.Bool("randomized", false, "Move one random active CLG particle per step")
	f.Bool("shuffle", false, "Normalize Manna CID by a shuffled copy")
	return cmd
}
