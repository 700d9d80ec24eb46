// Package batch runs an ensemble of independent realizations on a bounded
// pool of goroutines and writes their results.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"latticegas/internal/config"
	"latticegas/internal/ensemble"
	"latticegas/internal/logging"
	"latticegas/internal/realization"
	"latticegas/internal/store"
	"latticegas/pkg/lattice"
)

// Options carries the collaborators of a batch run.
type Options struct {
	Logger *log.Logger
	// RunID names the run in the index. A random UUID is used when empty.
	RunID string
	Now   func() time.Time
}

// Result summarizes a finished batch.
type Result struct {
	RunID   string
	Dir     string
	Summary ensemble.Summary
	Elapsed time.Duration
}

// IndexPath resolves the configured index path against the output directory.
func IndexPath(cfg config.RunConfig) string {
	p := cfg.Output.Index
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.Output.Dir, p)
}

// Run executes cfg.Realizations realizations. Realization i is seeded with
// cfg.Seed+i so any single realization can be reproduced on its own. Once
// all have finished the ensemble table is written to the output directory.
func Run(ctx context.Context, cfg config.RunConfig, opts Options) (Result, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	res := Result{RunID: opts.RunID, Dir: cfg.Output.Dir}

	if err := cfg.Validate(); err != nil {
		return res, err
	}
	params, err := cfg.Params()
	if err != nil {
		return res, err
	}
	logger := opts.Logger.With("run", opts.RunID)
	start := opts.Now()

	var index *store.Index
	if path := IndexPath(cfg); path != "" {
		if index, err = store.OpenIndex(path); err != nil {
			return res, fmt.Errorf("open index: %w", err)
		}
		defer index.Close()
		err = index.RecordRun(ctx, store.RunRecord{
			ID:         opts.RunID,
			Model:      string(params.Model),
			Sites:      params.Sites,
			Threshold:  params.Options.Threshold,
			Seed:       cfg.Seed,
			Observable: string(params.Observable),
			Randomized: params.Options.Randomized,
			CreatedAt:  start,
		})
		if err != nil {
			return res, err
		}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger.Info("starting batch",
		"model", params.Model, "sites", params.Sites, "densities", len(params.Particles),
		"realizations", cfg.Realizations, "workers", workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Realizations; i++ {
		i := i
		g.Go(func() error {
			return runOne(gctx, cfg, params, i, opts.RunID, index, logger)
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	if index != nil {
		if err := index.Close(); err != nil {
			return res, fmt.Errorf("close index: %w", err)
		}
	}

	e, err := ensemble.Load(cfg.Output.Dir, cfg.Realizations)
	if err != nil {
		return res, err
	}
	res.Summary = ensemble.Summarize(e, params.Sites)
	if err := ensemble.WriteCSV(filepath.Join(cfg.Output.Dir, ensemble.FileName), res.Summary); err != nil {
		return res, err
	}
	if !cfg.Output.KeepRealizations {
		if err := ensemble.RemoveRealizations(cfg.Output.Dir, cfg.Realizations); err != nil {
			return res, err
		}
	}

	res.Elapsed = opts.Now().Sub(start)
	logger.Info("batch finished", "elapsed", res.Elapsed.Round(time.Millisecond), "dir", cfg.Output.Dir)
	return res, nil
}

func runOne(ctx context.Context, cfg config.RunConfig, params realization.Params, i int, runID string, index *store.Index, logger *log.Logger) error {
	seed := cfg.Seed + int64(i)
	rng := lattice.NewRNG(seed)

	var sink realization.Sink
	if cfg.Output.Trajectories {
		w, err := store.CreateTrajectory(store.TrajectoryPath(cfg.Output.Dir, i))
		if err != nil {
			return fmt.Errorf("realization %d: %w", i, err)
		}
		defer w.Close()
		sink = w
	}

	trs, err := realization.Run(ctx, params, rng, sink)
	if err != nil {
		return fmt.Errorf("realization %d: %w", i, err)
	}
	if closer, ok := sink.(*store.TrajectoryWriter); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("realization %d: %w", i, err)
		}
	}
	if err := store.WriteRealization(store.RealizationPath(cfg.Output.Dir, i), trs); err != nil {
		return err
	}
	if index != nil {
		if err := index.RecordRealization(runID, i, trs); err != nil {
			return err
		}
	}
	logger.Debug("finished realization", "realization", i, "seed", seed)
	return nil
}
