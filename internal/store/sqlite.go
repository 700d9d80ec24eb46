package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"latticegas/internal/realization"
)

// ErrIndexClosed is returned by writes after Close.
var ErrIndexClosed = errors.New("index closed")

// RunRecord describes one batch run in the index.
type RunRecord struct {
	ID         string
	Model      string
	Sites      int
	Threshold  int
	Seed       int64
	Observable string
	Randomized bool
	CreatedAt  time.Time
}

// SampleRow is one observable value in the index.
type SampleRow struct {
	Realization int
	Particles   int
	T           int
	Value       float64
}

// Index records runs and their samples in SQLite. Writes go through a single
// writer goroutine, one transaction per realization.
type Index struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// sendMu orders sends on ch against close(ch).
	sendMu sync.RWMutex
	closed atomic.Bool

	mu  sync.Mutex
	err error
}

type req struct {
	runID       string
	realization int
	trs         []realization.Trajectory
	done        chan struct{}
}

// OpenIndex opens or creates the database at path.
func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	x := &Index{db: db, ch: make(chan req, 256)}
	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		x.loop()
	}()
	return x, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			sites INTEGER NOT NULL,
			threshold INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			observable TEXT NOT NULL,
			randomized INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS samples (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			realization INTEGER NOT NULL,
			particles INTEGER NOT NULL,
			t INTEGER NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (run_id, realization, particles, t)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_samples_run_particles ON samples(run_id, particles, t);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun inserts the run header. It must precede RecordRealization for
// the same run.
func (x *Index) RecordRun(ctx context.Context, r RunRecord) error {
	if x.closed.Load() {
		return ErrIndexClosed
	}
	randomized := 0
	if r.Randomized {
		randomized = 1
	}
	_, err := x.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs(run_id,model,sites,threshold,seed,observable,randomized,created_at) VALUES(?,?,?,?,?,?,?,?)`,
		r.ID, r.Model, r.Sites, r.Threshold, r.Seed, r.Observable, randomized,
		r.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

// RecordRealization queues the samples of one realization. It blocks when
// the writer falls behind and returns ErrIndexClosed once Close has started.
func (x *Index) RecordRealization(runID string, i int, trs []realization.Trajectory) error {
	return x.send(req{runID: runID, realization: i, trs: trs})
}

func (x *Index) send(r req) error {
	x.sendMu.RLock()
	defer x.sendMu.RUnlock()
	if x.closed.Load() {
		return ErrIndexClosed
	}
	x.ch <- r
	return nil
}

// Sync waits until every queued realization has been written and returns
// the first write error, if any.
func (x *Index) Sync() error {
	done := make(chan struct{})
	if err := x.send(req{done: done}); err != nil {
		return x.firstErr()
	}
	<-done
	return x.firstErr()
}

// Close drains the queue and closes the database.
func (x *Index) Close() error {
	var err error
	x.once.Do(func() {
		x.sendMu.Lock()
		x.closed.Store(true)
		close(x.ch)
		x.sendMu.Unlock()
		x.wg.Wait()
		err = errors.Join(x.firstErr(), x.db.Close())
	})
	return err
}

func (x *Index) firstErr() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.err
}

func (x *Index) fail(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.err == nil {
		x.err = err
	}
}

func (x *Index) loop() {
	for r := range x.ch {
		if r.done != nil {
			close(r.done)
			continue
		}
		if err := x.write(r); err != nil {
			x.fail(fmt.Errorf("index realization %d: %w", r.realization, err))
		}
	}
}

func (x *Index) write(r req) error {
	ctx := context.Background()
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO samples(run_id,realization,particles,t,value) VALUES(?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, tr := range r.trs {
		for i, t := range tr.Times {
			if _, err := stmt.ExecContext(ctx, r.runID, r.realization, tr.N, t, tr.Values[i]); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
	}
	return tx.Commit()
}

// Runs lists the recorded runs, newest first.
func (x *Index) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT run_id,model,sites,threshold,seed,observable,randomized,created_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			r          RunRecord
			randomized int
			created    string
		)
		if err := rows.Scan(&r.ID, &r.Model, &r.Sites, &r.Threshold, &r.Seed, &r.Observable, &randomized, &created); err != nil {
			return nil, err
		}
		r.Randomized = randomized != 0
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Samples returns every sample of a run ordered by realization, particle
// count and time.
func (x *Index) Samples(ctx context.Context, runID string) ([]SampleRow, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT realization,particles,t,value FROM samples WHERE run_id=? ORDER BY realization,particles,t`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SampleRow
	for rows.Next() {
		var s SampleRow
		if err := rows.Scan(&s.Realization, &s.Particles, &s.T, &s.Value); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
