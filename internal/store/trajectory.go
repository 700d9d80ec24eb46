package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"latticegas/internal/realization"
)

// TrajectoryPath returns the compressed trajectory path of realization i.
func TrajectoryPath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("realization%d.jsonl.zst", i))
}

// Frame is one lattice snapshot in a trajectory file.
type Frame struct {
	N     int     `json:"n"`
	T     int     `json:"t"`
	Value float64 `json:"value"`
	Sites []int   `json:"sites"`
}

// TrajectoryWriter appends frames as zstd-compressed JSON lines. It
// implements realization.Sink.
type TrajectoryWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// CreateTrajectory truncates or creates path.
func CreateTrajectory(path string) (*TrajectoryWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &TrajectoryWriter{f: f, enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

// Sample writes s as one line.
func (w *TrajectoryWriter) Sample(s realization.Sample) error {
	b, err := json.Marshal(Frame{N: s.N, T: s.T, Value: s.Value, Sites: s.Sites})
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return os.ErrClosed
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Close flushes the encoder and closes the file.
func (w *TrajectoryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	var firstErr error
	if err := w.w.Flush(); err != nil {
		firstErr = err
	}
	if err := w.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	w.w, w.enc, w.f = nil, nil, nil
	return firstErr
}

// ReadTrajectory decodes every frame of a trajectory file.
func ReadTrajectory(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var frames []Frame
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		var fr Frame
		if err := json.Unmarshal(sc.Bytes(), &fr); err != nil {
			return frames, fmt.Errorf("read %s: frame %d: %w", path, len(frames), err)
		}
		frames = append(frames, fr)
	}
	if err := sc.Err(); err != nil {
		return frames, fmt.Errorf("read %s: %w", path, err)
	}
	return frames, nil
}
