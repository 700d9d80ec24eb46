package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"latticegas/internal/engine"
	"latticegas/pkg/lattice"
)

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStreamSendsConsecutiveFrames(t *testing.T) {
	cfg := Config{
		Model:     lattice.Manna,
		Sites:     32,
		Particles: 40,
		Seed:      4,
		Options:   engine.Options{Threshold: 2},
		TPS:       1000,
		MaxSteps:  10,
	}
	s, ts := newTestServer(t, cfg)
	conn := dial(t, ts)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	var frames []Frame
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			require.True(t, errors.As(err, &ce), "unexpected read error %v", err)
			assert.Equal(t, websocket.CloseNormalClosure, ce.Code)
			break
		}
		var f Frame
		require.NoError(t, json.Unmarshal(msg, &f))
		frames = append(frames, f)
	}
	require.NoError(t, <-done)

	require.NotEmpty(t, frames)
	for i, f := range frames {
		assert.Equal(t, i, f.T)
		assert.Equal(t, 40, f.Total)
		assert.Len(t, f.Sites, 32)
		assert.NotNil(t, f.CID)
	}
	last := frames[len(frames)-1]
	assert.True(t, last.Absorbing || last.T == 10)
}

func TestStreamStopsAtAbsorbingState(t *testing.T) {
	cfg := Config{Model: lattice.CLG, Sites: 8, Particles: 8, TPS: 1000}
	s, _ := newTestServer(t, cfg)
	require.NoError(t, s.Run(context.Background()))

	var f Frame
	require.NoError(t, json.Unmarshal(s.last, &f))
	assert.True(t, f.Absorbing)
	assert.Equal(t, 0, f.T)
	assert.Equal(t, 0.0, f.Activity)
}

func TestStreamHonoursCancellation(t *testing.T) {
	cfg := Config{Model: lattice.CLG, Sites: 200, Particles: 150, TPS: 1}
	s, _ := newTestServer(t, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Run(ctx), context.DeadlineExceeded)
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, Config{Model: lattice.CLG, Sites: 4, Particles: 2})
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "clg", body["model"])
}

func TestNewServerValidates(t *testing.T) {
	_, err := NewServer(Config{Model: "ising", Sites: 4}, nil)
	assert.ErrorIs(t, err, lattice.ErrUnsupportedModel)
	_, err = NewServer(Config{Model: lattice.CLG}, nil)
	assert.ErrorIs(t, err, lattice.ErrConfiguration)
}

func TestLateClientGetsLastFrameAndClose(t *testing.T) {
	cfg := Config{Model: lattice.CLG, Sites: 16, Particles: 10, Seed: 2, TPS: 1000, MaxSteps: 1}
	s, ts := newTestServer(t, cfg)
	require.NoError(t, s.Run(context.Background()))

	conn := dial(t, ts)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var f Frame
	require.NoError(t, json.Unmarshal(msg, &f))
	assert.Equal(t, 1, f.T)

	_, _, err = conn.ReadMessage()
	var ce *websocket.CloseError
	require.True(t, errors.As(err, &ce), "expected close frame, got %v", err)
	assert.Equal(t, websocket.CloseNormalClosure, ce.Code)
	assert.Equal(t, 0, s.Clients())
}

func TestSlowClientIsDropped(t *testing.T) {
	cfg := Config{
		Model:     lattice.Manna,
		Sites:     20000,
		Particles: 50000,
		Seed:      9,
		Options:   engine.Options{Threshold: 2},
		TPS:       100000,
	}
	s, ts := newTestServer(t, cfg)
	// Density above Z never reaches the absorbing state. The client never
	// reads, so socket buffers fill and then its queue overflows.
	_ = dial(t, ts)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Clients() == 0 }, 20*time.Second, 10*time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("stream ended before the client was dropped: %v", err)
	default:
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
