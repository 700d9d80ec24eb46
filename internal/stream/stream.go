// Package stream serves a running realization to websocket clients, one
// frame per timestep.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"latticegas/internal/core"
	"latticegas/internal/engine"
	"latticegas/internal/logging"
	"latticegas/pkg/lattice"
)

// Frame is the message sent to clients after every timestep.
type Frame struct {
	T        int     `json:"t"`
	Activity float64 `json:"activity"`
	// CID is omitted when the configuration is too short to compress.
	CID       *float64 `json:"cid,omitempty"`
	Total     int      `json:"total"`
	Absorbing bool     `json:"absorbing"`
	Sites     []int    `json:"sites"`
}

// Config describes the streamed realization.
type Config struct {
	Model     lattice.Model
	Sites     int
	Particles int
	Seed      int64
	Options   engine.Options
	// TPS is the number of timesteps per second.
	TPS int
	// MaxSteps stops the stream after this many steps. Zero streams until
	// the absorbing state or cancellation.
	MaxSteps int
}

const clientBuffer = 16

// Server owns the producer loop and the connected clients.
type Server struct {
	cfg Config
	log *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	tick     atomic.Int64

	mu      sync.Mutex
	clients map[uint64]chan []byte
	last    []byte
	// done is set once Run has returned; late subscribers get the last
	// frame and an immediate end of stream.
	done bool
}

// NewServer validates cfg. A nil logger discards output.
func NewServer(cfg Config, logger *log.Logger) (*Server, error) {
	if err := cfg.Model.Validate(); err != nil {
		return nil, err
	}
	if cfg.Sites <= 0 {
		return nil, fmt.Errorf("%w: lattice length L=%d must be positive", lattice.ErrConfiguration, cfg.Sites)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		cfg: cfg,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[uint64]chan []byte),
	}, nil
}

// Handler routes /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleHealth(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(map[string]any{
		"status":  "ok",
		"model":   s.cfg.Model,
		"t":       s.tick.Load(),
		"clients": s.Clients(),
	})
}

func (s *Server) handleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id, out := s.subscribe()
	defer s.unsubscribe(id)
	s.log.Debug("client connected", "client", id, "remote", r.RemoteAddr)

	// Reader: only watches for the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case b, ok := <-out:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "end of stream"),
					time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}

func (s *Server) subscribe() (uint64, chan []byte) {
	id := s.nextID.Add(1)
	ch := make(chan []byte, clientBuffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last != nil {
		ch <- s.last
	}
	if s.done {
		close(ch)
		return id, ch
	}
	s.clients[id] = ch
	return id, ch
}

func (s *Server) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.clients[id]; ok {
		delete(s.clients, id)
		close(ch)
	}
}

func (s *Server) broadcast(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = b
	for id, ch := range s.clients {
		select {
		case ch <- b:
		default:
			s.log.Warn("dropping slow client", "client", id)
			delete(s.clients, id)
			close(ch)
		}
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	for id, ch := range s.clients {
		delete(s.clients, id)
		close(ch)
	}
}

// Run advances the realization at cfg.TPS steps per second and broadcasts a
// frame after every step. It returns nil once the lattice is absorbing or
// MaxSteps is reached, and ctx.Err() on cancellation. Clients are
// disconnected when Run returns.
func (s *Server) Run(ctx context.Context) error {
	defer s.closeAll()

	rng := lattice.NewRNG(s.cfg.Seed)
	d, err := engine.New(s.cfg.Model, s.cfg.Options, rng)
	if err != nil {
		return err
	}
	r, err := d.Create(s.cfg.Sites, s.cfg.Particles)
	if err != nil {
		return err
	}
	pace := core.NewFixedStep(s.cfg.TPS)
	s.log.Info("streaming", "model", s.cfg.Model, "sites", s.cfg.Sites, "particles", s.cfg.Particles, "tps", s.cfg.TPS)

	for t := 0; ; t++ {
		s.tick.Store(int64(t))
		frame := s.frame(d, r, t)
		b, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		s.broadcast(b)
		if frame.Absorbing || (s.cfg.MaxSteps > 0 && t >= s.cfg.MaxSteps) {
			s.log.Info("stream finished", "t", t, "absorbing", frame.Absorbing)
			return nil
		}
		if err := pace.Wait(ctx); err != nil {
			return err
		}
		if _, err := d.Advance(r, 1); err != nil {
			return err
		}
	}
}

func (s *Server) frame(d *engine.Dynamics, r *lattice.Ring, t int) Frame {
	f := Frame{
		T:         t,
		Activity:  d.Activity(r),
		Total:     r.Total(),
		Absorbing: len(d.ActiveSites(r)) == 0,
		Sites:     r.Snapshot(nil),
	}
	if v, err := d.CID(r); err == nil {
		f.CID = &v
	} else if !errors.Is(err, lattice.ErrDegenerateInput) {
		s.log.Warn("cid failed", "t", t, "err", err)
	}
	return f
}

// ListenAndServe serves Handler on addr while Run drives the realization.
// Both stop when ctx is cancelled; the HTTP server also stops shortly after
// the stream ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	runErr := make(chan error, 1)
	go func() { runErr <- s.Run(ctx) }()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)

	var err error
	select {
	case err = <-serveErr:
		return err
	case err = <-runErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
