package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/blissend/tempwatch/internal/metrics"
	"github.com/blissend/tempwatch/internal/notify"
	"github.com/blissend/tempwatch/internal/probe"
	"github.com/blissend/tempwatch/internal/threshold"
)

const shutdownTimeout = 5 * time.Second

// Message is the JSON envelope pushed to WebSocket clients.
type Message struct {
	// Event is "reading" or "alert".
	Event string `json:"event"`

	Reading *probe.Reading `json:"reading,omitempty"`
	State   string         `json:"state,omitempty"`
	Alert   *notify.Event  `json:"alert,omitempty"`
	At      time.Time      `json:"at"`
}

// Snapshot is the /status response body.
type Snapshot struct {
	Reading   *probe.Reading `json:"reading,omitempty"`
	State     string         `json:"state"`
	UpdatedAt time.Time      `json:"updated_at,omitempty"`
}

// Server exposes /healthz, /status, /metrics, and the /ws live feed.
type Server struct {
	addr string
	hub  *Hub

	mu   sync.RWMutex
	last Snapshot
}

// NewServer creates a status Server listening on addr.
func NewServer(addr string) *Server {
	s := &Server{
		addr: addr,
		last: Snapshot{State: string(threshold.StateNormal)},
	}
	s.hub = NewHub(s.connectMessage)
	return s
}

// PublishReading records the latest reading and pushes it to the live feed.
func (s *Server) PublishReading(r probe.Reading, st threshold.Status) {
	s.mu.Lock()
	rc := r
	s.last = Snapshot{Reading: &rc, State: string(st.State), UpdatedAt: time.Now().UTC()}
	s.mu.Unlock()

	s.hub.Broadcast(Message{Event: "reading", Reading: &rc, State: string(st.State), At: rc.Timestamp})
}

// PublishEvent pushes an alert transition to the live feed.
func (s *Server) PublishEvent(e notify.Event) {
	ec := e
	s.hub.Broadcast(Message{Event: "alert", Alert: &ec, At: e.At})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/ws", s.hub)

	srv := &http.Server{Addr: s.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("status: listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok")) //nolint:errcheck
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	snap := s.last
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap) //nolint:errcheck
}

// connectMessage supplies the hub's on-connect payload: the last snapshot,
// so a dashboard has data before the next tick.
func (s *Server) connectMessage() ([]byte, bool) {
	s.mu.RLock()
	snap := s.last
	s.mu.RUnlock()

	if snap.Reading == nil {
		return nil, false
	}
	data, err := json.Marshal(Message{
		Event:   "reading",
		Reading: snap.Reading,
		State:   snap.State,
		At:      snap.UpdatedAt,
	})
	if err != nil {
		return nil, false
	}
	return data, true
}
