package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/feed"
)

// Server hosts the live-stream endpoints. BaseCtx is the process context
// the shared poll loop is bound to; viewer request contexts only govern
// their own connection.
type Server struct {
	Addr     string
	Registry *Registry
	Poller   *feed.Poller
	Stats    *feed.Stats
	BaseCtx  context.Context
}

// Routes registers the stream endpoints on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /stream", s.handleStream)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /status", s.handleStatus)
}

// handleStatus reports poll-loop health as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	resp := struct {
		feed.StatsSnapshot
		Viewers     int  `json:"viewers"`
		LoopRunning bool `json:"loopRunning"`
	}{
		StatsSnapshot: s.Stats.Snapshot(),
		Viewers:       s.Registry.Count(),
		LoopRunning:   s.Poller.Running(),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("status_encode_failed", "error", err)
	}
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, mux *http.ServeMux) error {
	srv := &http.Server{
		Addr:        s.Addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /stream connections are long-lived by design.
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
