package stream

import (
	"fmt"
	"log/slog"
	"net/http"
)

// handleStream serves the long-lived SSE feed: one hello frame on attach,
// then an events frame per cycle with new trades. The stream never ends
// because of upstream errors; only the client disconnect (or process
// shutdown) closes it.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// First viewer attach starts the shared loop; later calls are no-ops.
	s.Poller.Start(s.BaseCtx)

	viewer := s.Registry.Attach(FilterFromQuery(r.URL.Query()))
	defer s.Registry.Detach(viewer)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("sse_client_gone")
			return
		case frame := <-viewer.Frames():
			if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
				slog.Debug("sse_write_failed", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}
