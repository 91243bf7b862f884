package stream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// wsWriteTimeout bounds a single frame write
	wsWriteTimeout = 10 * time.Second
	// wsPingInterval keeps idle connections alive through proxies
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWS mirrors the SSE feed over a WebSocket: same JSON frames, hello
// first, then events frames as cycles admit trades.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws_upgrade_failed", "error", err)
		return
	}
	defer conn.Close()

	s.Poller.Start(s.BaseCtx)

	viewer := s.Registry.Attach(FilterFromQuery(r.URL.Query()))
	defer s.Registry.Detach(viewer)

	// Reader only watches for the client closing the socket.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			slog.Debug("ws_client_gone")
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case frame := <-viewer.Frames():
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				slog.Debug("ws_write_failed", "error", err)
				return
			}
		}
	}
}
