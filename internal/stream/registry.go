package stream

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/feed"
)

// DefaultViewerBuffer is the per-viewer frame buffer size.
const DefaultViewerBuffer = 64

// Frame kinds on the wire
const (
	frameHello  = "hello"
	frameEvents = "events"
)

type helloFrame struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	Filter     Filter `json:"filter"`
}

type eventsFrame struct {
	Type   string            `json:"type"`
	Events []feed.TradeEvent `json:"events"`
}

// Viewer is one attached live-stream connection: a frame channel plus a
// membership token. The registry owns it; transports only drain Frames.
type Viewer struct {
	id     uint64
	filter Filter
	frames chan []byte
}

// Frames returns the channel the transport reads marshaled frames from.
func (v *Viewer) Frames() <-chan []byte {
	return v.frames
}

// Registry holds the currently attached viewers. Fan-out is best-effort
// per viewer: a slow or gone connection never blocks the others.
type Registry struct {
	mu      sync.RWMutex
	viewers map[uint64]*Viewer
	nextID  uint64
	buffer  int
}

// NewRegistry creates an empty registry with the given per-viewer buffer.
func NewRegistry(buffer int) *Registry {
	if buffer <= 0 {
		buffer = DefaultViewerBuffer
	}
	return &Registry{
		viewers: make(map[uint64]*Viewer),
		buffer:  buffer,
	}
}

// Attach registers a new viewer and queues its hello frame so the client
// can tell "connected, no events yet" from "never connected". The hello is
// always the first frame the transport sees.
func (r *Registry) Attach(filter Filter) *Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	v := &Viewer{
		id:     r.nextID,
		filter: filter,
		frames: make(chan []byte, r.buffer),
	}
	r.viewers[v.id] = v

	hello, err := json.Marshal(helloFrame{
		Type:       frameHello,
		ServerTime: time.Now().UnixMilli(),
		Filter:     filter,
	})
	if err == nil {
		v.frames <- hello
	}

	slog.Info("viewer_attached", "viewer", v.id, "total", len(r.viewers))
	return v
}

// Detach removes a viewer. Safe to call while a broadcast is in flight:
// the broadcast writes into the viewer's buffered channel, which simply
// goes unread.
func (r *Registry) Detach(v *Viewer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.viewers[v.id]; !ok {
		return
	}
	delete(r.viewers, v.id)
	slog.Info("viewer_detached", "viewer", v.id, "total", len(r.viewers))
}

// Count returns the number of attached viewers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.viewers)
}

// Publish delivers one cycle's events to every viewer independently,
// filtered per viewer. Implements feed.EventSink. A full buffer drops the
// frame for that viewer only.
func (r *Registry) Publish(events []feed.TradeEvent) {
	r.mu.RLock()
	snapshot := make([]*Viewer, 0, len(r.viewers))
	for _, v := range r.viewers {
		snapshot = append(snapshot, v)
	}
	r.mu.RUnlock()

	for _, v := range snapshot {
		filtered := v.filter.Apply(events)
		if len(filtered) == 0 {
			continue
		}

		frame, err := json.Marshal(eventsFrame{Type: frameEvents, Events: filtered})
		if err != nil {
			slog.Error("frame_marshal_failed", "error", err)
			continue
		}

		select {
		case v.frames <- frame:
		default:
			slog.Warn("viewer_buffer_full", "viewer", v.id, "dropped_events", len(filtered))
		}
	}
}
