package feed

import "sync"

const (
	// DefaultSentIDsCap is the sent-id set size that triggers truncation
	DefaultSentIDsCap = 5000
)

// Watermark tracks, per wallet, the newest trade timestamp already
// processed, plus a bounded set of already-emitted event identities.
// Together they defend against an old trade reappearing in a fresh fetch
// and against the same trade spanning two overlapping fetch windows.
//
// State is volatile; a restart re-primes against current upstream state.
type Watermark struct {
	mu        sync.Mutex
	lastSeen  map[string]int64
	sentIDs   map[string]struct{}
	sentOrder []string // insertion order, for recency-keeping truncation
	cap       int
}

// NewWatermark creates an empty store. cap bounds the sent-id set; once
// exceeded it is truncated to the most recent half.
func NewWatermark(capacity int) *Watermark {
	if capacity < 2 {
		capacity = DefaultSentIDsCap
	}
	return &Watermark{
		lastSeen: make(map[string]int64),
		sentIDs:  make(map[string]struct{}),
		cap:      capacity,
	}
}

// Admit filters one wallet's freshly fetched events down to the ones that
// are new: strictly newer than the wallet's watermark and not already
// emitted. Admitted ids are recorded; the watermark advances to the
// maximum surviving timestamp. Stale-only input leaves the watermark
// untouched.
func (w *Watermark) Admit(wallet string, events []TradeEvent) []TradeEvent {
	w.mu.Lock()
	defer w.mu.Unlock()

	last := w.lastSeen[wallet]

	fresh := make([]TradeEvent, 0, len(events))
	maxTS := last
	for _, ev := range events {
		if ev.TimestampMs <= last {
			continue
		}
		fresh = append(fresh, ev)
		if ev.TimestampMs > maxTS {
			maxTS = ev.TimestampMs
		}
	}

	if len(fresh) == 0 {
		return nil
	}
	w.lastSeen[wallet] = maxTS

	admitted := fresh[:0]
	for _, ev := range fresh {
		if _, dup := w.sentIDs[ev.ID]; dup {
			continue
		}
		w.sentIDs[ev.ID] = struct{}{}
		w.sentOrder = append(w.sentOrder, ev.ID)
		admitted = append(admitted, ev)

		// Trim on the insertion that crosses the cap, never later.
		if len(w.sentOrder) > w.cap {
			w.truncateLocked()
		}
	}

	return admitted
}

// LastSeen returns the current watermark for a wallet (0 if none).
func (w *Watermark) LastSeen(wallet string) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen[wallet]
}

// SentCount returns the current size of the sent-id set.
func (w *Watermark) SentCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sentOrder)
}

// truncateLocked drops the oldest half of the sent-id set, keeping the
// most recently inserted entries. Recency-ordered retention, not strict
// LRU: a re-admitted id does not move forward.
func (w *Watermark) truncateLocked() {
	keepFrom := len(w.sentOrder) - w.cap/2
	for _, id := range w.sentOrder[:keepFrom] {
		delete(w.sentIDs, id)
	}
	w.sentOrder = append(w.sentOrder[:0], w.sentOrder[keepFrom:]...)
}
