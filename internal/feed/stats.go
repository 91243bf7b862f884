package feed

import (
	"sync"
	"time"
)

// StatsSnapshot is a point-in-time view of poll-loop health.
type StatsSnapshot struct {
	Cycles            int64         `json:"cycles"`
	EventsEmitted     int64         `json:"eventsEmitted"`
	FetchErrors       int64         `json:"fetchErrors"`
	LastCycleErrors   int           `json:"lastCycleErrors"`
	ThrottledCycles   int64         `json:"throttledCycles"`
	WalletListErrors  int64         `json:"walletListErrors"`
	TrackedWallets    int           `json:"trackedWallets"`
	LastCycleDuration time.Duration `json:"lastCycleDurationNs"`
	LastCycleAt       time.Time     `json:"lastCycleAt"`
	Uptime            time.Duration `json:"uptimeNs"`
}

// Stats provides thread-safe counters for the poll loops. Per-wallet fetch
// failures degrade to "no trades this cycle", so the counters here are the
// only place those errors surface besides the log.
type Stats struct {
	mu               sync.RWMutex
	cycles           int64
	eventsEmitted    int64
	fetchErrors      int64
	lastCycleErrors  int
	throttledCycles  int64
	walletListErrors int64
	trackedWallets   int
	lastCycleDur     time.Duration
	lastCycleAt      time.Time
	startTime        time.Time
}

// NewStats creates a Stats tracker.
func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

// RecordCycle records the outcome of one completed poll cycle.
func (s *Stats) RecordCycle(wallets, emitted, fetchErrs int, throttled bool, dur time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cycles++
	s.eventsEmitted += int64(emitted)
	s.fetchErrors += int64(fetchErrs)
	s.lastCycleErrors = fetchErrs
	s.trackedWallets = wallets
	if throttled {
		s.throttledCycles++
	}
	s.lastCycleDur = dur
	s.lastCycleAt = time.Now()
}

// RecordWalletListError counts a failed wallet-list fetch (the cycle it
// aborted is not counted as a cycle).
func (s *Stats) RecordWalletListError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.walletListErrors++
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StatsSnapshot{
		Cycles:            s.cycles,
		EventsEmitted:     s.eventsEmitted,
		FetchErrors:       s.fetchErrors,
		LastCycleErrors:   s.lastCycleErrors,
		ThrottledCycles:   s.throttledCycles,
		WalletListErrors:  s.walletListErrors,
		TrackedWallets:    s.trackedWallets,
		LastCycleDuration: s.lastCycleDur,
		LastCycleAt:       s.lastCycleAt,
		Uptime:            time.Since(s.startTime),
	}
}
