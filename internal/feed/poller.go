package feed

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/ingest"
)

// DefaultPollInterval is the steady-state sleep between poll cycles.
const DefaultPollInterval = 6 * time.Second

// WalletSource supplies the current tracked wallet list.
type WalletSource interface {
	List(ctx context.Context) ([]ingest.TrackedWallet, error)
}

// TradeBatch runs one bounded-concurrency fetch over a wallet list.
type TradeBatch interface {
	Run(ctx context.Context, wallets []ingest.TrackedWallet) []ingest.WalletTrades
}

// EventSink receives each cycle's admitted events. Sinks must not block;
// slow delivery is the sink's problem, not the loop's.
type EventSink interface {
	Publish(events []TradeEvent)
}

// Poller is the process-wide poll loop behind the live stream. It runs at
// most once per process: Start is idempotent so concurrent viewer attaches
// cannot spawn duplicate loops. Transient errors in a cycle are logged and
// swallowed; the loop only stops with its context.
type Poller struct {
	Wallets  WalletSource
	Batch    TradeBatch
	Store    *Watermark
	Stats    *Stats
	Sinks    []EventSink
	Interval time.Duration

	started atomic.Bool
	primed  bool
}

// Start launches the loop goroutine. The first call wins and returns true;
// later calls are no-ops returning false.
func (p *Poller) Start(ctx context.Context) bool {
	if !p.started.CompareAndSwap(false, true) {
		return false
	}
	if p.Interval <= 0 {
		p.Interval = DefaultPollInterval
	}

	go p.run(ctx)
	return true
}

// Running reports whether the loop has been started.
func (p *Poller) Running() bool {
	return p.started.Load()
}

func (p *Poller) run(ctx context.Context) {
	slog.Info("poll_loop_started", "interval", p.Interval)

	timer := time.NewTimer(0) // first cycle (the priming pass) runs immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("poll_loop_stopped")
			return
		case <-timer.C:
			p.cycle(ctx)
			timer.Reset(p.Interval)
		}
	}
}

// cycle runs one fetch -> normalize -> admit -> sort -> fan-out pass.
// The very first cycle primes the watermark store: its output is discarded
// so startup does not announce the entire fetch window as fresh trades.
func (p *Poller) cycle(ctx context.Context) {
	start := time.Now()

	wallets, err := p.Wallets.List(ctx)
	if err != nil {
		slog.Warn("wallet_list_failed", "error", err)
		p.Stats.RecordWalletListError()
		return
	}

	results := p.Batch.Run(ctx, wallets)

	var admitted []TradeEvent
	for _, r := range results {
		events := NormalizeAll(r.Trades, r.Wallet)
		admitted = append(admitted, p.Store.Admit(r.Wallet.Wallet, events)...)
	}

	// Wallets fetch in parallel and complete out of order; viewers still
	// see one chronological stream per cycle.
	sort.Slice(admitted, func(i, j int) bool {
		return admitted[i].TimestampMs < admitted[j].TimestampMs
	})

	errCount := ingest.ErrorCount(results)
	throttled := ingest.Throttled(results)

	if !p.primed {
		p.primed = true
		slog.Info("watermark_primed", "wallets", len(wallets), "seeded_events", len(admitted))
		p.Stats.RecordCycle(len(wallets), 0, errCount, throttled, time.Since(start))
		return
	}

	if len(admitted) > 0 {
		for _, sink := range p.Sinks {
			sink.Publish(admitted)
		}
		slog.Debug("events_emitted", "count", len(admitted), "fetch_errors", errCount)
	}

	p.Stats.RecordCycle(len(wallets), len(admitted), errCount, throttled, time.Since(start))
}
