package feed

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/ingest"
)

// Adaptive delay policy
const (
	backoffFactor = 1.5
	speedupFactor = 0.9

	// DefaultMinDelay is the adaptive floor
	DefaultMinDelay = 2 * time.Second
	// DefaultMaxDelay is the adaptive ceiling
	DefaultMaxDelay = 20 * time.Second
)

// AdaptivePoller is the per-session poll loop used by the non-streaming
// viewer. Unlike Poller it owns a private watermark store, and its delay
// self-adjusts: throttling stretches it by 1.5x up to the ceiling, a clean
// cycle shrinks it by 0.9x down to the floor.
type AdaptivePoller struct {
	Wallets  WalletSource
	Batch    TradeBatch
	Store    *Watermark
	Stats    *Stats
	Emit     func(events []TradeEvent)
	MinDelay time.Duration
	MaxDelay time.Duration

	// delay holds the current sleep in nanoseconds; atomic because the
	// viewer's status bar reads it from another goroutine.
	delay    atomic.Int64
	primed   bool
	inFlight atomic.Bool
}

// Run executes the loop until ctx is cancelled. Cancellation is observed
// at the top of each cycle; an in-progress fetch batch completes first.
func (p *AdaptivePoller) Run(ctx context.Context) {
	if p.MinDelay <= 0 {
		p.MinDelay = DefaultMinDelay
	}
	if p.MaxDelay < p.MinDelay {
		p.MaxDelay = DefaultMaxDelay
	}
	p.delay.Store(int64(p.MinDelay))

	slog.Info("adaptive_loop_started", "min_delay", p.MinDelay, "max_delay", p.MaxDelay)

	for {
		if ctx.Err() != nil {
			slog.Info("adaptive_loop_stopped")
			return
		}

		throttled := p.RunOnce(ctx)
		p.delay.Store(int64(p.nextDelay(throttled)))

		select {
		case <-ctx.Done():
			slog.Info("adaptive_loop_stopped")
			return
		case <-time.After(p.Delay()):
		}
	}
}

// RunOnce runs a single fetch-admit-emit cycle and reports whether the
// cycle saw throttling. The in-flight guard makes an overlapping call a
// no-op, so a misfired timer cannot stack cycles.
func (p *AdaptivePoller) RunOnce(ctx context.Context) bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		return false
	}
	defer p.inFlight.Store(false)

	wallets, err := p.Wallets.List(ctx)
	if err != nil {
		slog.Warn("wallet_list_failed", "error", err)
		if p.Stats != nil {
			p.Stats.RecordWalletListError()
		}
		return true
	}

	start := time.Now()
	results := p.Batch.Run(ctx, wallets)

	var admitted []TradeEvent
	for _, r := range results {
		events := NormalizeAll(r.Trades, r.Wallet)
		admitted = append(admitted, p.Store.Admit(r.Wallet.Wallet, events)...)
	}
	sort.Slice(admitted, func(i, j int) bool {
		return admitted[i].TimestampMs < admitted[j].TimestampMs
	})

	throttled := ingest.Throttled(results)

	if !p.primed {
		p.primed = true
		if p.Stats != nil {
			p.Stats.RecordCycle(len(wallets), 0, ingest.ErrorCount(results), throttled, time.Since(start))
		}
		return throttled
	}

	if len(admitted) > 0 && p.Emit != nil {
		p.Emit(admitted)
	}
	if p.Stats != nil {
		p.Stats.RecordCycle(len(wallets), len(admitted), ingest.ErrorCount(results), throttled, time.Since(start))
	}

	return throttled
}

// Delay returns the delay the next sleep will use.
func (p *AdaptivePoller) Delay() time.Duration {
	return time.Duration(p.delay.Load())
}

// nextDelay applies the backoff policy to the current delay.
func (p *AdaptivePoller) nextDelay(throttled bool) time.Duration {
	d := p.Delay()
	if d <= 0 {
		d = p.MinDelay
	}

	if throttled {
		d = time.Duration(float64(d) * backoffFactor)
		if d > p.MaxDelay {
			d = p.MaxDelay
		}
		return d
	}

	d = time.Duration(float64(d) * speedupFactor)
	if d < p.MinDelay {
		d = p.MinDelay
	}
	return d
}
