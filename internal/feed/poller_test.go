package feed

import (
	"context"
	"sync"
	"testing"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/ingest"
)

type fakeWallets struct {
	wallets []ingest.TrackedWallet
	err     error
}

func (f *fakeWallets) List(ctx context.Context) ([]ingest.TrackedWallet, error) {
	return f.wallets, f.err
}

type fakeBatch struct {
	mu     sync.Mutex
	trades map[string][]ingest.RawTrade
	errs   map[string]error
}

func newFakeBatch() *fakeBatch {
	return &fakeBatch{
		trades: make(map[string][]ingest.RawTrade),
		errs:   make(map[string]error),
	}
}

func (f *fakeBatch) setTrades(wallet string, trades ...ingest.RawTrade) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trades[wallet] = trades
}

func (f *fakeBatch) Run(ctx context.Context, wallets []ingest.TrackedWallet) []ingest.WalletTrades {
	f.mu.Lock()
	defer f.mu.Unlock()

	results := make([]ingest.WalletTrades, len(wallets))
	for i, w := range wallets {
		results[i] = ingest.WalletTrades{
			Wallet: w,
			Trades: f.trades[w.Wallet],
			Err:    f.errs[w.Wallet],
		}
	}
	return results
}

type captureSink struct {
	mu      sync.Mutex
	batches [][]TradeEvent
}

func (c *captureSink) Publish(events []TradeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := make([]TradeEvent, len(events))
	copy(batch, events)
	c.batches = append(c.batches, batch)
}

func (c *captureSink) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, b := range c.batches {
		n += len(b)
	}
	return n
}

func rawAt(sec float64, hash string) ingest.RawTrade {
	return ingest.RawTrade{
		Timestamp:       ingest.Numeric{Val: sec, OK: true},
		Size:            ingest.Numeric{Val: 10, OK: true},
		Price:           ingest.Numeric{Val: 0.5, OK: true},
		TransactionHash: hash,
	}
}

func newTestPoller(batch *fakeBatch, sink *captureSink) *Poller {
	return &Poller{
		Wallets: &fakeWallets{wallets: []ingest.TrackedWallet{{Trader: "X", Wallet: "0xaaa"}}},
		Batch:   batch,
		Store:   NewWatermark(100),
		Stats:   NewStats(),
		Sinks:   []EventSink{sink},
	}
}

func TestPollerPrimingSuppressesHistory(t *testing.T) {
	batch := newFakeBatch()
	for i := 0; i < 10; i++ {
		batch.trades["0xaaa"] = append(batch.trades["0xaaa"], rawAt(float64(1_700_000_000+i), ""))
	}

	sink := &captureSink{}
	p := newTestPoller(batch, sink)
	ctx := context.Background()

	// Priming pass: historical trades are marked seen, nothing emitted.
	p.cycle(ctx)
	if sink.total() != 0 {
		t.Fatalf("priming emitted %d events", sink.total())
	}

	// Steady state with no new upstream trades: still nothing.
	p.cycle(ctx)
	if sink.total() != 0 {
		t.Fatalf("unchanged upstream emitted %d events", sink.total())
	}

	// One newer trade appears: exactly that one is emitted.
	batch.setTrades("0xaaa", append(batch.trades["0xaaa"], rawAt(1_700_000_100, "0xnew"))...)
	p.cycle(ctx)
	if sink.total() != 1 {
		t.Fatalf("expected exactly 1 emitted, got %d", sink.total())
	}
	if sink.batches[0][0].TxHash != "0xnew" {
		t.Errorf("wrong trade emitted: %+v", sink.batches[0][0])
	}
}

func TestPollerSortsAcrossWallets(t *testing.T) {
	batch := newFakeBatch()
	sink := &captureSink{}

	p := newTestPoller(batch, sink)
	p.Wallets = &fakeWallets{wallets: []ingest.TrackedWallet{
		{Trader: "X", Wallet: "0xaaa"},
		{Trader: "Y", Wallet: "0xbbb"},
	}}

	ctx := context.Background()
	p.cycle(ctx) // prime on empty upstream

	batch.setTrades("0xaaa", rawAt(1_700_000_030, "0xa1"), rawAt(1_700_000_010, "0xa2"))
	batch.setTrades("0xbbb", rawAt(1_700_000_020, "0xb1"))
	p.cycle(ctx)

	if len(sink.batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(sink.batches))
	}
	got := sink.batches[0]
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].TimestampMs > got[i].TimestampMs {
			t.Errorf("events out of order: %d before %d", got[i-1].TimestampMs, got[i].TimestampMs)
		}
	}
}

func TestPollerStartIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newTestPoller(newFakeBatch(), &captureSink{})
	p.Interval = DefaultPollInterval

	if !p.Start(ctx) {
		t.Fatal("first Start should win")
	}
	if p.Start(ctx) {
		t.Error("second Start should be a no-op")
	}
	if !p.Running() {
		t.Error("loop should report running")
	}
}

func TestPollerWalletListFailureAbortsOnlyCycle(t *testing.T) {
	batch := newFakeBatch()
	sink := &captureSink{}
	p := newTestPoller(batch, sink)

	src := &fakeWallets{err: context.DeadlineExceeded}
	p.Wallets = src

	ctx := context.Background()
	p.cycle(ctx)

	if p.Stats.Snapshot().WalletListErrors != 1 {
		t.Errorf("wallet list error not counted")
	}

	// Source recovers; the next cycle primes normally.
	src.err = nil
	src.wallets = []ingest.TrackedWallet{{Trader: "X", Wallet: "0xaaa"}}
	p.cycle(ctx)

	if p.Stats.Snapshot().Cycles != 1 {
		t.Errorf("recovered cycle not recorded")
	}
}
