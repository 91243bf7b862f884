package ingest

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// WalletTrades is the fetch outcome for one wallet. A failed fetch keeps
// Trades empty and records Err so callers can count failures per cycle
// without branching per item.
type WalletTrades struct {
	Wallet TrackedWallet
	Trades []RawTrade
	Err    error
}

// TradeFetcher is the per-wallet fetch dependency of the batch runner.
type TradeFetcher interface {
	RecentTrades(ctx context.Context, wallet string, limit int) ([]RawTrade, error)
}

// BatchRunner fans a wallet list out to the trade fetcher in fixed-size
// windows. The upstream enforces undocumented rate limits, so concurrency
// is capped deterministically: at most Concurrency fetches run at any
// instant, and a window fully completes before the next one starts.
type BatchRunner struct {
	Fetcher     TradeFetcher
	Concurrency int
	Limit       int
}

// NewBatchRunner creates a BatchRunner with the given concurrency ceiling
// and per-wallet result limit.
func NewBatchRunner(fetcher TradeFetcher, concurrency, limit int) *BatchRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	if limit <= 0 {
		limit = DefaultTradeLimit
	}
	return &BatchRunner{Fetcher: fetcher, Concurrency: concurrency, Limit: limit}
}

// Run fetches trades for every wallet, preserving the input ordering in
// the output regardless of which fetch in a window completes first.
func (b *BatchRunner) Run(ctx context.Context, wallets []TrackedWallet) []WalletTrades {
	results := make([]WalletTrades, len(wallets))

	for start := 0; start < len(wallets); start += b.Concurrency {
		end := start + b.Concurrency
		if end > len(wallets) {
			end = len(wallets)
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				w := wallets[i]
				trades, err := b.Fetcher.RecentTrades(ctx, w.Wallet, b.Limit)
				if err != nil {
					slog.Debug("wallet_fetch_failed", "wallet", w.Wallet, "error", err)
					results[i] = WalletTrades{Wallet: w, Err: err}
					return nil
				}
				results[i] = WalletTrades{Wallet: w, Trades: trades}
				return nil
			})
		}
		// Fetch errors are soft, so Wait only synchronizes the window.
		_ = g.Wait()

		if ctx.Err() != nil {
			break
		}
	}

	return results
}

// ErrorCount returns the number of failed wallet fetches in a batch.
func ErrorCount(results []WalletTrades) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Throttled reports whether any fetch in the batch failed. HTTP 429/403
// is a definite rate-limit signal; other transport errors are treated the
// same way so the adaptive loop backs off on any upstream trouble.
func Throttled(results []WalletTrades) bool {
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		if IsThrottle(r.Err) {
			return true
		}
		var he *HTTPError
		if !errors.As(r.Err, &he) {
			// Generic fetch failure, back off as if throttled.
			return true
		}
	}
	return false
}
