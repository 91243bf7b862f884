// Package main is the terminal viewer: a per-session adaptive poll loop
// rendered with tview, no server required.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/config"
	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/feed"
	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/ingest"
	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// The TUI owns the terminal; route logs to a file when asked for,
	// otherwise drop them.
	logOut := io.Writer(io.Discard)
	if path := os.Getenv("WATCH_LOG_FILE"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			defer f.Close()
			logOut = f
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sheet := ingest.NewWalletSheet(cfg.WalletSheetURL)
	client := ingest.NewClient(cfg.TradeAPIURL, cfg.RequestsPerSec)
	batch := ingest.NewBatchRunner(client, cfg.FetchConcurrency, cfg.TradeFetchLimit)

	stats := feed.NewStats()

	// Session-private watermark store: each viewer session primes and
	// dedupes independently.
	poller := &feed.AdaptivePoller{
		Wallets:  sheet,
		Batch:    batch,
		Store:    feed.NewWatermark(cfg.SentIDsCap),
		Stats:    stats,
		MinDelay: cfg.AdaptiveMinDelay,
		MaxDelay: cfg.AdaptiveMaxDelay,
	}

	app := ui.NewApp(stats, poller.Delay)
	poller.Emit = app.Emit

	go poller.Run(ctx)

	if err := app.Run(); err != nil {
		slog.Error("tui_error", "error", err)
		os.Exit(1)
	}

	cancel()
}
