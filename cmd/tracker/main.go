// Package main is the entry point for the wallet tracker server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/config"
	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/feed"
	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/ingest"
	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/notify"
	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/stream"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("tracker starting",
		"version", "1.0.0",
	)

	slog.Info("config_loaded",
		"wallet_sheet_url", cfg.WalletSheetURL,
		"trade_api_url", cfg.TradeAPIURL,
		"trade_fetch_limit", cfg.TradeFetchLimit,
		"poll_interval", cfg.PollInterval,
		"fetch_concurrency", cfg.FetchConcurrency,
		"sent_ids_cap", cfg.SentIDsCap,
		"http_addr", cfg.HTTPAddr,
		"vapid_private_key", cfg.MaskedVAPIDPrivateKey(),
		"push_min_usdc", cfg.PushMinUSDC,
	)

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Data sources
	sheet := ingest.NewWalletSheet(cfg.WalletSheetURL)
	client := ingest.NewClient(cfg.TradeAPIURL, cfg.RequestsPerSec)
	batch := ingest.NewBatchRunner(client, cfg.FetchConcurrency, cfg.TradeFetchLimit)

	// Shared loop state
	stats := feed.NewStats()
	store := feed.NewWatermark(cfg.SentIDsCap)
	registry := stream.NewRegistry(stream.DefaultViewerBuffer)

	push := notify.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushContact, cfg.PushMinUSDC)
	if !push.Enabled() {
		slog.Warn("push_delivery_disabled", "reason", "VAPID keys not configured")
	}

	poller := &feed.Poller{
		Wallets:  sheet,
		Batch:    batch,
		Store:    store,
		Stats:    stats,
		Sinks:    []feed.EventSink{registry, push},
		Interval: cfg.PollInterval,
	}

	// The loop also starts lazily on first viewer attach; starting it here
	// gets the priming pass out of the way before anyone connects.
	poller.Start(ctx)

	srv := &stream.Server{
		Addr:     cfg.HTTPAddr,
		Registry: registry,
		Poller:   poller,
		Stats:    stats,
		BaseCtx:  ctx,
	}

	mux := http.NewServeMux()
	srv.Routes(mux)
	push.Routes(mux)

	slog.Info("tracker_started", "addr", cfg.HTTPAddr)

	if err := srv.ListenAndServe(ctx, mux); err != nil && err != http.ErrServerClosed {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}

	slog.Info("shutdown_complete")
}

// setupLogger creates a structured logger with the specified level.
// Format: 2025-01-04 14:32:01 [INFO]  message key=value
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("2006-01-02 15:04:05"))
				}
			}
			return a
		},
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}
