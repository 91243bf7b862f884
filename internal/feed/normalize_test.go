package feed

import (
	"testing"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/ingest"
)

func num(v float64) ingest.Numeric {
	return ingest.Numeric{Val: v, OK: true}
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int64
	}{
		{"seconds are scaled", 1_700_000_000, 1_700_000_000_000},
		{"milliseconds pass through", 1_700_000_000_000, 1_700_000_000_000},
		{"threshold boundary is milliseconds", 10_000_000_000, 10_000_000_000},
		{"below threshold is seconds", 9_999_999_999, 9_999_999_999_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTimestamp(tt.in); got != tt.want {
				t.Errorf("NormalizeTimestamp(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeDropsBadTimestamps(t *testing.T) {
	wallet := ingest.TrackedWallet{Trader: "Alice", Wallet: "0xabc"}

	if _, ok := Normalize(ingest.RawTrade{Timestamp: num(0)}, wallet); ok {
		t.Error("zero timestamp should be dropped")
	}
	if _, ok := Normalize(ingest.RawTrade{Timestamp: num(-5)}, wallet); ok {
		t.Error("negative timestamp should be dropped")
	}
	if _, ok := Normalize(ingest.RawTrade{}, wallet); ok {
		t.Error("missing timestamp should be dropped")
	}
}

func TestNormalizeSideIsPermissive(t *testing.T) {
	wallet := ingest.TrackedWallet{Trader: "Alice", Wallet: "0xabc"}

	tests := []struct {
		raw  string
		want string
	}{
		{"SELL", SideSell},
		{"BUY", SideBuy},
		{"", SideBuy},
		{"MERGE", SideBuy},
		{"sell", SideBuy}, // only the literal marker counts
	}

	for _, tt := range tests {
		ev, ok := Normalize(ingest.RawTrade{Side: tt.raw, Timestamp: num(1_700_000_000)}, wallet)
		if !ok {
			t.Fatalf("trade with side %q dropped", tt.raw)
		}
		if ev.Side != tt.want {
			t.Errorf("side %q normalized to %s, want %s", tt.raw, ev.Side, tt.want)
		}
	}
}

func TestNormalizeUnknownNumericsStayUnknown(t *testing.T) {
	wallet := ingest.TrackedWallet{Trader: "Alice", Wallet: "0xabc"}

	ev, ok := Normalize(ingest.RawTrade{
		Timestamp: num(1_700_000_000),
		Size:      ingest.Numeric{}, // unparseable upstream field
		Price:     num(0.4),
	}, wallet)
	if !ok {
		t.Fatal("trade dropped")
	}

	if ev.Shares != nil {
		t.Errorf("unknown size should be nil, got %v", *ev.Shares)
	}
	if ev.UsdcNotional != nil {
		t.Errorf("notional with unknown size should be nil, got %v", *ev.UsdcNotional)
	}
	if ev.PricePerShare == nil || *ev.PricePerShare != 0.4 {
		t.Errorf("price lost in normalization")
	}
}

func TestNormalizeComputesNotionalAndIdentity(t *testing.T) {
	wallet := ingest.TrackedWallet{Trader: "Alice", Wallet: "0xabc"}

	ev, ok := Normalize(ingest.RawTrade{
		ProxyWallet:     "0xDEF",
		Side:            "SELL",
		Timestamp:       num(1_700_000_000),
		Size:            num(100),
		Price:           num(0.25),
		Title:           "Will it rain?",
		Outcome:         "YES",
		TransactionHash: "0xhash",
	}, wallet)
	if !ok {
		t.Fatal("trade dropped")
	}

	if ev.Wallet != "0xdef" {
		t.Errorf("record wallet should win over fallback, got %s", ev.Wallet)
	}
	if ev.Trader != "Alice" {
		t.Errorf("trader name lost")
	}
	if ev.UsdcNotional == nil || *ev.UsdcNotional != 25 {
		t.Errorf("notional wrong: %v", ev.UsdcNotional)
	}
	if ev.TimestampMs != 1_700_000_000_000 {
		t.Errorf("timestamp not normalized: %d", ev.TimestampMs)
	}
	if ev.ID != "0xhash:0xdef" {
		t.Errorf("unexpected identity: %s", ev.ID)
	}
}

func TestNormalizeFallsBackToFetchedWallet(t *testing.T) {
	wallet := ingest.TrackedWallet{Trader: "Bob", Wallet: "0xfee"}

	ev, ok := Normalize(ingest.RawTrade{Timestamp: num(1_700_000_000)}, wallet)
	if !ok {
		t.Fatal("trade dropped")
	}
	if ev.Wallet != "0xfee" {
		t.Errorf("expected fallback wallet, got %s", ev.Wallet)
	}
}
