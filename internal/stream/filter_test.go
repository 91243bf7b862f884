package stream

import (
	"net/url"
	"testing"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/feed"
)

func TestFilterFromQuery(t *testing.T) {
	q := url.Values{}
	q.Set("wallet", " 0xAbC ")
	q.Set("side", "sell")

	f := FilterFromQuery(q)
	if f.Wallet != "0xabc" {
		t.Errorf("wallet not normalized: %q", f.Wallet)
	}
	if f.Side != feed.SideSell {
		t.Errorf("side not normalized: %q", f.Side)
	}
}

func TestFilterApply(t *testing.T) {
	events := []feed.TradeEvent{
		{Wallet: "0xaaa", Side: feed.SideBuy},
		{Wallet: "0xaaa", Side: feed.SideSell},
		{Wallet: "0xbbb", Side: feed.SideBuy},
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"zero filter passes all", Filter{}, 3},
		{"wallet only", Filter{Wallet: "0xaaa"}, 2},
		{"side only", Filter{Side: feed.SideBuy}, 2},
		{"wallet and side", Filter{Wallet: "0xaaa", Side: feed.SideSell}, 1},
		{"no match", Filter{Wallet: "0xccc"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Apply(events); len(got) != tt.want {
				t.Errorf("Apply returned %d events, want %d", len(got), tt.want)
			}
		})
	}
}
