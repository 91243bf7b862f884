// Package stream fans admitted trade events out to attached viewers over
// SSE and WebSocket connections.
package stream

import (
	"net/url"
	"strings"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/feed"
)

// Filter narrows a viewer's stream to one wallet and/or side. Zero values
// match everything. The filter is echoed back in the hello frame so the
// client can confirm what it subscribed to.
type Filter struct {
	Wallet string `json:"wallet,omitempty"`
	Side   string `json:"side,omitempty"`
}

// FilterFromQuery builds a Filter from request query parameters.
func FilterFromQuery(q url.Values) Filter {
	return Filter{
		Wallet: strings.ToLower(strings.TrimSpace(q.Get("wallet"))),
		Side:   strings.ToUpper(strings.TrimSpace(q.Get("side"))),
	}
}

// Match reports whether one event passes the filter.
func (f Filter) Match(ev feed.TradeEvent) bool {
	if f.Wallet != "" && ev.Wallet != f.Wallet {
		return false
	}
	if f.Side != "" && ev.Side != f.Side {
		return false
	}
	return true
}

// Apply returns the subset of events passing the filter. A zero filter
// returns the input unchanged.
func (f Filter) Apply(events []feed.TradeEvent) []feed.TradeEvent {
	if f.Wallet == "" && f.Side == "" {
		return events
	}

	var out []feed.TradeEvent
	for _, ev := range events {
		if f.Match(ev) {
			out = append(out, ev)
		}
	}
	return out
}
