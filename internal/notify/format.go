// Package notify formats admitted trade events as spoken-style sentences
// and delivers them to Web Push subscribers.
package notify

import (
	"fmt"
	"strings"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/feed"
)

// Sentence renders one trade event as a sentence suitable for speech
// synthesis or a notification body. Unknown numeric fields are spoken as
// unknown, never as zero.
func Sentence(ev feed.TradeEvent) string {
	trader := ev.Trader
	if trader == "" {
		trader = shortAddress(ev.Wallet)
	}

	verb := "bought"
	if ev.Side == feed.SideSell {
		verb = "sold"
	}

	var b strings.Builder
	b.WriteString(trader)
	b.WriteByte(' ')
	b.WriteString(verb)

	if ev.Shares != nil {
		fmt.Fprintf(&b, " %s shares", trimFloat(*ev.Shares))
	} else {
		b.WriteString(" shares")
	}

	if ev.Outcome != "" {
		fmt.Fprintf(&b, " of %s", ev.Outcome)
	}
	if ev.Title != "" {
		fmt.Fprintf(&b, " on %q", ev.Title)
	}

	if ev.PricePerShare != nil {
		fmt.Fprintf(&b, " at %.0f cents", *ev.PricePerShare*100)
	}
	if ev.UsdcNotional != nil {
		fmt.Fprintf(&b, " for $%.2f", *ev.UsdcNotional)
	}

	b.WriteByte('.')
	return b.String()
}

// trimFloat formats a share count without trailing noise.
func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}

// shortAddress shortens a wallet address for display.
func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
