package feed

import (
	"strings"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/ingest"
)

// msThreshold separates second-resolution timestamps from millisecond ones.
// Values at or above it are assumed to already be milliseconds.
const msThreshold = 10_000_000_000

// NormalizeTimestamp converts an ambiguous upstream timestamp to
// milliseconds.
func NormalizeTimestamp(ts float64) int64 {
	if ts >= msThreshold {
		return int64(ts)
	}
	return int64(ts) * 1000
}

// Normalize converts one raw trade into a TradeEvent. The wallet the trade
// was fetched for supplies the identity when the record carries none. The
// second return value is false when the record must be dropped (missing or
// non-positive timestamp).
func Normalize(raw ingest.RawTrade, wallet ingest.TrackedWallet) (TradeEvent, bool) {
	if !raw.Timestamp.OK {
		return TradeEvent{}, false
	}

	ts := NormalizeTimestamp(raw.Timestamp.Val)
	if ts <= 0 {
		return TradeEvent{}, false
	}

	addr := strings.ToLower(raw.ProxyWallet)
	if addr == "" {
		addr = wallet.Wallet
	}

	// Anything that is not the literal SELL marker trades as a buy.
	side := SideBuy
	if raw.Side == SideSell {
		side = SideSell
	}

	shares := optional(raw.Size)
	price := optional(raw.Price)

	var notional *float64
	if shares != nil && price != nil {
		v := *shares * *price
		notional = &v
	}

	ev := TradeEvent{
		Wallet:        addr,
		Trader:        wallet.Trader,
		Side:          side,
		Outcome:       raw.Outcome,
		Title:         raw.Title,
		Shares:        shares,
		UsdcNotional:  notional,
		PricePerShare: price,
		TimestampMs:   ts,
		TxHash:        raw.TransactionHash,
	}
	ev.ID = Identity(ev.Wallet, ev.TimestampMs, ev.Side, ev.TxHash, ev.PricePerShare, ev.Shares)

	return ev, true
}

// NormalizeAll converts a raw batch for one wallet, dropping records that
// fail normalization.
func NormalizeAll(raw []ingest.RawTrade, wallet ingest.TrackedWallet) []TradeEvent {
	events := make([]TradeEvent, 0, len(raw))
	for _, r := range raw {
		if ev, ok := Normalize(r, wallet); ok {
			events = append(events, ev)
		}
	}
	return events
}

// optional converts an upstream numeric to a pointer, nil meaning unknown.
func optional(n ingest.Numeric) *float64 {
	if !n.OK {
		return nil
	}
	v := n.Val
	return &v
}
