// Package feed turns raw per-wallet fetches into a deduplicated, ordered
// stream of trade events.
package feed

import (
	"fmt"
	"strings"
)

// Trade sides
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// TradeEvent is the canonical internal trade shape emitted to viewers.
type TradeEvent struct {
	// ID is a stable identity for dedupe
	ID string `json:"id"`

	// Wallet is the lowercase address
	Wallet string `json:"wallet"`

	// Trader is the resolved display name
	Trader string `json:"trader"`

	// Side is BUY or SELL
	Side string `json:"side"`

	// Outcome is the traded outcome label (YES/NO), if known
	Outcome string `json:"outcome,omitempty"`

	// Title is the market question, if known
	Title string `json:"title,omitempty"`

	// Shares is the trade size; nil when the upstream field was unparseable
	Shares *float64 `json:"shares,omitempty"`

	// UsdcNotional is shares * price; nil when either input was unknown
	UsdcNotional *float64 `json:"usdcNotional,omitempty"`

	// PricePerShare is the execution price (0-1 range); nil when unknown
	PricePerShare *float64 `json:"pricePerShare,omitempty"`

	// TimestampMs is always milliseconds, normalized
	TimestampMs int64 `json:"timestampMs"`

	// TxHash is the on-chain transaction hash, if available
	TxHash string `json:"txHash,omitempty"`
}

// Identity derives the dedupe id for an event. A transaction hash combined
// with the wallet is stable; without one we fall back to a composite of
// wallet, timestamp, side, price and size. The composite is best-effort:
// two distinct trades in the same millisecond at the same price and size
// collide, and a re-quantized field on refetch produces a miss.
func Identity(wallet string, timestampMs int64, side, txHash string, price, size *float64) string {
	wallet = strings.ToLower(wallet)
	if txHash != "" {
		return txHash + ":" + wallet
	}
	return fmt.Sprintf("%s|%d|%s|%s|%s", wallet, timestampMs, side, floatKey(price), floatKey(size))
}

// floatKey formats an optional float for use in a composite identity.
func floatKey(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *f)
}
