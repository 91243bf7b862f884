package ui

import (
	"fmt"
	"time"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/feed"
	"github.com/rivo/tview"
)

// LiveFeedView displays a scrolling feed of admitted trade events,
// newest first.
type LiveFeedView struct {
	table   *tview.Table
	events  []feed.TradeEvent
	maxRows int
}

// NewLiveFeedView creates a new live feed view.
func NewLiveFeedView() *LiveFeedView {
	table := tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0)

	table.SetTitle(" Wallet Trades ").SetBorder(true)

	v := &LiveFeedView{
		table:   table,
		events:  make([]feed.TradeEvent, 0, 100),
		maxRows: 100,
	}
	v.updateTable()
	return v
}

// Widget returns the tview primitive.
func (v *LiveFeedView) Widget() tview.Primitive {
	return v.table
}

// AddEvents prepends a batch of new events to the view.
func (v *LiveFeedView) AddEvents(events []feed.TradeEvent) {
	// Batches arrive oldest-first; keep the feed newest-first.
	for _, ev := range events {
		v.events = append([]feed.TradeEvent{ev}, v.events...)
	}
	if len(v.events) > v.maxRows {
		v.events = v.events[:v.maxRows]
	}

	v.updateTable()
}

// updateTable redraws the table from the current events.
func (v *LiveFeedView) updateTable() {
	v.table.Clear()

	headers := []string{"Time", "Trader", "Side", "Outcome", "Shares", "Price", "Value", "Market"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false)
		v.table.SetCell(0, col, cell)
	}

	for i, ev := range v.events {
		row := i + 1

		title := ev.Title
		if len(title) > 36 {
			title = title[:33] + "..."
		}

		trader := ev.Trader
		if trader == "" {
			trader = truncateAddress(ev.Wallet)
		}

		cells := []string{
			time.UnixMilli(ev.TimestampMs).Format("15:04:05"),
			trader,
			ev.Side,
			ev.Outcome,
			optionalNum(ev.Shares, "%.1f"),
			optionalNum(ev.PricePerShare, "%.3f"),
			optionalNum(ev.UsdcNotional, "$%.0f"),
			title,
		}

		for col, text := range cells {
			cell := tview.NewTableCell(text).
				SetAlign(tview.AlignLeft)
			v.table.SetCell(row, col, cell)
		}
	}

	v.table.SetTitle(fmt.Sprintf(" Wallet Trades (%d) ", len(v.events)))
}

// optionalNum formats an optional numeric field, "?" when unknown.
func optionalNum(f *float64, format string) string {
	if f == nil {
		return "?"
	}
	return fmt.Sprintf(format, *f)
}

// truncateAddress shortens a wallet address for display.
func truncateAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
