// Package ui provides the terminal viewer for the wallet tracker.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/feed"
	"github.com/rivo/tview"
)

// App is the terminal viewer. It renders events pushed through Emit by
// the session's adaptive poll loop, plus a status bar with loop health.
type App struct {
	app      *tview.Application
	layout   *tview.Flex
	feedView *LiveFeedView
	status   *tview.TextView

	stats *feed.Stats
	delay func() time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the viewer. delay reports the adaptive loop's current
// sleep so the status bar can show backoff in effect.
func NewApp(stats *feed.Stats, delay func() time.Duration) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:      tview.NewApplication(),
		feedView: NewLiveFeedView(),
		stats:    stats,
		delay:    delay,
		ctx:      ctx,
		cancel:   cancel,
	}

	a.status = tview.NewTextView().SetDynamicColors(true)
	a.status.SetBorder(true).SetTitle(" Status ")

	a.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.feedView.Widget(), 0, 1, false).
		AddItem(a.status, 3, 0, false)

	a.app.SetRoot(a.layout, true)
	a.setupKeyboard()

	return a
}

// setupKeyboard configures keyboard shortcuts.
func (a *App) setupKeyboard() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			a.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				a.Stop()
				return nil
			}
		}
		return event
	})
}

// Emit renders a batch of admitted events. Safe to call from the poll
// loop goroutine.
func (a *App) Emit(events []feed.TradeEvent) {
	a.app.QueueUpdateDraw(func() {
		a.feedView.AddEvents(events)
	})
}

// Run starts the viewer (blocking).
func (a *App) Run() error {
	go a.statusLoop()

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("app run failed: %w", err)
	}
	return nil
}

// Stop shuts the viewer down.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// Done is closed when the viewer has been stopped.
func (a *App) Done() <-chan struct{} {
	return a.ctx.Done()
}

// statusLoop refreshes the status bar twice a second.
func (a *App) statusLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			snap := a.stats.Snapshot()
			line := fmt.Sprintf(
				"wallets: %d  cycles: %d  events: %d  fetch errors: %d  throttled cycles: %d  poll delay: %s",
				snap.TrackedWallets, snap.Cycles, snap.EventsEmitted,
				snap.FetchErrors, snap.ThrottledCycles, a.delay().Round(100*time.Millisecond),
			)
			a.app.QueueUpdateDraw(func() {
				a.status.SetText(line)
			})
		}
	}
}
