package stream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/feed"
)

func testEvent(wallet, side string, ts int64) feed.TradeEvent {
	return feed.TradeEvent{
		ID:          wallet + "-" + side,
		Wallet:      wallet,
		Side:        side,
		TimestampMs: ts,
	}
}

func readFrame(t *testing.T, v *Viewer) map[string]any {
	t.Helper()
	select {
	case raw := <-v.Frames():
		var frame map[string]any
		if err := json.Unmarshal(raw, &frame); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return frame
	default:
		t.Fatal("no frame queued")
		return nil
	}
}

func TestAttachSendsHelloFirst(t *testing.T) {
	r := NewRegistry(8)
	v := r.Attach(Filter{Wallet: "0xaaa"})

	frame := readFrame(t, v)
	if frame["type"] != "hello" {
		t.Fatalf("first frame is %v, want hello", frame["type"])
	}
	if _, ok := frame["serverTime"]; !ok {
		t.Error("hello missing serverTime")
	}
	filter, _ := frame["filter"].(map[string]any)
	if filter["wallet"] != "0xaaa" {
		t.Errorf("hello did not echo the filter: %v", frame["filter"])
	}
}

func TestPublishFansOutIndependently(t *testing.T) {
	r := NewRegistry(8)
	all := r.Attach(Filter{})
	buysOnly := r.Attach(Filter{Side: feed.SideBuy})
	readFrame(t, all)      // drain hello
	readFrame(t, buysOnly) // drain hello

	r.Publish([]feed.TradeEvent{
		testEvent("0xaaa", feed.SideBuy, 1000),
		testEvent("0xbbb", feed.SideSell, 2000),
	})

	allFrame := readFrame(t, all)
	if allFrame["type"] != "events" {
		t.Fatalf("expected events frame, got %v", allFrame["type"])
	}
	if n := len(allFrame["events"].([]any)); n != 2 {
		t.Errorf("unfiltered viewer got %d events, want 2", n)
	}

	buyFrame := readFrame(t, buysOnly)
	if n := len(buyFrame["events"].([]any)); n != 1 {
		t.Errorf("filtered viewer got %d events, want 1", n)
	}
}

func TestPublishSkipsViewersWithNoMatches(t *testing.T) {
	r := NewRegistry(8)
	v := r.Attach(Filter{Wallet: "0xzzz"})
	readFrame(t, v)

	r.Publish([]feed.TradeEvent{testEvent("0xaaa", feed.SideBuy, 1000)})

	select {
	case <-v.Frames():
		t.Error("viewer with no matching events received a frame")
	default:
	}
}

func TestDetachDuringFanout(t *testing.T) {
	r := NewRegistry(8)
	gone := r.Attach(Filter{})
	stays := r.Attach(Filter{})
	readFrame(t, gone)
	readFrame(t, stays)

	r.Detach(gone)
	if r.Count() != 1 {
		t.Fatalf("expected 1 viewer, got %d", r.Count())
	}

	// Publishing after (or racing with) a detach must not panic and must
	// still reach the remaining viewer.
	r.Publish([]feed.TradeEvent{testEvent("0xaaa", feed.SideBuy, 1000)})

	frame := readFrame(t, stays)
	if frame["type"] != "events" {
		t.Errorf("remaining viewer missed the batch")
	}

	// Double detach is a no-op.
	r.Detach(gone)
}

func TestPublishDropsOnFullBufferWithoutBlocking(t *testing.T) {
	r := NewRegistry(1)
	v := r.Attach(Filter{}) // hello fills the 1-slot buffer

	done := make(chan struct{})
	go func() {
		r.Publish([]feed.TradeEvent{testEvent("0xaaa", feed.SideBuy, 1000)})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full viewer buffer")
	}

	// Only the hello ever made it into the buffer.
	frame := readFrame(t, v)
	if frame["type"] != "hello" {
		t.Errorf("expected the buffered hello, got %v", frame["type"])
	}
}
