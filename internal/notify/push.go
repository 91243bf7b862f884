package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/naggingbids-oss/polymarket-wallet-voice-tracker/internal/feed"
)

// Service stores Web Push subscriptions and delivers formatted trade
// sentences to them. Subscriptions are in-memory only; clients re-subscribe
// after a restart.
type Service struct {
	mu      sync.RWMutex
	subs    map[string]*webpush.Subscription // keyed by endpoint
	public  string
	private string
	contact string

	// MinUSDC suppresses push noise for small trades. Zero pushes
	// everything; trades with unknown notional are never suppressed.
	MinUSDC float64
}

// NewService creates a push service. With empty VAPID keys the service
// still accepts subscriptions but delivery is disabled.
func NewService(publicKey, privateKey, contact string, minUSDC float64) *Service {
	return &Service{
		subs:    make(map[string]*webpush.Subscription),
		public:  publicKey,
		private: privateKey,
		contact: contact,
		MinUSDC: minUSDC,
	}
}

// Enabled reports whether delivery is configured.
func (s *Service) Enabled() bool {
	return s.public != "" && s.private != ""
}

// Routes registers the subscription endpoints on mux.
func (s *Service) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /push/key", s.handleKey)
	mux.HandleFunc("POST /push/subscribe", s.handleSubscribe)
}

// handleKey returns the VAPID public key for the browser-side key exchange.
func (s *Service) handleKey(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"publicKey": s.public})
}

// handleSubscribe stores one browser push subscription.
func (s *Service) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var sub webpush.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil || sub.Endpoint == "" {
		http.Error(w, "invalid subscription", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.subs[sub.Endpoint] = &sub
	total := len(s.subs)
	s.mu.Unlock()

	slog.Info("push_subscribed", "total", total)
	w.WriteHeader(http.StatusCreated)
}

// SubscriberCount returns the number of stored subscriptions.
func (s *Service) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Publish implements feed.EventSink: each admitted event above the
// notional threshold is formatted and pushed to every subscriber.
// Delivery runs off the poll loop's goroutine so a slow push service
// never stalls a cycle.
func (s *Service) Publish(events []feed.TradeEvent) {
	if !s.Enabled() || s.SubscriberCount() == 0 {
		return
	}

	go func() {
		for _, ev := range events {
			if s.MinUSDC > 0 && ev.UsdcNotional != nil && *ev.UsdcNotional < s.MinUSDC {
				continue
			}
			s.send(Sentence(ev))
		}
	}()
}

// send delivers one message to all subscribers, pruning dead endpoints.
func (s *Service) send(message string) {
	s.mu.RLock()
	snapshot := make([]*webpush.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		snapshot = append(snapshot, sub)
	}
	s.mu.RUnlock()

	for _, sub := range snapshot {
		resp, err := webpush.SendNotification([]byte(message), sub, &webpush.Options{
			Subscriber:      s.contact,
			VAPIDPublicKey:  s.public,
			VAPIDPrivateKey: s.private,
			TTL:             60,
		})
		if err != nil {
			slog.Warn("push_send_failed", "error", err)
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
			s.mu.Lock()
			delete(s.subs, sub.Endpoint)
			s.mu.Unlock()
			slog.Info("push_subscription_pruned", "status", resp.StatusCode)
		}
	}
}
