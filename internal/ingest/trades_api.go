// Package ingest provides trade data fetching functionality.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DataAPIBaseURL is the Polymarket data API endpoint
	DataAPIBaseURL = "https://data-api.polymarket.com"
	// DefaultTradeLimit is the per-wallet result limit
	DefaultTradeLimit = 20
)

// HTTPError is returned for non-2xx upstream responses. The status code is
// kept so callers can recognize throttling.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
}

// IsThrottle reports whether err looks like an upstream rate limit
// (HTTP 429 or 403).
func IsThrottle(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status == http.StatusTooManyRequests || he.Status == http.StatusForbidden
	}
	return false
}

// Numeric accepts JSON numbers that the upstream sometimes quotes as strings.
// OK is false when the field was missing, null, or unparseable.
type Numeric struct {
	Val float64
	OK  bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Numeric) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		n.OK = false
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unknown, not zero. Consumers check OK.
		n.OK = false
		return nil
	}
	n.Val = f
	n.OK = true
	return nil
}

// RawTrade is one trade record as returned by the data API.
type RawTrade struct {
	ProxyWallet     string  `json:"proxyWallet"`
	Side            string  `json:"side"`
	Asset           string  `json:"asset"`
	ConditionID     string  `json:"conditionId"`
	Size            Numeric `json:"size"`
	Price           Numeric `json:"price"`
	Timestamp       Numeric `json:"timestamp"`
	Title           string  `json:"title"`
	Outcome         string  `json:"outcome"`
	TransactionHash string  `json:"transactionHash"`
}

// Client fetches per-wallet trades from the Polymarket data API.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a data API client. requestsPerSec caps the outbound
// request rate across all callers of this client.
func NewClient(baseURL string, requestsPerSec float64) *Client {
	if baseURL == "" {
		baseURL = DataAPIBaseURL
	}
	if requestsPerSec <= 0 {
		requestsPerSec = 8
	}

	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), int(requestsPerSec)+1),
	}
}

// RecentTrades fetches the most recent trades for one wallet, newest first.
func (c *Client) RecentTrades(ctx context.Context, wallet string, limit int) ([]RawTrade, error) {
	if limit <= 0 {
		limit = DefaultTradeLimit
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := fmt.Sprintf("%s/trades?user=%s&limit=%d", c.baseURL, url.QueryEscape(strings.ToLower(wallet)), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{Status: resp.StatusCode, URL: u}
	}

	var trades []RawTrade
	if err := json.NewDecoder(resp.Body).Decode(&trades); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	return trades, nil
}
