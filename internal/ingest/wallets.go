// Package ingest provides wallet-list and trade data fetching functionality.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrNoWalletSource is returned when no wallet-sheet URL is configured.
var ErrNoWalletSource = errors.New("wallet source URL not configured")

// TrackedWallet is one row of the curated wallet sheet.
type TrackedWallet struct {
	// Trader is the display name from the sheet
	Trader string

	// Wallet is the lowercase address
	Wallet string
}

// WalletSheet fetches the tracked wallet list from a CSV export URL.
type WalletSheet struct {
	url    string
	client *http.Client
}

// NewWalletSheet creates a WalletSheet for the given CSV export URL.
func NewWalletSheet(url string) *WalletSheet {
	return &WalletSheet{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// List fetches and parses the wallet sheet.
// The list is re-fetched wholesale on every call; rows missing either
// column are skipped, as is a detected header row.
func (s *WalletSheet) List(ctx context.Context) ([]TrackedWallet, error) {
	if s.url == "" {
		return nil, ErrNoWalletSource
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wallet sheet fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{Status: resp.StatusCode, URL: s.url}
	}

	wallets, err := ParseWalletCSV(resp.Body)
	if err != nil {
		return nil, err
	}

	slog.Debug("wallet_sheet_loaded", "count", len(wallets))
	return wallets, nil
}

// ParseWalletCSV parses "trader,wallet" rows from a CSV stream.
func ParseWalletCSV(r io.Reader) ([]TrackedWallet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // sheet exports pad trailing columns inconsistently

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("wallet sheet parse failed: %w", err)
	}

	wallets := make([]TrackedWallet, 0, len(records))
	for i, row := range records {
		if len(row) < 2 {
			continue
		}

		trader := strings.TrimSpace(row[0])
		wallet := strings.TrimSpace(row[1])
		if trader == "" || wallet == "" {
			continue
		}

		if i == 0 && looksLikeHeader(trader, wallet) {
			continue
		}

		wallets = append(wallets, TrackedWallet{
			Trader: trader,
			Wallet: strings.ToLower(wallet),
		})
	}

	return wallets, nil
}

// looksLikeHeader reports whether the first row is a column-label row
// rather than a data row.
func looksLikeHeader(first, second string) bool {
	f := strings.ToLower(first)
	s := strings.ToLower(second)

	firstIsLabel := strings.Contains(f, "name") || strings.Contains(f, "trader")
	secondIsLabel := strings.Contains(s, "wallet") || strings.Contains(s, "address")

	return firstIsLabel && secondIsLabel
}
