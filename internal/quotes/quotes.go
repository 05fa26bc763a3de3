// Package quotes looks up stock prices from an external quote API. Every
// caller treats the lookup as best-effort: failures are logged and the
// price is simply left stale or unset.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type Provider interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type cachedQuote struct {
	price decimal.Decimal
	at    time.Time
}

// Client fetches GET {base}?symbol=XXX expecting {"symbol": ..., "price": ...}.
// Quotes are cached in-process so a sync over many holdings of the same
// symbol hits the API once.
type Client struct {
	baseURL  string
	client   *http.Client
	cache    sync.Map
	cacheTTL time.Duration
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		cacheTTL: 15 * time.Minute,
	}
}

func (c *Client) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if c.baseURL == "" {
		return decimal.Zero, fmt.Errorf("quote source not configured")
	}
	if cached, ok := c.cache.Load(symbol); ok {
		q := cached.(cachedQuote)
		if time.Since(q.at) < c.cacheTTL {
			return q.price, nil
		}
	}

	reqURL := c.baseURL + "?symbol=" + url.QueryEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetching quote for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("quote API returned %d for %s", resp.StatusCode, symbol)
	}

	var payload struct {
		Symbol string          `json:"symbol"`
		Price  decimal.Decimal `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decoding quote for %s: %w", symbol, err)
	}
	if !payload.Price.IsPositive() {
		return decimal.Zero, fmt.Errorf("quote API returned no price for %s", symbol)
	}

	c.cache.Store(symbol, cachedQuote{price: payload.Price, at: time.Now()})
	return payload.Price, nil
}

// Static serves fixed prices; used by tests and the demo seeder.
type Static map[string]decimal.Decimal

func (s Static) Quote(_ context.Context, symbol string) (decimal.Decimal, error) {
	price, ok := s[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no quote for %s", symbol)
	}
	return price, nil
}
