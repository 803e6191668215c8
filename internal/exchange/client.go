// Package exchange fetches USD exchange rates from the public currency API
// and exposes them as a core.RateSource.
package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JonMunkholm/productimport/internal/core"
	"github.com/JonMunkholm/productimport/internal/precise"
)

// DefaultURL serves rates for one USD against every listed currency.
const DefaultURL = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1/currencies/usd.json"

// Client fetches and caches exchange rates.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
	cacheTTL     time.Duration
	now          func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	cached    core.ExchangeRate
	fetchedAt time.Time
	hasCached bool
}

var _ core.RateSource = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a rate client for url. An empty url uses DefaultURL.
func NewClient(url string, opts ...ClientOption) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: 500 * time.Millisecond,
		cacheTTL:     5 * time.Minute,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithCacheTTL sets how long a fetched rate is reused. Zero disables caching.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Rate returns the current exchange rate, served from cache while fresh.
// Concurrent misses share a single upstream request. Every failure wraps
// core.ErrNoRate.
func (c *Client) Rate(ctx context.Context) (core.ExchangeRate, error) {
	if rate, ok := c.cachedRate(); ok {
		return rate, nil
	}

	// The shared fetch outlives any single caller; the HTTP timeout bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("rate", func() (any, error) {
		return c.fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return core.ExchangeRate{}, fmt.Errorf("%w: %w", core.ErrNoRate, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return core.ExchangeRate{}, fmt.Errorf("%w: %w", core.ErrNoRate, res.Err)
		}
		return res.Val.(core.ExchangeRate), nil
	}
}

func (c *Client) cachedRate() (core.ExchangeRate, bool) {
	if c.cacheTTL <= 0 {
		return core.ExchangeRate{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasCached || c.now().Sub(c.fetchedAt) >= c.cacheTTL {
		return core.ExchangeRate{}, false
	}
	return c.cached, true
}

func (c *Client) fetch(ctx context.Context) (core.ExchangeRate, error) {
	body, err := c.doWithRetry(ctx)
	if err != nil {
		c.logger.Error("get exchange rate error", "error", err)
		return core.ExchangeRate{}, err
	}

	date, rate, err := decodeRates(body)
	if err != nil {
		c.logger.Warn("invalid exchange rate payload", "error", err)
		return core.ExchangeRate{}, err
	}

	c.logger.Info("exchange rate fetched",
		"date", date,
		"eur", rate.EUR.String(),
		"jpy", rate.JPY.String(),
		"brl", rate.BRL.String(),
		"btc", rate.BTC.String(),
	)

	c.mu.Lock()
	c.cached = rate
	c.fetchedAt = c.now()
	c.hasCached = true
	c.mu.Unlock()

	return rate, nil
}

// usdRate is the identity rate for the base currency.
func usdRate() precise.Number {
	return precise.New(100, 2)
}
