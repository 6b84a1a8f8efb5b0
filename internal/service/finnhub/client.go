package finnhub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"Signalist/internal/domain/models"
	drepo "Signalist/internal/domain/repository"
	applogger "Signalist/pkg/logger"
	"Signalist/pkg/util"
)

// DefaultBaseURL is the Finnhub REST root.
const DefaultBaseURL = "https://finnhub.io/api/v1"

// Cache windows per endpoint. Profile windows are chosen by the caller.
const (
	NewsRevalidate   = 5 * time.Minute
	SearchRevalidate = 30 * time.Minute
	QuoteRevalidate  = 30 * time.Second
)

// ErrMissingCredential is returned by every call when no API key is configured.
var ErrMissingCredential = errors.New("finnhub: api key not configured")

// Fetcher performs a cached JSON GET.
type Fetcher interface {
	FetchJSON(ctx context.Context, rawURL string, revalidate time.Duration, dest interface{}) error
}

// Client implements repository.MarketData against the Finnhub REST API.
type Client struct {
	apiKey  string
	baseURL string
	fetcher Fetcher
	metrics drepo.Metrics
	log     *applogger.Logger
}

var _ drepo.MarketData = (*Client)(nil)

// New creates a Finnhub REST client. An empty apiKey yields a client whose
// calls all fail with ErrMissingCredential.
func New(apiKey, baseURL string, fetcher Fetcher, m drepo.Metrics, l *applogger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		metrics: m,
		log:     l,
	}
}

func (c *Client) HasCredential() bool { return c.apiKey != "" }

// CompanyNews returns news for symbol published between from and to.
func (c *Client) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.RawArticle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("from", util.FormatDay(from))
	params.Set("to", util.FormatDay(to))

	var raw []json.RawMessage
	if err := c.get(ctx, "/company-news", params, NewsRevalidate, &raw, applogger.String("symbol", symbol)); err != nil {
		return nil, err
	}
	return decodeArticles(raw), nil
}

// GeneralNews returns market-wide news for category.
func (c *Client) GeneralNews(ctx context.Context, category string) ([]models.RawArticle, error) {
	params := url.Values{}
	params.Set("category", category)

	var raw []json.RawMessage
	if err := c.get(ctx, "/news", params, NewsRevalidate, &raw, applogger.String("category", category)); err != nil {
		return nil, err
	}
	return decodeArticles(raw), nil
}

// SearchSymbols looks up symbols matching query, in provider order.
func (c *Client) SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error) {
	params := url.Values{}
	params.Set("q", query)

	var resp struct {
		Result []json.RawMessage `json:"result"`
	}
	if err := c.get(ctx, "/search", params, SearchRevalidate, &resp, applogger.String("query", query)); err != nil {
		return nil, err
	}

	matches := make([]models.SymbolMatch, 0, len(resp.Result))
	for _, item := range resp.Result {
		var m models.SymbolMatch
		if err := json.Unmarshal(item, &m); err != nil {
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Profile returns the company profile of symbol, cached for revalidate.
func (c *Client) Profile(ctx context.Context, symbol string, revalidate time.Duration) (models.Profile, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var p models.Profile
	if err := c.get(ctx, "/stock/profile2", params, revalidate, &p, applogger.String("symbol", symbol)); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// Quote returns the live quote of symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var q models.Quote
	if err := c.get(ctx, "/quote", params, QuoteRevalidate, &q, applogger.String("symbol", symbol)); err != nil {
		return models.Quote{}, err
	}
	return q, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, revalidate time.Duration, dest interface{}, fields ...applogger.Field) error {
	if !c.HasCredential() {
		return ErrMissingCredential
	}
	params.Set("token", c.apiKey)
	rawURL := c.baseURL + endpoint + "?" + params.Encode()

	start := time.Now()
	err := c.fetcher.FetchJSON(ctx, rawURL, revalidate, dest)
	c.metrics.RecordUpstreamCall(endpoint, time.Since(start).Seconds())
	if err != nil {
		c.metrics.RecordUpstreamError(endpoint)
		c.log.Warn("finnhub request failed", append(fields,
			applogger.String("endpoint", endpoint),
			applogger.Error(err),
		)...)
		return fmt.Errorf("finnhub %s: %w", endpoint, err)
	}
	return nil
}

// decodeArticles decodes each element on its own; malformed ones are dropped.
func decodeArticles(items []json.RawMessage) []models.RawArticle {
	out := make([]models.RawArticle, 0, len(items))
	for _, item := range items {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		var a models.RawArticle
		if err := dec.Decode(&a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}
