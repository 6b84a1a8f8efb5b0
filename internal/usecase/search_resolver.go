package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"Signalist/internal/domain/models"
	domrepo "Signalist/internal/domain/repository"
	applogger "Signalist/pkg/logger"
)

const (
	MaxSearchResults = 15
	popularCount     = 10

	popularProfileWindow = time.Hour
	defaultExchange      = "US"
	popularType          = "Common Stock"
	defaultType          = "Stock"
)

// PopularSymbols is the fixed list shown when the search box is empty.
var PopularSymbols = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "META", "NVDA", "NFLX", "ORCL", "CRM",
	"ADBE", "INTC", "AMD", "PYPL", "UBER", "ZOOM", "SPOT", "SQ", "SHOP", "ROKU",
	"SNOW", "PLTR", "COIN", "RBLX", "DDOG", "CRWD", "NET", "OKTA", "TWLO", "ZM",
	"DOCU", "PTON", "PINS", "SNAP", "LYFT", "DASH", "ABNB", "RIVN", "LCID", "NIO",
	"XPEV", "LI", "BABA", "JD", "PDD", "TME", "BILI", "DIDI", "GRAB", "SE",
}

// SearchResolver resolves a free-text query to a short list of symbols.
// Concurrent calls with the same normalized query share one resolution.
type SearchResolver struct {
	md       domrepo.MarketData
	metrics  domrepo.Metrics
	log      *applogger.Logger
	popular  []string
	inflight singleflight.Group
}

func NewSearchResolver(md domrepo.MarketData, m domrepo.Metrics, l *applogger.Logger) *SearchResolver {
	return &SearchResolver{md: md, metrics: m, log: l, popular: PopularSymbols}
}

// WithPopular replaces the popular symbol list. Empty keeps the default.
func (r *SearchResolver) WithPopular(symbols []string) *SearchResolver {
	if len(symbols) > 0 {
		r.popular = symbols
	}
	return r
}

// SearchStocks returns at most MaxSearchResults matches. An empty query
// lists popular symbols. It never fails: problems yield an empty degraded result.
// A caller whose ctx ends first leaves with a degraded result while the
// shared resolution keeps running for the others.
func (r *SearchResolver) SearchStocks(ctx context.Context, query string) models.SearchResults {
	trimmed := strings.TrimSpace(query)
	key := strings.ToUpper(trimmed)

	// the shared resolution must not be cut short by whichever caller started it
	shared := context.WithoutCancel(ctx)
	ch := r.inflight.DoChan(key, func() (interface{}, error) {
		return r.resolve(shared, trimmed), nil
	})

	var res models.SearchResults
	select {
	case v := <-ch:
		res = v.Val.(models.SearchResults)
	case <-ctx.Done():
		r.log.Warn("stock search abandoned by caller", applogger.String("query", trimmed), applogger.Error(ctx.Err()))
		return r.degraded(models.ReasonUpstreamUnavailable)
	}

	out := make([]models.SearchResult, len(res.Results))
	copy(out, res.Results)
	res.Results = out
	return res
}

func (r *SearchResolver) resolve(ctx context.Context, query string) (res models.SearchResults) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("stock search panicked", applogger.Any("panic", fmt.Sprint(p)))
			res = r.degraded(models.ReasonInternal)
		}
	}()

	if !r.md.HasCredential() {
		r.log.Warn("stock search skipped: finnhub api key is not configured")
		return r.degraded(models.ReasonMissingCredential)
	}

	var (
		results []models.SearchResult
		err     error
	)
	if query == "" {
		results, err = r.popularResults(ctx)
	} else {
		results, err = r.searchResults(ctx, query)
	}
	if err != nil {
		r.log.Error("stock search failed", applogger.String("query", query), applogger.Error(err))
		return r.degraded(models.ReasonUpstreamUnavailable)
	}

	if len(results) > MaxSearchResults {
		results = results[:MaxSearchResults]
	}
	return models.SearchResults{Results: results, Status: models.StatusOK}
}

// popularResults fails only when every profile lookup failed.
func (r *SearchResolver) popularResults(ctx context.Context) ([]models.SearchResult, error) {
	top := r.popular
	if len(top) > popularCount {
		top = top[:popularCount]
	}

	slots := make([]*models.SearchResult, len(top))
	errs := make([]error, len(top))
	var g errgroup.Group
	for i, sym := range top {
		g.Go(func() error {
			err := guard(func() error {
				p, err := r.md.Profile(ctx, sym, popularProfileWindow)
				if err != nil {
					return err
				}
				name := p.Name
				if name == "" {
					name = p.Ticker
				}
				if name == "" {
					return nil
				}
				exchange := p.Exchange
				if exchange == "" {
					exchange = defaultExchange
				}
				slots[i] = &models.SearchResult{
					Symbol:   sym,
					Name:     name,
					Exchange: exchange,
					Type:     popularType,
				}
				return nil
			})()
			if err != nil {
				errs[i] = err
				r.log.Warn("popular profile failed", applogger.String("symbol", sym), applogger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.SearchResult, 0, len(slots))
	failed := 0
	for i, s := range slots {
		if errs[i] != nil {
			failed++
		}
		if s != nil {
			out = append(out, toSearchResult(s.Symbol, s.Name, s.Exchange, s.Type))
		}
	}
	if len(top) > 0 && failed == len(top) {
		return nil, fmt.Errorf("all %d popular profiles failed: %w", failed, errs[0])
	}
	return out, nil
}

func (r *SearchResolver) searchResults(ctx context.Context, query string) ([]models.SearchResult, error) {
	matches, err := r.md.SearchSymbols(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]models.SearchResult, 0, min(len(matches), MaxSearchResults))
	for _, m := range matches {
		out = append(out, toSearchResult(m.Symbol, m.Description, defaultExchange, m.Type))
	}
	return out, nil
}

func toSearchResult(symbol, name, exchange, kind string) models.SearchResult {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	if name == "" {
		name = upper
	}
	if exchange == "" {
		exchange = defaultExchange
	}
	if kind == "" {
		kind = defaultType
	}
	return models.SearchResult{
		Symbol:        upper,
		Name:          name,
		Exchange:      exchange,
		Type:          kind,
		IsInWatchlist: false,
	}
}

func (r *SearchResolver) degraded(reason models.Reason) models.SearchResults {
	r.metrics.RecordDegraded("search", reason)
	return models.SearchResults{Results: []models.SearchResult{}, Status: models.StatusDegraded, Reason: reason}
}
