package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/labstack/echo/v4"

	"Signalist/internal/domain/models"
	"Signalist/internal/service/ratelimit"
	xlogger "Signalist/pkg/logger"
)

type stubNews struct{ got []string }

func (s *stubNews) GetNews(_ context.Context, symbols []string) models.NewsFeed {
	s.got = symbols
	return models.NewsFeed{Articles: []models.Article{{ID: "1", Headline: "h"}}, Status: models.StatusOK}
}

type stubSearch struct{ got string }

func (s *stubSearch) SearchStocks(_ context.Context, query string) models.SearchResults {
	s.got = query
	return models.SearchResults{Results: []models.SearchResult{{Symbol: "NVDA"}}, Status: models.StatusOK}
}

type stubQuotes struct{ got []string }

func (s *stubQuotes) GetStockDataForSymbols(_ context.Context, symbols []string) models.QuoteBatch {
	s.got = symbols
	quotes := make([]models.QuoteSnapshot, len(symbols))
	for i, sym := range symbols {
		quotes[i] = models.QuoteSnapshot{Symbol: sym, Company: sym}
	}
	return models.QuoteBatch{Quotes: quotes, Status: models.StatusOK}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(limiter *ratelimit.Limiter) (*echo.Echo, *stubNews, *stubSearch, *stubQuotes) {
	n, s, q := &stubNews{}, &stubSearch{}, &stubQuotes{}
	e := echo.New()
	NewMarketEchoHandler(xlogger.Nop(), n, s, q, limiter).RegisterRoutes(e)
	return e, n, s, q
}

func do(e *echo.Echo, target string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestNewsPassesSymbols(t *testing.T) {
	e, n, _, _ := setup(nil)
	rec, env := do(e, "/api/news?symbols=aapl,,msft")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, env.Status)
	assert.Equal(t, []string{"aapl", "", "msft"}, n.got)

	var feed models.NewsFeed
	assert.Equal(t, nil, json.Unmarshal(env.Data, &feed))
	assert.Equal(t, 1, len(feed.Articles))
	assert.Equal(t, models.StatusOK, feed.Status)
}

func TestNewsWithoutSymbols(t *testing.T) {
	e, n, _, _ := setup(nil)
	rec, _ := do(e, "/api/news")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, len(n.got))
}

func TestSearch(t *testing.T) {
	e, _, s, _ := setup(nil)
	rec, env := do(e, "/api/stocks/search?q=nvidia")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nvidia", s.got)

	var res models.SearchResults
	assert.Equal(t, nil, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "NVDA", res.Results[0].Symbol)
}

func TestSearchQueryTooLong(t *testing.T) {
	e, _, _, _ := setup(nil)
	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	rec, env := do(e, "/api/stocks/search?q="+string(long))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errs []map[string]interface{}
	assert.Equal(t, nil, json.Unmarshal(env.Data, &errs))
	assert.Equal(t, "ERR_MAX", errs[0]["code"])
	assert.Equal(t, "q", errs[0]["field"])
}

func TestQuotesNormalizesSymbols(t *testing.T) {
	e, _, _, q := setup(nil)
	rec, _ := do(e, "/api/stocks/quotes?symbols=aapl,%20msft%20,")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"AAPL", "MSFT"}, q.got)
}

func TestQuotesRequiresSymbols(t *testing.T) {
	e, _, _, q := setup(nil)

	rec, _ := do(e, "/api/stocks/quotes")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(e, "/api/stocks/quotes?symbols=,%20,")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, len(q.got))
}

func TestRateLimit(t *testing.T) {
	e, _, _, _ := setup(ratelimit.New(1, 0.001))

	rec, _ := do(e, "/api/news")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(e, "/api/news")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, http.StatusTooManyRequests, env.Status)
}
