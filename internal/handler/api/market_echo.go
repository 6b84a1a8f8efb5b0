package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"Signalist/internal/domain/models"
	svcmetrics "Signalist/internal/service/metrics"
	"Signalist/internal/service/ratelimit"
	xhttp "Signalist/pkg/http"
	xlogger "Signalist/pkg/logger"
	"Signalist/pkg/util"
)

type NewsService interface {
	GetNews(ctx context.Context, symbols []string) models.NewsFeed
}

type SearchService interface {
	SearchStocks(ctx context.Context, query string) models.SearchResults
}

type QuoteService interface {
	GetStockDataForSymbols(ctx context.Context, symbols []string) models.QuoteBatch
}

// MarketEchoHandler serves the news, search and quote views over Echo.
type MarketEchoHandler struct {
	logger  *xlogger.Logger
	news    NewsService
	search  SearchService
	quotes  QuoteService
	limiter *ratelimit.Limiter
}

func NewMarketEchoHandler(logger *xlogger.Logger, news NewsService, search SearchService, quotes QuoteService, limiter *ratelimit.Limiter) *MarketEchoHandler {
	svcmetrics.Register()
	return &MarketEchoHandler{logger: logger, news: news, search: search, quotes: quotes, limiter: limiter}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.rateLimit)
	g.GET("/news", h.News)
	g.GET("/stocks/search", h.Search)
	g.GET("/stocks/quotes", h.Quotes)
}

func (h *MarketEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			svcmetrics.RateLimited.Inc()
			h.logger.Warn("rate limited", xlogger.String("remote", c.RealIP()), xlogger.String("path", c.Path()))
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests, slow down"))
		}
		return next(c)
	}
}

func (h *MarketEchoHandler) News(c echo.Context) error {
	start := time.Now()
	req := &models.NewsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	feed := h.news.GetNews(c.Request().Context(), util.SplitCSV(req.Symbols))
	observe("news", string(feed.Status), start)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, feed)
}

func (h *MarketEchoHandler) Search(c echo.Context) error {
	start := time.Now()
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res := h.search.SearchStocks(c.Request().Context(), req.Query)
	observe("search", string(res.Status), start)
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketEchoHandler) Quotes(c echo.Context) error {
	start := time.Now()
	req := &models.QuotesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	symbols := util.NormalizeSymbols(util.SplitCSV(req.Symbols))
	if len(symbols) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("symbols must name at least one ticker").WithParam("field", "symbols"))
	}

	batch := h.quotes.GetStockDataForSymbols(c.Request().Context(), symbols)
	observe("quotes", string(batch.Status), start)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, batch)
}

func observe(endpoint, status string, start time.Time) {
	svcmetrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	svcmetrics.EndpointResults.WithLabelValues(endpoint, status).Inc()
}
