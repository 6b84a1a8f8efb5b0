package di

import (
	"fmt"

	"Signalist/internal/domain/repository"
	"Signalist/internal/handler/api"
	"Signalist/internal/service/finnhub"
	"Signalist/internal/service/ratelimit"
	"Signalist/internal/usecase"
	"Signalist/pkg/cache"
	"Signalist/pkg/config"
	xhttp "Signalist/pkg/http"
	applogger "Signalist/pkg/logger"
	"Signalist/pkg/metrics"
	"Signalist/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the response cache. An unreachable redis falls back
// to the in-memory cache so the engine keeps serving.
func ProvideCache(cfg *config.Config, l *applogger.Logger) cache.Service {
	memory := func() cache.Service {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryCleanup(cfg.Cache.MemoryCleanup),
			cache.WithMemoryDefaultTTL(cfg.Cache.MemoryDefaultTTL),
		)
	}
	if cfg.Cache.Backend == "memory" {
		return memory()
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		cache.WithRedisPool(cfg.Cache.Redis.PoolSize, cfg.Cache.Redis.MinIdleConns, cfg.Cache.Redis.PoolTimeout),
	)
	if err != nil {
		l.Warn("redis unavailable, using memory cache",
			applogger.String("backend", cfg.Cache.Backend),
			applogger.Error(err),
		)
		return memory()
	}

	if cfg.Cache.Backend == "layered" {
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
			cache.WithLayeredMemoryOptions(
				cache.WithMemoryCleanup(cfg.Cache.MemoryCleanup),
				cache.WithMemoryDefaultTTL(cfg.Cache.MemoryDefaultTTL),
			),
		)
	}
	return rc
}

// ProvideHTTPClient creates the Fetch Adapter used for all provider calls.
func ProvideHTTPClient(cfg *config.Config, c cache.Service, l *applogger.Logger) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Finnhub.Timeout),
		xhttp.WithRetry(cfg.Finnhub.MaxRetries, cfg.Finnhub.RetryDelay),
		xhttp.WithCache(c),
		xhttp.WithLogger(l),
	)
}

// ProvideMarketData creates the Finnhub REST client.
func ProvideMarketData(cfg *config.Config, client *xhttp.Client, m repository.Metrics, l *applogger.Logger) repository.MarketData {
	return finnhub.New(cfg.Finnhub.APIKey, cfg.Finnhub.BaseURL, client, m, l)
}

// ProvideSearchResolver creates the search use case.
func ProvideSearchResolver(cfg *config.Config, md repository.MarketData, m repository.Metrics, l *applogger.Logger) *usecase.SearchResolver {
	return usecase.NewSearchResolver(md, m, l).WithPopular(cfg.News.PopularSymbols)
}

// ProvideRateLimiter creates the per-client limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	l *applogger.Logger,
	news *usecase.NewsAggregator,
	search *usecase.SearchResolver,
	quotes *usecase.QuoteResolver,
	limiter *ratelimit.Limiter,
) xhttp.Handler {
	return api.NewMarketEchoHandler(l, news, search, quotes, limiter)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, c cache.Service, h xhttp.Handler) *server.App {
	return server.New(cfg, l, c, h)
}
