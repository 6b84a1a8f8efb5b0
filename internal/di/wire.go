//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"Signalist/internal/usecase"
	"Signalist/pkg/config"
	"Signalist/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCache,
		ProvideHTTPClient,
		ProvideMarketData,

		// Use cases
		usecase.NewNewsAggregator,
		ProvideSearchResolver,
		usecase.NewQuoteResolver,

		// HTTP
		ProvideRateLimiter,
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
