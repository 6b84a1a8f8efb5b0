package repository

import (
	"context"
	"time"

	"Signalist/internal/domain/models"
)

// MarketData is the provider contract the resolvers depend on.
type MarketData interface {
	// HasCredential reports whether upstream calls can be made at all.
	HasCredential() bool
	CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.RawArticle, error)
	GeneralNews(ctx context.Context, category string) ([]models.RawArticle, error)
	SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error)
	// Profile uses revalidate as the cache window for the profile lookup.
	Profile(ctx context.Context, symbol string, revalidate time.Duration) (models.Profile, error)
	Quote(ctx context.Context, symbol string) (models.Quote, error)
}

type Metrics interface {
	RecordUpstreamCall(endpoint string, seconds float64)
	RecordUpstreamError(endpoint string)
	RecordDegraded(operation string, reason models.Reason)
}
