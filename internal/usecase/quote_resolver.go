package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"Signalist/internal/domain/models"
	domrepo "Signalist/internal/domain/repository"
	applogger "Signalist/pkg/logger"
	"Signalist/pkg/util"
)

const quoteProfileWindow = 5 * time.Minute

// QuoteResolver builds price/profile snapshots for a list of symbols.
type QuoteResolver struct {
	md      domrepo.MarketData
	metrics domrepo.Metrics
	log     *applogger.Logger
}

func NewQuoteResolver(md domrepo.MarketData, m domrepo.Metrics, l *applogger.Logger) *QuoteResolver {
	return &QuoteResolver{md: md, metrics: m, log: l}
}

// GetStockDataForSymbols returns one snapshot per non-blank input symbol, in
// input order. A symbol whose lookups failed is reduced to {symbol, company: symbol}.
func (r *QuoteResolver) GetStockDataForSymbols(ctx context.Context, symbols []string) (batch models.QuoteBatch) {
	cleaned := util.NormalizeSymbols(symbols)

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("quote resolution panicked", applogger.Any("panic", fmt.Sprint(p)))
			batch = r.bare(cleaned, models.ReasonInternal)
		}
	}()

	if !r.md.HasCredential() {
		r.log.Warn("quotes skipped: finnhub api key is not configured")
		return r.bare(cleaned, models.ReasonMissingCredential)
	}

	quotes := make([]models.QuoteSnapshot, len(cleaned))
	failed := make([]bool, len(cleaned))

	var g errgroup.Group
	for i, sym := range cleaned {
		g.Go(func() error {
			var snap models.QuoteSnapshot
			err := guard(func() (err error) {
				snap, err = r.snapshot(ctx, sym)
				return err
			})()
			if err != nil {
				r.log.Warn("quote lookup failed", applogger.String("symbol", sym), applogger.Error(err))
				snap = models.QuoteSnapshot{Symbol: sym, Company: sym}
				failed[i] = true
			}
			quotes[i] = snap
			return nil
		})
	}
	_ = g.Wait()

	batch = models.QuoteBatch{Quotes: quotes, Status: models.StatusOK}
	for _, f := range failed {
		if f {
			batch.Status = models.StatusDegraded
			batch.Reason = models.ReasonPartial
			r.metrics.RecordDegraded("quotes", models.ReasonPartial)
			break
		}
	}
	return batch
}

func (r *QuoteResolver) snapshot(ctx context.Context, sym string) (models.QuoteSnapshot, error) {
	var (
		profile models.Profile
		quote   models.Quote
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(guard(func() error {
		p, err := r.md.Profile(gctx, sym, quoteProfileWindow)
		profile = p
		return err
	}))
	g.Go(guard(func() error {
		q, err := r.md.Quote(gctx, sym)
		quote = q
		return err
	}))
	if err := g.Wait(); err != nil {
		return models.QuoteSnapshot{}, err
	}

	company := profile.Name
	if company == "" {
		company = profile.Ticker
	}
	if company == "" {
		company = sym
	}

	snap := models.QuoteSnapshot{
		Symbol:        sym,
		Company:       company,
		CurrentPrice:  quote.Current,
		ChangePercent: quote.ChangePercent,
	}
	if quote.Current != nil {
		snap.PriceFormatted = util.FormatPrice(*quote.Current)
	}
	if quote.ChangePercent != nil {
		snap.ChangeFormatted = util.FormatPercent(*quote.ChangePercent)
	}
	if profile.MarketCapitalization != nil {
		snap.MarketCap = util.FormatMarketCap(*profile.MarketCapitalization)
	}
	return snap, nil
}

// bare returns symbol-only snapshots for every symbol.
func (r *QuoteResolver) bare(symbols []string, reason models.Reason) models.QuoteBatch {
	r.metrics.RecordDegraded("quotes", reason)
	quotes := make([]models.QuoteSnapshot, len(symbols))
	for i, sym := range symbols {
		quotes[i] = models.QuoteSnapshot{Symbol: sym, Company: sym}
	}
	return models.QuoteBatch{Quotes: quotes, Status: models.StatusDegraded, Reason: reason}
}
