package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"Signalist/internal/domain/models"
)

var errUpstream = errors.New("fetch failed 502: bad gateway")

type fakeMarket struct {
	noKey bool

	news         map[string][]models.RawArticle
	newsErr      map[string]error
	general      []models.RawArticle
	generalErr   error
	generalPanic bool

	matches     []models.SymbolMatch
	searchErr   error
	searchDelay time.Duration

	profiles   map[string]models.Profile
	profileErr map[string]error
	quotes     map[string]models.Quote
	quoteErr   map[string]error

	calls       int32
	searchCalls int32

	mu       sync.Mutex
	from, to time.Time
}

func (f *fakeMarket) HasCredential() bool { return !f.noKey }

func (f *fakeMarket) CompanyNews(_ context.Context, symbol string, from, to time.Time) ([]models.RawArticle, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.from, f.to = from, to
	f.mu.Unlock()
	if err := f.newsErr[symbol]; err != nil {
		return nil, err
	}
	// hand out a copy so the caller cannot mutate fixtures
	return append([]models.RawArticle(nil), f.news[symbol]...), nil
}

func (f *fakeMarket) GeneralNews(_ context.Context, _ string) ([]models.RawArticle, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.generalPanic {
		panic("boom")
	}
	if f.generalErr != nil {
		return nil, f.generalErr
	}
	return f.general, nil
}

func (f *fakeMarket) SearchSymbols(_ context.Context, _ string) ([]models.SymbolMatch, error) {
	atomic.AddInt32(&f.calls, 1)
	atomic.AddInt32(&f.searchCalls, 1)
	if f.searchDelay > 0 {
		time.Sleep(f.searchDelay)
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.matches, nil
}

func (f *fakeMarket) Profile(_ context.Context, symbol string, _ time.Duration) (models.Profile, error) {
	atomic.AddInt32(&f.calls, 1)
	if err := f.profileErr[symbol]; err != nil {
		return models.Profile{}, err
	}
	return f.profiles[symbol], nil
}

func (f *fakeMarket) Quote(_ context.Context, symbol string) (models.Quote, error) {
	atomic.AddInt32(&f.calls, 1)
	if err := f.quoteErr[symbol]; err != nil {
		return models.Quote{}, err
	}
	return f.quotes[symbol], nil
}

func ptr(v float64) *float64 { return &v }

func article(id int, headline string, ts int64) models.RawArticle {
	return models.RawArticle{
		ID:       float64(id),
		Headline: headline,
		URL:      "https://news.example/" + headline,
		Datetime: float64(ts),
		Summary:  "summary " + headline,
	}
}
