package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"Signalist/internal/domain/models"
	domrepo "Signalist/internal/domain/repository"
	"Signalist/internal/services/normalizer"
	applogger "Signalist/pkg/logger"
	"Signalist/pkg/util"
)

const (
	MaxArticles     = 6
	newsWindowDays  = 5
	generalPoolSize = 20
	generalCategory = "general"
)

// NewsAggregator builds a short, newest-first news feed for a watchlist.
type NewsAggregator struct {
	md      domrepo.MarketData
	metrics domrepo.Metrics
	log     *applogger.Logger
	now     func() time.Time
}

func NewNewsAggregator(md domrepo.MarketData, m domrepo.Metrics, l *applogger.Logger) *NewsAggregator {
	return &NewsAggregator{md: md, metrics: m, log: l, now: time.Now}
}

// GetNews returns up to MaxArticles articles. With symbols it interleaves
// company news across them; otherwise, or when nothing was found, it falls
// back to general market news. It never fails: problems yield a single
// placeholder article and a degraded status.
func (a *NewsAggregator) GetNews(ctx context.Context, symbols []string) (feed models.NewsFeed) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("news aggregation panicked", applogger.Any("panic", fmt.Sprint(r)))
			feed = a.degraded(models.ReasonInternal)
		}
	}()

	if !a.md.HasCredential() {
		a.log.Warn("finnhub api key is not configured")
		return a.degraded(models.ReasonMissingCredential)
	}

	if cleaned := util.NormalizeSymbols(symbols); len(cleaned) > 0 {
		if articles := a.symbolNews(ctx, cleaned); len(articles) > 0 {
			return models.NewsFeed{Articles: articles, Status: models.StatusOK}
		}
	}

	articles, err := a.generalNews(ctx)
	if err != nil {
		a.log.Error("general news failed", applogger.Error(err))
		return a.degraded(models.ReasonUpstreamUnavailable)
	}
	return models.NewsFeed{Articles: articles, Status: models.StatusOK}
}

func (a *NewsAggregator) symbolNews(ctx context.Context, symbols []string) []models.Article {
	from, to := util.DateRange(a.now(), newsWindowDays)

	// one slot per symbol; a failed fetch leaves its slot empty
	lists := make([][]models.RawArticle, len(symbols))
	var g errgroup.Group
	for i, sym := range symbols {
		g.Go(func() error {
			err := guard(func() error {
				raw, err := a.md.CompanyNews(ctx, sym, from, to)
				if err != nil {
					return err
				}
				valid := make([]models.RawArticle, 0, len(raw))
				for _, r := range raw {
					if normalizer.Validate(r) {
						valid = append(valid, r)
					}
				}
				lists[i] = valid
				return nil
			})()
			if err != nil {
				a.log.Warn("company news failed", applogger.String("symbol", sym), applogger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	picked := interleave(symbols, lists, MaxArticles)
	if len(picked) == 0 {
		return nil
	}

	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].Datetime != picked[j].Datetime {
			return picked[i].Datetime > picked[j].Datetime
		}
		return picked[i].TieBreak < picked[j].TieBreak
	})

	out := make([]models.Article, 0, len(picked))
	for _, r := range picked {
		out = append(out, r.Article)
	}
	return out
}

// interleave takes the head of each symbol's list in caller order, one round
// at a time, until limit articles are picked or every list is drained.
func interleave(symbols []string, lists [][]models.RawArticle, limit int) []normalizer.Ranked {
	heads := make([]int, len(lists))
	picked := make([]normalizer.Ranked, 0, limit)

	for round := 0; len(picked) < limit; round++ {
		progressed := false
		for i, sym := range symbols {
			if heads[i] >= len(lists[i]) {
				continue
			}
			raw := lists[i][heads[i]]
			heads[i]++
			progressed = true
			if !normalizer.Validate(raw) {
				continue
			}
			picked = append(picked, normalizer.Format(raw, true, sym, round))
			if len(picked) >= limit {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return picked
}

func (a *NewsAggregator) generalNews(ctx context.Context) ([]models.Article, error) {
	raw, err := a.md.GeneralNews(ctx, generalCategory)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(raw))
	unique := make([]models.RawArticle, 0, generalPoolSize)
	for _, r := range raw {
		if !normalizer.Validate(r) {
			continue
		}
		key := fmt.Sprintf("%v-%s-%s", r.ID, r.URL, r.Headline)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, r)
		if len(unique) >= generalPoolSize {
			break
		}
	}

	if len(unique) > MaxArticles {
		unique = unique[:MaxArticles]
	}
	ranked := make([]normalizer.Ranked, 0, len(unique))
	for i, r := range unique {
		ranked = append(ranked, normalizer.Format(r, false, "", i))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Datetime > ranked[j].Datetime
	})

	out := make([]models.Article, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.Article)
	}
	return out, nil
}

func (a *NewsAggregator) degraded(reason models.Reason) models.NewsFeed {
	a.metrics.RecordDegraded("news", reason)
	return models.NewsFeed{
		Articles: []models.Article{a.placeholder(reason)},
		Status:   models.StatusDegraded,
		Reason:   reason,
	}
}

func (a *NewsAggregator) placeholder(reason models.Reason) models.Article {
	p := models.Article{
		Source:   "Signalist",
		Datetime: a.now().Unix(),
		Category: generalCategory,
		Related:  "MARKET",
	}
	if reason == models.ReasonMissingCredential {
		p.ID = "1"
		p.Headline = "Set your FINNHUB_API_KEY to see live news"
		p.Summary = "Add FINNHUB_API_KEY to .env and restart the server to fetch real market headlines."
		p.URL = "https://finnhub.io/"
		return p
	}
	p.ID = "2"
	p.Headline = "News temporarily unavailable"
	p.Summary = "We could not load market headlines right now. Please try again in a moment."
	p.URL = "#"
	return p
}

