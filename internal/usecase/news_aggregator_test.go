package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"Signalist/internal/domain/models"
	applogger "Signalist/pkg/logger"
	"Signalist/pkg/metrics"
)

func newNewsAggregator(md *fakeMarket) *NewsAggregator {
	a := NewNewsAggregator(md, metrics.Nop{}, applogger.Nop())
	a.now = func() time.Time { return time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC) }
	return a
}

func headlines(feed models.NewsFeed) []string {
	out := make([]string, 0, len(feed.Articles))
	for _, a := range feed.Articles {
		out = append(out, a.Headline)
	}
	return out
}

func TestGetNewsMissingCredential(t *testing.T) {
	md := &fakeMarket{noKey: true}
	feed := newNewsAggregator(md).GetNews(context.Background(), []string{"AAPL"})

	assert.Equal(t, models.StatusDegraded, feed.Status)
	assert.Equal(t, models.ReasonMissingCredential, feed.Reason)
	assert.Equal(t, 1, len(feed.Articles))
	assert.Equal(t, "Set your FINNHUB_API_KEY to see live news", feed.Articles[0].Headline)
	assert.Equal(t, "https://finnhub.io/", feed.Articles[0].URL)
	assert.Equal(t, "Signalist", feed.Articles[0].Source)
	assert.Equal(t, "MARKET", feed.Articles[0].Related)
	assert.Equal(t, int32(0), atomic.LoadInt32(&md.calls))
}

func TestGetNewsInterleavesSymbols(t *testing.T) {
	md := &fakeMarket{news: map[string][]models.RawArticle{
		"AAPL": {article(1, "a1", 100), article(2, "a2", 100), article(3, "a3", 100), article(4, "a4", 100), article(5, "a5", 100)},
		"MSFT": {article(11, "m1", 100), article(12, "m2", 100), article(13, "m3", 100), article(14, "m4", 100), article(15, "m5", 100)},
	}}
	feed := newNewsAggregator(md).GetNews(context.Background(), []string{" aapl", "msft"})

	assert.Equal(t, models.StatusOK, feed.Status)
	// equal timestamps keep the round-robin order
	assert.Equal(t, []string{"a1", "m1", "a2", "m2", "a3", "m3"}, headlines(feed))
	assert.Equal(t, "AAPL", feed.Articles[0].Related)
	assert.Equal(t, "MSFT", feed.Articles[1].Related)
}

func TestGetNewsSortsNewestFirst(t *testing.T) {
	md := &fakeMarket{news: map[string][]models.RawArticle{
		"AAPL": {article(1, "a1", 100), article(2, "a2", 300)},
		"MSFT": {article(11, "m1", 200)},
	}}
	feed := newNewsAggregator(md).GetNews(context.Background(), []string{"AAPL", "MSFT"})

	assert.Equal(t, []string{"a2", "m1", "a1"}, headlines(feed))
	for i := 1; i < len(feed.Articles); i++ {
		assert.Equal(t, true, feed.Articles[i-1].Datetime >= feed.Articles[i].Datetime)
	}
}

func TestGetNewsIsolatesSymbolFailures(t *testing.T) {
	md := &fakeMarket{
		news: map[string][]models.RawArticle{
			"AAPL": {article(1, "a1", 100)},
		},
		newsErr: map[string]error{"MSFT": errUpstream},
	}
	feed := newNewsAggregator(md).GetNews(context.Background(), []string{"MSFT", "AAPL"})

	assert.Equal(t, models.StatusOK, feed.Status)
	assert.Equal(t, []string{"a1"}, headlines(feed))
}

func TestGetNewsDropsInvalidArticles(t *testing.T) {
	bad := article(2, "", 100)
	noTime := article(3, "nt", 0)
	md := &fakeMarket{news: map[string][]models.RawArticle{
		"AAPL": {bad, noTime, article(1, "ok", 100)},
	}}
	feed := newNewsAggregator(md).GetNews(context.Background(), []string{"AAPL"})

	assert.Equal(t, []string{"ok"}, headlines(feed))
}

func TestGetNewsUsesTrailingWindow(t *testing.T) {
	md := &fakeMarket{news: map[string][]models.RawArticle{"AAPL": {article(1, "a1", 100)}}}
	newNewsAggregator(md).GetNews(context.Background(), []string{"AAPL"})

	md.mu.Lock()
	defer md.mu.Unlock()
	assert.Equal(t, 5*24*time.Hour, md.to.Sub(md.from))
}

func TestGetNewsGeneralPathWithoutSymbols(t *testing.T) {
	dup := article(1, "g1", 100)
	md := &fakeMarket{general: []models.RawArticle{
		dup, dup,
		article(2, "g2", 500),
		article(3, "g3", 300),
		article(4, "", 900),
		article(5, "g5", 200),
		article(6, "g6", 400),
		article(7, "g7", 600),
		article(8, "g8", 700),
	}}
	feed := newNewsAggregator(md).GetNews(context.Background(), nil)

	assert.Equal(t, models.StatusOK, feed.Status)
	// first six unique valid articles, newest first
	assert.Equal(t, []string{"g7", "g2", "g6", "g3", "g5", "g1"}, headlines(feed))
	assert.Equal(t, "Market News", feed.Articles[0].Source)
}

func TestGetNewsFallsBackWhenSymbolsYieldNothing(t *testing.T) {
	md := &fakeMarket{
		news:    map[string][]models.RawArticle{"AAPL": {}},
		newsErr: map[string]error{"MSFT": errUpstream},
		general: []models.RawArticle{article(1, "market", 100)},
	}
	feed := newNewsAggregator(md).GetNews(context.Background(), []string{"AAPL", "MSFT", "  "})

	assert.Equal(t, []string{"market"}, headlines(feed))
}

func TestGetNewsGeneralFailure(t *testing.T) {
	md := &fakeMarket{generalErr: errUpstream}
	feed := newNewsAggregator(md).GetNews(context.Background(), nil)

	assert.Equal(t, models.StatusDegraded, feed.Status)
	assert.Equal(t, models.ReasonUpstreamUnavailable, feed.Reason)
	assert.Equal(t, "News temporarily unavailable", feed.Articles[0].Headline)
	assert.Equal(t, "#", feed.Articles[0].URL)
}

func TestGetNewsRecoversFromPanic(t *testing.T) {
	md := &fakeMarket{generalPanic: true}
	feed := newNewsAggregator(md).GetNews(context.Background(), []string{})

	assert.Equal(t, models.StatusDegraded, feed.Status)
	assert.Equal(t, models.ReasonInternal, feed.Reason)
	assert.Equal(t, 1, len(feed.Articles))
}
