package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"Signalist/pkg/cache"
)

type payload struct {
	N int `json:"n"`
}

func countingServer(status int) (*httptest.Server, *int32) {
	var hits int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		n := atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte(`{"error":"nope"}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{"n":%d}`, n)
	}))
	return srv, &hits
}

func newTestClient(c cache.Service) *Client {
	return NewClient(WithTimeout(2*time.Second), WithCache(c), WithRetry(2, time.Millisecond))
}

func TestFetchJSONNoStoreAlwaysRefetches(t *testing.T) {
	srv, hits := countingServer(nethttp.StatusOK)
	defer srv.Close()

	mem := cache.NewMemoryCache()
	defer mem.Close()
	client := newTestClient(mem)

	var first, second payload
	assert.Equal(t, nil, client.FetchJSON(context.Background(), srv.URL, 0, &first))
	assert.Equal(t, nil, client.FetchJSON(context.Background(), srv.URL, 0, &second))

	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
	assert.Equal(t, 1, first.N)
	assert.Equal(t, 2, second.N)
	assert.Equal(t, 0, mem.Len())
}

func TestFetchJSONRevalidateServesCachedBody(t *testing.T) {
	srv, hits := countingServer(nethttp.StatusOK)
	defer srv.Close()

	mem := cache.NewMemoryCache()
	defer mem.Close()
	client := newTestClient(mem)

	var first, second payload
	assert.Equal(t, nil, client.FetchJSON(context.Background(), srv.URL, time.Minute, &first))
	assert.Equal(t, nil, client.FetchJSON(context.Background(), srv.URL, time.Minute, &second))

	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Equal(t, 1, second.N)
}

func TestFetchJSONWindowIsPartOfKey(t *testing.T) {
	srv, hits := countingServer(nethttp.StatusOK)
	defer srv.Close()

	mem := cache.NewMemoryCache()
	defer mem.Close()
	client := newTestClient(mem)

	var out payload
	assert.Equal(t, nil, client.FetchJSON(context.Background(), srv.URL, time.Minute, &out))
	assert.Equal(t, nil, client.FetchJSON(context.Background(), srv.URL, 30*time.Second, &out))
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestFetchJSONCacheExpires(t *testing.T) {
	srv, hits := countingServer(nethttp.StatusOK)
	defer srv.Close()

	mem := cache.NewMemoryCache()
	defer mem.Close()
	client := newTestClient(mem)

	var out payload
	assert.Equal(t, nil, client.FetchJSON(context.Background(), srv.URL, time.Second, &out))

	// age the entry past its window
	key := fetchCacheKey(srv.URL, time.Second)
	assert.Equal(t, nil, mem.Set(context.Background(), key, []byte(`{"n":99}`), time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	assert.Equal(t, nil, client.FetchJSON(context.Background(), srv.URL, time.Second, &out))
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
	assert.Equal(t, 2, out.N)
}

func TestFetchJSONNonSuccessStatus(t *testing.T) {
	srv, hits := countingServer(nethttp.StatusForbidden)
	defer srv.Close()

	client := newTestClient(nil)

	var out payload
	err := client.FetchJSON(context.Background(), srv.URL, time.Minute, &out)
	assert.NotEqual(t, nil, err)

	var fe *UpstreamFetchError
	assert.Equal(t, true, errors.As(err, &fe))
	assert.Equal(t, nethttp.StatusForbidden, fe.Status)
	assert.Equal(t, `{"error":"nope"}`, fe.Body)
	assert.Equal(t, "fetch failed 403: {\"error\":\"nope\"}", fe.Error())
	// 4xx is not retried
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestFetchJSONRetriesServerErrors(t *testing.T) {
	srv, hits := countingServer(nethttp.StatusBadGateway)
	defer srv.Close()

	client := newTestClient(nil)

	var out payload
	err := client.FetchJSON(context.Background(), srv.URL, 0, &out)
	fe, ok := IsUpstreamFetchError(err)
	assert.Equal(t, true, ok)
	assert.Equal(t, nethttp.StatusBadGateway, fe.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}

func TestFetchJSONRecoversAfterTransientFailure(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(nethttp.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"n":7}`))
	}))
	defer srv.Close()

	client := newTestClient(nil)

	var out payload
	assert.Equal(t, nil, client.FetchJSON(context.Background(), srv.URL, 0, &out))
	assert.Equal(t, 7, out.N)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetchJSONDecodeFailureIsNotCached(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	mem := cache.NewMemoryCache()
	defer mem.Close()
	client := newTestClient(mem)

	var out payload
	assert.NotEqual(t, nil, client.FetchJSON(context.Background(), srv.URL, time.Minute, &out))
	assert.NotEqual(t, nil, client.FetchJSON(context.Background(), srv.URL, time.Minute, &out))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, 0, mem.Len())
}

type roundTripFunc func(*nethttp.Request) (*nethttp.Response, error)

func (f roundTripFunc) RoundTrip(r *nethttp.Request) (*nethttp.Response, error) { return f(r) }

func TestSendRequestErrorHidesURL(t *testing.T) {
	failing := roundTripFunc(func(*nethttp.Request) (*nethttp.Response, error) {
		return nil, errors.New("connection refused")
	})
	client := NewClient(WithTimeout(time.Second), WithRetry(0, time.Millisecond), WithTransport(failing))

	var out payload
	err := client.FetchJSON(context.Background(), "http://finnhub.test/quote?token=secret", 0, &out)
	assert.NotEqual(t, nil, err)
	assert.Equal(t, false, strings.Contains(err.Error(), "secret"))
	assert.Equal(t, true, strings.Contains(err.Error(), "connection refused"))
}

func TestFetchJSONHangingUpstreamStaysWithinBudget(t *testing.T) {
	var attempts int32
	hanging := roundTripFunc(func(r *nethttp.Request) (*nethttp.Response, error) {
		atomic.AddInt32(&attempts, 1)
		<-r.Context().Done()
		return nil, r.Context().Err()
	})
	client := NewClient(WithTimeout(300*time.Millisecond), WithRetry(2, 200*time.Millisecond), WithTransport(hanging))

	start := time.Now()
	var out payload
	err := client.FetchJSON(context.Background(), "http://finnhub.test/quote", 0, &out)
	elapsed := time.Since(start)

	assert.NotEqual(t, nil, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	assert.Equal(t, true, elapsed < time.Second)
}

func TestFetchJSONBudgetCoversRetryWaits(t *testing.T) {
	var attempts int32
	flaky := roundTripFunc(func(r *nethttp.Request) (*nethttp.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return &nethttp.Response{
			StatusCode: nethttp.StatusServiceUnavailable,
			Body:       io.NopCloser(strings.NewReader("busy")),
			Header:     nethttp.Header{},
			Request:    r,
		}, nil
	})
	// the first backoff wait alone outlasts the budget
	client := NewClient(WithTimeout(100*time.Millisecond), WithRetry(5, time.Second), WithTransport(flaky))

	start := time.Now()
	var out payload
	err := client.FetchJSON(context.Background(), "http://finnhub.test/quote", 0, &out)

	assert.Equal(t, true, time.Since(start) < 600*time.Millisecond)
	fe, ok := IsUpstreamFetchError(err)
	assert.Equal(t, true, ok)
	assert.Equal(t, nethttp.StatusServiceUnavailable, fe.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}
