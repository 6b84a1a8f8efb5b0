package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"Signalist/pkg/cache"
	applogger "Signalist/pkg/logger"
)

// UpstreamFetchError reports a non-2xx upstream response.
type UpstreamFetchError struct {
	Status int
	Body   string
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("fetch failed %d: %s", e.Status, e.Body)
}

// IsUpstreamFetchError reports whether err carries an upstream status.
func IsUpstreamFetchError(err error) (*UpstreamFetchError, bool) {
	var fe *UpstreamFetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// FetchJSON GETs rawURL and decodes the JSON body into dest.
//
// revalidate <= 0 always goes to the network and never touches the cache.
// A positive revalidate serves a cached body for at most that long; only
// bodies that decoded successfully are cached.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, revalidate time.Duration, dest interface{}) error {
	useCache := revalidate > 0 && c.cache != nil
	var key string

	if useCache {
		key = fetchCacheKey(rawURL, revalidate)
		var body []byte
		if err := c.cache.Get(ctx, key, &body); err == nil {
			if err := json.Unmarshal(body, dest); err == nil {
				return nil
			}
			_ = c.cache.Delete(ctx, key)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			c.log.Warn("fetch cache read failed", applogger.Error(err))
		}
	}

	body, err := c.fetchWithRetry(ctx, rawURL)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	if useCache {
		if err := c.cache.Set(ctx, key, body, revalidate); err != nil {
			c.log.Warn("fetch cache write failed", applogger.Error(err))
		}
	}
	return nil
}

// fetchWithRetry bounds every attempt and every backoff wait by a single
// c.timeout budget.
func (c *Client) fetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		body    []byte
		lastErr error
	)

	operation := func() (err error) {
		defer func() { lastErr = err }()

		resp, err := c.SendRequest(ctx, &RequestOptions{
			Method:  MethodGet,
			URL:     rawURL,
			Headers: map[string]string{"Accept": "application/json"},
		})
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			fetchErr := &UpstreamFetchError{Status: resp.StatusCode, Body: string(data)}
			if retryableStatus(resp.StatusCode) {
				return fetchErr
			}
			return backoff.Permanent(fetchErr)
		}

		body = data
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryInterval
	eb.MaxInterval = 2 * time.Second
	eb.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		// the budget ran out while waiting to retry; report the last real failure
		if errors.Is(err, ctx.Err()) && lastErr != nil && !errors.Is(lastErr, ctx.Err()) {
			return nil, fmt.Errorf("fetch budget %s exhausted: %w", c.timeout, lastErr)
		}
		return nil, err
	}
	return body, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func fetchCacheKey(rawURL string, revalidate time.Duration) string {
	return cache.GenerateKeyWithParams("fetch", int64(revalidate/time.Second), cache.HashKey(rawURL))
}
