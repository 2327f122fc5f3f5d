package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-catalog-client/client"
	"github.com/jrsteele09/go-catalog-client/internal/errors"
)

// FetchFunc loads fresh data for a key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Fetch returns the cached value for key while it is fresh, otherwise calls
// fn. Offline, or when fn fails with a transport error, cached data is
// returned marked stale. ErrOffline is returned when offline with nothing
// cached.
func Fetch[T any](ctx context.Context, c *Cache, key string, staleTime time.Duration, fn FetchFunc[T]) (T, Meta, error) {
	var zero T
	cached, hasCached := c.lookup(key)

	if hasCached && !cached.Invalidated && c.opts.Now().Before(cached.StaleAt) {
		v, err := decode[T](cached.Data)
		if err == nil {
			return v, Meta{FromCache: true, FetchedAt: cached.FetchedAt}, nil
		}
		c.logger.Warn().Err(err).Str("key", key).Msg("cached entry unreadable, refetching")
		hasCached = false
	}

	if !c.Online() {
		if hasCached {
			if v, err := decode[T](cached.Data); err == nil {
				return v, Meta{FromCache: true, Stale: true, FetchedAt: cached.FetchedAt}, nil
			}
		}
		return zero, Meta{}, errors.ErrOffline
	}

	v, err := retry(ctx, c, key, fn)
	if err != nil {
		if hasCached && client.IsTransportError(err) {
			if cv, decErr := decode[T](cached.Data); decErr == nil {
				c.logger.Warn().Err(err).Str("key", key).Msg("fetch failed, serving cached data")
				return cv, Meta{FromCache: true, Stale: true, FetchedAt: cached.FetchedAt}, nil
			}
		}
		return zero, Meta{}, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("[querycache Fetch] marshal %s: %w", key, err)
	}
	fetchedAt, err := c.put(ctx, key, data, staleTime)
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to persist query cache")
	}
	return v, Meta{FetchedAt: fetchedAt}, nil
}

// SetData applies fn to the cached value of key and stores the result. The
// returned snapshot undoes the change via Restore. Missing keys are left
// alone and give an empty snapshot.
func SetData[T any](ctx context.Context, c *Cache, key string, fn func(T) T) (Snapshot, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return Snapshot{key: key}, nil
	}
	prev := *e
	v, err := decode[T](e.Data)
	if err != nil {
		c.mu.Unlock()
		return Snapshot{}, fmt.Errorf("[querycache SetData] decode %s: %w", key, err)
	}
	data, err := json.Marshal(fn(v))
	if err != nil {
		c.mu.Unlock()
		return Snapshot{}, fmt.Errorf("[querycache SetData] marshal %s: %w", key, err)
	}
	updated := prev
	updated.Data = data
	c.entries[key] = &updated
	c.mu.Unlock()

	return Snapshot{key: key, entry: &prev}, c.persist(ctx)
}

// retryable reports whether a failed fetch is worth another attempt.
func retryable(err error) bool {
	return client.IsTransportError(err) || client.StatusCode(err) >= http.StatusInternalServerError
}

func retry[T any](ctx context.Context, c *Cache, key string, fn FetchFunc[T]) (T, error) {
	delay := c.opts.RetryDelay
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= c.opts.Retries || !retryable(err) || ctx.Err() != nil {
			return v, err
		}
		c.logger.Debug().Err(err).Str("key", key).Int("attempt", attempt+1).Dur("delay", delay).Msg("retrying fetch")
		select {
		case <-ctx.Done():
			return v, err
		case <-time.After(delay):
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

func decode[T any](data json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
