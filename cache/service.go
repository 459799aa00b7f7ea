package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/lucidfort/snapgram/internal/cacheinfra"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = cacheinfra.KeySeparator

// ErrInvalidResultType is returned by GetOrFetch when the cached value does not
// have the requested type, which happens when two queries share a key.
var ErrInvalidResultType = errors.New("cache: cached value has unexpected type")

// KeySerializer builds a cache key from a query name and its parameters.
// Equal inputs must produce equal keys across calls.
type KeySerializer interface {
	SerializeKey(name string, params ...any) string
}

// FetchFn is the function signature CacheService expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the read-through and invalidation operations the query
// layer needs.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	Delete(ctx context.Context, key string) error
	// DeleteByPrefix removes prefix itself and every key extending it by
	// whole segments.
	DeleteByPrefix(ctx context.Context, prefix string) error
	InvalidateKeys(ctx context.Context, keys []string) error
}

// GetOrFetch is a type-safe wrapper around CacheService.GetOrFetch.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := service.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %q holds %T", ErrInvalidResultType, key, result)
	}
	return typed, nil
}

// HasKeyPrefix reports whether key equals prefix or extends it by whole
// segments, so "post::P1" matches "post::P1::x" but not "post::P10".
func HasKeyPrefix(key, prefix string) bool {
	return cacheinfra.HasKeyPrefix(key, prefix)
}
