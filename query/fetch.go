package query

import (
	"context"
	"errors"

	"github.com/lucidfort/snapgram/cache"
)

// ErrDisabled is returned when a query is read while its Enabled predicate is
// false. Nothing is fetched.
var ErrDisabled = errors.New("query: disabled")

// Options describes one cached read.
type Options[T any] struct {
	Key Key
	// Enabled gates the read. Nil means always enabled.
	Enabled func() bool
	Fetch   cache.FetchFn[T]
}

func (o Options[T]) enabled() bool {
	return o.Enabled == nil || o.Enabled()
}

// Fetch returns the cached value of opts.Key, fetching it on a miss.
// Concurrent fetches of the same key share one call to opts.Fetch.
func Fetch[T any](ctx context.Context, c *Client, opts Options[T]) (T, error) {
	var zero T
	if !opts.enabled() {
		return zero, ErrDisabled
	}

	return fetchFresh(ctx, c, c.Serialize(opts.Key), opts.Fetch)
}

// maxStaleReads bounds how often fetchFresh retries a read that an
// invalidation overtook.
const maxStaleReads = 3

// stamped is the cached form of a value: the value and the generation of its
// key when the fetch producing it started.
type stamped[T any] struct {
	value      T
	generation uint64
}

// fetchFresh reads key through the cache and never returns a value whose
// fetch started before the latest invalidation of key. Such a value can be
// written back by a fetch that was in flight during a mutation, or joined
// through in-flight deduplication; it is evicted and fetched again.
func fetchFresh[T any](ctx context.Context, c *Client, key string, fetch cache.FetchFn[T]) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		c.trackKey(key)
		entry, err := cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (stamped[T], error) {
			generation := c.generation(key)
			v, err := fetch(ctx)
			return stamped[T]{value: v, generation: generation}, err
		})
		if err != nil {
			return zero, err
		}
		if entry.generation == c.generation(key) || attempt == maxStaleReads {
			return entry.value, nil
		}

		c.log.DebugContext(ctx, "discarding read overtaken by invalidation", "key", key, "attempt", attempt)
		if err := c.cache.Delete(ctx, key); err != nil {
			return zero, err
		}
	}
}

// Refetch drops the cached value of opts.Key and fetches it again.
func Refetch[T any](ctx context.Context, c *Client, opts Options[T]) (T, error) {
	var zero T
	if !opts.enabled() {
		return zero, ErrDisabled
	}

	key := c.Serialize(opts.Key)
	c.bumpGenerations(key)
	if err := c.cache.Delete(ctx, key); err != nil {
		return zero, err
	}
	return Fetch(ctx, c, opts)
}

// NonEmpty returns an Enabled predicate that holds when every value is set.
func NonEmpty(values ...string) func() bool {
	return func() bool {
		for _, v := range values {
			if v == "" {
				return false
			}
		}
		return true
	}
}
