// Package cache provides the read-through cache the query layer is built on.
//
// # Overview
//
// Two interfaces and their default implementations:
//
//   - CacheService: read-through GetOrFetch plus key, prefix and batch deletion
//   - KeySerializer: turns a query name and its parameters into a stable key
//
// The default CacheService is backed by sturdyc, which deduplicates concurrent
// fetches of the same key into one call to the source.
//
// # Keys
//
// Keys are segments joined with KeySeparator:
//
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("comments", "P1") // "comments::P1"
//
// A key built from fewer parameters is a prefix of every longer key with the
// same leading parameters. Matching is done per segment with HasKeyPrefix, and
// segments are escaped, so "post::P1" never matches "post::P10" and a
// parameter containing "::" cannot forge an extra segment.
//
// # Typed reads
//
//	post, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (*social.Post, error) {
//		return posts.Get(ctx, "P1")
//	})
//
// Errors returned by the fetch function are passed through and never cached.
package cache
