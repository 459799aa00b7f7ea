// Package query is the query and mutation runtime of the app.
//
// A Client reads through the cache service and remembers every key it served.
// Queries are cached reads described by Options; mutations run once and then
// invalidate the keys they declare:
//
//	post, err := query.Fetch(ctx, client, query.Options[*social.Post]{
//		Key:     query.NewKey("getPostById", postID),
//		Enabled: query.NonEmpty(postID),
//		Fetch: func(ctx context.Context) (*social.Post, error) {
//			return posts.Get(ctx, postID)
//		},
//	})
//
// Invalidation works on key prefixes: a key with fewer parameters matches every
// key extending it. Subscribers registered with Client.Subscribe are told
// about matching invalidations, and Infinite uses that to reset its pages.
//
// With a Broadcaster the client publishes each invalidation so that other
// processes sharing the store can drop their copies through ApplyRemote.
package query
