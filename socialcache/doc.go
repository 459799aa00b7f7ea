// Package socialcache puts the social services behind the query cache.
//
// Reads are addressed by keys such as getPostById::<id> and served through a
// shared query.Client. Writes run as query mutations and, once they succeed,
// invalidate the keys listed for them in Invalidations. A key with only a name
// addresses every parameterized variant of that query.
package socialcache
