// Package docstore is the document store the social layer talks to.
//
// # Overview
//
// A store is a set of collections, one per entity type, each backed by a bun
// model and a table. A Collection exposes the narrow surface the rest of the
// module relies on:
//
//   - Create: insert a document, assigning a unique ID when none is set
//   - Get: fetch one document by ID
//   - List: run a Query (equality filters, cursor, order, limit, projection)
//   - Update: compare-and-set on the document version
//   - Modify: read, mutate and compare-and-set with bounded retries
//   - Delete: remove a document by ID
//
// # Queries
//
// Query is a small builder that compiles into go-repository-bun select
// criteria, so every filter is a plain func(*bun.SelectQuery) *bun.SelectQuery:
//
//	q := docstore.NewQuery().
//		Equal("post_id", postID).
//		OrderAsc().
//		Limit(50)
//	page, err := comments.List(ctx, q)
//
// Documents are ordered by ID. IDs come from an IDGenerator and the default
// generator emits monotonic ULIDs, so ID order is insertion order and an ID is
// a valid pagination cursor.
//
// # Errors
//
// Driver errors from SQLite and PostgreSQL are translated into a small set of
// sentinel errors (ErrNotFound, ErrConflict, ErrConstraint, ErrPermission,
// ErrUnavailable) wrapped in an *OpError that still carries the driver error.
package docstore
