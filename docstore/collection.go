package docstore

import (
	"context"
	"errors"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// VersionField holds the optimistic concurrency token of every document.
const VersionField = "version"

// maxModifyAttempts bounds the read/modify/write loop of Modify.
const maxModifyAttempts = 5

// Model is implemented by pointers to document structs.
type Model interface {
	GetID() string
	SetID(id string)
	GetVersion() int64
	SetVersion(v int64)
}

// Page is one List result. Total counts every document matching the filters,
// ignoring cursor and limit.
type Page[T any] struct {
	Documents []T
	Total     int
}

// Collection is a named group of documents of one type stored in one table.
// Reads and deletes go through a go-repository-bun repository; inserts and
// versioned updates are issued on the bun handle because they need string
// IDs and compare-and-set semantics the repository does not offer.
type Collection[T any, PT interface {
	*T
	Model
}] struct {
	db   *bun.DB
	repo repository.Repository[PT]
	name string
	ids  IDGenerator
}

// NewCollection binds a document type to a database handle.
// Example: NewCollection[Comment](db, "comments", ids)
func NewCollection[T any, PT interface {
	*T
	Model
}](db *bun.DB, name string, ids IDGenerator) *Collection[T, PT] {
	if ids == nil {
		ids = NewULIDGenerator()
	}
	repo := repository.NewRepository[PT](db, repository.ModelHandlers[PT]{
		NewRecord:     func() PT { return PT(new(T)) },
		GetIdentifier: func() string { return IDField },
	})
	return &Collection[T, PT]{db: db, repo: repo, name: name, ids: ids}
}

// Name returns the collection name.
func (c *Collection[T, PT]) Name() string {
	return c.name
}

// Create inserts doc. A missing ID is generated and the version starts at 1.
func (c *Collection[T, PT]) Create(ctx context.Context, doc PT) (PT, error) {
	if doc.GetID() == "" {
		doc.SetID(c.ids.NewID())
	}
	if doc.GetVersion() == 0 {
		doc.SetVersion(1)
	}
	if _, err := c.db.NewInsert().Model(doc).Exec(ctx); err != nil {
		return nil, opError("create", c.name, doc.GetID(), c.mapError(err))
	}
	return doc, nil
}

// Get loads the document with the given ID.
func (c *Collection[T, PT]) Get(ctx context.Context, id string) (PT, error) {
	doc, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, opError("get", c.name, id, err)
	}
	return doc, nil
}

// List runs q and reports the filtered total alongside the page.
func (c *Collection[T, PT]) List(ctx context.Context, q *Query) (Page[T], error) {
	records, _, err := c.repo.List(ctx, q.Criteria()...)
	if err != nil {
		return Page[T]{}, opError("list", c.name, "", err)
	}

	total, err := c.repo.Count(ctx, q.FilterCriteria()...)
	if err != nil {
		return Page[T]{}, opError("count", c.name, "", err)
	}

	docs := make([]T, len(records))
	for i, r := range records {
		docs[i] = *r
	}
	return Page[T]{Documents: docs, Total: total}, nil
}

// Exists reports whether any document matches the filters of q.
func (c *Collection[T, PT]) Exists(ctx context.Context, q *Query) (bool, error) {
	n, err := c.repo.Count(ctx, q.FilterCriteria()...)
	if err != nil {
		return false, opError("exists", c.name, "", err)
	}
	return n > 0, nil
}

// versionIs restricts an update to rows still at version v.
func versionIs(v int64) repository.UpdateCriteria {
	return func(uq *bun.UpdateQuery) *bun.UpdateQuery {
		return uq.Where("? = ?", bun.Ident(VersionField), v)
	}
}

// Update writes doc when the stored version still equals doc's version, then
// bumps the version. With columns only those columns are written. A stale
// version yields ErrConflict, a missing document ErrNotFound.
func (c *Collection[T, PT]) Update(ctx context.Context, doc PT, columns ...string) (PT, error) {
	expected := doc.GetVersion()
	doc.SetVersion(expected + 1)

	criteria := []repository.UpdateCriteria{versionIs(expected)}
	if len(columns) > 0 {
		cols := append(append([]string(nil), columns...), VersionField)
		criteria = append(criteria, repository.UpdateColumns(cols...))
	}

	uq := c.db.NewUpdate().Model(doc).WherePK()
	for _, crit := range criteria {
		uq = crit(uq)
	}

	res, err := uq.Exec(ctx)
	if err != nil {
		doc.SetVersion(expected)
		return nil, opError("update", c.name, doc.GetID(), c.mapError(err))
	}
	err = repository.SQLExpectedCount(res, 1)
	if err == nil {
		return doc, nil
	}

	doc.SetVersion(expected)
	if !repository.IsSQLExpectedCountViolation(err) {
		return nil, opError("update", c.name, doc.GetID(), err)
	}
	exists, err := c.Exists(ctx, NewQuery().Equal(IDField, doc.GetID()))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, kindError("update", c.name, doc.GetID(), ErrNotFound)
	}
	return nil, kindError("update", c.name, doc.GetID(), ErrConflict)
}

// Modify loads the document, applies fn and writes it back with Update.
//
// When expectedVersion is non-zero the stored version must match it and a
// mismatch fails with ErrConflict right away. When it is zero, conflicts with
// concurrent writers are retried against the fresh document so that fn always
// sees the latest state.
func (c *Collection[T, PT]) Modify(ctx context.Context, id string, expectedVersion int64, fn func(PT) error, columns ...string) (PT, error) {
	for attempt := 0; attempt < maxModifyAttempts; attempt++ {
		doc, err := c.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if expectedVersion != 0 && doc.GetVersion() != expectedVersion {
			return nil, kindError("modify", c.name, id, ErrConflict)
		}
		if err := fn(doc); err != nil {
			return nil, err
		}

		updated, err := c.Update(ctx, doc, columns...)
		if err == nil {
			return updated, nil
		}
		if expectedVersion != 0 || !errors.Is(err, ErrConflict) {
			return nil, err
		}
	}
	return nil, kindError("modify", c.name, id, ErrConflict)
}

// Delete removes the document with the given ID.
func (c *Collection[T, PT]) Delete(ctx context.Context, id string) error {
	dq := c.db.NewDelete().Model((*T)(nil))
	dq = repository.DeleteByID(id)(dq)
	res, err := dq.Exec(ctx)
	if err != nil {
		return opError("delete", c.name, id, c.mapError(err))
	}
	if err := repository.SQLExpectedCount(res, 1); err != nil {
		if repository.IsSQLExpectedCountViolation(err) {
			return kindError("delete", c.name, id, ErrNotFound)
		}
		return opError("delete", c.name, id, err)
	}
	return nil
}

// mapError translates a driver error the way the repository does for reads.
func (c *Collection[T, PT]) mapError(err error) error {
	return repository.MapDatabaseError(err, repository.DetectDriver(c.db))
}
