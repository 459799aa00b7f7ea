package docstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound reports that no document matched the requested ID.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrConflict reports a version mismatch on a compare-and-set write.
	ErrConflict = errors.New("docstore: version conflict")
	// ErrConstraint reports a schema or relation violation (unique, foreign key, not null).
	ErrConstraint = errors.New("docstore: constraint violation")
	// ErrPermission reports that the store refused the operation.
	ErrPermission = errors.New("docstore: permission denied")
	// ErrUnavailable reports that the store could not be reached in time.
	ErrUnavailable = errors.New("docstore: store unavailable")
)

// OpError describes a failed collection operation.
type OpError struct {
	Op         string
	Collection string
	ID         string
	Kind       error // one of the sentinel errors above, nil when unclassified
	Err        error
}

func (e *OpError) Error() string {
	msg := e.Op + " " + e.Collection
	if e.ID != "" {
		msg += " " + e.ID
	}
	switch {
	case e.Kind != nil && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", msg, e.Kind, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", msg, e.Kind)
	default:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
}

// Unwrap exposes both the sentinel kind and the underlying driver error.
func (e *OpError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func opError(op, collection, id string, err error) error {
	if err == nil {
		return nil
	}
	var existing *OpError
	if errors.As(err, &existing) {
		return err
	}
	return &OpError{
		Op:         op,
		Collection: collection,
		ID:         id,
		Kind:       classify(err),
		Err:        err,
	}
}

func kindError(op, collection, id string, kind error) error {
	return &OpError{Op: op, Collection: collection, ID: id, Kind: kind}
}

// classify maps driver errors, raw or already mapped by the repository, onto
// the sentinel kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows), repository.IsRecordNotFound(err):
		return ErrNotFound
	case repository.IsConstraintViolation(err):
		return ErrConstraint
	case goerrors.IsCategory(err, repository.CategoryDatabasePermission):
		return ErrPermission
	case goerrors.IsCategory(err, goerrors.CategoryOperation),
		goerrors.IsCategory(err, goerrors.CategoryExternal):
		return ErrUnavailable
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone):
		return ErrUnavailable
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrConstraint:
			return ErrConstraint
		case sqlite3.ErrPerm, sqlite3.ErrReadonly, sqlite3.ErrAuth:
			return ErrPermission
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
			return ErrUnavailable
		}
		return nil
	}

	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code.Class() == "23":
			return ErrConstraint
		case pgErr.Code == "42501":
			return ErrPermission
		case pgErr.Code.Class() == "08":
			return ErrUnavailable
		}
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrUnavailable
	}
	return nil
}
