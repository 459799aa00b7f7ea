package docstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// IDField is the column every collection orders and paginates by.
const IDField = "id"

// Query describes a List request: filters, cursor, order, limit and projection.
// The zero value lists every document in ascending ID order.
type Query struct {
	filters []repository.SelectCriteria
	cursor  string
	desc    bool
	limit   int
	columns []string
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{}
}

// Equal keeps documents whose field equals value.
func (q *Query) Equal(field string, value any) *Query {
	q.filters = append(q.filters, func(sq *bun.SelectQuery) *bun.SelectQuery {
		return sq.Where("? = ?", bun.Ident(field), value)
	})
	return q
}

// NotEqual keeps documents whose field differs from value.
func (q *Query) NotEqual(field string, value any) *Query {
	q.filters = append(q.filters, func(sq *bun.SelectQuery) *bun.SelectQuery {
		return sq.Where("? <> ?", bun.Ident(field), value)
	})
	return q
}

// Contains keeps documents whose text field contains term, ignoring case.
func (q *Query) Contains(field, term string) *Query {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	q.filters = append(q.filters, func(sq *bun.SelectQuery) *bun.SelectQuery {
		return sq.Where("lower(?) LIKE ? ESCAPE '!'", bun.Ident(field), pattern)
	})
	return q
}

// OrderAsc orders by ascending ID, i.e. insertion order.
func (q *Query) OrderAsc() *Query {
	q.desc = false
	return q
}

// OrderDesc orders by descending ID, newest first.
func (q *Query) OrderDesc() *Query {
	q.desc = true
	return q
}

// Limit caps the number of returned documents. Zero means no limit.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// CursorAfter starts the listing after the document with the given ID, in the
// direction of the current order. An empty cursor starts at the beginning.
func (q *Query) CursorAfter(id string) *Query {
	q.cursor = id
	return q
}

// Select restricts the loaded columns. The ID column is always included.
func (q *Query) Select(fields ...string) *Query {
	q.columns = append(q.columns[:0], fields...)
	return q
}

// FilterCriteria returns the criteria that decide membership, without cursor,
// order, limit or projection. It is what totals are counted with.
func (q *Query) FilterCriteria() []repository.SelectCriteria {
	if q == nil {
		return nil
	}
	return append([]repository.SelectCriteria(nil), q.filters...)
}

// Criteria compiles the query into select criteria for the repository.
func (q *Query) Criteria() []repository.SelectCriteria {
	if q == nil {
		q = NewQuery()
	}
	criteria := q.FilterCriteria()

	if q.cursor != "" {
		op := ">"
		if q.desc {
			op = "<"
		}
		criteria = append(criteria, repository.SelectBy(IDField, op, q.cursor))
	}

	if q.desc {
		criteria = append(criteria, repository.SelectOrderDesc(IDField))
	} else {
		criteria = append(criteria, repository.SelectOrderAsc(IDField))
	}

	// A zero limit replaces the repository's default page size with none.
	criteria = append(criteria, repository.SelectPaginate(q.limit, 0))

	if len(q.columns) > 0 {
		criteria = append(criteria, repository.SelectColumns(withID(q.columns)...))
	}

	return criteria
}

func withID(columns []string) []string {
	for _, c := range columns {
		if c == IDField {
			return append([]string(nil), columns...)
		}
	}
	return append([]string{IDField}, columns...)
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
