package docstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Table describes how a collection is materialized.
type Table struct {
	Model       any      // typed nil pointer, e.g. (*Comment)(nil)
	ForeignKeys []string // raw FOREIGN KEY clauses
	Indexes     []Index
}

// Index is a secondary index on a collection table.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// EnsureSchema creates missing tables and indexes in the given order, so
// referenced tables must come first.
func EnsureSchema(ctx context.Context, db bun.IDB, tables ...Table) error {
	for _, t := range tables {
		q := db.NewCreateTable().Model(t.Model).IfNotExists()
		for _, fk := range t.ForeignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return opError("create table", fmt.Sprintf("%T", t.Model), "", err)
		}

		for _, idx := range t.Indexes {
			iq := db.NewCreateIndex().
				Model(t.Model).
				Index(idx.Name).
				Column(idx.Columns...).
				IfNotExists()
			if idx.Unique {
				iq = iq.Unique()
			}
			if _, err := iq.Exec(ctx); err != nil {
				return opError("create index", idx.Name, "", err)
			}
		}
	}
	return nil
}
