package testsupport

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lucidfort/snapgram/docstore"
	"github.com/lucidfort/snapgram/social"
	"github.com/uptrace/bun"
)

//go:embed testdata/seed.json
var seedJSON []byte

// SeedTime is the created_at of every seeded document.
var SeedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// SeedData lists the documents Seed inserts. Posts are inserted in order, so
// with the IDs below P3 is the newest.
type SeedData struct {
	Users []social.User `json:"users"`
	Posts []social.Post `json:"posts"`
}

// MemoryDSN returns a DSN for a private in-memory SQLite database with
// foreign keys enforced.
func MemoryDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
}

// OpenDB opens an in-memory SQLite database with the social schema. It is
// closed when the test ends.
func OpenDB(t testing.TB) *bun.DB {
	t.Helper()

	db, err := docstore.Open(docstore.Options{
		Driver:       docstore.DriverSQLite,
		DSN:          MemoryDSN(),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := social.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

// LoadSeed decodes the default seed data.
func LoadSeed(t testing.TB) SeedData {
	t.Helper()

	var data SeedData
	if err := json.Unmarshal(seedJSON, &data); err != nil {
		t.Fatalf("failed to decode seed data: %v", err)
	}
	return data
}

// Seed inserts the default users and posts into store and returns them.
func Seed(t testing.TB, store *social.Store) SeedData {
	t.Helper()

	ctx := context.Background()
	data := LoadSeed(t)
	for i := range data.Users {
		u := &data.Users[i]
		u.CreatedAt = SeedTime
		if _, err := store.Users.Create(ctx, u); err != nil {
			t.Fatalf("failed to seed user %s: %v", u.ID, err)
		}
	}
	for i := range data.Posts {
		p := &data.Posts[i]
		p.CreatedAt = SeedTime
		p.UpdatedAt = SeedTime
		if p.Likes == nil {
			p.Likes = []string{}
		}
		if _, err := store.Posts.Create(ctx, p); err != nil {
			t.Fatalf("failed to seed post %s: %v", p.ID, err)
		}
	}
	return data
}
