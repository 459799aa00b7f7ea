package query

import (
	"context"
	"errors"
	"sync"
)

// ErrNoMorePages is returned by FetchNextPage after a page ended pagination.
var ErrNoMorePages = errors.New("query: no more pages")

// FirstPage is the cursor segment of the first page key.
const FirstPage = "start"

// InfiniteOptions describes a paginated read.
type InfiniteOptions[P any] struct {
	// Key is the base key. Page keys extend it with the page cursor.
	Key     Key
	Enabled func() bool
	// Fetch loads the page after cursor. The first page gets an empty cursor.
	Fetch func(ctx context.Context, cursor string) (P, error)
	// NextCursor derives the next cursor from the last loaded page and
	// reports false when that page ends pagination.
	NextCursor func(last P) (string, bool)
}

// Infinite accumulates the pages of a paginated query. Invalidating the base
// key discards loaded pages so the next fetch starts over.
type Infinite[P any] struct {
	client *Client
	opts   InfiniteOptions[P]

	fetchMu sync.Mutex // one page fetch at a time

	mu          sync.Mutex
	pages       []P
	cursor      string
	done        bool
	generation  uint64
	unsubscribe func()
}

// NewInfinite creates a paginated query and subscribes it to its base key.
func NewInfinite[P any](c *Client, opts InfiniteOptions[P]) *Infinite[P] {
	q := &Infinite[P]{client: c, opts: opts}
	q.unsubscribe = c.Subscribe(opts.Key, func(string) { q.Reset() })
	return q
}

// FetchNextPage loads the page after the last loaded one and returns it.
// A page fetched while the query was reset is returned but not kept.
func (q *Infinite[P]) FetchNextPage(ctx context.Context) (P, error) {
	var zero P
	if q.opts.Enabled != nil && !q.opts.Enabled() {
		return zero, ErrDisabled
	}

	q.fetchMu.Lock()
	defer q.fetchMu.Unlock()

	q.mu.Lock()
	if q.done {
		q.mu.Unlock()
		return zero, ErrNoMorePages
	}
	cursor, generation := q.cursor, q.generation
	q.mu.Unlock()

	segment := cursor
	if segment == "" {
		segment = FirstPage
	}
	key := q.client.Serialize(q.opts.Key.With(segment))

	page, err := fetchFresh(ctx, q.client, key, func(ctx context.Context) (P, error) {
		return q.opts.Fetch(ctx, cursor)
	})
	if err != nil {
		return zero, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if generation != q.generation {
		return page, nil
	}
	q.pages = append(q.pages, page)
	next, ok := q.opts.NextCursor(page)
	if !ok {
		q.done = true
	} else {
		q.cursor = next
	}
	return page, nil
}

// HasNextPage reports whether FetchNextPage may return another page.
func (q *Infinite[P]) HasNextPage() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.done
}

// Pages returns the pages loaded so far.
func (q *Infinite[P]) Pages() []P {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]P(nil), q.pages...)
}

// Reset discards the loaded pages.
func (q *Infinite[P]) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pages = nil
	q.cursor = ""
	q.done = false
	q.generation++
}

// Close unsubscribes the query from its base key.
func (q *Infinite[P]) Close() {
	q.unsubscribe()
}

// LastItemCursor returns the ID of the last item, or false for an empty page.
func LastItemCursor[T any](items []T, id func(T) string) (string, bool) {
	if len(items) == 0 {
		return "", false
	}
	return id(items[len(items)-1]), true
}
