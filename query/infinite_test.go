package query

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"testing"
)

// feed serves items newest first, pageSize at a time, after a cursor.
type feed struct {
	items    []string
	pageSize int
	calls    atomic.Int32
}

func newFeed(n, pageSize int) *feed {
	f := &feed{pageSize: pageSize}
	for i := n; i > 0; i-- {
		f.items = append(f.items, fmt.Sprintf("item-%03d", i))
	}
	return f
}

func (f *feed) fetch(ctx context.Context, cursor string) ([]string, error) {
	f.calls.Add(1)
	start := 0
	if cursor != "" {
		start = slices.Index(f.items, cursor) + 1
	}
	end := min(start+f.pageSize, len(f.items))
	return slices.Clone(f.items[start:end]), nil
}

func (f *feed) options() InfiniteOptions[[]string] {
	return InfiniteOptions[[]string]{
		Key:   NewKey("getInfinitePosts"),
		Fetch: f.fetch,
		NextCursor: func(last []string) (string, bool) {
			return LastItemCursor(last, func(s string) string { return s })
		},
	}
}

func drain(t *testing.T, q *Infinite[[]string]) []string {
	t.Helper()
	var all []string
	for i := 0; q.HasNextPage(); i++ {
		if i > 20 {
			t.Fatal("pagination did not terminate")
		}
		page, err := q.FetchNextPage(context.Background())
		if err != nil {
			t.Fatalf("FetchNextPage() failed: %v", err)
		}
		all = append(all, page...)
	}
	return all
}

func TestInfinite_PagesUntilEmptyPage(t *testing.T) {
	c := newTestClient(t)
	f := newFeed(23, 9)
	q := NewInfinite(c, f.options())
	defer q.Close()

	all := drain(t, q)
	if !slices.Equal(all, f.items) {
		t.Errorf("expected every item exactly once, got %v", all)
	}

	var sizes []int
	for _, p := range q.Pages() {
		sizes = append(sizes, len(p))
	}
	if !slices.Equal(sizes, []int{9, 9, 5, 0}) {
		t.Errorf("unexpected page sizes %v", sizes)
	}

	if _, err := q.FetchNextPage(context.Background()); !errors.Is(err, ErrNoMorePages) {
		t.Errorf("expected ErrNoMorePages, got %v", err)
	}
}

func TestInfinite_InvalidationResetsPages(t *testing.T) {
	c := newTestClient(t)
	f := newFeed(5, 2)
	q := NewInfinite(c, f.options())
	defer q.Close()

	drain(t, q)
	fetched := f.calls.Load()

	f.items = append([]string{"item-new"}, f.items...)
	if err := c.Invalidate(context.Background(), NewKey("getInfinitePosts")); err != nil {
		t.Fatalf("Invalidate() failed: %v", err)
	}
	if len(q.Pages()) != 0 || !q.HasNextPage() {
		t.Fatal("expected pages to be reset")
	}

	first, err := q.FetchNextPage(context.Background())
	if err != nil {
		t.Fatalf("FetchNextPage() failed: %v", err)
	}
	if first[0] != "item-new" {
		t.Errorf("expected fresh first page, got %v", first)
	}
	if f.calls.Load() != fetched+1 {
		t.Errorf("expected the first page to be refetched")
	}
}

func TestInfinite_PageFetchedDuringInvalidationIsNotServedAgain(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	var version atomic.Int32
	version.Store(1)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	q := NewInfinite(c, InfiniteOptions[[]string]{
		Key: NewKey("getInfinitePosts"),
		Fetch: func(ctx context.Context, cursor string) ([]string, error) {
			page := []string{"v" + strconv.Itoa(int(version.Load()))}
			if calls.Add(1) == 1 {
				close(started)
				<-release
			}
			return page, nil
		},
		NextCursor: func(last []string) (string, bool) {
			return LastItemCursor(last, func(s string) string { return s })
		},
	})
	defer q.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := q.FetchNextPage(ctx); err != nil {
			t.Errorf("FetchNextPage() failed: %v", err)
		}
	}()
	<-started

	version.Store(2)
	if err := c.Invalidate(ctx, NewKey("getInfinitePosts")); err != nil {
		t.Fatalf("Invalidate() failed: %v", err)
	}
	close(release)
	<-done

	page, err := q.FetchNextPage(ctx)
	if err != nil {
		t.Fatalf("FetchNextPage() failed: %v", err)
	}
	if !slices.Equal(page, []string{"v2"}) {
		t.Errorf("expected the page fetched after invalidation, got %v", page)
	}
	if pages := q.Pages(); len(pages) != 1 || !slices.Equal(pages[0], []string{"v2"}) {
		t.Errorf("unexpected loaded pages %v", pages)
	}
}

func TestInfinite_PagesAreCachedPerCursor(t *testing.T) {
	c := newTestClient(t)
	f := newFeed(4, 2)

	a := NewInfinite(c, f.options())
	defer a.Close()
	b := NewInfinite(c, f.options())
	defer b.Close()

	drain(t, a)
	drain(t, b)
	if n := f.calls.Load(); n != 3 {
		t.Errorf("expected the second reader to be served from cache, got %d fetches", n)
	}
	for _, key := range []string{"getInfinitePosts::start", "getInfinitePosts::item-003", "getInfinitePosts::item-001"} {
		if !slices.Contains(c.Keys(), key) {
			t.Errorf("expected page key %s to be tracked, got %v", key, c.Keys())
		}
	}
}

func TestInfinite_Disabled(t *testing.T) {
	c := newTestClient(t)
	f := newFeed(3, 2)
	opts := f.options()
	opts.Enabled = func() bool { return false }
	q := NewInfinite(c, opts)
	defer q.Close()

	if _, err := q.FetchNextPage(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
	if f.calls.Load() != 0 {
		t.Error("expected no fetch")
	}
}

func TestLastItemCursor(t *testing.T) {
	id := func(i int) string { return strconv.Itoa(i) }
	if _, ok := LastItemCursor([]int{}, id); ok {
		t.Error("expected empty page to end pagination")
	}
	if c, ok := LastItemCursor([]int{1, 2, 3}, id); !ok || c != "3" {
		t.Errorf("expected cursor 3, got %q, %v", c, ok)
	}
}
