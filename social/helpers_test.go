package social_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/lucidfort/snapgram/docstore"
	"github.com/lucidfort/snapgram/pkg/testsupport"
	"github.com/lucidfort/snapgram/social"
	"github.com/uptrace/bun"
)

type env struct {
	db       *bun.DB
	store    *social.Store
	services *social.Services
	logs     *syncBuffer
}

// syncBuffer collects log output from concurrent goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newEnv(t *testing.T, opts ...social.Option) *env {
	t.Helper()

	db := testsupport.OpenDB(t)
	store := social.NewStore(db, nil)
	testsupport.Seed(t, store)

	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	clock := func() time.Time { return testsupport.SeedTime.Add(time.Hour) }

	all := append([]social.Option{social.WithLogger(logger), social.WithClock(clock)}, opts...)
	return &env{
		db:       db,
		store:    store,
		services: social.NewServices(store, all...),
		logs:     logs,
	}
}

func (e *env) notifications(t *testing.T) []social.Notification {
	t.Helper()
	page, err := e.store.Notifications.List(context.Background(), docstore.NewQuery())
	if err != nil {
		t.Fatalf("failed to list notifications: %v", err)
	}
	return page.Documents
}

// recordingNotifier records calls and fails or panics on demand.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []social.NewNotification
	err   error
	panic bool
}

func (n *recordingNotifier) Create(ctx context.Context, in social.NewNotification) (*social.Notification, error) {
	n.mu.Lock()
	n.calls = append(n.calls, in)
	n.mu.Unlock()

	if n.panic {
		panic("notification backend exploded")
	}
	if n.err != nil {
		return nil, n.err
	}
	return &social.Notification{Type: in.Type, TargetID: in.TargetID, UserID: in.UserID, PostID: in.PostID}, nil
}

func (n *recordingNotifier) getCalls() []social.NewNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]social.NewNotification(nil), n.calls...)
}
