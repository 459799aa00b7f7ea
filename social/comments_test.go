package social_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/lucidfort/snapgram/social"
)

func TestCommentService_CreateNotifiesPostCreator(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	c, err := e.services.Comments.Create(ctx, social.NewComment{
		PostID:        "P1",
		CommenterID:   "U2",
		Quote:         "hello",
		PostCreatorID: "U1",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if c.Quote != "hello" || c.PostID != "P1" || c.CommenterID != "U2" {
		t.Errorf("unexpected comment: %+v", c)
	}
	if c.ID == "" {
		t.Error("expected generated comment ID")
	}

	got := e.notifications(t)
	if len(got) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(got))
	}
	n := got[0]
	if n.Type != social.NotifyComment || n.TargetID != "U1" || n.UserID != "U2" || n.PostID != "P1" {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestCommentService_CreateOnOwnPostSkipsNotification(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	c, err := e.services.Comments.Create(ctx, social.NewComment{
		PostID:        "P1",
		CommenterID:   "U1",
		Quote:         "hi",
		PostCreatorID: "U1",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if c.Quote != "hi" {
		t.Errorf("expected quote %q, got %q", "hi", c.Quote)
	}
	if got := e.notifications(t); len(got) != 0 {
		t.Errorf("expected no notifications, got %+v", got)
	}
}

func TestCommentService_CreateLooksUpCreator(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	if _, err := e.services.Comments.Create(ctx, social.NewComment{
		PostID:      "P2",
		CommenterID: "U3",
		Quote:       "nice",
	}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	got := e.notifications(t)
	if len(got) != 1 || got[0].TargetID != "U2" {
		t.Errorf("expected one notification for U2, got %+v", got)
	}
}

func TestCommentService_CreateFailures(t *testing.T) {
	tests := []struct {
		name string
		in   social.NewComment
		kind social.Kind
	}{
		{
			name: "missing post without creator hint",
			in:   social.NewComment{PostID: "P404", CommenterID: "U2", Quote: "hello"},
			kind: social.KindNotFound,
		},
		{
			name: "missing post with creator hint",
			in:   social.NewComment{PostID: "P404", CommenterID: "U2", Quote: "hello", PostCreatorID: "U1"},
			kind: social.KindValidationFailure,
		},
		{
			name: "unknown commenter",
			in:   social.NewComment{PostID: "P1", CommenterID: "U404", Quote: "hello", PostCreatorID: "U1"},
			kind: social.KindValidationFailure,
		},
		{
			name: "empty quote",
			in:   social.NewComment{PostID: "P1", CommenterID: "U2", PostCreatorID: "U1"},
			kind: social.KindValidationFailure,
		},
		{
			name: "missing post id",
			in:   social.NewComment{CommenterID: "U2", Quote: "hello"},
			kind: social.KindValidationFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)

			c, err := e.services.Comments.Create(context.Background(), tt.in)
			if err == nil {
				t.Fatalf("expected error, got comment %+v", c)
			}
			if c != nil {
				t.Errorf("expected nil comment on failure, got %+v", c)
			}
			if got := social.KindOf(err); got != tt.kind {
				t.Errorf("expected kind %s, got %s (%v)", tt.kind, got, err)
			}
			if len(e.notifications(t)) != 0 {
				t.Error("expected no notifications for a failed comment")
			}
		})
	}
}

func TestCommentService_ListFiltersByPostInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	quotes := []string{"first", "second", "third"}
	for _, q := range quotes {
		if _, err := e.services.Comments.Create(ctx, social.NewComment{PostID: "P1", CommenterID: "U2", Quote: q, PostCreatorID: "U1"}); err != nil {
			t.Fatalf("Create(%q) failed: %v", q, err)
		}
	}
	if _, err := e.services.Comments.Create(ctx, social.NewComment{PostID: "P2", CommenterID: "U1", Quote: "elsewhere", PostCreatorID: "U2"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	page, err := e.services.Comments.List(ctx, "P1")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if page.Total != len(quotes) {
		t.Errorf("expected total %d, got %d", len(quotes), page.Total)
	}

	var got []string
	for _, c := range page.Documents {
		if c.PostID != "P1" {
			t.Errorf("comment %s belongs to %s", c.ID, c.PostID)
		}
		got = append(got, c.Quote)
	}
	if !slices.Equal(got, quotes) {
		t.Errorf("expected %v, got %v", quotes, got)
	}
}

func TestCommentService_ListRequiresPostID(t *testing.T) {
	e := newEnv(t)

	_, err := e.services.Comments.List(context.Background(), "")
	if social.KindOf(err) != social.KindValidationFailure {
		t.Errorf("expected validation failure, got %v", err)
	}
}

func TestCommentService_DeleteRemovesFromList(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	keep, err := e.services.Comments.Create(ctx, social.NewComment{PostID: "P1", CommenterID: "U2", Quote: "keep", PostCreatorID: "U1"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	drop, err := e.services.Comments.Create(ctx, social.NewComment{PostID: "P1", CommenterID: "U3", Quote: "drop", PostCreatorID: "U1"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	res, err := e.services.Comments.Delete(ctx, drop.ID)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if res.ID != drop.ID {
		t.Errorf("expected deleted ID %s, got %s", drop.ID, res.ID)
	}

	page, err := e.services.Comments.List(ctx, "P1")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(page.Documents) != 1 || page.Documents[0].ID != keep.ID {
		t.Errorf("expected only %s to remain, got %+v", keep.ID, page.Documents)
	}
}

func TestCommentService_DeleteMissingIsLoggedNotFound(t *testing.T) {
	e := newEnv(t)

	res, err := e.services.Comments.Delete(context.Background(), "C9")
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}
	if !social.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	var serr *social.Error
	if !errors.As(err, &serr) || serr.Op != "comments.Delete" {
		t.Errorf("expected *social.Error for comments.Delete, got %#v", err)
	}
	if logs := e.logs.String(); !strings.Contains(logs, "comments.Delete") || !strings.Contains(logs, "not_found") {
		t.Errorf("expected failure to be logged, got %q", logs)
	}
}

func TestCommentService_LikeReplacesLikerSet(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	c, err := e.services.Comments.Create(ctx, social.NewComment{PostID: "P1", CommenterID: "U2", Quote: "like me", PostCreatorID: "U1"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	for _, likes := range [][]string{{"U1", "U3"}, {"U2"}, {}} {
		if _, err := e.services.Comments.Like(ctx, social.LikeComment{CommentID: c.ID, Likes: likes}); err != nil {
			t.Fatalf("Like(%v) failed: %v", likes, err)
		}
		got, err := e.services.Comments.Get(ctx, c.ID)
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if !slices.Equal(got.Likes, likes) {
			t.Errorf("expected likes %v, got %v", likes, got.Likes)
		}
	}
}

func TestCommentService_LikeWithStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	c, err := e.services.Comments.Create(ctx, social.NewComment{PostID: "P1", CommenterID: "U2", Quote: "race", PostCreatorID: "U1"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	first, err := e.services.Comments.Like(ctx, social.LikeComment{CommentID: c.ID, Likes: []string{"U1"}, Version: c.Version})
	if err != nil {
		t.Fatalf("Like() failed: %v", err)
	}
	if first.Version != c.Version+1 {
		t.Errorf("expected version %d, got %d", c.Version+1, first.Version)
	}

	_, err = e.services.Comments.Like(ctx, social.LikeComment{CommentID: c.ID, Likes: []string{"U3"}, Version: c.Version})
	if !social.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	got, err := e.services.Comments.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !slices.Equal(got.Likes, []string{"U1"}) {
		t.Errorf("expected first write to survive, got %v", got.Likes)
	}
}

func TestCommentService_ToggleLikeConcurrent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	c, err := e.services.Comments.Create(ctx, social.NewComment{PostID: "P1", CommenterID: "U2", Quote: "toggle", PostCreatorID: "U1"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	users := []string{"U1", "U2", "U3"}
	var wg sync.WaitGroup
	errs := make(chan error, len(users))
	for _, u := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			if _, err := e.services.Comments.ToggleLike(ctx, c.ID, u); err != nil {
				errs <- err
			}
		}(u)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("ToggleLike() failed: %v", err)
	}

	got, err := e.services.Comments.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	likes := slices.Clone(got.Likes)
	slices.Sort(likes)
	if !slices.Equal(likes, users) {
		t.Errorf("expected every liker to be kept, got %v", got.Likes)
	}

	again, err := e.services.Comments.ToggleLike(ctx, c.ID, "U2")
	if err != nil {
		t.Fatalf("ToggleLike() failed: %v", err)
	}
	if slices.Contains(again.Likes, "U2") {
		t.Errorf("expected U2 to be removed, got %v", again.Likes)
	}
}

func TestCommentService_NotificationFailureDoesNotFailComment(t *testing.T) {
	tests := []struct {
		name     string
		notifier *recordingNotifier
	}{
		{name: "error", notifier: &recordingNotifier{err: errors.New("notifications offline")}},
		{name: "panic", notifier: &recordingNotifier{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			e := newEnv(t, social.WithNotifier(tt.notifier))

			c, err := e.services.Comments.Create(ctx, social.NewComment{PostID: "P1", CommenterID: "U2", Quote: "still here", PostCreatorID: "U1"})
			if err != nil {
				t.Fatalf("Create() failed: %v", err)
			}
			if _, err := e.services.Comments.Get(ctx, c.ID); err != nil {
				t.Errorf("expected comment to be stored: %v", err)
			}
			if calls := tt.notifier.getCalls(); len(calls) != 1 {
				t.Errorf("expected one notification attempt, got %d", len(calls))
			}
			if !strings.Contains(e.logs.String(), "notification dropped") {
				t.Error("expected dropped notification to be logged")
			}
		})
	}
}

func TestCommentService_NotificationStoreFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	if _, err := e.db.NewDropTable().Model((*social.Notification)(nil)).Exec(ctx); err != nil {
		t.Fatalf("failed to drop notifications: %v", err)
	}

	c, err := e.services.Comments.Create(ctx, social.NewComment{PostID: "P1", CommenterID: "U2", Quote: "hello", PostCreatorID: "U1"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if c.Quote != "hello" {
		t.Errorf("unexpected comment: %+v", c)
	}
}
