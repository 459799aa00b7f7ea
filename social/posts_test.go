package social_test

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/lucidfort/snapgram/social"
)

func TestPostService_InfinitePaginationNeverRepeats(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	for i := 0; i < 20; i++ {
		if _, err := e.services.Posts.Create(ctx, social.NewPost{CreatorID: "U2", Caption: fmt.Sprintf("post %d", i)}); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	seen := map[string]bool{}
	var sizes []int
	cursor := ""
	for pages := 0; ; pages++ {
		if pages > 10 {
			t.Fatal("pagination did not terminate")
		}
		page, err := e.services.Posts.Infinite(ctx, cursor)
		if err != nil {
			t.Fatalf("Infinite(%q) failed: %v", cursor, err)
		}
		if len(page.Documents) == 0 {
			break
		}
		sizes = append(sizes, len(page.Documents))
		for _, p := range page.Documents {
			if seen[p.ID] {
				t.Errorf("post %s returned twice", p.ID)
			}
			seen[p.ID] = true
		}
		cursor = page.Documents[len(page.Documents)-1].ID
	}

	if len(seen) != 23 {
		t.Errorf("expected 23 distinct posts, got %d", len(seen))
	}
	if !slices.Equal(sizes, []int{9, 9, 5}) {
		t.Errorf("unexpected page sizes %v", sizes)
	}
}

func TestPostService_RecentIsNewestFirst(t *testing.T) {
	e := newEnv(t)

	page, err := e.services.Posts.Recent(context.Background())
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	var ids []string
	for _, p := range page.Documents {
		ids = append(ids, p.ID)
	}
	if !slices.Equal(ids, []string{"P3", "P2", "P1"}) {
		t.Errorf("unexpected order %v", ids)
	}
}

func TestPostService_SearchAndRelated(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	found, err := e.services.Posts.Search(ctx, "HARBOUR")
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	var ids []string
	for _, p := range found.Documents {
		ids = append(ids, p.ID)
	}
	if !slices.Equal(ids, []string{"P3", "P1"}) {
		t.Errorf("unexpected search result %v", ids)
	}

	related, err := e.services.Posts.Related(ctx, "P1", []string{"sea"})
	if err != nil {
		t.Fatalf("Related() failed: %v", err)
	}
	if len(related) != 1 || related[0].ID != "P3" {
		t.Errorf("expected only P3 to be related, got %+v", related)
	}

	if _, err := e.services.Posts.Search(ctx, ""); social.KindOf(err) != social.KindValidationFailure {
		t.Errorf("expected empty search term to fail validation, got %v", err)
	}
}

func TestPostService_ByUser(t *testing.T) {
	e := newEnv(t)

	page, err := e.services.Posts.ByUser(context.Background(), "U1")
	if err != nil {
		t.Fatalf("ByUser() failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("expected 2 posts for U1, got %d", page.Total)
	}
}

func TestPostService_LikeNotifiesCreatorOnce(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	p, err := e.services.Posts.Like(ctx, social.LikePost{PostID: "P1", UserID: "U2", TargetID: "U1", Likes: []string{"U2"}})
	if err != nil {
		t.Fatalf("Like() failed: %v", err)
	}
	if !slices.Equal(p.Likes, []string{"U2"}) {
		t.Errorf("unexpected likes %v", p.Likes)
	}

	// Unliking sends nothing.
	if _, err := e.services.Posts.Like(ctx, social.LikePost{PostID: "P1", UserID: "U2", TargetID: "U1", Likes: []string{}}); err != nil {
		t.Fatalf("Like() failed: %v", err)
	}

	got := e.notifications(t)
	if len(got) != 1 || got[0].Type != social.NotifyLike || got[0].TargetID != "U1" {
		t.Errorf("expected one like notification for U1, got %+v", got)
	}
}

func TestPostService_ToggleLike(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	liked, err := e.services.Posts.ToggleLike(ctx, "P2", "U1")
	if err != nil {
		t.Fatalf("ToggleLike() failed: %v", err)
	}
	if !slices.Contains(liked.Likes, "U1") {
		t.Errorf("expected U1 in likes, got %v", liked.Likes)
	}

	unliked, err := e.services.Posts.ToggleLike(ctx, "P2", "U1")
	if err != nil {
		t.Fatalf("ToggleLike() failed: %v", err)
	}
	if len(unliked.Likes) != 0 {
		t.Errorf("expected no likes, got %v", unliked.Likes)
	}
	if unliked.Version != liked.Version+1 {
		t.Errorf("expected version %d, got %d", liked.Version+1, unliked.Version)
	}
}

func TestPostService_SaveAndDeleteSaved(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	save, err := e.services.Posts.Save(ctx, social.SavePost{PostID: "P1", UserID: "U2", TargetID: "U1"})
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	_, err = e.services.Posts.Save(ctx, social.SavePost{PostID: "P1", UserID: "U2", TargetID: "U1"})
	if social.KindOf(err) != social.KindValidationFailure {
		t.Errorf("expected duplicate save to fail validation, got %v", err)
	}

	saved, err := e.services.Posts.Saved(ctx, "U2")
	if err != nil {
		t.Fatalf("Saved() failed: %v", err)
	}
	if saved.Total != 1 {
		t.Errorf("expected one save, got %d", saved.Total)
	}

	if _, err := e.services.Posts.DeleteSaved(ctx, save.ID); err != nil {
		t.Fatalf("DeleteSaved() failed: %v", err)
	}
	if _, err := e.services.Posts.DeleteSaved(ctx, save.ID); !social.IsNotFound(err) {
		t.Errorf("expected second delete to be not found, got %v", err)
	}

	got := e.notifications(t)
	if len(got) != 1 || got[0].Type != social.NotifySave {
		t.Errorf("expected one save notification, got %+v", got)
	}
}

func TestPostService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	updated, err := e.services.Posts.Update(ctx, social.UpdatePost{PostID: "P1", Caption: "Golden hour", Tags: []string{"sunset"}, Version: 1})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Caption != "Golden hour" || updated.Version != 2 {
		t.Errorf("unexpected post: %+v", updated)
	}

	_, err = e.services.Posts.Update(ctx, social.UpdatePost{PostID: "P1", Caption: "stale", Version: 1})
	if !social.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}

	if _, err := e.services.Comments.Create(ctx, social.NewComment{PostID: "P1", CommenterID: "U2", Quote: "bye", PostCreatorID: "U1"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if _, err := e.services.Posts.Delete(ctx, "P1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := e.services.Posts.Get(ctx, "P1"); !social.IsNotFound(err) {
		t.Errorf("expected deleted post to be not found, got %v", err)
	}

	comments, err := e.services.Comments.List(ctx, "P1")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if comments.Total != 0 {
		t.Errorf("expected comments to be removed with the post, got %d", comments.Total)
	}
}
