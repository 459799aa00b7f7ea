package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/lucidfort/snapgram/config"
	"github.com/lucidfort/snapgram/pkg/di"
	"github.com/lucidfort/snapgram/query"
	"github.com/lucidfort/snapgram/social"
	"github.com/lucidfort/snapgram/socialcache"
	"github.com/lucidfort/snapgram/ui"
)

// printer stands in for the navigation history and toasts of a screen.
type printer struct {
	out io.Writer
}

func (p printer) Back()              { fmt.Fprintln(p.out, "   <- navigated back") }
func (p printer) Toast(title string) { fmt.Fprintf(p.out, "   [toast] %s\n", title) }

// runDemo walks through the comment and delete flows against the configured
// store, printing what the cache serves at each step.
func runDemo(ctx context.Context, cfg config.Config, out io.Writer) error {
	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	hooks := container.Hooks()
	screen := printer{out: out}

	fmt.Fprintln(out, "Step 1: creating users and posts")
	ada, err := hooks.CreateUser(ctx, social.NewUser{Name: "Ada Lovelace", Username: "ada", Email: "ada@example.com"})
	if err != nil {
		return err
	}
	grace, err := hooks.CreateUser(ctx, social.NewUser{Name: "Grace Hopper", Username: "grace", Email: "grace@example.com"})
	if err != nil {
		return err
	}
	var posts []*social.Post
	for _, caption := range []string{"Sunset over the harbour", "Morning coffee", "Harbour at night"} {
		p, err := hooks.CreatePost(ctx, social.NewPost{CreatorID: ada.ID, Caption: caption, Tags: []string{"sea"}})
		if err != nil {
			return err
		}
		posts = append(posts, p)
	}
	fmt.Fprintf(out, "   %d posts by @%s\n", len(posts), ada.Username)

	fmt.Fprintln(out, "Step 2: reading through the cache")
	post := posts[0]
	for i := 0; i < 2; i++ {
		if _, err := hooks.PostByID(ctx, post.ID); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "   cached keys: %d\n", len(hooks.Client().Keys()))

	fmt.Fprintln(out, "Step 3: commenting as @"+grace.Username)
	session := social.Session{UserID: grace.ID}
	form := ui.NewCommentForm(post.ID, session, hooks, screen, container.Logger())
	form.SetText("Lovely light")
	comment, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	comments, err := hooks.Comments(ctx, post.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "   %d comment(s) on %q, form text now %q\n", len(comments.Documents), post.Caption, form.Text())

	if _, err := hooks.ToggleCommentLike(ctx, comment.ID, ada.ID); err != nil {
		return err
	}
	notes, err := hooks.Notifications(ctx, ada.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "   @%s has %d notification(s)\n", ada.Username, len(notes.Documents))

	fmt.Fprintln(out, "Step 4: paging the feed")
	feed := hooks.InfinitePosts()
	defer feed.Close()
	for feed.HasNextPage() {
		page, err := feed.FetchNextPage(ctx)
		if errors.Is(err, query.ErrNoMorePages) {
			break
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "   page of %d post(s)\n", len(page.Documents))
	}

	fmt.Fprintln(out, "Step 5: deleting a post")
	confirm := ui.NewDeleteConfirmation(post.ID, ui.NewModals(), hooks, screen, screen, container.Logger())
	confirm.Open()
	fmt.Fprintf(out, "   confirmation %s\n", confirm.State())
	if err := confirm.Confirm(ctx); err != nil {
		return err
	}
	recent, err := hooks.RecentPosts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "   confirmation %s, %d recent post(s) left\n", confirm.State(), len(recent.Documents))

	if _, err := hooks.DeleteComment(ctx, socialcache.DeleteCommentInput{PostID: post.ID, CommentID: comment.ID}); !social.IsNotFound(err) {
		return fmt.Errorf("expected the comment to be gone with its post, got %v", err)
	}
	fmt.Fprintln(out, "   comments were removed with the post")
	return nil
}
