package ui

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lucidfort/snapgram/social"
)

// CommentFailedTitle is the toast shown for any failed comment submit.
const CommentFailedTitle = "Could not create comment"

// CommentCreator runs the create-comment mutation.
type CommentCreator interface {
	CreateComment(ctx context.Context, in social.NewComment) (*social.Comment, error)
}

// CommentForm holds the text of a new comment on one post.
type CommentForm struct {
	postID  string
	session social.Session
	creator CommentCreator
	toaster Toaster
	log     *slog.Logger

	mu      sync.Mutex
	text    string
	pending bool
}

// NewCommentForm creates an empty form commenting as the session user.
func NewCommentForm(postID string, session social.Session, creator CommentCreator, toaster Toaster, logger *slog.Logger) *CommentForm {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentForm{
		postID:  postID,
		session: session,
		creator: creator,
		toaster: toaster,
		log:     logger,
	}
}

// SetText replaces the draft.
func (f *CommentForm) SetText(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
}

// Text returns the draft.
func (f *CommentForm) Text() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text
}

// Pending reports whether a submit is running.
func (f *CommentForm) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Submit creates a comment from the current text. The text is cleared only
// when the comment was created. Submits made while one is pending return
// (nil, nil) without doing anything.
func (f *CommentForm) Submit(ctx context.Context) (*social.Comment, error) {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return nil, nil
	}
	f.pending = true
	in := social.NewComment{
		PostID:      f.postID,
		CommenterID: f.session.UserID,
		Quote:       f.text,
	}
	f.mu.Unlock()

	c, err := f.creator.CreateComment(ctx, in)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = false
	if err != nil || c == nil {
		f.log.WarnContext(ctx, "create comment failed", "post_id", f.postID, "error", err)
		f.toaster.Toast(CommentFailedTitle)
		return nil, err
	}
	if f.text == in.Quote {
		f.text = ""
	}
	return c, nil
}
