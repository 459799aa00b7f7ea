package social

import (
	"context"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/lucidfort/snapgram/docstore"
	"go.opentelemetry.io/otel/attribute"
)

// maxQuoteLength bounds a comment body.
const maxQuoteLength = 2200

// NewComment is the input of CommentService.Create. PostCreatorID may be left
// empty, in which case the post is loaded to find its creator.
type NewComment struct {
	PostID        string
	CommenterID   string
	Quote         string
	PostCreatorID string
}

func (c NewComment) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PostID, validation.Required),
		validation.Field(&c.CommenterID, validation.Required),
		validation.Field(&c.Quote, validation.Required, validation.RuneLength(1, maxQuoteLength)),
	)
}

// LikeComment replaces the liker set of a comment. A non-zero Version makes
// the write conditional on the stored version.
type LikeComment struct {
	CommentID string
	Likes     []string
	Version   int64
}

func (l LikeComment) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.CommentID, validation.Required),
		validation.Field(&l.Likes, validation.Each(validation.Required)),
	)
}

// CommentService implements the comment operations.
type CommentService struct {
	base
	notify *sideEffects
}

// Create stores a comment and, when the commenter is not the post creator,
// notifies the creator. The notification never fails the comment.
func (s *CommentService) Create(ctx context.Context, in NewComment) (*Comment, error) {
	const op = "comments.Create"
	ctx, span := s.start(ctx, op,
		attribute.String("post_id", in.PostID),
		attribute.String("commenter_id", in.CommenterID))
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	creatorID := in.PostCreatorID
	if creatorID == "" {
		post, err := s.store.Posts.Get(ctx, in.PostID)
		if err != nil {
			return nil, s.fail(ctx, span, op, err)
		}
		creatorID = post.CreatorID
	}

	c := &Comment{
		PostID:      in.PostID,
		CommenterID: in.CommenterID,
		Quote:       in.Quote,
		Likes:       []string{},
	}
	c.CreatedAt = s.now()
	created, err := s.store.Comments.Create(ctx, c)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	s.notify.notify(ctx, NewNotification{
		Type:     NotifyComment,
		TargetID: creatorID,
		UserID:   in.CommenterID,
		PostID:   in.PostID,
	})
	return created, nil
}

// List returns the comments of postID in insertion order.
func (s *CommentService) List(ctx context.Context, postID string) (docstore.Page[Comment], error) {
	const op = "comments.List"
	ctx, span := s.start(ctx, op, attribute.String("post_id", postID))
	defer span.End()

	if err := validation.Validate(postID, validation.Required); err != nil {
		return docstore.Page[Comment]{}, s.fail(ctx, span, op, err)
	}

	page, err := s.store.Comments.List(ctx, docstore.NewQuery().
		Equal("post_id", postID).
		OrderAsc())
	if err != nil {
		return docstore.Page[Comment]{}, s.fail(ctx, span, op, err)
	}
	return page, nil
}

// Get loads one comment.
func (s *CommentService) Get(ctx context.Context, commentID string) (*Comment, error) {
	const op = "comments.Get"
	ctx, span := s.start(ctx, op, attribute.String("comment_id", commentID))
	defer span.End()

	c, err := s.store.Comments.Get(ctx, commentID)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return c, nil
}

// Like replaces the liker set with in.Likes.
func (s *CommentService) Like(ctx context.Context, in LikeComment) (*Comment, error) {
	const op = "comments.Like"
	ctx, span := s.start(ctx, op, attribute.String("comment_id", in.CommentID))
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	likes := dedupe(in.Likes)
	updated, err := s.store.Comments.Modify(ctx, in.CommentID, in.Version, func(c *Comment) error {
		c.Likes = likes
		return nil
	}, "likes")
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return updated, nil
}

// ToggleLike adds userID to the liker set, or removes it when present. It
// retries against concurrent writers so no other liker is lost.
func (s *CommentService) ToggleLike(ctx context.Context, commentID, userID string) (*Comment, error) {
	const op = "comments.ToggleLike"
	ctx, span := s.start(ctx, op,
		attribute.String("comment_id", commentID),
		attribute.String("user_id", userID))
	defer span.End()

	if err := validation.Validate(userID, validation.Required); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	updated, err := s.store.Comments.Modify(ctx, commentID, 0, func(c *Comment) error {
		c.Likes = toggle(c.Likes, userID)
		return nil
	}, "likes")
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return updated, nil
}

// Delete removes a comment. A missing comment is a KindNotFound failure.
func (s *CommentService) Delete(ctx context.Context, commentID string) (*Deleted, error) {
	const op = "comments.Delete"
	ctx, span := s.start(ctx, op, attribute.String("comment_id", commentID))
	defer span.End()

	if err := s.store.Comments.Delete(ctx, commentID); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return &Deleted{ID: commentID}, nil
}

func toggle(set []string, member string) []string {
	if i := slices.Index(set, member); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), member)
}

// dedupe keeps the first occurrence of each member, preserving order.
func dedupe(set []string) []string {
	out := make([]string, 0, len(set))
	seen := make(map[string]struct{}, len(set))
	for _, m := range set {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
