package social

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/lucidfort/snapgram/docstore"
	"go.opentelemetry.io/otel/attribute"
)

// FollowPair names both ends of a follow relation.
type FollowPair struct {
	FollowerID  string
	FollowingID string
}

func (p FollowPair) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FollowerID, validation.Required),
		validation.Field(&p.FollowingID, validation.Required,
			validation.NotIn(p.FollowerID).Error("cannot follow yourself")),
	)
}

func (p FollowPair) query() *docstore.Query {
	return docstore.NewQuery().
		Equal("follower_id", p.FollowerID).
		Equal("following_id", p.FollowingID)
}

// FollowService implements the follow relation.
type FollowService struct {
	base
	notify *sideEffects
}

// Follow creates the relation and notifies the followed user. Following twice
// is a validation failure.
func (s *FollowService) Follow(ctx context.Context, p FollowPair) (*Follow, error) {
	const op = "follows.Follow"
	ctx, span := s.start(ctx, op,
		attribute.String("follower_id", p.FollowerID),
		attribute.String("following_id", p.FollowingID))
	defer span.End()

	if err := p.Validate(); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	f := &Follow{FollowerID: p.FollowerID, FollowingID: p.FollowingID}
	f.CreatedAt = s.now()
	created, err := s.store.Follows.Create(ctx, f)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	s.notify.notify(ctx, NewNotification{
		Type:     NotifyFollow,
		TargetID: p.FollowingID,
		UserID:   p.FollowerID,
	})
	return created, nil
}

// Unfollow deletes the relation. A missing relation is KindNotFound.
func (s *FollowService) Unfollow(ctx context.Context, p FollowPair) (*Deleted, error) {
	const op = "follows.Unfollow"
	ctx, span := s.start(ctx, op,
		attribute.String("follower_id", p.FollowerID),
		attribute.String("following_id", p.FollowingID))
	defer span.End()

	if err := p.Validate(); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	page, err := s.store.Follows.List(ctx, p.query().Limit(1))
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	if len(page.Documents) == 0 {
		return nil, s.fail(ctx, span, op, docstore.ErrNotFound)
	}

	id := page.Documents[0].ID
	if err := s.store.Follows.Delete(ctx, id); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return &Deleted{ID: id}, nil
}

// IsFollowing reports whether the relation exists.
func (s *FollowService) IsFollowing(ctx context.Context, p FollowPair) (bool, error) {
	const op = "follows.IsFollowing"
	ctx, span := s.start(ctx, op,
		attribute.String("follower_id", p.FollowerID),
		attribute.String("following_id", p.FollowingID))
	defer span.End()

	if err := p.Validate(); err != nil {
		return false, s.fail(ctx, span, op, err)
	}

	ok, err := s.store.Follows.Exists(ctx, p.query())
	if err != nil {
		return false, s.fail(ctx, span, op, err)
	}
	return ok, nil
}

// Followers returns the relations pointing at userID.
func (s *FollowService) Followers(ctx context.Context, userID string) (docstore.Page[Follow], error) {
	return s.list(ctx, "follows.Followers", "following_id", userID)
}

// Followings returns the relations started by userID.
func (s *FollowService) Followings(ctx context.Context, userID string) (docstore.Page[Follow], error) {
	return s.list(ctx, "follows.Followings", "follower_id", userID)
}

func (s *FollowService) list(ctx context.Context, op, field, userID string) (docstore.Page[Follow], error) {
	ctx, span := s.start(ctx, op, attribute.String("user_id", userID))
	defer span.End()

	if err := validation.Validate(userID, validation.Required); err != nil {
		return docstore.Page[Follow]{}, s.fail(ctx, span, op, err)
	}

	page, err := s.store.Follows.List(ctx, docstore.NewQuery().
		Equal(field, userID).
		OrderDesc())
	if err != nil {
		return docstore.Page[Follow]{}, s.fail(ctx, span, op, err)
	}
	return page, nil
}
