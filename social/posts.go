package social

import (
	"context"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/lucidfort/snapgram/docstore"
	"go.opentelemetry.io/otel/attribute"
)

const (
	recentPostsLimit   = 20
	infinitePageSize   = 9
	relatedScanLimit   = 100
	maxCaptionLength   = 2200
	maxTagCount        = 30
	maxLocationLength  = 200
	searchTermMaxRunes = 100
)

// NewPost is the input of PostService.Create. Image upload happens elsewhere;
// the post only references the stored file.
type NewPost struct {
	CreatorID string
	Caption   string
	ImageURL  string
	ImageID   string
	Location  string
	Tags      []string
}

func (p NewPost) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.CreatorID, validation.Required),
		validation.Field(&p.Caption, validation.RuneLength(0, maxCaptionLength)),
		validation.Field(&p.Location, validation.RuneLength(0, maxLocationLength)),
		validation.Field(&p.Tags, validation.Length(0, maxTagCount), validation.Each(validation.Required)),
	)
}

// UpdatePost rewrites the editable fields of a post.
type UpdatePost struct {
	PostID   string
	Caption  string
	ImageURL string
	ImageID  string
	Location string
	Tags     []string
	Version  int64
}

func (p UpdatePost) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PostID, validation.Required),
		validation.Field(&p.Caption, validation.RuneLength(0, maxCaptionLength)),
		validation.Field(&p.Location, validation.RuneLength(0, maxLocationLength)),
		validation.Field(&p.Tags, validation.Length(0, maxTagCount), validation.Each(validation.Required)),
	)
}

// LikePost replaces the liker set of a post on behalf of UserID. TargetID is
// the post creator and receives a notification when UserID is in Likes.
type LikePost struct {
	PostID   string
	UserID   string
	TargetID string
	Likes    []string
	Version  int64
}

func (l LikePost) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.PostID, validation.Required),
		validation.Field(&l.UserID, validation.Required),
		validation.Field(&l.Likes, validation.Each(validation.Required)),
	)
}

// SavePost bookmarks PostID for UserID and notifies TargetID, the creator.
type SavePost struct {
	PostID   string
	UserID   string
	TargetID string
}

func (s SavePost) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.PostID, validation.Required),
		validation.Field(&s.UserID, validation.Required),
	)
}

// PostService implements the post operations.
type PostService struct {
	base
	notify *sideEffects
}

// Create stores a new post owned by its creator.
func (s *PostService) Create(ctx context.Context, in NewPost) (*Post, error) {
	const op = "posts.Create"
	ctx, span := s.start(ctx, op, attribute.String("creator_id", in.CreatorID))
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	now := s.now()
	p := &Post{
		CreatorID: in.CreatorID,
		Caption:   in.Caption,
		ImageURL:  in.ImageURL,
		ImageID:   in.ImageID,
		Location:  in.Location,
		Tags:      dedupe(in.Tags),
		Likes:     []string{},
		UpdatedAt: now,
	}
	p.CreatedAt = now
	created, err := s.store.Posts.Create(ctx, p)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return created, nil
}

// Get loads one post.
func (s *PostService) Get(ctx context.Context, postID string) (*Post, error) {
	const op = "posts.Get"
	ctx, span := s.start(ctx, op, attribute.String("post_id", postID))
	defer span.End()

	p, err := s.store.Posts.Get(ctx, postID)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return p, nil
}

// Recent returns the newest posts.
func (s *PostService) Recent(ctx context.Context) (docstore.Page[Post], error) {
	const op = "posts.Recent"
	ctx, span := s.start(ctx, op)
	defer span.End()

	page, err := s.store.Posts.List(ctx, docstore.NewQuery().OrderDesc().Limit(recentPostsLimit))
	if err != nil {
		return docstore.Page[Post]{}, s.fail(ctx, span, op, err)
	}
	return page, nil
}

// Infinite returns one page of the feed, newest first. cursor is the ID of the
// last post of the previous page, empty for the first page.
func (s *PostService) Infinite(ctx context.Context, cursor string) (docstore.Page[Post], error) {
	const op = "posts.Infinite"
	ctx, span := s.start(ctx, op, attribute.String("cursor", cursor))
	defer span.End()

	page, err := s.store.Posts.List(ctx, docstore.NewQuery().
		OrderDesc().
		CursorAfter(cursor).
		Limit(infinitePageSize))
	if err != nil {
		return docstore.Page[Post]{}, s.fail(ctx, span, op, err)
	}
	return page, nil
}

// ByUser returns the posts of creatorID, newest first.
func (s *PostService) ByUser(ctx context.Context, creatorID string) (docstore.Page[Post], error) {
	const op = "posts.ByUser"
	ctx, span := s.start(ctx, op, attribute.String("creator_id", creatorID))
	defer span.End()

	if err := validation.Validate(creatorID, validation.Required); err != nil {
		return docstore.Page[Post]{}, s.fail(ctx, span, op, err)
	}

	page, err := s.store.Posts.List(ctx, docstore.NewQuery().
		Equal("creator_id", creatorID).
		OrderDesc())
	if err != nil {
		return docstore.Page[Post]{}, s.fail(ctx, span, op, err)
	}
	return page, nil
}

// Related returns recent posts other than postID sharing at least one tag.
func (s *PostService) Related(ctx context.Context, postID string, tags []string) ([]Post, error) {
	const op = "posts.Related"
	ctx, span := s.start(ctx, op, attribute.String("post_id", postID))
	defer span.End()

	if err := validation.Validate(postID, validation.Required); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	if len(tags) == 0 {
		return []Post{}, nil
	}

	page, err := s.store.Posts.List(ctx, docstore.NewQuery().
		NotEqual(docstore.IDField, postID).
		OrderDesc().
		Limit(relatedScanLimit))
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	related := make([]Post, 0, len(page.Documents))
	for _, p := range page.Documents {
		if slices.ContainsFunc(p.Tags, func(t string) bool { return slices.Contains(tags, t) }) {
			related = append(related, p)
		}
	}
	return related, nil
}

// Search returns posts whose caption contains term, ignoring case.
func (s *PostService) Search(ctx context.Context, term string) (docstore.Page[Post], error) {
	const op = "posts.Search"
	ctx, span := s.start(ctx, op, attribute.String("term", term))
	defer span.End()

	if err := validation.Validate(term, validation.Required, validation.RuneLength(1, searchTermMaxRunes)); err != nil {
		return docstore.Page[Post]{}, s.fail(ctx, span, op, err)
	}

	page, err := s.store.Posts.List(ctx, docstore.NewQuery().
		Contains("caption", term).
		OrderDesc())
	if err != nil {
		return docstore.Page[Post]{}, s.fail(ctx, span, op, err)
	}
	return page, nil
}

// Update writes the editable fields of a post.
func (s *PostService) Update(ctx context.Context, in UpdatePost) (*Post, error) {
	const op = "posts.Update"
	ctx, span := s.start(ctx, op, attribute.String("post_id", in.PostID))
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	now := s.now()
	updated, err := s.store.Posts.Modify(ctx, in.PostID, in.Version, func(p *Post) error {
		p.Caption = in.Caption
		p.ImageURL = in.ImageURL
		p.ImageID = in.ImageID
		p.Location = in.Location
		p.Tags = dedupe(in.Tags)
		p.UpdatedAt = now
		return nil
	}, "caption", "image_url", "image_id", "location", "tags", "updated_at")
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return updated, nil
}

// Delete removes a post together with its comments, saves and notifications.
func (s *PostService) Delete(ctx context.Context, postID string) (*Deleted, error) {
	const op = "posts.Delete"
	ctx, span := s.start(ctx, op, attribute.String("post_id", postID))
	defer span.End()

	if err := s.store.Posts.Delete(ctx, postID); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return &Deleted{ID: postID}, nil
}

// Like replaces the liker set and notifies the creator when the actor likes.
func (s *PostService) Like(ctx context.Context, in LikePost) (*Post, error) {
	const op = "posts.Like"
	ctx, span := s.start(ctx, op,
		attribute.String("post_id", in.PostID),
		attribute.String("user_id", in.UserID))
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	likes := dedupe(in.Likes)
	var creatorID string
	updated, err := s.store.Posts.Modify(ctx, in.PostID, in.Version, func(p *Post) error {
		p.Likes = likes
		creatorID = p.CreatorID
		return nil
	}, "likes")
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	if slices.Contains(likes, in.UserID) {
		s.notify.notify(ctx, NewNotification{
			Type:     NotifyLike,
			TargetID: firstNonEmpty(in.TargetID, creatorID),
			UserID:   in.UserID,
			PostID:   in.PostID,
		})
	}
	return updated, nil
}

// ToggleLike adds or removes userID from the liker set, retrying against
// concurrent writers.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (*Post, error) {
	const op = "posts.ToggleLike"
	ctx, span := s.start(ctx, op,
		attribute.String("post_id", postID),
		attribute.String("user_id", userID))
	defer span.End()

	if err := validation.Validate(userID, validation.Required); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	var liked bool
	updated, err := s.store.Posts.Modify(ctx, postID, 0, func(p *Post) error {
		p.Likes = toggle(p.Likes, userID)
		liked = slices.Contains(p.Likes, userID)
		return nil
	}, "likes")
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	if liked {
		s.notify.notify(ctx, NewNotification{
			Type:     NotifyLike,
			TargetID: updated.CreatorID,
			UserID:   userID,
			PostID:   postID,
		})
	}
	return updated, nil
}

// Save bookmarks a post. Saving the same post twice is a validation failure.
func (s *PostService) Save(ctx context.Context, in SavePost) (*Save, error) {
	const op = "posts.Save"
	ctx, span := s.start(ctx, op,
		attribute.String("post_id", in.PostID),
		attribute.String("user_id", in.UserID))
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	save := &Save{UserID: in.UserID, PostID: in.PostID}
	save.CreatedAt = s.now()
	created, err := s.store.Saves.Create(ctx, save)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	if in.TargetID != "" {
		s.notify.notify(ctx, NewNotification{
			Type:     NotifySave,
			TargetID: in.TargetID,
			UserID:   in.UserID,
			PostID:   in.PostID,
		})
	}
	return created, nil
}

// Saved returns the saves of userID, newest first.
func (s *PostService) Saved(ctx context.Context, userID string) (docstore.Page[Save], error) {
	const op = "posts.Saved"
	ctx, span := s.start(ctx, op, attribute.String("user_id", userID))
	defer span.End()

	page, err := s.store.Saves.List(ctx, docstore.NewQuery().
		Equal("user_id", userID).
		OrderDesc())
	if err != nil {
		return docstore.Page[Save]{}, s.fail(ctx, span, op, err)
	}
	return page, nil
}

// DeleteSaved removes a save record by its own ID.
func (s *PostService) DeleteSaved(ctx context.Context, saveID string) (*Deleted, error) {
	const op = "posts.DeleteSaved"
	ctx, span := s.start(ctx, op, attribute.String("save_id", saveID))
	defer span.End()

	if err := s.store.Saves.Delete(ctx, saveID); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return &Deleted{ID: saveID}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
