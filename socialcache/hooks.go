package socialcache

import (
	"context"

	"github.com/lucidfort/snapgram/docstore"
	"github.com/lucidfort/snapgram/query"
	"github.com/lucidfort/snapgram/social"
)

// Hooks exposes every social read as a cached query and every social write as
// a mutation that invalidates the reads it affects.
type Hooks struct {
	client *query.Client
	svc    *social.Services
}

// NewHooks binds the services to a query client.
func NewHooks(client *query.Client, svc *social.Services) *Hooks {
	return &Hooks{client: client, svc: svc}
}

// Client returns the query client backing h.
func (h *Hooks) Client() *query.Client {
	return h.client
}

func read[T any](ctx context.Context, h *Hooks, key query.Key, enabled func() bool, fetch func(context.Context) (T, error)) (T, error) {
	return query.Fetch(ctx, h.client, query.Options[T]{
		Key:     key,
		Enabled: enabled,
		Fetch:   fetch,
	})
}

func mutate[In, Out any](ctx context.Context, h *Hooks, name MutationName, fn func(context.Context, In) (Out, error), affected func(In, Out) Affected, in In) (Out, error) {
	m := query.Mutation[In, Out]{
		Name: string(name),
		Fn:   fn,
		Invalidates: func(in In, out Out) []query.Key {
			return KeysFor(name, affected(in, out))
		},
	}
	return m.Execute(ctx, h.client, in)
}

// Queries

// CurrentUser reads the signed-in user of session, keyed by the session user.
func (h *Hooks) CurrentUser(ctx context.Context, session social.Session) (*social.User, error) {
	return read(ctx, h, query.NewKey(KeyCurrentUser, session.UserID), nil,
		func(ctx context.Context) (*social.User, error) {
			return h.svc.Users.Current(ctx, session)
		})
}

// Users lists up to limit users.
func (h *Hooks) Users(ctx context.Context, limit int) (docstore.Page[social.User], error) {
	return read(ctx, h, query.NewKey(KeyUsers, limit), nil,
		func(ctx context.Context) (docstore.Page[social.User], error) {
			return h.svc.Users.List(ctx, limit)
		})
}

// UserByID reads one user. It is disabled until userID is set.
func (h *Hooks) UserByID(ctx context.Context, userID string) (*social.User, error) {
	return read(ctx, h, query.NewKey(KeyUserByID, userID), query.NonEmpty(userID),
		func(ctx context.Context) (*social.User, error) {
			return h.svc.Users.Get(ctx, userID)
		})
}

// RecentPosts reads the newest posts.
func (h *Hooks) RecentPosts(ctx context.Context) (docstore.Page[social.Post], error) {
	return read(ctx, h, query.NewKey(KeyRecentPosts), nil, h.svc.Posts.Recent)
}

// InfinitePosts returns the paginated feed. The caller closes it when done.
func (h *Hooks) InfinitePosts() *query.Infinite[docstore.Page[social.Post]] {
	return query.NewInfinite(h.client, query.InfiniteOptions[docstore.Page[social.Post]]{
		Key:   query.NewKey(KeyInfinitePosts),
		Fetch: h.svc.Posts.Infinite,
		NextCursor: func(last docstore.Page[social.Post]) (string, bool) {
			return query.LastItemCursor(last.Documents, func(p social.Post) string { return p.ID })
		},
	})
}

// PostByID reads one post. It is disabled until postID is set.
func (h *Hooks) PostByID(ctx context.Context, postID string) (*social.Post, error) {
	return read(ctx, h, query.NewKey(KeyPostByID, postID), query.NonEmpty(postID),
		func(ctx context.Context) (*social.Post, error) {
			return h.svc.Posts.Get(ctx, postID)
		})
}

// UserPosts lists the posts created by userID.
func (h *Hooks) UserPosts(ctx context.Context, userID string) (docstore.Page[social.Post], error) {
	return read(ctx, h, query.NewKey(KeyUserPosts, userID), query.NonEmpty(userID),
		func(ctx context.Context) (docstore.Page[social.Post], error) {
			return h.svc.Posts.ByUser(ctx, userID)
		})
}

// RelatedPosts lists other posts sharing one of tags with postID.
func (h *Hooks) RelatedPosts(ctx context.Context, postID string, tags []string) ([]social.Post, error) {
	return read(ctx, h, query.NewKey(KeyRelatedPosts, postID, tags), query.NonEmpty(postID),
		func(ctx context.Context) ([]social.Post, error) {
			return h.svc.Posts.Related(ctx, postID, tags)
		})
}

// SearchPosts lists posts whose caption contains term. An empty term is disabled.
func (h *Hooks) SearchPosts(ctx context.Context, term string) (docstore.Page[social.Post], error) {
	return read(ctx, h, query.NewKey(KeySearchPosts, term), query.NonEmpty(term),
		func(ctx context.Context) (docstore.Page[social.Post], error) {
			return h.svc.Posts.Search(ctx, term)
		})
}

// SavedPosts lists the saves of userID.
func (h *Hooks) SavedPosts(ctx context.Context, userID string) (docstore.Page[social.Save], error) {
	return read(ctx, h, query.NewKey(KeySavedPosts, userID), query.NonEmpty(userID),
		func(ctx context.Context) (docstore.Page[social.Save], error) {
			return h.svc.Posts.Saved(ctx, userID)
		})
}

// Comments lists the comments of postID in insertion order.
func (h *Hooks) Comments(ctx context.Context, postID string) (docstore.Page[social.Comment], error) {
	return read(ctx, h, query.NewKey(KeyComments, postID), query.NonEmpty(postID),
		func(ctx context.Context) (docstore.Page[social.Comment], error) {
			return h.svc.Comments.List(ctx, postID)
		})
}

// Followers lists who follows userID.
func (h *Hooks) Followers(ctx context.Context, userID string) (docstore.Page[social.Follow], error) {
	return read(ctx, h, query.NewKey(KeyUserFollowers, userID), query.NonEmpty(userID),
		func(ctx context.Context) (docstore.Page[social.Follow], error) {
			return h.svc.Follows.Followers(ctx, userID)
		})
}

// Followings lists who userID follows.
func (h *Hooks) Followings(ctx context.Context, userID string) (docstore.Page[social.Follow], error) {
	return read(ctx, h, query.NewKey(KeyUserFollowings, userID), query.NonEmpty(userID),
		func(ctx context.Context) (docstore.Page[social.Follow], error) {
			return h.svc.Follows.Followings(ctx, userID)
		})
}

// IsFollowing reports whether the pair exists. It is disabled until both IDs are set.
func (h *Hooks) IsFollowing(ctx context.Context, p social.FollowPair) (bool, error) {
	return read(ctx, h, query.NewKey(KeyIsFollowing, p.FollowerID, p.FollowingID),
		query.NonEmpty(p.FollowerID, p.FollowingID),
		func(ctx context.Context) (bool, error) {
			return h.svc.Follows.IsFollowing(ctx, p)
		})
}

// Notifications lists the notifications addressed to userID.
func (h *Hooks) Notifications(ctx context.Context, userID string) (docstore.Page[social.Notification], error) {
	return read(ctx, h, query.NewKey(KeyNotifications, userID), query.NonEmpty(userID),
		func(ctx context.Context) (docstore.Page[social.Notification], error) {
			return h.svc.Notifications.List(ctx, userID)
		})
}

// Mutations

// CreateUser creates a user and refreshes the user list.
func (h *Hooks) CreateUser(ctx context.Context, in social.NewUser) (*social.User, error) {
	return mutate(ctx, h, CreateUser, h.svc.Users.Create,
		func(_ social.NewUser, out *social.User) Affected { return Affected{UserID: out.ID} }, in)
}

// UpdateUser writes a user profile.
func (h *Hooks) UpdateUser(ctx context.Context, in social.UpdateUser) (*social.User, error) {
	return mutate(ctx, h, UpdateUser, h.svc.Users.Update,
		func(in social.UpdateUser, _ *social.User) Affected { return Affected{UserID: in.UserID} }, in)
}

// CreatePost creates a post and resets the feeds that show it.
func (h *Hooks) CreatePost(ctx context.Context, in social.NewPost) (*social.Post, error) {
	return mutate(ctx, h, CreatePost, h.svc.Posts.Create,
		func(in social.NewPost, out *social.Post) Affected {
			return Affected{PostID: out.ID, UserID: in.CreatorID}
		}, in)
}

// UpdatePost writes the editable fields of a post.
func (h *Hooks) UpdatePost(ctx context.Context, in social.UpdatePost) (*social.Post, error) {
	return mutate(ctx, h, UpdatePost, h.svc.Posts.Update,
		func(in social.UpdatePost, _ *social.Post) Affected { return Affected{PostID: in.PostID} }, in)
}

// DeletePost removes a post together with its comments, saves and notifications.
func (h *Hooks) DeletePost(ctx context.Context, postID string) (*social.Deleted, error) {
	return mutate(ctx, h, DeletePost, h.svc.Posts.Delete,
		func(postID string, _ *social.Deleted) Affected { return Affected{PostID: postID} }, postID)
}

// LikePost replaces the liker set of a post.
func (h *Hooks) LikePost(ctx context.Context, in social.LikePost) (*social.Post, error) {
	return mutate(ctx, h, LikePost, h.svc.Posts.Like,
		func(in social.LikePost, _ *social.Post) Affected { return Affected{PostID: in.PostID} }, in)
}

// TogglePostLike adds or removes userID from the likes of postID.
func (h *Hooks) TogglePostLike(ctx context.Context, postID, userID string) (*social.Post, error) {
	return mutate(ctx, h, TogglePostLike,
		func(ctx context.Context, postID string) (*social.Post, error) {
			return h.svc.Posts.ToggleLike(ctx, postID, userID)
		},
		func(postID string, _ *social.Post) Affected { return Affected{PostID: postID} }, postID)
}

// SavePost bookmarks a post for a user.
func (h *Hooks) SavePost(ctx context.Context, in social.SavePost) (*social.Save, error) {
	return mutate(ctx, h, SavePost, h.svc.Posts.Save,
		func(in social.SavePost, _ *social.Save) Affected { return Affected{PostID: in.PostID} }, in)
}

// DeleteSavedPost removes a save record. The saved post is unknown here, so
// every cached post is invalidated.
func (h *Hooks) DeleteSavedPost(ctx context.Context, saveID string) (*social.Deleted, error) {
	return mutate(ctx, h, DeleteSavedPost, h.svc.Posts.DeleteSaved,
		func(string, *social.Deleted) Affected { return Affected{} }, saveID)
}

// CreateComment adds a comment and notifies the post creator.
func (h *Hooks) CreateComment(ctx context.Context, in social.NewComment) (*social.Comment, error) {
	return mutate(ctx, h, CreateComment, h.svc.Comments.Create,
		func(in social.NewComment, _ *social.Comment) Affected { return Affected{PostID: in.PostID} }, in)
}

// LikeComment replaces the liker set of a comment.
func (h *Hooks) LikeComment(ctx context.Context, in social.LikeComment) (*social.Comment, error) {
	return mutate(ctx, h, LikeComment, h.svc.Comments.Like,
		func(_ social.LikeComment, out *social.Comment) Affected { return Affected{PostID: out.PostID} }, in)
}

// ToggleCommentLike adds or removes userID from the likes of commentID.
func (h *Hooks) ToggleCommentLike(ctx context.Context, commentID, userID string) (*social.Comment, error) {
	return mutate(ctx, h, ToggleCommentLike,
		func(ctx context.Context, commentID string) (*social.Comment, error) {
			return h.svc.Comments.ToggleLike(ctx, commentID, userID)
		},
		func(_ string, out *social.Comment) Affected { return Affected{PostID: out.PostID} }, commentID)
}

// DeleteCommentInput names a comment and the post it belongs to.
type DeleteCommentInput struct {
	PostID    string
	CommentID string
}

// DeleteComment removes a comment and refreshes the comments of its post.
func (h *Hooks) DeleteComment(ctx context.Context, in DeleteCommentInput) (*social.Deleted, error) {
	return mutate(ctx, h, DeleteComment,
		func(ctx context.Context, in DeleteCommentInput) (*social.Deleted, error) {
			return h.svc.Comments.Delete(ctx, in.CommentID)
		},
		func(in DeleteCommentInput, _ *social.Deleted) Affected { return Affected{PostID: in.PostID} }, in)
}

// Follow makes FollowerID follow FollowingID.
func (h *Hooks) Follow(ctx context.Context, p social.FollowPair) (*social.Follow, error) {
	return mutate(ctx, h, FollowUser, h.svc.Follows.Follow,
		func(p social.FollowPair, _ *social.Follow) Affected { return Affected{UserID: p.FollowingID} }, p)
}

// Unfollow removes the follow between the pair.
func (h *Hooks) Unfollow(ctx context.Context, p social.FollowPair) (*social.Deleted, error) {
	return mutate(ctx, h, UnfollowUser, h.svc.Follows.Unfollow,
		func(p social.FollowPair, _ *social.Deleted) Affected { return Affected{UserID: p.FollowingID} }, p)
}
