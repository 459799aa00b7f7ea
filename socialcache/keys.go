package socialcache

import "github.com/lucidfort/snapgram/query"

// Query key names.
const (
	KeyCurrentUser    = "getCurrentUser"
	KeyUsers          = "getUsers"
	KeyUserByID       = "getUserById"
	KeyRecentPosts    = "getRecentPosts"
	KeyInfinitePosts  = "getInfinitePosts"
	KeyPostByID       = "getPostById"
	KeyUserPosts      = "getUserPosts"
	KeyRelatedPosts   = "getRelatedPosts"
	KeySearchPosts    = "searchPosts"
	KeySavedPosts     = "getSavedPosts"
	KeyComments       = "getComments"
	KeyUserFollowers  = "getUserFollowers"
	KeyUserFollowings = "getUserFollowings"
	KeyIsFollowing    = "isFollowingUser"
	KeyNotifications  = "getNotifications"
)

// MutationName identifies a mutation in the invalidation table.
type MutationName string

const (
	CreateUser        MutationName = "createUser"
	UpdateUser        MutationName = "updateUser"
	CreatePost        MutationName = "createPost"
	UpdatePost        MutationName = "updatePost"
	DeletePost        MutationName = "deletePost"
	LikePost          MutationName = "likePost"
	TogglePostLike    MutationName = "togglePostLike"
	SavePost          MutationName = "savePost"
	DeleteSavedPost   MutationName = "deleteSavedPost"
	CreateComment     MutationName = "createComment"
	LikeComment       MutationName = "likeComment"
	ToggleCommentLike MutationName = "toggleCommentLike"
	DeleteComment     MutationName = "deleteComment"
	FollowUser        MutationName = "followUser"
	UnfollowUser      MutationName = "unfollowUser"
)

// Affected carries the identifiers a mutation touched. Empty fields widen the
// invalidation to every key of that query.
type Affected struct {
	// PostID is the post written, or the post owning the written comment.
	PostID string
	// UserID is the user written, or the creator of a new post.
	UserID string
}

// KeySet maps the identifiers of a run to the keys it makes stale.
type KeySet func(Affected) []query.Key

// Invalidations is the dependency graph between mutations and queries.
var Invalidations = map[MutationName]KeySet{
	CreateUser: func(a Affected) []query.Key {
		return []query.Key{query.NewKey(KeyUsers)}
	},
	UpdateUser: func(a Affected) []query.Key {
		return []query.Key{
			query.NewKey(KeyCurrentUser),
			scoped(KeyUserByID, a.UserID),
		}
	},
	CreatePost: func(a Affected) []query.Key {
		return []query.Key{
			query.NewKey(KeyRecentPosts),
			query.NewKey(KeyInfinitePosts),
			scoped(KeyUserPosts, a.UserID),
		}
	},
	UpdatePost: func(a Affected) []query.Key {
		return []query.Key{scoped(KeyPostByID, a.PostID)}
	},
	// The post's comments, saves and notifications are deleted with it, and
	// its creator is not known from the post ID.
	DeletePost: func(a Affected) []query.Key {
		return []query.Key{
			query.NewKey(KeyRecentPosts),
			query.NewKey(KeyInfinitePosts),
			scoped(KeyPostByID, a.PostID),
			scoped(KeyComments, a.PostID),
			query.NewKey(KeyUserPosts),
			query.NewKey(KeyRelatedPosts),
			query.NewKey(KeySearchPosts),
			query.NewKey(KeySavedPosts),
			query.NewKey(KeyCurrentUser),
			query.NewKey(KeyNotifications),
		}
	},
	LikePost:        postEngagement,
	TogglePostLike:  postEngagement,
	SavePost:        postEngagement,
	DeleteSavedPost: postEngagement,
	CreateComment: func(a Affected) []query.Key {
		return []query.Key{
			scoped(KeyComments, a.PostID),
			scoped(KeyPostByID, a.PostID),
			query.NewKey(KeyNotifications),
		}
	},
	LikeComment:       commentOfPost,
	ToggleCommentLike: commentOfPost,
	DeleteComment:     commentOfPost,
	FollowUser:        followGraph,
	UnfollowUser:      followGraph,
}

func postEngagement(a Affected) []query.Key {
	return []query.Key{
		scoped(KeyPostByID, a.PostID),
		query.NewKey(KeyRecentPosts),
		query.NewKey(KeyInfinitePosts),
		query.NewKey(KeyCurrentUser),
		query.NewKey(KeySavedPosts),
		query.NewKey(KeyNotifications),
	}
}

func commentOfPost(a Affected) []query.Key {
	return []query.Key{
		scoped(KeyPostByID, a.PostID),
		scoped(KeyComments, a.PostID),
	}
}

func followGraph(Affected) []query.Key {
	return []query.Key{
		query.NewKey(KeyUserFollowers),
		query.NewKey(KeyUserFollowings),
		query.NewKey(KeyIsFollowing),
		query.NewKey(KeyNotifications),
	}
}

// scoped narrows name to id, or addresses every key of name when id is empty.
func scoped(name, id string) query.Key {
	if id == "" {
		return query.NewKey(name)
	}
	return query.NewKey(name, id)
}

// KeysFor returns the keys made stale by a successful run of m.
func KeysFor(m MutationName, a Affected) []query.Key {
	set, ok := Invalidations[m]
	if !ok {
		return nil
	}
	return set(a)
}
