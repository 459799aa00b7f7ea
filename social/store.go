package social

import (
	"context"

	"github.com/lucidfort/snapgram/docstore"
	"github.com/uptrace/bun"
)

// Collection names.
const (
	CollectionUsers         = "users"
	CollectionPosts         = "posts"
	CollectionSaves         = "saves"
	CollectionComments      = "comments"
	CollectionNotifications = "notifications"
	CollectionFollows       = "follows"
)

// Store groups the collections the social layer reads and writes.
type Store struct {
	Users         *docstore.Collection[User, *User]
	Posts         *docstore.Collection[Post, *Post]
	Saves         *docstore.Collection[Save, *Save]
	Comments      *docstore.Collection[Comment, *Comment]
	Notifications *docstore.Collection[Notification, *Notification]
	Follows       *docstore.Collection[Follow, *Follow]
}

// NewStore binds every collection to db. A nil ids uses ULIDs.
func NewStore(db *bun.DB, ids docstore.IDGenerator) *Store {
	if ids == nil {
		ids = docstore.NewULIDGenerator()
	}
	return &Store{
		Users:         docstore.NewCollection[User](db, CollectionUsers, ids),
		Posts:         docstore.NewCollection[Post](db, CollectionPosts, ids),
		Saves:         docstore.NewCollection[Save](db, CollectionSaves, ids),
		Comments:      docstore.NewCollection[Comment](db, CollectionComments, ids),
		Notifications: docstore.NewCollection[Notification](db, CollectionNotifications, ids),
		Follows:       docstore.NewCollection[Follow](db, CollectionFollows, ids),
	}
}

// Tables lists the schema in dependency order.
func Tables() []docstore.Table {
	const (
		refUsers = `REFERENCES "users" ("id") ON DELETE CASCADE`
		refPosts = `REFERENCES "posts" ("id") ON DELETE CASCADE`
	)
	return []docstore.Table{
		{
			Model: (*User)(nil),
			Indexes: []docstore.Index{
				{Name: "users_username_uidx", Columns: []string{"username"}, Unique: true},
			},
		},
		{
			Model:       (*Post)(nil),
			ForeignKeys: []string{`("creator_id") ` + refUsers},
			Indexes: []docstore.Index{
				{Name: "posts_creator_idx", Columns: []string{"creator_id"}},
			},
		},
		{
			Model:       (*Save)(nil),
			ForeignKeys: []string{`("user_id") ` + refUsers, `("post_id") ` + refPosts},
			Indexes: []docstore.Index{
				{Name: "saves_user_post_uidx", Columns: []string{"user_id", "post_id"}, Unique: true},
			},
		},
		{
			Model:       (*Comment)(nil),
			ForeignKeys: []string{`("post_id") ` + refPosts, `("commenter_id") ` + refUsers},
			Indexes: []docstore.Index{
				{Name: "comments_post_idx", Columns: []string{"post_id"}},
			},
		},
		{
			Model: (*Notification)(nil),
			ForeignKeys: []string{
				`("target_id") ` + refUsers,
				`("user_id") ` + refUsers,
				`("post_id") ` + refPosts,
			},
			Indexes: []docstore.Index{
				{Name: "notifications_target_idx", Columns: []string{"target_id"}},
			},
		},
		{
			Model:       (*Follow)(nil),
			ForeignKeys: []string{`("follower_id") ` + refUsers, `("following_id") ` + refUsers},
			Indexes: []docstore.Index{
				{Name: "follows_pair_uidx", Columns: []string{"follower_id", "following_id"}, Unique: true},
			},
		},
	}
}

// EnsureSchema creates the social tables and indexes when missing.
func EnsureSchema(ctx context.Context, db bun.IDB) error {
	return docstore.EnsureSchema(ctx, db, Tables()...)
}
