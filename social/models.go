package social

import (
	"time"

	"github.com/uptrace/bun"
)

// NotificationType tags what triggered a notification.
type NotificationType string

const (
	NotifyComment NotificationType = "comment"
	NotifyLike    NotificationType = "like"
	NotifyFollow  NotificationType = "follow"
	NotifySave    NotificationType = "save"
)

// Document holds the fields every stored entity carries.
type Document struct {
	ID        string    `bun:"id,pk" json:"id"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	Version   int64     `bun:"version,notnull" json:"version"`
}

func (d *Document) GetID() string      { return d.ID }
func (d *Document) SetID(id string)    { d.ID = id }
func (d *Document) GetVersion() int64  { return d.Version }
func (d *Document) SetVersion(v int64) { d.Version = v }

type User struct {
	bun.BaseModel `bun:"table:users"`
	Document

	Name     string `bun:"name,notnull" json:"name"`
	Username string `bun:"username,notnull" json:"username"`
	Email    string `bun:"email,notnull" json:"email"`
	ImageURL string `bun:"image_url" json:"image_url"`
	Bio      string `bun:"bio" json:"bio"`
}

type Post struct {
	bun.BaseModel `bun:"table:posts"`
	Document

	CreatorID string    `bun:"creator_id,notnull" json:"creator_id"`
	Caption   string    `bun:"caption" json:"caption"`
	ImageURL  string    `bun:"image_url" json:"image_url"`
	ImageID   string    `bun:"image_id" json:"image_id"`
	Location  string    `bun:"location" json:"location"`
	Tags      []string  `bun:"tags" json:"tags"`
	Likes     []string  `bun:"likes" json:"likes"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// Save records that a user bookmarked a post.
type Save struct {
	bun.BaseModel `bun:"table:saves"`
	Document

	UserID string `bun:"user_id,notnull" json:"user_id"`
	PostID string `bun:"post_id,notnull" json:"post_id"`
}

type Comment struct {
	bun.BaseModel `bun:"table:comments"`
	Document

	PostID      string   `bun:"post_id,notnull" json:"post_id"`
	CommenterID string   `bun:"commenter_id,notnull" json:"commenter_id"`
	Quote       string   `bun:"quote,notnull" json:"quote"`
	Likes       []string `bun:"likes" json:"likes"`
}

// Notification tells TargetID that UserID acted, optionally on PostID.
type Notification struct {
	bun.BaseModel `bun:"table:notifications"`
	Document

	Type     NotificationType `bun:"type,notnull" json:"type"`
	TargetID string           `bun:"target_id,notnull" json:"target_id"`
	UserID   string           `bun:"user_id,notnull" json:"user_id"`
	PostID   string           `bun:"post_id,nullzero" json:"post_id,omitempty"`
}

// Follow exists while FollowerID follows FollowingID.
type Follow struct {
	bun.BaseModel `bun:"table:follows"`
	Document

	FollowerID  string `bun:"follower_id,notnull" json:"follower_id"`
	FollowingID string `bun:"following_id,notnull" json:"following_id"`
}

// Deleted is returned by operations whose only result is success.
type Deleted struct {
	ID string `json:"id"`
}

// Session identifies the signed-in user. It is passed explicitly to whatever
// needs it.
type Session struct {
	UserID string
}
