package social

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/lucidfort/snapgram/docstore"
	"go.opentelemetry.io/otel/attribute"
)

const defaultUsersLimit = 10

// NewUser is the profile document created alongside an account.
type NewUser struct {
	Name     string
	Username string
	Email    string
	ImageURL string
}

func (u NewUser) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Name, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&u.Username, validation.Required, validation.RuneLength(2, 50)),
		validation.Field(&u.Email, validation.Required, is.EmailFormat),
	)
}

// UpdateUser rewrites the editable profile fields.
type UpdateUser struct {
	UserID   string
	Name     string
	Bio      string
	ImageURL string
	Version  int64
}

func (u UpdateUser) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.UserID, validation.Required),
		validation.Field(&u.Name, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&u.Bio, validation.RuneLength(0, 500)),
	)
}

// UserService implements the user profile operations.
type UserService struct {
	base
}

// Create adds a user. Usernames are unique.
func (s *UserService) Create(ctx context.Context, in NewUser) (*User, error) {
	const op = "users.Create"
	ctx, span := s.start(ctx, op, attribute.String("username", in.Username))
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	u := &User{
		Name:     in.Name,
		Username: in.Username,
		Email:    in.Email,
		ImageURL: in.ImageURL,
	}
	u.CreatedAt = s.now()
	created, err := s.store.Users.Create(ctx, u)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return created, nil
}

// Get loads one user.
func (s *UserService) Get(ctx context.Context, userID string) (*User, error) {
	const op = "users.Get"
	ctx, span := s.start(ctx, op, attribute.String("user_id", userID))
	defer span.End()

	u, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return u, nil
}

// Current returns the profile of the signed-in user. An empty session is a
// permission failure.
func (s *UserService) Current(ctx context.Context, session Session) (*User, error) {
	const op = "users.Current"
	ctx, span := s.start(ctx, op, attribute.String("user_id", session.UserID))
	defer span.End()

	if session.UserID == "" {
		return nil, s.fail(ctx, span, op, docstore.ErrPermission)
	}
	u, err := s.store.Users.Get(ctx, session.UserID)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return u, nil
}

// List returns the newest users. A limit of zero or less uses the default.
func (s *UserService) List(ctx context.Context, limit int) (docstore.Page[User], error) {
	const op = "users.List"
	ctx, span := s.start(ctx, op, attribute.Int("limit", limit))
	defer span.End()

	if limit <= 0 {
		limit = defaultUsersLimit
	}
	page, err := s.store.Users.List(ctx, docstore.NewQuery().OrderDesc().Limit(limit))
	if err != nil {
		return docstore.Page[User]{}, s.fail(ctx, span, op, err)
	}
	return page, nil
}

// Update writes the profile fields of a user, checking its version when set.
func (s *UserService) Update(ctx context.Context, in UpdateUser) (*User, error) {
	const op = "users.Update"
	ctx, span := s.start(ctx, op, attribute.String("user_id", in.UserID))
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	updated, err := s.store.Users.Modify(ctx, in.UserID, in.Version, func(u *User) error {
		u.Name = in.Name
		u.Bio = in.Bio
		if in.ImageURL != "" {
			u.ImageURL = in.ImageURL
		}
		return nil
	}, "name", "bio", "image_url")
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return updated, nil
}
