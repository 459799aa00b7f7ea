package social

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/lucidfort/snapgram/docstore"
	"go.opentelemetry.io/otel/attribute"
)

// NewNotification is the input of NotificationService.Create.
type NewNotification struct {
	Type     NotificationType
	TargetID string
	UserID   string
	PostID   string
}

func (n NewNotification) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Type, validation.Required,
			validation.In(NotifyComment, NotifyLike, NotifyFollow, NotifySave)),
		validation.Field(&n.TargetID, validation.Required),
		validation.Field(&n.UserID, validation.Required),
	)
}

// NotificationService reads and writes notifications.
type NotificationService struct {
	base
}

// Create stores a notification. A notification whose actor is its target is
// refused with ErrSelfNotification.
func (s *NotificationService) Create(ctx context.Context, in NewNotification) (*Notification, error) {
	const op = "notifications.Create"
	ctx, span := s.start(ctx, op, attribute.String("target_id", in.TargetID))
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	if in.TargetID == in.UserID {
		return nil, s.fail(ctx, span, op, ErrSelfNotification)
	}

	n := &Notification{
		Type:     in.Type,
		TargetID: in.TargetID,
		UserID:   in.UserID,
		PostID:   in.PostID,
	}
	n.CreatedAt = s.now()
	created, err := s.store.Notifications.Create(ctx, n)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}
	return created, nil
}

// List returns the notifications received by targetID, newest first.
func (s *NotificationService) List(ctx context.Context, targetID string) (docstore.Page[Notification], error) {
	const op = "notifications.List"
	ctx, span := s.start(ctx, op, attribute.String("target_id", targetID))
	defer span.End()

	if err := validation.Validate(targetID, validation.Required); err != nil {
		return docstore.Page[Notification]{}, s.fail(ctx, span, op, err)
	}

	page, err := s.store.Notifications.List(ctx, docstore.NewQuery().
		Equal("target_id", targetID).
		OrderDesc())
	if err != nil {
		return docstore.Page[Notification]{}, s.fail(ctx, span, op, err)
	}
	return page, nil
}
