package social

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/lucidfort/snapgram/social")

// Notifier creates notifications on behalf of other operations.
type Notifier interface {
	Create(ctx context.Context, in NewNotification) (*Notification, error)
}

// Services bundles the domain operations of every entity.
type Services struct {
	Users         *UserService
	Posts         *PostService
	Comments      *CommentService
	Follows       *FollowService
	Notifications *NotificationService
}

// Option configures Services.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	now      func() time.Time
	notifier Notifier
}

// WithLogger sets the logger used for operation failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithNotifier replaces the notifier used for side-effect notifications.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// NewServices builds the domain operations over store.
func NewServices(store *Store, opts ...Option) *Services {
	o := options{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	b := base{store: store, log: o.logger, now: func() time.Time { return o.now().UTC() }}
	notifications := &NotificationService{base: b}

	var n Notifier = notifications
	if o.notifier != nil {
		n = o.notifier
	}
	sidefx := &sideEffects{notifier: n, log: o.logger}

	return &Services{
		Users:         &UserService{base: b},
		Posts:         &PostService{base: b, notify: sidefx},
		Comments:      &CommentService{base: b, notify: sidefx},
		Follows:       &FollowService{base: b, notify: sidefx},
		Notifications: notifications,
	}
}

type base struct {
	store *Store
	log   *slog.Logger
	now   func() time.Time
}

func (b base) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, op, trace.WithAttributes(attrs...))
}

// fail logs err, records it on span and returns it as an *Error.
func (b base) fail(ctx context.Context, span trace.Span, op string, err error) error {
	e := newError(op, err)
	span.RecordError(e)
	span.SetStatus(codes.Error, e.Kind.String())
	b.log.ErrorContext(ctx, "operation failed", "op", op, "kind", e.Kind.String(), "error", err)
	return e
}

// sideEffects runs notifications that must never fail the operation that
// triggered them.
type sideEffects struct {
	notifier Notifier
	log      *slog.Logger
}

func (s *sideEffects) notify(ctx context.Context, in NewNotification) {
	if in.TargetID == in.UserID {
		return
	}
	ctx = context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			s.log.WarnContext(ctx, "notification dropped",
				"type", string(in.Type), "target_id", in.TargetID, "panic", r)
		}
	}()

	if _, err := s.notifier.Create(ctx, in); err != nil {
		s.log.WarnContext(ctx, "notification dropped",
			"type", string(in.Type), "target_id", in.TargetID, "error", err)
	}
}
