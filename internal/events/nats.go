package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultSubject carries cache invalidations between processes.
const DefaultSubject = "snapgram.cache.invalidate"

var tracer = otel.Tracer("github.com/lucidfort/snapgram/internal/events")

// Invalidation is the wire format of a broadcast.
type Invalidation struct {
	Origin string   `json:"origin"`
	Keys   []string `json:"keys"`
}

// ApplyFunc applies invalidated key prefixes received from a peer.
type ApplyFunc func(ctx context.Context, prefixes []string)

// Bridge publishes local invalidations on NATS and applies the ones published
// by other processes. Each bridge has a random origin so it can skip its own
// messages.
type Bridge struct {
	conn    *nats.Conn
	publish func(*nats.Msg) error
	subject string
	origin  string
	log     *slog.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithSubject overrides DefaultSubject.
func WithSubject(subject string) Option {
	return func(b *Bridge) {
		if subject != "" {
			b.subject = subject
		}
	}
}

// WithLogger sets the bridge logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.log = logger
		}
	}
}

// NewBridge creates a bridge over an established connection.
func NewBridge(nc *nats.Conn, opts ...Option) *Bridge {
	b := newBridge(nc.PublishMsg, opts...)
	b.conn = nc
	return b
}

func newBridge(publish func(*nats.Msg) error, opts ...Option) *Bridge {
	b := &Bridge{
		publish: publish,
		subject: DefaultSubject,
		origin:  uuid.NewString(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Origin identifies this process in published messages.
func (b *Bridge) Origin() string {
	return b.origin
}

// Broadcast publishes prefixes with the trace context of ctx.
func (b *Bridge) Broadcast(ctx context.Context, prefixes []string) error {
	if len(prefixes) == 0 {
		return nil
	}
	data, err := json.Marshal(Invalidation{Origin: b.origin, Keys: prefixes})
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}

	msg := &nats.Msg{Subject: b.subject, Data: data, Header: nats.Header{}}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	if err := b.publish(msg); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	b.log.DebugContext(ctx, "invalidation published", "subject", b.subject, "keys", len(prefixes))
	return nil
}

// Listen subscribes to the subject and hands every foreign invalidation to
// apply. It fails when the bridge was not created over a connection.
func (b *Bridge) Listen(apply ApplyFunc) error {
	if b.conn == nil {
		return fmt.Errorf("listen %s: no connection", b.subject)
	}
	sub, err := b.conn.Subscribe(b.subject, b.handler(apply))
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.subject, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sub = sub
	return nil
}

func (b *Bridge) handler(apply ApplyFunc) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(msg.Header))
		ctx, span := tracer.Start(ctx, "cache.invalidate.receive", trace.WithSpanKind(trace.SpanKindConsumer))
		defer span.End()

		var inv Invalidation
		if err := json.Unmarshal(msg.Data, &inv); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid payload")
			b.log.ErrorContext(ctx, "invalid invalidation payload", "subject", msg.Subject, "error", err)
			return
		}
		if inv.Origin == b.origin || len(inv.Keys) == 0 {
			return
		}

		b.log.DebugContext(ctx, "invalidation received", "origin", inv.Origin, "keys", len(inv.Keys))
		apply(ctx, inv.Keys)
	}
}

// Close stops listening. The connection stays open.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub == nil {
		return nil
	}
	err := b.sub.Unsubscribe()
	b.sub = nil
	return err
}
