package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/uptrace/bun"

	"github.com/lucidfort/snapgram/cache"
	"github.com/lucidfort/snapgram/config"
	"github.com/lucidfort/snapgram/docstore"
	"github.com/lucidfort/snapgram/internal/events"
	"github.com/lucidfort/snapgram/query"
	"github.com/lucidfort/snapgram/social"
	"github.com/lucidfort/snapgram/socialcache"
)

// Container wires the store, the social services, the query cache and the
// optional NATS bridge from one configuration. Every component is created
// once and shared.
type Container struct {
	config config.Config
	log    *slog.Logger

	db     *bun.DB
	ownsDB bool

	store         *social.Store
	services      *social.Services
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	client        *query.Client
	hooks         *socialcache.Hooks

	nc     *nats.Conn
	bridge *events.Bridge
}

// Option customizes NewContainer.
type Option func(*options)

type options struct {
	logger *slog.Logger
	db     *bun.DB
	clock  func() time.Time
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDB uses an open database instead of connecting to the configured one.
// The container does not close it.
func WithDB(db *bun.DB) Option {
	return func(o *options) { o.db = db }
}

// WithClock sets the clock of the social services.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// NewContainer connects to the store, ensures its schema and builds every
// component. With a NATS URL configured, invalidations are shared with the
// other processes on the same subject.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Container{config: cfg, log: o.logger}
	if c.log == nil {
		c.log = cfg.NewLogger()
	}

	c.db = o.db
	if c.db == nil {
		db, err := docstore.Open(docstore.Options{
			Driver:       cfg.Store.Driver,
			DSN:          cfg.Store.DSN,
			MaxOpenConns: cfg.Store.MaxOpenConns,
		})
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		c.db, c.ownsDB = db, true
	}

	if err := c.init(ctx, cfg, o); err != nil {
		return nil, errors.Join(err, c.Close())
	}
	return c, nil
}

func (c *Container) init(ctx context.Context, cfg config.Config, o *options) error {
	if err := social.EnsureSchema(ctx, c.db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	c.store = social.NewStore(c.db, docstore.NewULIDGenerator())
	serviceOpts := []social.Option{social.WithLogger(c.log)}
	if o.clock != nil {
		serviceOpts = append(serviceOpts, social.WithClock(o.clock))
	}
	c.services = social.NewServices(c.store, serviceOpts...)

	cacheService, err := cache.NewCacheService(cfg.Cache.ToCache())
	if err != nil {
		return err
	}
	c.cacheService = cacheService
	c.keySerializer = cache.NewDefaultKeySerializer()
	c.client = query.NewClient(c.cacheService, c.keySerializer, query.WithLogger(c.log))
	c.hooks = socialcache.NewHooks(c.client, c.services)

	if cfg.NATS.URL == "" {
		return nil
	}
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("snapgram"))
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	c.nc = nc
	c.bridge = events.NewBridge(nc, events.WithSubject(cfg.NATS.Subject), events.WithLogger(c.log))
	if err := c.bridge.Listen(c.client.ApplyRemote); err != nil {
		return err
	}
	c.client.SetBroadcaster(c.bridge)
	c.log.InfoContext(ctx, "cache invalidations shared over nats", "subject", cfg.NATS.Subject, "origin", c.bridge.Origin())
	return nil
}

// Accessors for the wired components.
func (c *Container) Config() config.Config              { return c.config }
func (c *Container) Logger() *slog.Logger               { return c.log }
func (c *Container) DB() *bun.DB                        { return c.db }
func (c *Container) Store() *social.Store               { return c.store }
func (c *Container) Services() *social.Services         { return c.services }
func (c *Container) CacheService() cache.CacheService   { return c.cacheService }
func (c *Container) KeySerializer() cache.KeySerializer { return c.keySerializer }
func (c *Container) QueryClient() *query.Client         { return c.client }
func (c *Container) Hooks() *socialcache.Hooks          { return c.hooks }

// Bridge returns the NATS bridge, or nil when none is configured.
func (c *Container) Bridge() *events.Bridge { return c.bridge }

// Close stops the bridge, closes the NATS connection and, unless it was
// supplied through WithDB, the database.
func (c *Container) Close() error {
	var errs []error
	if c.bridge != nil {
		errs = append(errs, c.bridge.Close())
	}
	if c.nc != nil {
		c.nc.Close()
	}
	if c.db != nil && c.ownsDB {
		errs = append(errs, c.db.Close())
	}
	return errors.Join(errs...)
}
