package query

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lucidfort/snapgram/cache"
)

// Broadcaster publishes invalidated key prefixes to other processes.
type Broadcaster interface {
	Broadcast(ctx context.Context, prefixes []string) error
}

// Listener is called with the serialized key of a subscription after an
// invalidation matched it.
type Listener func(key string)

// Client owns the query cache: it reads through the cache service, tracks the
// keys it has served and notifies subscribers when keys are invalidated.
type Client struct {
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	keyRegistry   *sync.Map // serialized keys served through this client
	log           *slog.Logger

	genMu       sync.Mutex
	generations map[string]uint64 // bumped each time a key is invalidated

	mu          sync.Mutex
	subscribers map[string]map[uint64]Listener
	nextSubID   uint64
	broadcaster Broadcaster
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.log = logger
		}
	}
}

// WithBroadcaster publishes every local invalidation through b.
func WithBroadcaster(b Broadcaster) ClientOption {
	return func(c *Client) {
		c.broadcaster = b
	}
}

// NewClient creates a client over cacheService. A nil keySerializer uses the
// default serializer.
func NewClient(cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...ClientOption) *Client {
	if keySerializer == nil {
		keySerializer = cache.NewDefaultKeySerializer()
	}
	c := &Client{
		cache:         cacheService,
		keySerializer: keySerializer,
		keyRegistry:   &sync.Map{},
		log:           slog.Default(),
		subscribers:   map[string]map[uint64]Listener{},
		generations:   map[string]uint64{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetBroadcaster replaces the broadcaster after construction.
func (c *Client) SetBroadcaster(b Broadcaster) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcaster = b
}

// Logger returns the client logger.
func (c *Client) Logger() *slog.Logger {
	return c.log
}

// Serialize renders key the way it is stored in the cache.
func (c *Client) Serialize(key Key) string {
	return c.keySerializer.SerializeKey(key.Name, key.Params...)
}

// trackKey registers a cache key in the key registry for later invalidation.
func (c *Client) trackKey(key string) {
	c.keyRegistry.Store(key, struct{}{})

	c.genMu.Lock()
	if _, ok := c.generations[key]; !ok {
		c.generations[key] = 0
	}
	c.genMu.Unlock()
}

// generation returns how many times key has been invalidated.
func (c *Client) generation(key string) uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.generations[key]
}

// bumpGenerations marks every known key matching prefix as invalidated, so
// results of fetches that started earlier are recognized as stale.
func (c *Client) bumpGenerations(prefix string) {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	for key := range c.generations {
		if cache.HasKeyPrefix(key, prefix) {
			c.generations[key]++
		}
	}
}

// Keys returns the serialized keys served so far and not yet invalidated.
func (c *Client) Keys() []string {
	var keys []string
	c.keyRegistry.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	return keys
}

// Invalidate drops every cached entry matching one of keys, notifies matching
// subscribers and, with a broadcaster, tells other processes to do the same.
// The local invalidation always completes; the returned error only reports a
// failed broadcast.
func (c *Client) Invalidate(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	prefixes := make([]string, len(keys))
	for i, k := range keys {
		prefixes[i] = c.Serialize(k)
	}
	c.invalidate(ctx, prefixes)

	c.mu.Lock()
	b := c.broadcaster
	c.mu.Unlock()
	if b == nil {
		return nil
	}
	if err := b.Broadcast(ctx, prefixes); err != nil {
		c.log.WarnContext(ctx, "invalidation broadcast failed", "keys", prefixes, "error", err)
		return err
	}
	return nil
}

// ApplyRemote invalidates serialized prefixes received from another process.
// It never broadcasts.
func (c *Client) ApplyRemote(ctx context.Context, prefixes []string) {
	c.log.DebugContext(ctx, "applying remote invalidation", "keys", prefixes)
	c.invalidate(ctx, prefixes)
}

func (c *Client) invalidate(ctx context.Context, prefixes []string) {
	for _, prefix := range prefixes {
		c.invalidateByPrefix(ctx, prefix)
	}

	for _, fire := range c.matchingListeners(prefixes) {
		fire()
	}
}

// invalidateByPrefix removes all cached keys matching prefix.
func (c *Client) invalidateByPrefix(ctx context.Context, prefix string) {
	c.bumpGenerations(prefix)

	var keysToDelete []string
	c.keyRegistry.Range(func(k, _ any) bool {
		if key := k.(string); cache.HasKeyPrefix(key, prefix) {
			keysToDelete = append(keysToDelete, key)
		}
		return true
	})

	if err := c.cache.InvalidateKeys(ctx, keysToDelete); err != nil {
		c.log.WarnContext(ctx, "cache invalidation failed", "prefix", prefix, "error", err)
	}
	// Entries cached by other clients sharing the service.
	if err := c.cache.DeleteByPrefix(ctx, prefix); err != nil {
		c.log.WarnContext(ctx, "cache invalidation failed", "prefix", prefix, "error", err)
	}
	for _, key := range keysToDelete {
		c.keyRegistry.Delete(key)
	}
}

func (c *Client) matchingListeners(prefixes []string) []func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var fire []func()
	for key, subs := range c.subscribers {
		matched := false
		for _, p := range prefixes {
			if cache.HasKeyPrefix(key, p) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for _, l := range subs {
			fire = append(fire, func() { l(key) })
		}
	}
	return fire
}

// Subscribe calls l after every invalidation matching key. The returned
// function unsubscribes; when the last subscriber of a key leaves, its cached
// entry is dropped.
func (c *Client) Subscribe(key Key, l Listener) (unsubscribe func()) {
	serialized := c.Serialize(key)

	c.mu.Lock()
	c.nextSubID++
	id := c.nextSubID
	if c.subscribers[serialized] == nil {
		c.subscribers[serialized] = map[uint64]Listener{}
	}
	c.subscribers[serialized][id] = l
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(serialized, id) })
	}
}

func (c *Client) unsubscribe(key string, id uint64) {
	c.mu.Lock()
	subs := c.subscribers[key]
	delete(subs, id)
	last := len(subs) == 0
	if last {
		delete(c.subscribers, key)
	}
	c.mu.Unlock()

	if last {
		ctx := context.Background()
		if err := c.cache.DeleteByPrefix(ctx, key); err != nil {
			c.log.Warn("cache eviction failed", "key", key, "error", err)
		}
		c.keyRegistry.Range(func(k, _ any) bool {
			if cache.HasKeyPrefix(k.(string), key) {
				c.keyRegistry.Delete(k)
			}
			return true
		})
	}
}

// Subscribers returns how many listeners are registered on key.
func (c *Client) Subscribers(key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscribers[c.Serialize(key)])
}

// Clear drops every entry served through this client without notifying
// subscribers.
func (c *Client) Clear(ctx context.Context) error {
	keys := c.Keys()
	for _, k := range keys {
		c.keyRegistry.Delete(k)
	}
	return c.cache.InvalidateKeys(ctx, keys)
}
