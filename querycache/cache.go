package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-catalog-client/internal/config"
	"github.com/jrsteele09/go-catalog-client/internal/errors"
	"github.com/jrsteele09/go-catalog-client/storage"
	"github.com/rs/zerolog"
)

const (
	DefaultGCTime     = 24 * time.Hour
	DefaultRetries    = 2
	DefaultRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
)

type Options struct {
	GCTime     time.Duration    // How long an entry is kept for offline use after it was fetched
	Retries    int              // Extra attempts after a transport error or 5xx
	RetryDelay time.Duration    // First backoff step; doubles per attempt
	Now        func() time.Time // Clock override for tests
}

// OptionsFromConfig maps the cache settings onto Options.
func OptionsFromConfig(cfg config.CacheConfig) Options {
	return Options{
		GCTime:  cfg.GetCacheGCTime(),
		Retries: cfg.GetQueryRetries(),
	}
}

func (o Options) withDefaults() Options {
	if o.GCTime <= 0 {
		o.GCTime = DefaultGCTime
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type entry struct {
	Data        json.RawMessage `json:"data"`
	FetchedAt   time.Time       `json:"fetchedAt"`
	StaleAt     time.Time       `json:"staleAt"`
	Invalidated bool            `json:"invalidated,omitempty"`
}

// Meta describes where a Fetch result came from.
type Meta struct {
	FromCache bool
	Stale     bool
	FetchedAt time.Time
}

// Snapshot is the state of one key before an optimistic update.
type Snapshot struct {
	key   string
	entry *entry
}

func (s Snapshot) Key() string { return s.key }

// Cache is an offline-first store of query results keyed by slash separated
// paths (e.g., "products/category/beauty"). Every write is persisted as a
// whole under storage.KeyQueryCache.
type Cache struct {
	store  storage.Store
	opts   Options
	logger zerolog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	online  bool

	persistMu sync.Mutex
}

func New(store storage.Store, opts Options, logger zerolog.Logger) *Cache {
	return &Cache{
		store:   store,
		opts:    opts.withDefaults(),
		logger:  logger.With().Str("component", "querycache").Logger(),
		entries: map[string]*entry{},
		online:  true,
	}
}

// Key joins parts into a cache key.
func Key(parts ...any) string {
	s := make([]string, 0, len(parts))
	for _, p := range parts {
		s = append(s, fmt.Sprint(p))
	}
	return strings.Join(s, "/")
}

func matchesPrefix(key, prefix string) bool {
	return prefix == "" || key == prefix || strings.HasPrefix(key, prefix+"/")
}

// Load restores the persisted cache and drops entries fetched longer than
// the gc time ago. Unreadable data is discarded.
func (c *Cache) Load(ctx context.Context) error {
	persisted, found, err := storage.GetObject[map[string]*entry](ctx, c.store, storage.KeyQueryCache)
	if err != nil {
		c.logger.Warn().Err(err).Msg("discarding unreadable query cache")
		return c.store.Delete(ctx, storage.KeyQueryCache)
	}
	if !found || persisted == nil {
		return nil
	}

	cutoff := c.opts.Now().Add(-c.opts.GCTime)
	loaded := map[string]*entry{}
	for key, e := range *persisted {
		if e == nil || e.FetchedAt.Before(cutoff) {
			continue
		}
		loaded[key] = e
	}

	c.mu.Lock()
	c.entries = loaded
	c.mu.Unlock()

	c.logger.Debug().Int("entries", len(loaded)).Int("dropped", len(*persisted)-len(loaded)).Msg("query cache loaded")
	if len(loaded) != len(*persisted) {
		return c.persist(ctx)
	}
	return nil
}

func (c *Cache) SetOnline(online bool) {
	c.mu.Lock()
	changed := c.online != online
	c.online = online
	c.mu.Unlock()
	if changed {
		c.logger.Info().Bool("online", online).Msg("network status changed")
	}
}

func (c *Cache) Online() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// RequireOnline guards mutations, which are never queued while offline.
func (c *Cache) RequireOnline() error {
	if !c.Online() {
		return errors.ErrOffline
	}
	return nil
}

// Keys returns the cached keys under prefix in sorted order.
func (c *Cache) Keys(prefix string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		if matchesPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Invalidate marks every entry under prefix stale so the next Fetch goes to
// the network. The data stays available for offline reads.
func (c *Cache) Invalidate(ctx context.Context, prefix string) error {
	c.mu.Lock()
	for key, e := range c.entries {
		if matchesPrefix(key, prefix) {
			e.Invalidated = true
		}
	}
	c.mu.Unlock()
	return c.persist(ctx)
}

func (c *Cache) Remove(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return c.persist(ctx)
}

// Clear drops every entry, e.g. on logout.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = map[string]*entry{}
	c.mu.Unlock()
	return c.persist(ctx)
}

// Restore puts back the entries captured by SetData.
func (c *Cache) Restore(ctx context.Context, snapshots ...Snapshot) error {
	c.mu.Lock()
	for _, s := range snapshots {
		if s.entry == nil {
			delete(c.entries, s.key)
			continue
		}
		e := *s.entry
		c.entries[s.key] = &e
	}
	c.mu.Unlock()
	return c.persist(ctx)
}

func (c *Cache) lookup(key string) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return entry{}, false
	}
	return *e, true
}

func (c *Cache) put(ctx context.Context, key string, data json.RawMessage, staleTime time.Duration) (time.Time, error) {
	now := c.opts.Now()
	c.mu.Lock()
	c.entries[key] = &entry{Data: data, FetchedAt: now, StaleAt: now.Add(staleTime)}
	c.mu.Unlock()
	return now, c.persist(ctx)
}

// persist writes the whole cache. persistMu orders concurrent writers so the
// last write always carries the newest snapshot.
func (c *Cache) persist(ctx context.Context) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.RLock()
	data, err := json.Marshal(c.entries)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("[querycache persist] marshal: %w", err)
	}
	if err := c.store.Set(ctx, storage.KeyQueryCache, string(data)); err != nil {
		return fmt.Errorf("[querycache persist] %w", err)
	}
	return nil
}
