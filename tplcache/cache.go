// Package tplcache keeps recently used templates in memory in front of a
// template store. Entries expire a fixed time after they were fetched and the
// least recently used entry is evicted when the cache is full.
package tplcache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lvillar/quotepdf/doctpl"
	"github.com/lvillar/quotepdf/tplstore"
)

// Defaults for New.
const (
	DefaultTTL  = 5 * time.Minute
	DefaultSize = 256
)

// Store fetches templates by identifier.
type Store interface {
	Get(ctx context.Context, id string) (*doctpl.Template, error)
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context, id string) (*doctpl.Template, error)

// Get calls f.
func (f StoreFunc) Get(ctx context.Context, id string) (*doctpl.Template, error) {
	return f(ctx, id)
}

// entry is a cached template and the time it was fetched.
type entry struct {
	id       string
	tpl      *doctpl.Template
	cachedAt time.Time
}

// Cache is safe for concurrent use. Concurrent misses for the same id may
// each fetch; the last one wins.
type Cache struct {
	store  Store
	ttl    time.Duration
	size   int
	now    func() time.Time
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is most recently used

	hits   int64
	misses int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long a fetched template stays fresh.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSize bounds the number of cached templates.
func WithSize(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.size = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger for fetch failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Cache in front of store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		ttl:     DefaultTTL,
		size:    DefaultSize,
		now:     time.Now,
		logger:  zap.NewNop(),
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the template for id, fetching it when there is no fresh entry.
// Failures are not cached. Store errors other than a missing or invalid
// template are logged; the caller decides how to fall back.
func (c *Cache) Get(ctx context.Context, id string) (*doctpl.Template, error) {
	if tpl, ok := c.lookup(id); ok {
		atomic.AddInt64(&c.hits, 1)
		return tpl, nil
	}
	atomic.AddInt64(&c.misses, 1)

	tpl, err := c.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, tplstore.ErrNotFound) && !errors.Is(err, doctpl.ErrValidation) {
			c.logger.Error("template fetch failed", zap.String("template_id", id), zap.Error(err))
		}
		return nil, err
	}
	if tpl == nil {
		return nil, fmt.Errorf("%w: %q", tplstore.ErrNotFound, id)
	}
	c.put(id, tpl)
	return tpl, nil
}

func (c *Cache) lookup(id string) (*doctpl.Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if c.now().Sub(e.cachedAt) >= c.ttl {
		c.order.Remove(el)
		delete(c.entries, id)
		return nil, false
	}
	c.order.MoveToFront(el)
	return e.tpl, true
}

func (c *Cache) put(id string, tpl *doctpl.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry{id: id, tpl: tpl, cachedAt: c.now()}
	if el, ok := c.entries[id]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}
	c.entries[id] = c.order.PushFront(e)
	for c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).id)
	}
}

// Len returns the number of cached entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats holds hit and miss counters.
type Stats struct {
	Hits   int64
	Misses int64
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: atomic.LoadInt64(&c.hits), Misses: atomic.LoadInt64(&c.misses)}
}
