// Package memo implements a named, bounded memoization cache with
// optional TTL expiry and hit/miss accounting.
//
// The cache is an explicit object handed to consumers by dependency
// injection; there is no package-level singleton. Keys are opaque
// strings produced by Key from the identity of the computation plus its
// serialised arguments, so distinct analyses never collide.
package memo

import (
	"container/list"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/regatta-data/tackline/internal/timeutil"
)

// Stats is a point-in-time snapshot of one cache's counters.
type Stats struct {
	Name      string
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// Cache is a keyed result cache with insertion-order eviction beyond
// MaxSize and lazy TTL expiry checked on read. An expired entry counts
// as a miss and is deleted before the caller recomputes.
//
// All operations are serialised by an internal mutex, so a single Cache
// may be shared by concurrent readers and writers.
type Cache struct {
	mu      sync.Mutex
	name    string
	maxSize int
	ttl     time.Duration // 0 means entries never expire
	clock   timeutil.Clock

	entries map[string]*list.Element
	order   *list.List // front = oldest insertion

	hits      uint64
	misses    uint64
	evictions uint64
}

type entry struct {
	key        string
	value      interface{}
	insertedAt time.Time
}

// Option configures a Cache at construction time.
type Option func(*Cache)

// WithClock replaces the wall clock, letting tests control TTL expiry
// without sleeping.
func WithClock(c timeutil.Clock) Option {
	return func(m *Cache) { m.clock = c }
}

// New constructs a cache. maxSize bounds the number of entries (values
// <= 0 mean unbounded); ttl of 0 disables expiry.
func New(name string, maxSize int, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		name:    name,
		maxSize: maxSize,
		ttl:     ttl,
		clock:   timeutil.RealClock{},
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key. A missing or expired entry
// returns ok=false and counts as a miss; an expired entry is removed so
// the subsequent Put starts a fresh TTL window.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, found := c.entries[key]
	if !found {
		c.misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if c.ttl > 0 && c.clock.Since(e.insertedAt) >= c.ttl {
		c.removeLocked(el)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Put stores value under key, refreshing the insertion timestamp if the
// key already exists. When the cache would exceed its maximum size the
// oldest insertion is evicted first.
func (c *Cache) Put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, found := c.entries[key]; found {
		e := el.Value.(*entry)
		e.value = value
		e.insertedAt = c.clock.Now()
		c.order.MoveToBack(el)
		return
	}
	if c.maxSize > 0 {
		for len(c.entries) >= c.maxSize {
			oldest := c.order.Front()
			if oldest == nil {
				break
			}
			c.removeLocked(oldest)
			c.evictions++
		}
	}
	el := c.order.PushBack(&entry{key: key, value: value, insertedAt: c.clock.Now()})
	c.entries[key] = el
}

// Evict removes key if present and reports whether it was found.
func (c *Cache) Evict(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, found := c.entries[key]
	if !found {
		return false
	}
	c.removeLocked(el)
	return true
}

// Clear drops every entry. Counters are preserved.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Name:      c.name,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.entries),
	}
}

func (c *Cache) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.entries, e.key)
}

// Key builds a cache key from a computation identity and its arguments.
// Arguments are serialised with their default formatting and hashed, so
// callers pass primitives or Stringer-friendly values rather than
// relying on function introspection.
func Key(fn string, args ...interface{}) string {
	h := fnv.New64a()
	fmt.Fprint(h, fn)
	for _, a := range args {
		fmt.Fprintf(h, "|%v", a)
	}
	return fmt.Sprintf("%s:%016x", fn, h.Sum64())
}
