package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Clock supplies the current time. Tests swap in a fake to drive expiry.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

// Observer is notified of cache lookups; metrics hook in here.
type Observer interface {
	CacheHit()
	CacheMiss()
}

// TTL holds a single value that expires ttl after it was stored. Concurrent
// callers that find it stale share one refill.
type TTL[T any] struct {
	ttl   time.Duration
	clock Clock
	obs   Observer

	mu       sync.Mutex
	value    T
	storedAt time.Time
	filled   bool

	group singleflight.Group
}

// New returns an empty cache. A nil clock means SystemClock.
func New[T any](ttl time.Duration, clock Clock) *TTL[T] {
	if clock == nil {
		clock = SystemClock
	}
	return &TTL[T]{ttl: ttl, clock: clock}
}

// Observe registers an observer for hits and misses.
func (c *TTL[T]) Observe(o Observer) { c.obs = o }

// Peek returns the stored value if it is still fresh.
func (c *TTL[T]) Peek() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.filled && c.clock.Now().Before(c.storedAt.Add(c.ttl)) {
		return c.value, true
	}
	var zero T
	return zero, false
}

// Get returns the fresh value or calls fill to produce one. fill runs at most
// once at a time; its errors are returned to every waiting caller and are not
// stored.
func (c *TTL[T]) Get(ctx context.Context, fill func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Peek(); ok {
		if c.obs != nil {
			c.obs.CacheHit()
		}
		return v, nil
	}
	if c.obs != nil {
		c.obs.CacheMiss()
	}
	ch := c.group.DoChan("fill", func() (any, error) {
		// Another caller may have refilled while this one waited for the group.
		if v, ok := c.Peek(); ok {
			return v, nil
		}
		v, err := fill(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.value, c.storedAt, c.filled = v, c.clock.Now(), true
		c.mu.Unlock()
		return v, nil
	})
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			var zero T
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}

// Invalidate drops the stored value.
func (c *TTL[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value, c.filled = zero, false
}
