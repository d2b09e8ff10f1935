// Package cache stores memoized tool selections so repeated queries against
// an unchanged tool catalog skip the selection round-trip to the backend.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
)

// InMemoryCache is a thread-safe TTL cache. Entries expire lazily on read and
// eagerly via a background sweep.
type InMemoryCache struct {
	store  map[string]item
	mutex  sync.RWMutex
	ttl    time.Duration
	logger zerolog.Logger
}

type item struct {
	value      any
	expiration time.Time
}

// NewInMemoryCache creates a cache whose entries live for defaultTTL.
func NewInMemoryCache(defaultTTL time.Duration, logger zerolog.Logger) *InMemoryCache {
	c := &InMemoryCache{
		store:  make(map[string]item),
		ttl:    defaultTTL,
		logger: logger.With().Str("component", "cache").Logger(),
	}
	go c.sweepLoop(10 * time.Minute)
	return c
}

// Get retrieves an item. Missing and expired keys both report not-found.
func (c *InMemoryCache) Get(ctx context.Context, key string) (any, error) {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return nil, err
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	it, found := c.store[key]
	if !found {
		return nil, errbuilder.NotFoundErr(errbuilder.GenericErr("cache item not found", nil))
	}
	if time.Now().After(it.expiration) {
		return nil, errbuilder.NotFoundErr(errbuilder.GenericErr("cache item expired", nil))
	}
	return it.value, nil
}

// Set adds or replaces an item with the cache's default TTL.
func (c *InMemoryCache) Set(ctx context.Context, key string, value any) error {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.store[key] = item{value: value, expiration: time.Now().Add(c.ttl)}
	c.logger.Debug().Str("key", key).Msg("cache item set")
	return nil
}

func (c *InMemoryCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, it := range c.store {
			if now.After(it.expiration) {
				delete(c.store, key)
			}
		}
		c.mutex.Unlock()
	}
}
