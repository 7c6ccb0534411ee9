// Package places resolves canonical building names to geocoded place records
// through a persistent two-part cache in front of an external geocoder.
package places

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/room-vacancy/backend/internal/storage/models"
)

var (
	// ErrNotFound is returned when a name cannot be geocoded, now or on an
	// earlier run.
	ErrNotFound = errors.New("place not found")
	// ErrCachePersist wraps failures writing the cache to durable storage.
	ErrCachePersist = errors.New("persisting place cache")
)

// Snapshot is the full content of both caches.
type Snapshot struct {
	Places   map[string]models.PlaceRecord
	Failures map[string]string
}

// Store loads and saves cache snapshots.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// Cache holds resolved places and names known to be unresolvable. Every
// mutation is written through to the store before it returns.
type Cache struct {
	mu       sync.RWMutex
	places   map[string]models.PlaceRecord
	failures map[string]string
	store    Store
}

// LoadCache builds a cache from the store's current snapshot.
func LoadCache(ctx context.Context, store Store) (*Cache, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading place cache: %w", err)
	}
	if snap.Places == nil {
		snap.Places = make(map[string]models.PlaceRecord)
	}
	if snap.Failures == nil {
		snap.Failures = make(map[string]string)
	}
	return &Cache{places: snap.Places, failures: snap.Failures, store: store}, nil
}

// Get returns the cached record for name.
func (c *Cache) Get(name string) (models.PlaceRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.places[name]
	return rec, ok
}

// IsFailed reports whether name is in the failure cache.
func (c *Cache) IsFailed(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.failures[name]
	return ok
}

// Put stores a resolved record and flushes.
func (c *Cache) Put(ctx context.Context, rec models.PlaceRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.places[rec.CanonicalName] = rec
	return c.flushLocked(ctx)
}

// PutFailure records name as unresolvable and flushes.
func (c *Cache) PutFailure(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[name] = models.PlaceNotFound
	return c.flushLocked(ctx)
}

// Flush writes both caches to the store.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked(ctx)
}

func (c *Cache) flushLocked(ctx context.Context) error {
	if err := c.store.Save(ctx, Snapshot{Places: c.places, Failures: c.failures}); err != nil {
		return fmt.Errorf("%w: %w", ErrCachePersist, err)
	}
	return nil
}

// Len returns the number of resolved and failed names.
func (c *Cache) Len() (resolved, failed int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.places), len(c.failures)
}
