package dataset

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/inodb/cadd-thresholds/internal/variant"
)

// Cache keeps loaded tables in memory, keyed by dataset. Concurrent Get
// calls for the same dataset share a single load. Tables are immutable, so
// callers may share them freely.
type Cache struct {
	src    Source
	mu     sync.RWMutex
	tables map[ID]*variant.Table
	group  singleflight.Group
}

// NewCache creates an empty cache backed by src.
func NewCache(src Source) *Cache {
	return &Cache{src: src, tables: make(map[ID]*variant.Table)}
}

// Get returns the table for id, loading it on first use.
func (c *Cache) Get(ctx context.Context, id ID) (*variant.Table, error) {
	c.mu.RLock()
	t, ok := c.tables[id]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	v, err, _ := c.group.Do(id.String(), func() (any, error) {
		c.mu.RLock()
		t, ok := c.tables[id]
		c.mu.RUnlock()
		if ok {
			return t, nil
		}

		t, err := c.src.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.tables[id] = t
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*variant.Table), nil
}

// Load implements Source so a Cache can stand in for its backing source.
func (c *Cache) Load(ctx context.Context, id ID) (*variant.Table, error) {
	return c.Get(ctx, id)
}

// Invalidate drops id from the cache; the next Get reloads it.
func (c *Cache) Invalidate(id ID) {
	c.mu.Lock()
	delete(c.tables, id)
	c.mu.Unlock()
}

// Refresh reloads id and replaces the cached table. On error the previous
// table, if any, is kept.
func (c *Cache) Refresh(ctx context.Context, id ID) (*variant.Table, error) {
	t, err := c.src.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.tables[id] = t
	c.mu.Unlock()
	return t, nil
}

// Preload loads ids concurrently, at most limit at a time (no limit when
// limit <= 0). It returns the first error encountered.
func (c *Cache) Preload(ctx context.Context, ids []ID, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, id := range ids {
		g.Go(func() error {
			_, err := c.Get(ctx, id)
			return err
		})
	}
	return g.Wait()
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}
