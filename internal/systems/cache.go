package systems

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 1024

// CachedStore keeps recently used owners' flags in an LRU in front of
// another store. Writes go through to the backing store first.
type CachedStore struct {
	backing FlagStore
	cache   *lru.Cache[string, map[string]bool]
	// Serializes writes with the read-then-fill path so a stale read cannot
	// overwrite a newer entry.
	mu sync.Mutex
}

// NewCachedStore wraps backing. A non-positive size uses the default.
func NewCachedStore(backing FlagStore, size int) *CachedStore {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, map[string]bool](size)
	if err != nil {
		// lru.New only fails on non-positive sizes, guarded above.
		panic(err)
	}
	return &CachedStore{backing: backing, cache: cache}
}

func (c *CachedStore) Flags(ctx context.Context, owner string) (map[string]bool, error) {
	if flags, ok := c.cache.Get(owner); ok {
		return copyFlags(flags), nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if flags, ok := c.cache.Get(owner); ok {
		return copyFlags(flags), nil
	}
	flags, err := c.backing.Flags(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.cache.Add(owner, copyFlags(flags))
	return flags, nil
}

func (c *CachedStore) SetFlag(ctx context.Context, owner, systemID string, unlocked bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.backing.SetFlag(ctx, owner, systemID, unlocked); err != nil {
		c.cache.Remove(owner)
		return err
	}
	if flags, ok := c.cache.Get(owner); ok {
		next := copyFlags(flags)
		next[systemID] = unlocked
		c.cache.Add(owner, next)
	}
	return nil
}

// Len reports how many owners are cached.
func (c *CachedStore) Len() int {
	return c.cache.Len()
}
