package conversation

import (
	"context"
	"sync"
)

// CachedStore wraps a Store with a per-user read-through history cache.
// Writes and clears invalidate the owner's cached view, so a history read
// issued after a send always reflects the new turns.
type CachedStore struct {
	inner Store

	mu      sync.RWMutex
	history map[string][]Turn
}

// NewCachedStore wraps inner with a history cache.
func NewCachedStore(inner Store) *CachedStore {
	return &CachedStore{
		inner:   inner,
		history: make(map[string][]Turn),
	}
}

// Append delegates to the inner store and invalidates the user's cache entry.
func (c *CachedStore) Append(ctx context.Context, userID string, role Role, content string) error {
	if err := c.inner.Append(ctx, userID, role, content); err != nil {
		return err
	}
	c.invalidate(userID)
	return nil
}

// History serves from cache when possible, otherwise reads through.
func (c *CachedStore) History(ctx context.Context, userID string) ([]Turn, error) {
	c.mu.RLock()
	cached, ok := c.history[userID]
	c.mu.RUnlock()
	if ok {
		return copyTurns(cached), nil
	}

	turns, err := c.inner.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.history[userID] = copyTurns(turns)
	c.mu.Unlock()

	return turns, nil
}

// Clear delegates to the inner store and invalidates the user's cache entry.
func (c *CachedStore) Clear(ctx context.Context, userID string) error {
	if err := c.inner.Clear(ctx, userID); err != nil {
		return err
	}
	c.invalidate(userID)
	return nil
}

func (c *CachedStore) invalidate(userID string) {
	c.mu.Lock()
	delete(c.history, userID)
	c.mu.Unlock()
}

func copyTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Ensure CachedStore implements Store.
var _ Store = (*CachedStore)(nil)
