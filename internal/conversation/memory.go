package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store. It is safe for
// concurrent use. Data is lost on restart - for persistence, use the
// SQLite-backed store.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]Turn // keyed by user id, append order

	// now is swappable so tests can control timestamps.
	now func() time.Time
}

// NewMemoryStore creates a new in-memory conversation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		turns: make(map[string][]Turn),
		now:   time.Now,
	}
}

// Append implements the Store interface.
func (s *MemoryStore) Append(ctx context.Context, userID string, role Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns[userID] = append(s.turns[userID], Turn{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	})
	return nil
}

// History implements the Store interface. It returns copies so callers
// cannot mutate stored turns.
func (s *MemoryStore) History(ctx context.Context, userID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.turns[userID]
	start := 0
	if len(all) > HistoryLimit {
		start = len(all) - HistoryLimit
	}

	out := make([]Turn, len(all)-start)
	copy(out, all[start:])
	return out, nil
}

// Clear implements the Store interface.
func (s *MemoryStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.turns, userID)
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
