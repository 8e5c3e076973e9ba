// Package conversation persists chat turns per user. Turns are append-only;
// the only mutation is a bulk delete of one user's history.
package conversation

import (
	"context"
	"time"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation. Created once, never mutated.
type Turn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryLimit caps how many turns a history read returns.
const HistoryLimit = 50

// Store is the persistence contract for chat turns. All operations are
// scoped to a single owner id; no operation may touch another user's turns.
type Store interface {
	// Append records a new turn for the user.
	Append(ctx context.Context, userID string, role Role, content string) error

	// History returns up to the HistoryLimit most recent turns for the
	// user, ascending by creation time.
	History(ctx context.Context, userID string) ([]Turn, error)

	// Clear deletes every turn belonging to the user.
	Clear(ctx context.Context, userID string) error
}
