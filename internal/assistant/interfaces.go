package assistant

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/finance-assistant/internal/conversation"
	"github.com/dvloznov/finance-assistant/internal/finance"
)

// ErrUnknownUser is returned by IdentityResolver implementations when the
// external identity maps to no internal user record.
var ErrUnknownUser = errors.New("unknown user")

// IdentityResolver maps an externally-issued identity (the value the auth
// gateway verified) to an internal user id.
type IdentityResolver interface {
	ResolveUser(ctx context.Context, externalID string) (string, error)
}

// RecordStore reads a user's financial records. Implementations must only
// return transactions matching the requested status/type filters; the
// aggregator does no re-filtering.
type RecordStore interface {
	// ListAccounts returns every account of the user, any type.
	ListAccounts(ctx context.Context, userID string) ([]finance.Account, error)

	// ListCompletedTransactions returns all completed transactions of the
	// user with a date inside [from, to], any type, unordered.
	ListCompletedTransactions(ctx context.Context, userID string, from, to time.Time) ([]finance.Transaction, error)

	// GetBudget returns the user's monthly budget, or (nil, nil) when none
	// is set.
	GetBudget(ctx context.Context, userID string) (*finance.Budget, error)

	// ListMonthlyExpenses returns all completed expense transactions of the
	// user with a date inside [from, to], unordered.
	ListMonthlyExpenses(ctx context.Context, userID string, from, to time.Time) ([]finance.Transaction, error)
}

// TextGenerator produces a model reply from a system instruction and the
// user's verbatim message.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// TranscriptArchiver stores a copy of a user's conversation before it is
// deleted. Archiving is best-effort: a failure must not block the delete.
type TranscriptArchiver interface {
	Archive(ctx context.Context, userID string, turns []conversation.Turn) error
}
