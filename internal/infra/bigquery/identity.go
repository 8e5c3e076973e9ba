package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-assistant/internal/assistant"
)

// IdentityResolver maps external caller ids from the auth layer to internal
// user ids in the users table.
type IdentityResolver struct {
	client  *bigquery.Client
	dataset string
}

// NewIdentityResolver creates a resolver sharing the record store's client.
func NewIdentityResolver(store *RecordStore) *IdentityResolver {
	return &IdentityResolver{
		client:  store.client,
		dataset: store.dataset,
	}
}

type userRow struct {
	UserID string `bigquery:"user_id"`
}

// ResolveUser returns the internal user id for the given external id, or
// ErrUnknownUser when no row matches.
func (r *IdentityResolver) ResolveUser(ctx context.Context, externalID string) (string, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT user_id
		FROM %s.%s
		WHERE external_id = @external_id
		LIMIT 1
	`, r.dataset, usersTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "external_id", Value: externalID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return "", fmt.Errorf("ResolveUser: query read: %w", err)
	}

	var row userRow
	err = it.Next(&row)
	if err == iterator.Done {
		return "", assistant.ErrUnknownUser
	}
	if err != nil {
		return "", fmt.Errorf("ResolveUser: iter next: %w", err)
	}

	return row.UserID, nil
}

// Ensure IdentityResolver implements the orchestrator's contract.
var _ assistant.IdentityResolver = (*IdentityResolver)(nil)
