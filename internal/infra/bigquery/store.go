// Package bigquery implements the assistant's record store and identity
// resolution over BigQuery. Accounts, transactions and budgets live in the
// configured dataset; every query is parameterized and scoped by user id.
package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/finance"
)

const (
	usersTable        = "users"
	accountsTable     = "accounts"
	transactionsTable = "transactions"
	budgetsTable      = "budgets"
)

// RecordStore reads financial records from BigQuery. It holds a shared
// client to avoid creating a new connection per operation.
type RecordStore struct {
	client  *bigquery.Client
	dataset string
}

// NewRecordStore creates a record store for the given project and dataset.
func NewRecordStore(ctx context.Context, projectID, dataset string) (*RecordStore, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRecordStore: creating client: %w", err)
	}
	return &RecordStore{
		client:  client,
		dataset: dataset,
	}, nil
}

// Close closes the BigQuery client connection.
func (s *RecordStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// accountRow mirrors the accounts table schema.
type accountRow struct {
	Name      string   `bigquery:"name"`
	Type      string   `bigquery:"account_type"`
	Balance   *big.Rat `bigquery:"balance"`
	IsDefault bool     `bigquery:"is_default"`
}

// budgetRow mirrors the budgets table schema. Budgets are keyed by
// (user_id, month); month is the first day of the calendar month.
type budgetRow struct {
	Amount *big.Rat `bigquery:"amount"`
}

// ListAccounts returns every account of the user, any type, in table order.
func (s *RecordStore) ListAccounts(ctx context.Context, userID string) ([]finance.Account, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT name, account_type, balance, is_default
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY created_ts
	`, s.dataset, accountsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: query read: %w", err)
	}

	var accounts []finance.Account
	for {
		var r accountRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: iter next: %w", err)
		}
		accounts = append(accounts, finance.Account{
			Name:      r.Name,
			Type:      finance.AccountType(r.Type),
			Balance:   ratToDecimal(r.Balance),
			IsDefault: r.IsDefault,
		})
	}

	return accounts, nil
}

// GetBudget returns the user's budget for the current calendar month, or
// (nil, nil) when none is set.
func (s *RecordStore) GetBudget(ctx context.Context, userID string) (*finance.Budget, error) {
	now := time.Now().UTC()
	month := civil.Date{Year: now.Year(), Month: now.Month(), Day: 1}

	q := s.client.Query(fmt.Sprintf(`
		SELECT amount
		FROM %s.%s
		WHERE user_id = @user_id
		  AND month = @month
		LIMIT 1
	`, s.dataset, budgetsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "month", Value: month},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetBudget: query read: %w", err)
	}

	var r budgetRow
	err = it.Next(&r)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetBudget: iter next: %w", err)
	}

	return &finance.Budget{Amount: ratToDecimal(r.Amount)}, nil
}

// Ensure RecordStore implements the aggregator's contract.
var _ assistant.RecordStore = (*RecordStore)(nil)
