package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-assistant/internal/finance"
	"github.com/shopspring/decimal"
)

// transactionRow mirrors the transactions table schema. Category is nullable
// and an absent value surfaces as the empty string.
type transactionRow struct {
	Description string              `bigquery:"description"`
	Amount      *big.Rat            `bigquery:"amount"`
	Type        string              `bigquery:"transaction_type"`
	Status      string              `bigquery:"status"`
	Date        time.Time           `bigquery:"transaction_ts"`
	Category    bigquery.NullString `bigquery:"category"`
}

func (r transactionRow) toTransaction() finance.Transaction {
	category := ""
	if r.Category.Valid {
		category = r.Category.StringVal
	}
	return finance.Transaction{
		Description: r.Description,
		Amount:      ratToDecimal(r.Amount),
		Type:        finance.TransactionType(r.Type),
		Status:      finance.TransactionStatus(r.Status),
		Date:        r.Date,
		Category:    category,
	}
}

// ListCompletedTransactions returns the user's COMPLETED transactions with
// timestamps in [from, to], oldest first. Pending and cancelled rows are
// filtered server-side.
func (s *RecordStore) ListCompletedTransactions(ctx context.Context, userID string, from, to time.Time) ([]finance.Transaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT description, amount, transaction_type, status, transaction_ts, category
		FROM %s.%s
		WHERE user_id = @user_id
		  AND status = @status
		  AND transaction_ts BETWEEN @from_ts AND @to_ts
		ORDER BY transaction_ts
	`, s.dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "status", Value: string(finance.TransactionStatusCompleted)},
		{Name: "from_ts", Value: from},
		{Name: "to_ts", Value: to},
	}

	return s.readTransactions(ctx, q, "ListCompletedTransactions")
}

// ListMonthlyExpenses returns the user's COMPLETED expense transactions with
// timestamps in [from, to], for current-month category grouping.
func (s *RecordStore) ListMonthlyExpenses(ctx context.Context, userID string, from, to time.Time) ([]finance.Transaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT description, amount, transaction_type, status, transaction_ts, category
		FROM %s.%s
		WHERE user_id = @user_id
		  AND status = @status
		  AND transaction_type = @type
		  AND transaction_ts BETWEEN @from_ts AND @to_ts
		ORDER BY transaction_ts
	`, s.dataset, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "status", Value: string(finance.TransactionStatusCompleted)},
		{Name: "type", Value: string(finance.TransactionTypeExpense)},
		{Name: "from_ts", Value: from},
		{Name: "to_ts", Value: to},
	}

	return s.readTransactions(ctx, q, "ListMonthlyExpenses")
}

func (s *RecordStore) readTransactions(ctx context.Context, q *bigquery.Query, op string) ([]finance.Transaction, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}

	var transactions []finance.Transaction
	for {
		var r transactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		transactions = append(transactions, r.toTransaction())
	}

	return transactions, nil
}

// ratToDecimal converts a BigQuery NUMERIC value to a decimal, treating a
// NULL rat as zero. NUMERIC carries nine fractional digits.
func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, 9)
}
