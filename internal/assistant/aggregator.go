package assistant

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/finance-assistant/internal/finance"
)

const (
	// aggregateWindowDays is the trailing window for income/expense totals.
	aggregateWindowDays = 30

	// recentTransactionCap bounds the display list, not the totals.
	recentTransactionCap = 20
)

// Aggregator reduces a user's raw financial records into one immutable
// snapshot. It either produces a complete snapshot or fails with
// ErrContextUnavailable; there are no partial results.
type Aggregator struct {
	store RecordStore
	log   zerolog.Logger

	// now is swappable so tests can pin the query windows.
	now func() time.Time
}

// NewAggregator creates an aggregator over the given record store.
func NewAggregator(store RecordStore, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Build reads the user's accounts, trailing-30-day transactions, budget and
// current-month expenses and reduces them into a snapshot. The four reads
// run concurrently; any failure collapses into ErrContextUnavailable with
// the cause logged for operators.
func (a *Aggregator) Build(ctx context.Context, userID string) (finance.Snapshot, error) {
	now := a.now()
	windowStart := now.AddDate(0, 0, -aggregateWindowDays)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var (
		accounts      []finance.Account
		window        []finance.Transaction
		budget        *finance.Budget
		monthExpenses []finance.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = a.store.ListAccounts(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		window, err = a.store.ListCompletedTransactions(gctx, userID, windowStart, now)
		return err
	})
	g.Go(func() error {
		var err error
		budget, err = a.store.GetBudget(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		monthExpenses, err = a.store.ListMonthlyExpenses(gctx, userID, monthStart, now)
		return err
	})
	if err := g.Wait(); err != nil {
		a.log.Error().Err(err).Str("user_id", userID).Msg("Failed to build financial snapshot")
		return finance.Snapshot{}, ErrContextUnavailable
	}

	totalBalance := decimal.Zero
	for _, acc := range accounts {
		totalBalance = totalBalance.Add(acc.Balance)
	}

	// Totals run over the full filtered window, not the capped display list.
	income := decimal.Zero
	expenses := decimal.Zero
	for _, tx := range window {
		switch tx.Type {
		case finance.TransactionTypeIncome:
			income = income.Add(tx.Amount)
		case finance.TransactionTypeExpense:
			expenses = expenses.Add(tx.Amount)
		}
	}

	return finance.Snapshot{
		TotalBalance:       totalBalance,
		TotalIncome30d:     income,
		TotalExpenses30d:   expenses,
		Accounts:           accounts,
		RecentTransactions: capRecent(window),
		Budget:             budget,
		SpendingByCategory: groupSpending(monthExpenses),
	}, nil
}

// capRecent sorts the window newest-first and keeps at most
// recentTransactionCap entries. The input slice is not modified.
func capRecent(window []finance.Transaction) []finance.Transaction {
	recent := make([]finance.Transaction, len(window))
	copy(recent, window)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Date.After(recent[j].Date)
	})
	if len(recent) > recentTransactionCap {
		recent = recent[:recentTransactionCap]
	}
	return recent
}

// groupSpending sums expenses per category, coalescing an absent category to
// "Uncategorized", and returns the groups descending by amount. Ties keep
// first-seen order.
func groupSpending(expenses []finance.Transaction) []finance.CategorySpend {
	sums := make(map[string]decimal.Decimal)
	var order []string
	for _, tx := range expenses {
		category := tx.Category
		if category == "" {
			category = finance.Uncategorized
		}
		if _, seen := sums[category]; !seen {
			order = append(order, category)
		}
		sums[category] = sums[category].Add(tx.Amount)
	}

	out := make([]finance.CategorySpend, 0, len(order))
	for _, category := range order {
		out = append(out, finance.CategorySpend{Category: category, Amount: sums[category]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return out
}
