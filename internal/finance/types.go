// Package finance holds the domain types shared by the assistant pipeline:
// accounts, transactions, budgets and the per-request snapshot built from them.
package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeSavings AccountType = "SAVINGS"
)

// TransactionType marks the direction of money movement.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// TransactionStatus marks the settlement state of a transaction.
// Only completed transactions count toward any aggregate.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Account is one of the user's money accounts.
type Account struct {
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	IsDefault bool
}

// Transaction is a single money movement on an account.
type Transaction struct {
	Description string
	Amount      decimal.Decimal
	Type        TransactionType
	Status      TransactionStatus
	Date        time.Time
	Category    string // empty when uncategorized
}

// Budget is the user's monthly spending budget.
type Budget struct {
	Amount decimal.Decimal
}

// CategorySpend is the summed expense amount for one category.
type CategorySpend struct {
	Category string
	Amount   decimal.Decimal
}

// Snapshot is a point-in-time reduction of a user's financial records,
// built fresh for a single request and discarded afterwards. All monetary
// aggregates are derived solely from completed transactions.
type Snapshot struct {
	TotalBalance     decimal.Decimal
	TotalIncome30d   decimal.Decimal
	TotalExpenses30d decimal.Decimal

	Accounts []Account

	// RecentTransactions holds at most the 20 most recent completed
	// transactions of the trailing 30 days, newest first. It is a display
	// slice only: the 30-day totals above are computed over the full
	// filtered set, not over this cap.
	RecentTransactions []Transaction

	// Budget is nil when the user has not set one. A missing budget is
	// distinct from a zero budget.
	Budget *Budget

	// SpendingByCategory sums completed expenses of the current calendar
	// month per category, descending by amount. Transactions without a
	// category are grouped under "Uncategorized".
	SpendingByCategory []CategorySpend
}

// Uncategorized is the category label used when a transaction carries none.
const Uncategorized = "Uncategorized"

// MonthlySpend returns the total of SpendingByCategory.
func (s Snapshot) MonthlySpend() decimal.Decimal {
	total := decimal.Zero
	for _, c := range s.SpendingByCategory {
		total = total.Add(c.Amount)
	}
	return total
}

// Net30d returns income minus expenses over the trailing 30 days.
func (s Snapshot) Net30d() decimal.Decimal {
	return s.TotalIncome30d.Sub(s.TotalExpenses30d)
}
