package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-assistant/internal/conversation"
	"github.com/dvloznov/finance-assistant/internal/finance"
)

// fakeRecordStore serves canned records and can fail any single read.
type fakeRecordStore struct {
	accounts      []finance.Account
	window        []finance.Transaction
	budget        *finance.Budget
	monthExpenses []finance.Transaction

	accountsErr error
	windowErr   error
	budgetErr   error
	expensesErr error

	// Captured query windows for assertions.
	windowFrom, windowTo time.Time
	monthFrom, monthTo   time.Time
}

func (f *fakeRecordStore) ListAccounts(ctx context.Context, userID string) ([]finance.Account, error) {
	return f.accounts, f.accountsErr
}

func (f *fakeRecordStore) ListCompletedTransactions(ctx context.Context, userID string, from, to time.Time) ([]finance.Transaction, error) {
	f.windowFrom, f.windowTo = from, to
	return f.window, f.windowErr
}

func (f *fakeRecordStore) GetBudget(ctx context.Context, userID string) (*finance.Budget, error) {
	return f.budget, f.budgetErr
}

func (f *fakeRecordStore) ListMonthlyExpenses(ctx context.Context, userID string, from, to time.Time) ([]finance.Transaction, error) {
	f.monthFrom, f.monthTo = from, to
	return f.monthExpenses, f.expensesErr
}

// fakeResolver maps external ids to internal ids through a map.
type fakeResolver struct {
	users map[string]string
	err   error
}

func (f *fakeResolver) ResolveUser(ctx context.Context, externalID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if id, ok := f.users[externalID]; ok {
		return id, nil
	}
	return "", ErrUnknownUser
}

// fakeGenerator returns a fixed reply and records its inputs.
type fakeGenerator struct {
	reply string
	err   error

	calls       int
	lastPrompt  string
	lastMessage string
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	f.calls++
	f.lastPrompt = systemPrompt
	f.lastMessage = userMessage
	return f.reply, f.err
}

// failingStore wraps a conversation store and fails selected operations.
type failingStore struct {
	inner conversation.Store

	failAppendRole conversation.Role
	failHistory    bool
	failClear      bool
}

func (f *failingStore) Append(ctx context.Context, userID string, role conversation.Role, content string) error {
	if f.failAppendRole != "" && role == f.failAppendRole {
		return fmt.Errorf("append %s: store down", role)
	}
	return f.inner.Append(ctx, userID, role, content)
}

func (f *failingStore) History(ctx context.Context, userID string) ([]conversation.Turn, error) {
	if f.failHistory {
		return nil, fmt.Errorf("history: store down")
	}
	return f.inner.History(ctx, userID)
}

func (f *failingStore) Clear(ctx context.Context, userID string) error {
	if f.failClear {
		return fmt.Errorf("clear: store down")
	}
	return f.inner.Clear(ctx, userID)
}

// fakeArchiver records archive calls.
type fakeArchiver struct {
	err error

	calls      int
	lastUserID string
	lastTurns  []conversation.Turn
}

func (f *fakeArchiver) Archive(ctx context.Context, userID string, turns []conversation.Turn) error {
	f.calls++
	f.lastUserID = userID
	f.lastTurns = turns
	return f.err
}
