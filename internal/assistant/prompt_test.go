package assistant

import (
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/finance"
)

func promptSnapshot() finance.Snapshot {
	return finance.Snapshot{
		TotalBalance:     dec("4200.50"),
		TotalIncome30d:   dec("2500.00"),
		TotalExpenses30d: dec("150.00"),
		Accounts: []finance.Account{
			{Name: "Main", Type: finance.AccountTypeCurrent, Balance: dec("1200.50"), IsDefault: true},
			{Name: "Savings", Type: finance.AccountTypeSavings, Balance: dec("3000.00")},
		},
		RecentTransactions: []finance.Transaction{
			{
				Description: "Coffee",
				Amount:      dec("4.50"),
				Type:        finance.TransactionTypeExpense,
				Date:        time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
				Category:    "Dining",
			},
			{
				Description: "",
				Amount:      dec("2500.00"),
				Type:        finance.TransactionTypeIncome,
				Date:        time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
			},
		},
		Budget: &finance.Budget{Amount: dec("1000.00")},
		SpendingByCategory: []finance.CategorySpend{
			{Category: "Dining", Amount: dec("42.00")},
			{Category: "Transport", Amount: dec("708.00")},
		},
	}
}

func TestRenderPromptDeterministic(t *testing.T) {
	snap := promptSnapshot()
	first := RenderPrompt(snap)
	second := RenderPrompt(snap)
	if first != second {
		t.Error("RenderPrompt() is not deterministic for an identical snapshot")
	}
}

func TestRenderPromptSections(t *testing.T) {
	prompt := RenderPrompt(promptSnapshot())

	sections := []string{
		promptIntro,
		"CURRENT USER FINANCIAL DATA:",
		"ACCOUNTS:",
		"SPENDING BY CATEGORY (This Month):",
		"RECENT TRANSACTIONS (Last 20):",
		"GUIDELINES:",
	}
	last := -1
	for _, section := range sections {
		idx := strings.Index(prompt, section)
		if idx < 0 {
			t.Fatalf("prompt is missing section %q", section)
		}
		if idx < last {
			t.Errorf("section %q appears out of order", section)
		}
		last = idx
	}
}

func TestRenderPromptLines(t *testing.T) {
	prompt := RenderPrompt(promptSnapshot())

	lines := []string{
		"- Total Balance (All Accounts): $4200.50",
		"- Income (Last 30 days): $2500.00",
		"- Expenses (Last 30 days): $150.00",
		"- Net (Last 30 days): $2350.00",
		"- Monthly Budget: $1000.00",
		"- Budget Used: $750.00 / $1000.00 (75%)",
		"- Main (CURRENT, Default): $1200.50",
		"- Savings (SAVINGS): $3000.00",
		"- Transport: $708.00",
		"- Dining: $42.00",
		"- 2026-03-14: Coffee - $4.50 (EXPENSE, Dining)",
		"- 2026-03-05: No description - $2500.00 (INCOME)",
	}
	for _, line := range lines {
		if !strings.Contains(prompt, line+"\n") {
			t.Errorf("prompt is missing line %q", line)
		}
	}

	// Categories render descending regardless of input order.
	if strings.Index(prompt, "- Transport:") > strings.Index(prompt, "- Dining:") {
		t.Error("categories are not ordered descending by amount")
	}
}

func TestRenderPromptPercentTruncates(t *testing.T) {
	snap := promptSnapshot()
	snap.SpendingByCategory = []finance.CategorySpend{
		{Category: "Dining", Amount: dec("899.99")},
	}

	prompt := RenderPrompt(snap)
	if !strings.Contains(prompt, "- Budget Used: $899.99 / $1000.00 (89%)\n") {
		t.Errorf("budget percent did not truncate toward zero:\n%s", prompt)
	}
}

func TestRenderPromptPlaceholders(t *testing.T) {
	snap := finance.Snapshot{}

	prompt := RenderPrompt(snap)
	if !strings.Contains(prompt, noBudgetMarker+"\n") {
		t.Errorf("prompt is missing %q", noBudgetMarker)
	}
	if !strings.Contains(prompt, noExpensesMarker+"\n") {
		t.Errorf("prompt is missing %q", noExpensesMarker)
	}
	if strings.Contains(prompt, "Budget Used:") {
		t.Error("prompt shows budget usage without a budget")
	}
}

func TestRenderPromptNoUsageLineWithoutSpending(t *testing.T) {
	snap := promptSnapshot()
	snap.SpendingByCategory = nil

	prompt := RenderPrompt(snap)
	if !strings.Contains(prompt, "- Monthly Budget: $1000.00\n") {
		t.Error("prompt is missing the budget line")
	}
	if strings.Contains(prompt, "Budget Used:") {
		t.Error("prompt shows budget usage without monthly spending")
	}
}
