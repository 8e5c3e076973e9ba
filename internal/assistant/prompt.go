package assistant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-assistant/internal/finance"
)

// The prompt is the external contract with the generation model: section
// headers, money formatting and the guideline block are fixed, and the same
// snapshot must always render to byte-identical text.

const promptIntro = "You are an AI financial advisor assistant for a personal finance platform. " +
	"Your role is to help users understand their finances, provide insights, and answer questions " +
	"about their spending, income, and budgets."

const promptGuidelines = `GUIDELINES:
1. Be detailed, helpful, and friendly
2. Use the provided financial data to give personalized advice
3. Alert users if they're overspending or exceeding their budget
4. Suggest ways to save money or optimize their spending
5. When asked about specific transactions or categories, reference the actual data
6. Keep responses under 200 words unless detailed analysis is requested
7. Use bullet points for clarity when listing multiple items
8. If you don't have enough information, ask clarifying questions
9. Highlight their biggest spending categories
10. Encourage setting a budget if they don't have one

IMPORTANT RULES:
- Do NOT use markdown.
- Do NOT use asterisks, bullet points, or numbered lists.
- Do NOT format text with symbols.
- Use plain sentences only.

IMPORTANT: Always base your responses on the user's actual financial data provided above.`

const (
	noBudgetMarker      = "No budget set"
	noExpensesMarker    = "No expenses recorded this month"
	noDescriptionMarker = "No description"

	promptDateFormat = "2006-01-02"
)

// RenderPrompt renders the snapshot into the system instruction for the
// generation model. It is pure and never fails: absent optional fields render
// as explicit placeholder text.
func RenderPrompt(snap finance.Snapshot) string {
	var b strings.Builder

	b.WriteString(promptIntro)
	b.WriteString("\n\n")
	renderSummary(&b, snap)
	b.WriteString("\nACCOUNTS:\n")
	renderAccounts(&b, snap.Accounts)
	b.WriteString("\nSPENDING BY CATEGORY (This Month):\n")
	renderCategories(&b, snap.SpendingByCategory)
	b.WriteString("\nRECENT TRANSACTIONS (Last 20):\n")
	renderTransactions(&b, snap.RecentTransactions)
	b.WriteString("\n")
	b.WriteString(promptGuidelines)

	return b.String()
}

func renderSummary(b *strings.Builder, snap finance.Snapshot) {
	b.WriteString("CURRENT USER FINANCIAL DATA:\n")
	fmt.Fprintf(b, "- Total Balance (All Accounts): %s\n", money(snap.TotalBalance))
	fmt.Fprintf(b, "- Income (Last 30 days): %s\n", money(snap.TotalIncome30d))
	fmt.Fprintf(b, "- Expenses (Last 30 days): %s\n", money(snap.TotalExpenses30d))
	fmt.Fprintf(b, "- Net (Last 30 days): %s\n", money(snap.Net30d()))

	if snap.Budget == nil {
		fmt.Fprintf(b, "- %s\n", noBudgetMarker)
		return
	}

	fmt.Fprintf(b, "- Monthly Budget: %s\n", money(snap.Budget.Amount))
	if len(snap.SpendingByCategory) > 0 {
		spent := snap.MonthlySpend()
		fmt.Fprintf(b, "- Budget Used: %s / %s (%d%%)\n",
			money(spent), money(snap.Budget.Amount), budgetPercent(spent, snap.Budget.Amount))
	}
}

func renderAccounts(b *strings.Builder, accounts []finance.Account) {
	for _, acc := range accounts {
		suffix := ""
		if acc.IsDefault {
			suffix = ", Default"
		}
		fmt.Fprintf(b, "- %s (%s%s): %s\n", acc.Name, acc.Type, suffix, money(acc.Balance))
	}
}

func renderCategories(b *strings.Builder, categories []finance.CategorySpend) {
	if len(categories) == 0 {
		b.WriteString(noExpensesMarker + "\n")
		return
	}

	// The aggregator already orders descending; sorting a copy keeps the
	// section contract independent of the input ordering.
	sorted := make([]finance.CategorySpend, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.GreaterThan(sorted[j].Amount)
	})

	for _, cat := range sorted {
		fmt.Fprintf(b, "- %s: %s\n", cat.Category, money(cat.Amount))
	}
}

func renderTransactions(b *strings.Builder, transactions []finance.Transaction) {
	for _, tx := range transactions {
		description := tx.Description
		if description == "" {
			description = noDescriptionMarker
		}
		line := fmt.Sprintf("- %s: %s - %s (%s",
			tx.Date.Format(promptDateFormat), description, money(tx.Amount), tx.Type)
		if tx.Category != "" {
			line += ", " + tx.Category
		}
		b.WriteString(line + ")\n")
	}
}

// money renders a monetary amount with exactly two decimal digits.
func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// budgetPercent computes 100*used/budget truncated toward zero, so 89.99%
// displays as 89. A zero budget reports 0 rather than dividing.
func budgetPercent(used, budget decimal.Decimal) int64 {
	if budget.IsZero() {
		return 0
	}
	return used.Mul(decimal.NewFromInt(100)).Div(budget).IntPart()
}
