// Package insights derives short rule-based advisory strings from a
// financial snapshot. The rules are fixed and evaluated in a fixed order;
// missing data yields fewer insights, never an error.
package insights

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-assistant/internal/finance"
)

var (
	hundred = decimal.NewFromInt(100)

	// lowBalanceThreshold is the total balance below which the emergency
	// fund warning fires.
	lowBalanceThreshold = decimal.NewFromInt(1000)

	budgetWarnPercent  = decimal.NewFromInt(75)
	budgetAlertPercent = decimal.NewFromInt(90)
)

// Evaluate applies the rule set to the snapshot and returns the resulting
// messages in rule order.
func Evaluate(snap finance.Snapshot) []string {
	var out []string

	if msg := budgetInsight(snap); msg != "" {
		out = append(out, msg)
	}

	out = append(out, cashFlowInsight(snap))

	if snap.TotalBalance.LessThan(lowBalanceThreshold) {
		out = append(out, "🏦 Your total balance is low. Consider building an emergency fund.")
	}

	if msg := topCategoryInsight(snap); msg != "" {
		out = append(out, msg)
	}

	return out
}

// budgetInsight reports budget pressure. Without a budget it suggests setting
// one; with a budget it warns at 75% used and alerts at 90%. Displayed
// percentages are truncated toward zero, so 89.99% reads as 89%.
func budgetInsight(snap finance.Snapshot) string {
	if snap.Budget == nil {
		return "💰 Consider setting a monthly budget to track your spending"
	}
	if snap.Budget.Amount.IsZero() {
		return ""
	}

	percentUsed := snap.MonthlySpend().Mul(hundred).Div(snap.Budget.Amount)

	switch {
	case percentUsed.GreaterThanOrEqual(budgetAlertPercent):
		return fmt.Sprintf("⚠️ You've used %d%% of your monthly budget", percentUsed.IntPart())
	case percentUsed.GreaterThanOrEqual(budgetWarnPercent):
		return fmt.Sprintf("💡 You've used %d%% of your monthly budget. Watch your spending!", percentUsed.IntPart())
	default:
		return ""
	}
}

// cashFlowInsight compares 30-day income against expenses. Exactly one of the
// two messages fires: a deficit warning or a savings note.
func cashFlowInsight(snap finance.Snapshot) string {
	if snap.TotalExpenses30d.GreaterThan(snap.TotalIncome30d) {
		deficit := snap.TotalExpenses30d.Sub(snap.TotalIncome30d)
		return fmt.Sprintf("⚠️ You're spending $%s more than you earn this month. Consider reducing expenses.", deficit.StringFixed(2))
	}
	savings := snap.TotalIncome30d.Sub(snap.TotalExpenses30d)
	return fmt.Sprintf("✅ Great! You've saved $%s this month.", savings.StringFixed(2))
}

// topCategoryInsight names the single highest-spending category of the
// current month. Ties keep the first element after a stable descending sort.
func topCategoryInsight(snap finance.Snapshot) string {
	if len(snap.SpendingByCategory) == 0 {
		return ""
	}

	byAmount := make([]finance.CategorySpend, len(snap.SpendingByCategory))
	copy(byAmount, snap.SpendingByCategory)
	sort.SliceStable(byAmount, func(i, j int) bool {
		return byAmount[i].Amount.GreaterThan(byAmount[j].Amount)
	})

	top := byAmount[0]
	return fmt.Sprintf("📊 Your biggest expense this month: %s ($%s)", top.Category, top.Amount.StringFixed(2))
}
