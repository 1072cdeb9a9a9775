// Package aggregate computes rollups over a flat transaction list.
//
// Every function is pure: it reads the slice it is given and nothing else.
// Sums are plain float64 additions; rounding is left to presentation.
package aggregate

import (
	"time"

	"financas/internal/core"
)

// Totals sums income and expense over all transactions.
func Totals(list []core.Transaction) core.Totals {
	return sum(list, func(core.Transaction) bool { return true })
}

// MonthTotals sums the transactions dated in the given calendar month.
// month is 0-indexed (0 = January).
func MonthTotals(list []core.Transaction, year, month int) core.Totals {
	return sum(list, func(t core.Transaction) bool {
		return t.Date.Year() == year && int(t.Date.Month())-1 == month
	})
}

// YearTotals sums the transactions dated in the given calendar year.
func YearTotals(list []core.Transaction, year int) core.Totals {
	return sum(list, func(t core.Transaction) bool {
		return t.Date.Year() == year
	})
}

// CategoryBreakdown sums expense amounts per category for transactions dated
// on or after since. Categories without a matching expense are absent.
func CategoryBreakdown(list []core.Transaction, since core.Date) map[core.Category]float64 {
	out := make(map[core.Category]float64)
	for _, t := range list {
		if t.Type != core.Expense || t.Date.Before(since) {
			continue
		}
		out[t.Category] += t.Amount
	}
	return out
}

// CategoryAmounts is CategoryBreakdown in the order of each category's first
// expense in the window, so chart labels are stable across refreshes.
func CategoryAmounts(list []core.Transaction, since core.Date) []core.CategoryAmount {
	sums := CategoryBreakdown(list, since)
	out := make([]core.CategoryAmount, 0, len(sums))
	seen := make(map[core.Category]bool, len(sums))
	for _, t := range list {
		if t.Type != core.Expense || t.Date.Before(since) || seen[t.Category] {
			continue
		}
		amount := sums[t.Category]
		seen[t.Category] = true
		out = append(out, core.CategoryAmount{Category: t.Category, Amount: amount})
	}
	return out
}

// CurrentMonth is MonthTotals for the month containing now.
func CurrentMonth(list []core.Transaction, now time.Time) core.Totals {
	return MonthTotals(list, now.Year(), int(now.Month())-1)
}

func sum(list []core.Transaction, keep func(core.Transaction) bool) core.Totals {
	var t core.Totals
	for _, tx := range list {
		if !keep(tx) {
			continue
		}
		switch tx.Type {
		case core.Income:
			t.Income += tx.Amount
		case core.Expense:
			t.Expense += tx.Amount
		}
	}
	t.Balance = t.Income - t.Expense
	return t
}
