// Package dashboard maps ledger rollups to display fields and goal alerts.
package dashboard

import (
	"sort"
	"time"

	"financas/internal/aggregate"
	"financas/internal/core"
)

// DefaultDismissAfter is how long a notice stays on screen before it is dismissed.
const DefaultDismissAfter = 5 * time.Second

const (
	BalancePositive = "positive"
	BalanceNegative = "negative"
)

type AlertKind string

const (
	AlertIncomeGoalReached   AlertKind = "income_goal_reached"
	AlertExpenseLimitReached AlertKind = "expense_limit_reached"
)

// Alert is a transient notice. DismissAfterMs mirrors DismissAfter for JSON clients.
type Alert struct {
	Kind           AlertKind     `json:"kind"`
	Message        string        `json:"message"`
	DismissAfter   time.Duration `json:"-"`
	DismissAfterMs int64         `json:"dismissAfterMs"`
}

func newAlert(kind AlertKind, msg string, dismiss time.Duration) Alert {
	return Alert{Kind: kind, Message: msg, DismissAfter: dismiss, DismissAfterMs: dismiss.Milliseconds()}
}

// Amounts holds a figure both raw and formatted.
type Amounts struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`

	IncomeText  string `json:"incomeText"`
	ExpenseText string `json:"expenseText"`
	BalanceText string `json:"balanceText"`
}

type View struct {
	All          Amounts    `json:"all"`
	Month        Amounts    `json:"month"`
	Goals        core.Goals `json:"goals"`
	BalanceClass string     `json:"balanceClass"`
	Alerts       []Alert    `json:"alerts"`
}

// Presenter builds dashboard views. The zero value uses DefaultDismissAfter.
type Presenter struct {
	DismissAfter time.Duration
}

func New(dismissAfter time.Duration) *Presenter {
	return &Presenter{DismissAfter: dismissAfter}
}

// Present recomputes every dashboard field from list and goals.
// Alerts are level-triggered: they appear on every call while their
// condition holds.
func (p *Presenter) Present(list []core.Transaction, goals core.Goals, now time.Time) View {
	all := aggregate.Totals(list)
	month := aggregate.CurrentMonth(list, now)

	v := View{
		All:          amounts(all),
		Month:        amounts(month),
		Goals:        goals,
		BalanceClass: BalanceClass(all.Balance),
		Alerts:       append([]Alert{}, p.Alerts(month, goals)...),
	}
	return v
}

// Alerts evaluates the goal conditions against the current month's totals.
func (p *Presenter) Alerts(month core.Totals, goals core.Goals) []Alert {
	dismiss := p.DismissAfter
	if dismiss <= 0 {
		dismiss = DefaultDismissAfter
	}
	var out []Alert
	if goals.IncomeTarget > 0 && month.Income >= goals.IncomeTarget {
		out = append(out, newAlert(AlertIncomeGoalReached,
			"Parabéns! Você atingiu sua meta de receitas de "+core.FormatAmount(goals.IncomeTarget)+" este mês.", dismiss))
	}
	if goals.ExpenseLimit > 0 && month.Expense >= goals.ExpenseLimit {
		out = append(out, newAlert(AlertExpenseLimitReached,
			"Atenção! Você atingiu seu limite de despesas de "+core.FormatAmount(goals.ExpenseLimit)+" este mês.", dismiss))
	}
	return out
}

// BalanceClass classifies a balance for display styling.
func BalanceClass(balance float64) string {
	if balance < 0 {
		return BalanceNegative
	}
	return BalancePositive
}

// SortTransactions returns a copy of list sorted by date, newest first.
// Transactions on the same date keep their insertion order.
func SortTransactions(list []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date)
	})
	return out
}

// Recent returns at most n transactions from the sorted listing. n <= 0 means all.
func Recent(list []core.Transaction, n int) []core.Transaction {
	sorted := SortTransactions(list)
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func amounts(t core.Totals) Amounts {
	return Amounts{
		Income:      t.Income,
		Expense:     t.Expense,
		Balance:     t.Balance,
		IncomeText:  core.FormatAmount(t.Income),
		ExpenseText: core.FormatAmount(t.Expense),
		BalanceText: core.FormatAmount(t.Balance),
	}
}
