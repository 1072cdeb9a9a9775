package core

import "time"

// Totals is an income/expense rollup over some set of transactions.
type Totals struct {
	Income  float64 `json:"incomeSum"`
	Expense float64 `json:"expenseSum"`
	Balance float64 `json:"balance"`
}

// CategoryAmount is an expense sum for one category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   float64  `json:"amount"`
}

// Op names a ledger mutation.
type Op string

const (
	OpAdd     Op = "add"
	OpDelete  Op = "delete"
	OpSetGoal Op = "set_goal"
	OpClear   Op = "clear"
	OpImport  Op = "import"
)

// Event is emitted after every persisted ledger mutation.
type Event struct {
	Op            Op        `json:"op"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	Goal          GoalKind  `json:"goal,omitempty"`
	At            time.Time `json:"at"`
}
