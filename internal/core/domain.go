package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	GoalIncome  GoalKind = "income"
	GoalExpense GoalKind = "expense"
)

const dateLayout = "2006-01-02"

type (
	Kind     string
	GoalKind string

	// Date is a calendar day with no time component, stored as UTC midnight.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          int64    `json:"id"`
		Description string   `json:"description"`
		Amount      float64  `json:"amount"`
		Type        Kind     `json:"type"`
		Category    Category `json:"category"`
		Date        Date     `json:"date"`
	}

	// NewTransaction is the user input for a transaction before the store assigns an id.
	NewTransaction struct {
		Description string
		Amount      float64
		Type        Kind
		Category    Category
		Date        Date
	}

	Goals struct {
		IncomeTarget float64 `json:"incomeTarget"`
		ExpenseLimit float64 `json:"expenseLimit"`
	}
)

var (
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidKind      = errors.New("invalid transaction type")
	ErrInvalidGoal      = errors.New("invalid goal value")
	ErrInvalidGoalKind  = errors.New("invalid goal kind")
)

// ValidationError reports bad user input. Err is one of the sentinel errors above.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// NewDate creates a Date from year, month (1-12) and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, invalid("date", ErrInvalidDate)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	*d = Date{Time: t}
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return invalid("date", ErrInvalidDate)
	}
	return nil
}

// Before reports whether d is strictly earlier than other, by calendar day.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// UnmarshalJSON maps the Portuguese names to Income and Expense. Anything
// else is kept as written and fails Valid.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("parse transaction type: %w", err)
	}
	if parsed, err := ParseKind(s); err == nil {
		*k = parsed
		return nil
	}
	*k = Kind(s)
	return nil
}

// ParseKind accepts the English names and the Portuguese ones found in
// browser exports ("receita", "despesa").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "receita":
		return Income, nil
	case "expense", "despesa":
		return Expense, nil
	}
	return "", invalid("type", ErrInvalidKind)
}

func ParseGoalKind(s string) (GoalKind, error) {
	switch GoalKind(strings.ToLower(strings.TrimSpace(s))) {
	case GoalIncome:
		return GoalIncome, nil
	case GoalExpense:
		return GoalExpense, nil
	}
	return "", invalid("goal", ErrInvalidGoalKind)
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func (t NewTransaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return invalid("description", ErrEmptyDescription)
	}
	if !validAmount(t.Amount) {
		return invalid("amount", ErrInvalidAmount)
	}
	if !t.Type.Valid() {
		return invalid("type", ErrInvalidKind)
	}
	return t.Date.Validate()
}

// Validate checks a stored transaction, e.g. one read back from an export file.
func (t Transaction) Validate() error {
	if t.ID <= 0 {
		return invalid("id", errors.New("missing id"))
	}
	return NewTransaction{
		Description: t.Description,
		Amount:      t.Amount,
		Type:        t.Type,
		Category:    t.Category,
		Date:        t.Date,
	}.Validate()
}

// ValidateGoal checks a goal value: finite and not negative.
func ValidateGoal(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return invalid("goal", ErrInvalidGoal)
	}
	return nil
}

// Set stores v under kind. Callers validate v first.
func (g *Goals) Set(kind GoalKind, v float64) {
	switch kind {
	case GoalIncome:
		g.IncomeTarget = v
	case GoalExpense:
		g.ExpenseLimit = v
	}
}
