// Package chart shapes ledger rollups into series a charting widget can draw.
//
// The shaper never touches the widget. It returns a tagged Result and the
// renderer picks a line or pie chart from Result.Kind.
package chart

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"financas/internal/aggregate"
	"financas/internal/core"
)

type Mode string

const (
	Monthly  Mode = "monthly"
	Yearly   Mode = "yearly"
	Category Mode = "category"
)

// Window sizes for each mode.
const (
	MonthlyBuckets = 12
	YearlyBuckets  = 5
	CategoryMonths = 6
)

type Kind string

const (
	KindSeries      Kind = "series"
	KindProportions Kind = "proportions"
)

var monthNames = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

var titles = map[Mode]string{
	Monthly:  "Evolução Mensal (Últimos 12 meses)",
	Yearly:   "Evolução Anual (Últimos 5 anos)",
	Category: "Despesas por Categoria (Últimos 6 meses)",
}

// Series is the line-chart shape. All slices are aligned with Labels.
type Series struct {
	Labels  []string  `json:"labels"`
	Income  []float64 `json:"income"`
	Expense []float64 `json:"expense"`
	Balance []float64 `json:"balance"`
}

// Proportions is the pie-chart shape. Values is aligned with Labels.
type Proportions struct {
	Labels     []string        `json:"labels"`
	Categories []core.Category `json:"categories"`
	Values     []float64       `json:"values"`
}

// Result is either a Series or a Proportions, selected by Kind.
type Result struct {
	Kind        Kind         `json:"kind"`
	Mode        Mode         `json:"mode"`
	Title       string       `json:"title"`
	Series      *Series      `json:"series,omitempty"`
	Proportions *Proportions `json:"proportions,omitempty"`
}

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Monthly, Yearly, Category:
		return m, nil
	case "":
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown chart view %q", s)
}

// Shaper remembers the selected view and nothing else.
type Shaper struct {
	mode   Mode
	labels core.Labels
}

// New returns a shaper in Monthly mode. A nil labels map uses the defaults.
func New(labels core.Labels) *Shaper {
	if labels == nil {
		labels = core.DefaultLabels()
	}
	return &Shaper{mode: Monthly, labels: labels}
}

func (s *Shaper) Mode() Mode { return s.mode }

// Select switches the view. Unknown modes are rejected and leave the current one.
func (s *Shaper) Select(m Mode) error {
	switch m {
	case Monthly, Yearly, Category:
		s.mode = m
		return nil
	}
	return fmt.Errorf("unknown chart view %q", m)
}

// Shape recomputes the selected view from list.
func (s *Shaper) Shape(list []core.Transaction, now time.Time) Result {
	return s.ShapeMode(s.mode, list, now)
}

// ShapeMode recomputes a given view without changing the selection.
func (s *Shaper) ShapeMode(m Mode, list []core.Transaction, now time.Time) Result {
	switch m {
	case Yearly:
		return Result{Kind: KindSeries, Mode: Yearly, Title: titles[Yearly], Series: yearly(list, now)}
	case Category:
		return Result{Kind: KindProportions, Mode: Category, Title: titles[Category], Proportions: s.categories(list, now)}
	default:
		return Result{Kind: KindSeries, Mode: Monthly, Title: titles[Monthly], Series: monthly(list, now)}
	}
}

func monthly(list []core.Transaction, now time.Time) *Series {
	out := newSeries(MonthlyBuckets)
	for i := MonthlyBuckets - 1; i >= 0; i-- {
		// time.Date normalizes negative months into earlier years.
		d := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		out.add(monthNames[d.Month()-1], aggregate.MonthTotals(list, d.Year(), int(d.Month())-1))
	}
	return out
}

func yearly(list []core.Transaction, now time.Time) *Series {
	out := newSeries(YearlyBuckets)
	for i := YearlyBuckets - 1; i >= 0; i-- {
		year := now.Year() - i
		out.add(strconv.Itoa(year), aggregate.YearTotals(list, year))
	}
	return out
}

func (s *Shaper) categories(list []core.Transaction, now time.Time) *Proportions {
	amounts := aggregate.CategoryAmounts(list, CategoryWindowStart(now))
	out := &Proportions{
		Labels:     make([]string, 0, len(amounts)),
		Categories: make([]core.Category, 0, len(amounts)),
		Values:     make([]float64, 0, len(amounts)),
	}
	for _, a := range amounts {
		out.Labels = append(out.Labels, s.labels.Label(a.Category))
		out.Categories = append(out.Categories, a.Category)
		out.Values = append(out.Values, a.Amount)
	}
	return out
}

// CategoryWindowStart is the first day of the month six months before now's month.
func CategoryWindowStart(now time.Time) core.Date {
	d := time.Date(now.Year(), now.Month()-CategoryMonths, 1, 0, 0, 0, 0, time.UTC)
	return core.DateOf(d)
}

func newSeries(n int) *Series {
	return &Series{
		Labels:  make([]string, 0, n),
		Income:  make([]float64, 0, n),
		Expense: make([]float64, 0, n),
		Balance: make([]float64, 0, n),
	}
}

func (s *Series) add(label string, t core.Totals) {
	s.Labels = append(s.Labels, label)
	s.Income = append(s.Income, t.Income)
	s.Expense = append(s.Expense, t.Expense)
	s.Balance = append(s.Balance, t.Income-t.Expense)
}
