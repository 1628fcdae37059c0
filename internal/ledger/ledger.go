// Package ledger holds the authoritative list of transactions and the
// queries derived from it: balance, per-category expense totals, and the
// chronological running balance.
//
// A Ledger is not safe for concurrent use. It is owned by a single control
// goroutine (see services.LedgerService) and readers receive copies.
package ledger

import (
	"slices"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// GateListener is notified when removing a transaction leaves the ledger
// without any income, so that expense entry must be disabled again.
type GateListener interface {
	IncomeRequired(removed core.Transaction)
}

// GateListenerFunc adapts a plain function to GateListener.
type GateListenerFunc func(removed core.Transaction)

func (f GateListenerFunc) IncomeRequired(removed core.Transaction) { f(removed) }

// SeriesPoint is one step of the running balance.
type SeriesPoint struct {
	Date    core.Date
	Balance decimal.Decimal
}

type Option func(*Ledger)

// WithStrictCategories makes Add reject labels outside core.CategoriesFor.
func WithStrictCategories() Option {
	return func(l *Ledger) { l.strict = true }
}

// WithGateListener registers a listener for the income gate closing.
func WithGateListener(gl GateListener) Option {
	return func(l *Ledger) { l.listeners = append(l.listeners, gl) }
}

type Ledger struct {
	items     []core.Transaction
	strict    bool
	listeners []GateListener
}

func New(opts ...Option) *Ledger {
	l := &Ledger{}
	for _, o := range opts {
		o(l)
	}
	return l
}

// HasIncome reports whether at least one Income transaction exists.
// It rescans the list on every call.
func (l *Ledger) HasIncome() bool {
	return slices.ContainsFunc(l.items, func(t core.Transaction) bool {
		return t.Kind == core.Income
	})
}

// Add validates raw input and appends the transaction.
//
// Checks run in order: income gate, date, amount, and (strict mode only)
// category. The ledger is untouched when any check fails.
func (l *Ledger) Add(date, category, amount string, kind core.Kind) (core.Transaction, error) {
	if !kind.IsValid() {
		return core.Transaction{}, core.ErrInvalidKind
	}
	if kind == core.Expense && !l.HasIncome() {
		return core.Transaction{}, core.ErrIncomeRequired
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	amt, err := core.ParseAmount(amount)
	if err != nil {
		return core.Transaction{}, err
	}
	if l.strict && !core.IsValidCategory(kind, category) {
		return core.Transaction{}, core.ErrUnknownCategory
	}

	t := core.Transaction{Date: d, Category: category, Amount: amt, Kind: kind}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	l.items = append(l.items, t)
	return t, nil
}

// RemoveAt deletes and returns the transaction at index. Listeners are
// notified after the removal when it took away the last income.
func (l *Ledger) RemoveAt(index int) (core.Transaction, error) {
	if index < 0 || index >= len(l.items) {
		return core.Transaction{}, core.ErrIndexOutOfRange
	}
	removed := l.items[index]
	l.items = slices.Delete(l.items, index, index+1)

	if removed.Kind == core.Income && !l.HasIncome() {
		for _, gl := range l.listeners {
			gl.IncomeRequired(removed)
		}
	}
	return removed, nil
}

// Len returns the number of transactions.
func (l *Ledger) Len() int {
	return len(l.items)
}

// Transactions returns a copy of the list in insertion order.
func (l *Ledger) Transactions() []core.Transaction {
	return slices.Clone(l.items)
}

// Balance is the sum of incomes minus the sum of expenses.
func (l *Ledger) Balance() decimal.Decimal {
	total := decimal.Zero
	for _, t := range l.items {
		total = total.Add(t.Signed())
	}
	return total
}

// CategorySummary totals expense amounts per category label. Iteration
// order of the result is unspecified.
func (l *Ledger) CategorySummary() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range l.items {
		if t.Kind != core.Expense {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// BalanceSeries returns the running balance in date order. Transactions on
// the same date keep their insertion order.
func (l *Ledger) BalanceSeries() []SeriesPoint {
	sorted := slices.Clone(l.items)
	slices.SortStableFunc(sorted, func(a, b core.Transaction) int {
		return a.Date.Compare(b.Date.Time)
	})

	out := make([]SeriesPoint, 0, len(sorted))
	running := decimal.Zero
	for _, t := range sorted {
		running = running.Add(t.Signed())
		out = append(out, SeriesPoint{Date: t.Date, Balance: running})
	}
	return out
}
