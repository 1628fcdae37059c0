package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "Income"
	Expense Kind = "Expense"
)

// DateLayout is the only accepted input format for transaction dates.
const DateLayout = "2006-01-02"

type (
	Kind string

	Date struct {
		time.Time
	}

	// Transaction is immutable once stored in a ledger.
	Transaction struct {
		Date     Date
		Category string
		Amount   decimal.Decimal
		Kind     Kind
	}
)

var (
	ErrIncomeRequired  = errors.New("an income must be recorded before any expense")
	ErrInvalidDate     = errors.New("invalid date: expected YYYY-MM-DD")
	ErrInvalidAmount   = errors.New("invalid amount: must be a number greater than zero")
	ErrIndexOutOfRange = errors.New("transaction index out of range")
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrUnknownCategory = errors.New("unknown category for transaction kind")
)

// ParseKind accepts "income" or "expense" in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) IsValid() bool {
	return k == Income || k == Expense
}

func (k Kind) String() string {
	return string(k)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses s strictly as YYYY-MM-DD. Out-of-range days such as
// 2024-02-30 are rejected rather than normalised.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Signed returns the amount with the sign it contributes to the balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	return nil
}
