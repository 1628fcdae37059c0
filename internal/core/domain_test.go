package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-01", true},
		{"2024-02-29", true},
		{" 2024-12-31 ", true},
		{"2023-02-29", false}, // not a leap year
		{"2024-13-01", false},
		{"2024-1-1", false},
		{"01/02/2024", false},
		{"2024-01-01T10:00:00Z", false},
		{"", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidDate, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, time.UTC, d.Location())
	}
}

func TestDateString(t *testing.T) {
	assert.Equal(t, "2024-03-07", NewDate(2024, 3, 7).String())
}

func TestParseKind(t *testing.T) {
	for _, in := range []string{"income", "Income", " INCOME "} {
		k, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, Income, k, "input %q", in)
	}

	k, err := ParseKind("expense")
	require.NoError(t, err)
	assert.Equal(t, Expense, k)

	_, err = ParseKind("transfer")
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestTransactionSigned(t *testing.T) {
	in := Transaction{Date: NewDate(2024, 1, 1), Amount: decimal.NewFromInt(10), Kind: Income}
	out := Transaction{Date: NewDate(2024, 1, 1), Amount: decimal.NewFromInt(10), Kind: Expense}
	assert.True(t, in.Signed().Equal(decimal.NewFromInt(10)), "income signed = %s", in.Signed())
	assert.True(t, out.Signed().Equal(decimal.NewFromInt(-10)), "expense signed = %s", out.Signed())
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Date: NewDate(2025, 1, 1), Category: "Salary", Amount: decimal.NewFromInt(1), Kind: Income}
	assert.NoError(t, good.Validate())

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Date: Date{}, Amount: decimal.NewFromInt(1), Kind: Income}, ErrInvalidDate},
		{Transaction{Date: NewDate(2025, 1, 1), Amount: decimal.Zero, Kind: Income}, ErrInvalidAmount},
		{Transaction{Date: NewDate(2025, 1, 1), Amount: decimal.NewFromInt(-5), Kind: Expense}, ErrInvalidAmount},
		{Transaction{Date: NewDate(2025, 1, 1), Amount: decimal.NewFromInt(1), Kind: "Transfer"}, ErrInvalidKind},
	}
	for i, tc := range bads {
		assert.ErrorIs(t, tc.tx.Validate(), tc.want, "case %d", i)
	}
}

func TestCategoriesFor(t *testing.T) {
	inc := CategoriesFor(Income)
	exp := CategoriesFor(Expense)
	require.Len(t, inc, 4)
	require.Len(t, exp, 7)
	assert.Equal(t, "Salary", inc[0])
	assert.Equal(t, "Food", exp[0])
	assert.Nil(t, CategoriesFor("bogus"))

	// Callers get a copy.
	inc[0] = "changed"
	assert.Equal(t, "Salary", CategoriesFor(Income)[0])

	assert.True(t, IsValidCategory(Expense, "Food"))
	assert.False(t, IsValidCategory(Income, "Food"))
}
