package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
)

func TestWriteCSV(t *testing.T) {
	txs := []core.Transaction{
		{Date: core.NewDate(2024, 1, 3), Category: "Salary", Amount: decimal.NewFromInt(1000), Kind: core.Income},
		{Date: core.NewDate(2024, 1, 1), Category: "Food, drinks", Amount: decimal.RequireFromString("12.5"), Kind: core.Expense},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, txs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Index,Date,Kind,Category,Amount,Signed", lines[0])
	assert.Equal(t, "0,2024-01-03,Income,Salary,1000.00,1000.00", lines[1])
	assert.Equal(t, `1,2024-01-01,Expense,"Food, drinks",12.50,-12.50`, lines[2])

	var back []*Row
	require.NoError(t, gocsv.UnmarshalString(buf.String(), &back))
	require.Len(t, back, 2)
	assert.Equal(t, "Food, drinks", back[1].Category)
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "Index,Date,Kind,Category,Amount,Signed\n", buf.String())
}

func TestWriteCSVKeepsParsedPrecision(t *testing.T) {
	var txs []core.Transaction
	for _, in := range []string{"0,05", "0.01", "999999999999.99"} {
		amt, err := core.ParseAmount(in)
		require.NoError(t, err)
		txs = append(txs, core.Transaction{Date: core.NewDate(2024, 1, 1), Category: "Food", Amount: amt, Kind: core.Expense})
	}

	var back []*Row
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, txs))
	require.NoError(t, gocsv.UnmarshalString(buf.String(), &back))
	require.Len(t, back, 3)

	for i, row := range back {
		exported := decimal.RequireFromString(row.Amount)
		assert.True(t, exported.Equal(txs[i].Amount), "row %d: %s != %s", i, row.Amount, txs[i].Amount)
	}
	assert.Equal(t, "-0.05", back[0].Signed)
}
