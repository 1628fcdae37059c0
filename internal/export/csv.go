// Package export writes the ledger in tabular form for download.
package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"bilancio/internal/core"
)

// Row is the CSV shape of one transaction.
type Row struct {
	Index    int    `csv:"Index"`
	Date     string `csv:"Date"`
	Kind     string `csv:"Kind"`
	Category string `csv:"Category"`
	Amount   string `csv:"Amount"`
	Signed   string `csv:"Signed"`
}

// Rows converts transactions to CSV rows, keeping insertion order.
func Rows(txs []core.Transaction) []*Row {
	rows := make([]*Row, 0, len(txs))
	for i, t := range txs {
		rows = append(rows, &Row{
			Index:    i,
			Date:     t.Date.String(),
			Kind:     t.Kind.String(),
			Category: t.Category,
			Amount:   t.Amount.StringFixed(2),
			Signed:   t.Signed().StringFixed(2),
		})
	}
	return rows
}

// WriteCSV writes a header line followed by one line per transaction. An
// empty ledger produces only the header.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	rows := Rows(txs)
	if len(rows) == 0 {
		if _, err := io.WriteString(w, "Index,Date,Kind,Category,Amount,Signed\n"); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		return nil
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("marshal csv: %w", err)
	}
	return nil
}
