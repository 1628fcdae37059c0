// Package chart turns ledger aggregates into JSON payloads for the
// browser-side renderer. Builders are pure functions of their input.
package chart

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"bilancio/internal/ledger"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data")

// Palette is the slice colour cycle used by the pie chart.
var Palette = []string{"#00ff99", "#ff9900", "#66ccff", "#ff6666", "#cc66ff", "#ccff66", "#999999"}

type (
	PieSlice struct {
		Label   string          `json:"label"`
		Value   decimal.Decimal `json:"value"`
		Percent float64         `json:"percent"`
		Color   string          `json:"color"`
	}

	PieChart struct {
		ChartType string          `json:"chart_type"`
		Title     string          `json:"title"`
		Total     decimal.Decimal `json:"total"`
		Slices    []PieSlice      `json:"slices"`
	}

	LinePoint struct {
		Date    string          `json:"date"`
		Balance decimal.Decimal `json:"balance"`
	}

	LineChart struct {
		ChartType string          `json:"chart_type"`
		Title     string          `json:"title"`
		Points    []LinePoint     `json:"points"`
		Min       decimal.Decimal `json:"min"`
		Max       decimal.Decimal `json:"max"`
		// CrossesZero is set when the series has both negative and
		// non-negative balances, so the renderer draws the zero baseline.
		CrossesZero bool `json:"crosses_zero"`
	}
)

// Pie builds the expense breakdown. Slices are ordered by amount, largest
// first, with ties broken by label so the output is deterministic.
func Pie(summary map[string]decimal.Decimal) (PieChart, error) {
	if len(summary) == 0 {
		return PieChart{}, ErrNoData
	}

	labels := make([]string, 0, len(summary))
	total := decimal.Zero
	for label, amount := range summary {
		labels = append(labels, label)
		total = total.Add(amount)
	}
	if !total.IsPositive() {
		return PieChart{}, ErrNoData
	}
	sort.Slice(labels, func(i, j int) bool {
		a, b := summary[labels[i]], summary[labels[j]]
		if c := a.Cmp(b); c != 0 {
			return c > 0
		}
		return labels[i] < labels[j]
	})

	out := PieChart{
		ChartType: "pie",
		Title:     "Expense Category Breakdown",
		Total:     total,
		Slices:    make([]PieSlice, 0, len(labels)),
	}
	hundred := decimal.NewFromInt(100)
	for i, label := range labels {
		amount := summary[label]
		pct, _ := amount.Mul(hundred).Div(total).Round(1).Float64()
		out.Slices = append(out.Slices, PieSlice{
			Label:   label,
			Value:   amount,
			Percent: pct,
			Color:   Palette[i%len(Palette)],
		})
	}
	return out, nil
}

// Line builds the cumulative balance chart from an already ordered series.
func Line(series []ledger.SeriesPoint) (LineChart, error) {
	if len(series) == 0 {
		return LineChart{}, ErrNoData
	}

	out := LineChart{
		ChartType: "line",
		Title:     "Cumulative Balance Over Time",
		Points:    make([]LinePoint, 0, len(series)),
		Min:       series[0].Balance,
		Max:       series[0].Balance,
	}
	for _, p := range series {
		out.Points = append(out.Points, LinePoint{Date: p.Date.String(), Balance: p.Balance})
		out.Min = decimal.Min(out.Min, p.Balance)
		out.Max = decimal.Max(out.Max, p.Balance)
	}
	out.CrossesZero = out.Min.IsNegative() && !out.Max.IsNegative()
	return out, nil
}
