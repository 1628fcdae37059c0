package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

const categoryColumnWidth = 15

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// requestID keeps a caller-supplied X-Request-ID when it is a UUID.
func requestID(r *http.Request) string {
	if id, err := uuid.Parse(r.Header.Get("X-Request-ID")); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// formatSigned renders "+₹1,000.00" for income and "-₹50.00" for expense.
func formatSigned(t core.Transaction, symbol string) string {
	if t.Kind == core.Expense {
		return core.FormatMoney(t.Amount.Neg(), symbol)
	}
	return "+" + core.FormatMoney(t.Amount, symbol)
}

// formatRow renders one list line as "date | kind | category | ±amount"
// with the kind padded to 7 and the category cut and padded to 15.
func formatRow(t core.Transaction, symbol string) string {
	return fmt.Sprintf("%s | %-7s | %-*s | %s",
		t.Date.String(), t.Kind.String(), categoryColumnWidth, truncate(t.Category, categoryColumnWidth), formatSigned(t, symbol))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func balanceClass(balance decimal.Decimal) string {
	if balance.IsNegative() {
		return "negative"
	}
	return "positive"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, appErr *AppError) {
	writeJSON(w, appErr.Status, map[string]string{
		"error":   appErr.Code,
		"title":   appErr.Title,
		"message": appErr.Message,
	})
}
