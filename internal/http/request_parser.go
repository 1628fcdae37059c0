// This file turns form posts and query strings into ledger inputs.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

// parseTransactionForm reads date, category, amount and kind from a posted
// form. Date and amount stay raw; the ledger owns their validation so its
// check order decides which error the user sees first.
func parseTransactionForm(r *http.Request) (services.NewTransaction, error) {
	if err := r.ParseForm(); err != nil {
		return services.NewTransaction{}, ErrInvalidRequest
	}

	kind, err := core.ParseKind(r.PostForm.Get("kind"))
	if err != nil {
		return services.NewTransaction{}, ErrInvalidKind
	}

	return services.NewTransaction{
		Date:     sanitizeInput(r.PostForm.Get("date")),
		Category: sanitizeInput(r.PostForm.Get("category")),
		Amount:   sanitizeInput(r.PostForm.Get("amount")),
		Kind:     kind,
	}, nil
}

// parseIndexForm reads the selected list position. Anything that is not a
// non-negative integer counts as no selection.
func parseIndexForm(r *http.Request) (int, error) {
	if err := r.ParseForm(); err != nil {
		return 0, ErrInvalidRequest
	}
	v := strings.TrimSpace(r.PostForm.Get("index"))
	if v == "" {
		return 0, ErrNoSelection
	}
	index, err := strconv.Atoi(v)
	if err != nil || index < 0 {
		return 0, ErrNoSelection
	}
	return index, nil
}

// kindFromQuery resolves the kind whose categories the form should offer.
// Expense is only offered once an income exists; unknown values mean Income.
func kindFromQuery(q url.Values, hasIncome bool) core.Kind {
	kind, err := core.ParseKind(q.Get("kind"))
	if err != nil || (kind == core.Expense && !hasIncome) {
		return core.Income
	}
	return kind
}
