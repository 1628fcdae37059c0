package http

import (
	"errors"
	"net/http"

	"bilancio/internal/chart"
	"bilancio/internal/core"
)

// AppError is what a handler tells the client when an operation fails.
type AppError struct {
	Status  int
	Code    string
	Title   string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrIncomeRequired  = &AppError{http.StatusConflict, "INCOME_REQUIRED", "Income Required", "Please record your first Income before adding any Expenses!"}
	ErrInvalidDate     = &AppError{http.StatusUnprocessableEntity, "INVALID_DATE", "Invalid Input", "Please check format. Date must be YYYY-MM-DD."}
	ErrInvalidAmount   = &AppError{http.StatusUnprocessableEntity, "INVALID_AMOUNT", "Invalid Input", "Please check format. Amount must be a number greater than zero."}
	ErrUnknownCategory = &AppError{http.StatusUnprocessableEntity, "UNKNOWN_CATEGORY", "Invalid Input", "Please choose a category from the list."}
	ErrInvalidKind     = &AppError{http.StatusUnprocessableEntity, "INVALID_KIND", "Invalid Input", "Please choose Income or Expense."}
	ErrNoSelection     = &AppError{http.StatusBadRequest, "NO_SELECTION", "No Selection", "Please select a transaction to delete."}
	ErrNoTransactions  = &AppError{http.StatusNotFound, "NO_DATA", "No Data", "Add some transactions first!"}
	ErrNoExpenses      = &AppError{http.StatusNotFound, "NO_DATA", "No Expense Data", "Add some expenses to view the category breakdown."}
	ErrInvalidRequest  = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid Request", "Invalid request format."}
	ErrInternal        = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "Error", "An unexpected error occurred."}
)

// toAppError maps ledger errors onto client-facing errors. Anything
// unrecognised becomes ErrInternal.
func toAppError(err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, core.ErrIncomeRequired):
		return ErrIncomeRequired
	case errors.Is(err, core.ErrInvalidDate):
		return ErrInvalidDate
	case errors.Is(err, core.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, core.ErrUnknownCategory):
		return ErrUnknownCategory
	case errors.Is(err, core.ErrInvalidKind):
		return ErrInvalidKind
	case errors.Is(err, core.ErrIndexOutOfRange):
		return ErrNoSelection
	case errors.Is(err, chart.ErrNoData):
		return ErrNoTransactions
	default:
		return ErrInternal
	}
}
