package core

import "slices"

var (
	incomeSources = []string{"Salary", "Investment", "Gift", "Other Income"}

	expenseCategories = []string{"Food", "Transport", "Shopping", "Bills", "Entertainment", "Health", "Other"}
)

// CategoriesFor returns the selectable labels for a kind, in display order.
// The result is a copy and may be modified by the caller.
func CategoriesFor(k Kind) []string {
	switch k {
	case Expense:
		return slices.Clone(expenseCategories)
	case Income:
		return slices.Clone(incomeSources)
	default:
		return nil
	}
}

// IsValidCategory reports whether label belongs to the enumeration for k.
func IsValidCategory(k Kind, label string) bool {
	return slices.Contains(CategoriesFor(k), label)
}
