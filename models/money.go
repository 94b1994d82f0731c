package models

import "github.com/shopspring/decimal"

// The upstream billing service sends and expects plain JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// SumExpenses adds the amounts of a list of expenses.
func SumExpenses(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// SumPayments adds the amounts of a list of payments.
func SumPayments(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
