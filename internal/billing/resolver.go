// Package billing assigns dated transactions to credit-card billing
// cycles and projects installment purchases across invoice months.
package billing

import (
	"github.com/andersonmelo18/Financeiro/internal/core"
)

// ResolveInvoiceMonth returns the invoice month a transaction belongs
// to: on or after the card's closing day the charge rolls to the next
// month's invoice. A closing day beyond the month's length is clamped
// to its last day.
func ResolveInvoiceMonth(txDate core.Date, closingDay int) core.YearMonth {
	ym := core.YearMonthOf(txDate)
	closing := closingDay
	if days := ym.Days(); closing > days {
		closing = days
	}
	if txDate.Day() >= closing {
		return ym.Next()
	}
	return ym
}

// PaidStatus is what an aggregation pass knows about a card's settled
// invoices: the month being viewed and the month before it.
type PaidStatus struct {
	Previous bool
	Current  bool
}

// EffectiveInvoiceMonth applies the roll-forward policy: a charge whose
// naive invoice month was already paid attaches to the following
// month's invoice instead. The shift is applied at most once; paid
// status is only known for the viewing month and its predecessor.
func EffectiveInvoiceMonth(naive, viewing core.YearMonth, paid PaidStatus) core.YearMonth {
	switch {
	case naive == viewing.Prev() && paid.Previous:
		return naive.Next()
	case naive == viewing && paid.Current:
		return naive.Next()
	}
	return naive
}
