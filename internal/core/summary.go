package core

// CardInvoiceAmount is a per-card invoice total for the dashboard.
type CardInvoiceAmount struct {
	CardName string
	Amount   Money
	Paid     bool
}

// MonthSummary is the dashboard view of one month: income and the
// cash-affecting expense buckets, plus the running balance.
type MonthSummary struct {
	Month YearMonth

	TotalEntries Money
	KmTotal      float64
	HoursTotal   float64

	VariableExpenses Money // cash-like despesas
	FixedExpenses    Money // cash-like fixos, paid only
	DebtPayments     Money // euDevo pendencias, paid with cash

	TotalExpenses Money
	NetProfit     Money // entries minus expenses; may be negative

	AccumulatedBalance Money // ledger value; may be negative
	TotalCardLimits    Money

	Invoices []CardInvoiceAmount
}
