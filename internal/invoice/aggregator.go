// Package invoice computes per-card, per-month invoice totals from
// raw monthly records, applying the billing-cycle and installment
// projection rules.
package invoice

import (
	"context"
	"log/slog"
	"sort"

	"github.com/andersonmelo18/Financeiro/internal/billing"
	"github.com/andersonmelo18/Financeiro/internal/core"
)

// PaidStatusSource answers whether a card's invoice for a month was
// already settled. Both the invoice-payment expense records and the
// legacy pendência markers count.
type PaidStatusSource interface {
	InvoicePaid(ctx context.Context, userID, cardName string, ym core.YearMonth) (bool, error)
}

// Snapshot is the raw material of one aggregation pass: the viewing
// month's records plus the previous month's, since the roll-forward
// rule can pull last month's charges into this invoice.
type Snapshot struct {
	Cards        []core.Card
	PrevExpenses []core.Expense
	CurExpenses  []core.Expense
	PrevFixed    []core.FixedExpense
	CurFixed     []core.FixedExpense
	Purchases    []core.InstallmentPurchase
}

// LineItem is one charge on an invoice. Struck items carry zero
// amount but stay listed (reversed or settled installments).
type LineItem struct {
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Struck      bool       `json:"struck"`
}

// CardInvoice is the aggregated invoice of one card for one month.
type CardInvoice struct {
	Card  core.Card  `json:"card"`
	Total core.Money `json:"total"`
	Paid  bool       `json:"paid"`
	Items []LineItem `json:"items"`
}

type Aggregator struct {
	paid PaidStatusSource
}

func NewAggregator(paid PaidStatusSource) *Aggregator {
	return &Aggregator{paid: paid}
}

// Aggregate builds every card's invoice for the target month. The
// result maps card name to its invoice. Malformed records are skipped
// with a warning; they never abort the pass.
func (a *Aggregator) Aggregate(ctx context.Context, userID string, target core.YearMonth, snap Snapshot) (map[string]*CardInvoice, error) {
	result := make(map[string]*CardInvoice, len(snap.Cards))
	status := make(map[string]billing.PaidStatus, len(snap.Cards))

	for _, card := range snap.Cards {
		paidPrev, err := a.paid.InvoicePaid(ctx, userID, card.Name, target.Prev())
		if err != nil {
			return nil, err
		}
		paidCur, err := a.paid.InvoicePaid(ctx, userID, card.Name, target)
		if err != nil {
			return nil, err
		}
		status[card.Name] = billing.PaidStatus{Previous: paidPrev, Current: paidCur}
		result[card.Name] = &CardInvoice{Card: card, Paid: paidCur}
	}

	// Previous-month records first, then current: the roll-forward of
	// last month's late charges lands them on this invoice.
	for _, e := range snap.PrevExpenses {
		a.addExpense(ctx, result, status, target, e)
	}
	for _, e := range snap.CurExpenses {
		a.addExpense(ctx, result, status, target, e)
	}
	for _, f := range snap.PrevFixed {
		a.addFixed(ctx, result, status, target, f)
	}
	for _, f := range snap.CurFixed {
		a.addFixed(ctx, result, status, target, f)
	}

	for _, p := range snap.Purchases {
		if err := a.addPurchase(ctx, userID, result, target, p); err != nil {
			return nil, err
		}
	}

	for _, inv := range result {
		sort.SliceStable(inv.Items, func(i, j int) bool {
			return inv.Items[i].Date.Before(inv.Items[j].Date.Time)
		})
	}
	return result, nil
}

func (a *Aggregator) addExpense(ctx context.Context, result map[string]*CardInvoice, status map[string]billing.PaidStatus, target core.YearMonth, e core.Expense) {
	if e.IsInvoicePayment() || core.IsCashLike(e.PaymentMethod) {
		return
	}
	inv, ok := result[e.PaymentMethod]
	if !ok {
		slog.WarnContext(ctx, "Expense references unknown card, skipping",
			"id", e.ID, "payment_method", e.PaymentMethod)
		return
	}
	if e.Date.IsZero() {
		slog.WarnContext(ctx, "Expense has no date, skipping", "id", e.ID)
		return
	}

	naive := billing.ResolveInvoiceMonth(e.Date, inv.Card.ClosingDay)
	if billing.EffectiveInvoiceMonth(naive, target, status[inv.Card.Name]) != target {
		return
	}
	inv.Total.Cents += e.Amount.Cents
	inv.Items = append(inv.Items, LineItem{
		Date:        e.Date,
		Description: e.Description,
		Amount:      e.Amount,
	})
}

func (a *Aggregator) addFixed(ctx context.Context, result map[string]*CardInvoice, status map[string]billing.PaidStatus, target core.YearMonth, f core.FixedExpense) {
	if core.IsCashLikeFixed(f.PaymentMethod) {
		return
	}
	inv, ok := result[f.PaymentMethod]
	if !ok {
		slog.WarnContext(ctx, "Fixed expense references unknown card, skipping",
			"id", f.ID, "payment_method", f.PaymentMethod)
		return
	}
	if f.DueDate.IsZero() {
		slog.WarnContext(ctx, "Fixed expense has no due date, skipping", "id", f.ID)
		return
	}

	naive := billing.ResolveInvoiceMonth(f.DueDate, inv.Card.ClosingDay)
	if billing.EffectiveInvoiceMonth(naive, target, status[inv.Card.Name]) != target {
		return
	}
	inv.Total.Cents += f.Amount.Cents
	inv.Items = append(inv.Items, LineItem{
		Date:        f.DueDate,
		Description: f.Description,
		Amount:      f.Amount,
	})
}

func (a *Aggregator) addPurchase(ctx context.Context, userID string, result map[string]*CardInvoice, target core.YearMonth, p core.InstallmentPurchase) error {
	inv, ok := result[p.CardName]
	if !ok {
		slog.WarnContext(ctx, "Installment purchase references unknown card, skipping",
			"id", p.ID, "card", p.CardName)
		return nil
	}

	paidFn := a.memoizedPaid(ctx, userID, p.CardName)
	c, ok, err := billing.InstallmentForMonth(p, target, paidFn)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	inv.Total.Cents += c.Amount.Cents
	inv.Items = append(inv.Items, LineItem{
		Date:        p.PurchaseDate,
		Description: p.Description + " " + c.Label,
		Amount:      c.Amount,
		Struck:      c.Struck,
	})
	return nil
}

// memoizedPaid caches per-month paid lookups for one card within a
// single aggregation pass; the projector walk revisits months.
func (a *Aggregator) memoizedPaid(ctx context.Context, userID, cardName string) billing.PaidFunc {
	seen := make(map[core.YearMonth]bool)
	return func(ym core.YearMonth) (bool, error) {
		if v, ok := seen[ym]; ok {
			return v, nil
		}
		v, err := a.paid.InvoicePaid(ctx, userID, cardName, ym)
		if err != nil {
			return false, err
		}
		seen[ym] = v
		return v, nil
	}
}
