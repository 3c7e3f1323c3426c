package services

import (
	"context"
	"fmt"

	"github.com/andersonmelo18/Financeiro/internal/core"
	"github.com/andersonmelo18/Financeiro/internal/invoice"
	"github.com/andersonmelo18/Financeiro/internal/ledger"
)

// DashboardService assembles the monthly summary. Only cash-affecting
// records count toward the expense buckets; card charges surface
// through the per-card invoice totals instead.
type DashboardService struct {
	cards      CardStore
	expenses   ExpenseStore
	fixed      *FixedExpenseService
	pendencias PendenciaStore
	entries    EntryStore
	invoices   *invoice.Service
	ledger     *ledger.Ledger
}

func NewDashboardService(
	cards CardStore,
	expenses ExpenseStore,
	fixed *FixedExpenseService,
	pendencias PendenciaStore,
	entries EntryStore,
	invoices *invoice.Service,
	l *ledger.Ledger,
) *DashboardService {
	return &DashboardService{
		cards:      cards,
		expenses:   expenses,
		fixed:      fixed,
		pendencias: pendencias,
		entries:    entries,
		invoices:   invoices,
		ledger:     l,
	}
}

// Summary computes the month's totals.
func (s *DashboardService) Summary(ctx context.Context, userID string, ym core.YearMonth) (core.MonthSummary, error) {
	out := core.MonthSummary{Month: ym}

	entries, err := s.entries.ListEntries(ctx, userID, ym)
	if err != nil {
		return out, fmt.Errorf("list entries: %w", err)
	}
	for _, e := range entries {
		out.TotalEntries.Cents += e.Amount.Cents
		out.KmTotal += e.Km
		out.HoursTotal += e.Hours
	}

	expenses, err := s.expenses.ListExpenses(ctx, userID, ym)
	if err != nil {
		return out, fmt.Errorf("list expenses: %w", err)
	}
	for _, e := range expenses {
		if core.IsCashLike(e.PaymentMethod) {
			out.VariableExpenses.Cents += e.Amount.Cents
		}
	}

	fixed, err := s.fixed.List(ctx, userID, ym)
	if err != nil {
		return out, fmt.Errorf("list fixed expenses: %w", err)
	}
	for _, f := range fixed {
		if f.Status == core.StatusPaid && core.IsCashLike(f.PaymentMethod) {
			out.FixedExpenses.Cents += f.Amount.Cents
		}
	}

	pendencias, err := s.pendencias.ListPendencias(ctx, userID, ym)
	if err != nil {
		return out, fmt.Errorf("list pendencias: %w", err)
	}
	for _, p := range pendencias {
		if p.Kind == core.KindIOwe && p.Status == core.StatusPaid && core.IsCashLike(p.PaymentMethod) {
			out.DebtPayments.Cents += p.Amount.Cents
		}
	}

	out.TotalExpenses.Cents = out.VariableExpenses.Cents + out.FixedExpenses.Cents + out.DebtPayments.Cents
	out.NetProfit.Cents = out.TotalEntries.Cents - out.TotalExpenses.Cents

	balance, err := s.ledger.Read(ctx, userID)
	if err != nil {
		return out, fmt.Errorf("read balance: %w", err)
	}
	out.AccumulatedBalance = core.Money{Cents: balance}

	cards, err := s.cards.ListCards(ctx, userID)
	if err != nil {
		return out, fmt.Errorf("list cards: %w", err)
	}
	for _, c := range cards {
		out.TotalCardLimits.Cents += c.CreditLimit.Cents
	}

	invoices, err := s.invoices.Invoices(ctx, userID, ym)
	if err != nil {
		return out, fmt.Errorf("aggregate invoices: %w", err)
	}
	for _, inv := range invoices {
		out.Invoices = append(out.Invoices, core.CardInvoiceAmount{
			CardName: inv.Card.Name,
			Amount:   inv.Total,
			Paid:     inv.Paid,
		})
	}

	return out, nil
}
