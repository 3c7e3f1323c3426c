package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/andersonmelo18/Financeiro/internal/core"
	"github.com/andersonmelo18/Financeiro/internal/events"
	"github.com/andersonmelo18/Financeiro/internal/invoice"
	"github.com/andersonmelo18/Financeiro/internal/ledger"
)

var (
	// ErrNoInvoice signals a pay attempt on a card with nothing to pay.
	ErrNoInvoice = errors.New("no open invoice to pay")

	// ErrInvoiceAlreadyPaid signals a second pay on a settled invoice.
	ErrInvoiceAlreadyPaid = errors.New("invoice already paid")
)

// PaymentService executes the compound pay/reverse operations on card
// invoices. The ledger debit and the payment record are two
// independent writes; a failed record write is compensated by an
// inverse ledger adjustment.
type PaymentService struct {
	expenses   ExpenseStore
	pendencias PendenciaStore
	invoices   *invoice.Service
	ledger     *ledger.Ledger
	notifier   *Notifier
	now        func() time.Time
}

func NewPaymentService(expenses ExpenseStore, pendencias PendenciaStore, invoices *invoice.Service, l *ledger.Ledger, notifier *Notifier) *PaymentService {
	return &PaymentService{
		expenses:   expenses,
		pendencias: pendencias,
		invoices:   invoices,
		ledger:     l,
		notifier:   notifier,
		now:        time.Now,
	}
}

// PayInvoice settles a card's invoice for the target month: debits the
// ledger and writes the payment record the aggregation engine later
// recognizes as the paid marker. Returns the amount paid.
func (s *PaymentService) PayInvoice(ctx context.Context, userID string, card core.Card, target core.YearMonth) (core.Money, error) {
	invs, err := s.invoices.Invoices(ctx, userID, target)
	if err != nil {
		return core.Money{}, err
	}
	inv, ok := invs[card.Name]
	if !ok {
		return core.Money{}, fmt.Errorf("card %s: %w", card.Name, core.ErrNotFound)
	}
	if inv.Paid {
		return core.Money{}, fmt.Errorf("card %s month %s: %w", card.Name, target, ErrInvoiceAlreadyPaid)
	}
	if inv.Total.Cents <= 0 {
		return core.Money{}, fmt.Errorf("card %s month %s: %w", card.Name, target, ErrNoInvoice)
	}

	sufficient, err := s.ledger.HasSufficientBalance(ctx, userID, inv.Total.Cents)
	if err != nil {
		return core.Money{}, err
	}
	if !sufficient {
		return core.Money{}, fmt.Errorf("invoice of %s: %w", core.FormatBRL(inv.Total.Cents), core.ErrInsufficientBalance)
	}

	today := s.now()
	if today.Day() < card.ClosingDay {
		slog.WarnContext(ctx, "Invoice paid before closing day, new charges may still land on it",
			"card", card.Name, "closing_day", card.ClosingDay, "day", today.Day())
	}

	if _, err := s.ledger.Adjust(ctx, userID, -inv.Total.Cents); err != nil {
		return core.Money{}, fmt.Errorf("debit invoice payment: %w", err)
	}

	record := core.Expense{
		ID:            uuid.NewString(),
		Date:          core.Date{Time: today},
		Category:      core.CategoryInvoice,
		Description:   core.InvoicePaymentDescription(card.Name),
		PaymentMethod: core.MethodCashBalance,
		Amount:        inv.Total,
	}
	if err := s.expenses.CreateExpense(ctx, userID, target, record); err != nil {
		if _, compErr := s.ledger.Adjust(ctx, userID, inv.Total.Cents); compErr != nil {
			slog.ErrorContext(ctx, "Compensating adjustment failed, balance needs manual reconciliation",
				"user_id", userID, "amount_cents", inv.Total.Cents, "error", compErr)
		}
		return core.Money{}, fmt.Errorf("write invoice payment record: %w", err)
	}

	s.invoices.Invalidate(ctx, userID, target)
	s.notifier.DataChanged(ctx, userID, events.ScopeExpenses, target.String())
	s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")

	slog.InfoContext(ctx, "Invoice paid",
		"user_id", userID, "card", card.Name, "month", target.String(), "amount_cents", inv.Total.Cents)
	return inv.Total, nil
}

// ReversePayment undoes an invoice payment: deletes the located
// payment record and credits back the recorded amount, which may
// differ from the currently displayed total if charges landed since.
func (s *PaymentService) ReversePayment(ctx context.Context, userID string, card core.Card, target core.YearMonth) (core.Money, error) {
	desc := core.InvoicePaymentDescription(card.Name)

	if rec, ok, err := s.findPaymentExpense(ctx, userID, target, desc); err != nil {
		return core.Money{}, err
	} else if ok {
		if rec.Amount.Cents == 0 {
			return core.Money{}, fmt.Errorf("payment record for %s has zero amount: %w", card.Name, core.ErrNotFound)
		}
		if err := s.expenses.DeleteExpense(ctx, userID, target, rec.ID); err != nil {
			return core.Money{}, fmt.Errorf("delete payment record: %w", err)
		}
		return s.finishReversal(ctx, userID, card.Name, target, rec.Amount)
	}

	// Older payments were stored as paid pendências.
	legacy, err := s.pendencias.ListPendencias(ctx, userID, target)
	if err != nil {
		return core.Money{}, err
	}
	for _, p := range legacy {
		if p.Description != desc || p.Status != core.StatusPaid {
			continue
		}
		if p.Amount.Cents == 0 {
			return core.Money{}, fmt.Errorf("payment record for %s has zero amount: %w", card.Name, core.ErrNotFound)
		}
		if err := s.pendencias.DeletePendencia(ctx, userID, target, p.ID); err != nil {
			return core.Money{}, fmt.Errorf("delete legacy payment record: %w", err)
		}
		return s.finishReversal(ctx, userID, card.Name, target, p.Amount)
	}

	return core.Money{}, fmt.Errorf("payment record for %s: %w", card.Name, core.ErrNotFound)
}

// findPaymentExpense returns the most recent invoice-payment record
// for the description in the target month.
func (s *PaymentService) findPaymentExpense(ctx context.Context, userID string, target core.YearMonth, desc string) (core.Expense, bool, error) {
	records, err := s.expenses.ListExpenses(ctx, userID, target)
	if err != nil {
		return core.Expense{}, false, err
	}
	var found core.Expense
	ok := false
	for _, e := range records {
		if !e.IsInvoicePayment() || e.Description != desc {
			continue
		}
		if !ok || e.Date.After(found.Date.Time) {
			found = e
			ok = true
		}
	}
	return found, ok, nil
}

func (s *PaymentService) finishReversal(ctx context.Context, userID, cardName string, target core.YearMonth, amount core.Money) (core.Money, error) {
	if _, err := s.ledger.Adjust(ctx, userID, amount.Cents); err != nil {
		return core.Money{}, fmt.Errorf("credit reversed payment: %w", err)
	}

	s.invoices.Invalidate(ctx, userID, target)
	s.notifier.DataChanged(ctx, userID, events.ScopeExpenses, target.String())
	s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")

	slog.InfoContext(ctx, "Invoice payment reversed",
		"user_id", userID, "card", cardName, "month", target.String(), "amount_cents", amount.Cents)
	return amount, nil
}
