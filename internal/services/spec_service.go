package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andersonmelo18/Financeiro/internal/billing"
	"github.com/andersonmelo18/Financeiro/internal/core"
	"github.com/andersonmelo18/Financeiro/internal/events"
	"github.com/andersonmelo18/Financeiro/internal/invoice"
)

// ErrNoOpenInstallments signals a settle attempt on a purchase with no
// installment landing in the current month.
var ErrNoOpenInstallments = errors.New("no open installments to settle")

// SpecService manages installment purchases. Reversal and settlement
// zero future installments; settlement additionally carries the payoff
// into the current invoice through a one-installment settlement
// charge.
type SpecService struct {
	store    SpecStore
	cards    CardStore
	paid     invoice.PaidStatusSource
	invoices *invoice.Service
	notifier *Notifier
	now      func() time.Time
}

func NewSpecService(store SpecStore, cards CardStore, paid invoice.PaidStatusSource, invoices *invoice.Service, notifier *Notifier) *SpecService {
	return &SpecService{
		store:    store,
		cards:    cards,
		paid:     paid,
		invoices: invoices,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *SpecService) cardByName(ctx context.Context, userID, name string) (core.Card, error) {
	cards, err := s.cards.ListCards(ctx, userID)
	if err != nil {
		return core.Card{}, err
	}
	for _, c := range cards {
		if c.Name == name {
			return c, nil
		}
	}
	return core.Card{}, fmt.Errorf("card %q: %w", name, core.ErrNotFound)
}

// Create registers a purchase. The first invoice month follows the
// card's closing day at purchase time.
func (s *SpecService) Create(ctx context.Context, userID, cardName, description string, total core.Money, installments int, purchaseDate core.Date) (core.InstallmentPurchase, error) {
	card, err := s.cardByName(ctx, userID, cardName)
	if err != nil {
		return core.InstallmentPurchase{}, err
	}
	if card.Blocked {
		return core.InstallmentPurchase{}, fmt.Errorf("card %q: %w", cardName, core.ErrCardBlocked)
	}

	p := core.InstallmentPurchase{
		ID:           uuid.NewString(),
		CardName:     card.Name,
		Description:  description,
		TotalAmount:  total,
		Installments: installments,
		PurchaseDate: purchaseDate,
		StartMonth:   billing.ResolveInvoiceMonth(purchaseDate, card.ClosingDay),
		Status:       core.SpecActive,
	}
	if err := p.Validate(); err != nil {
		return core.InstallmentPurchase{}, err
	}
	if err := s.store.CreateSpec(ctx, userID, p); err != nil {
		return core.InstallmentPurchase{}, fmt.Errorf("save installment purchase: %w", err)
	}

	s.invoices.Invalidate(ctx, userID, p.StartMonth)
	s.notifier.DataChanged(ctx, userID, events.ScopeSpecs, p.StartMonth.String())
	return p, nil
}

// Reverse marks an active purchase estornado: every remaining
// installment drops to zero. Irreversible.
func (s *SpecService) Reverse(ctx context.Context, userID, id string, viewing core.YearMonth) error {
	p, err := s.store.GetSpec(ctx, userID, id)
	if err != nil {
		return err
	}
	if p.Status != core.SpecActive {
		return fmt.Errorf("purchase %s is %s: %w", id, p.Status, core.ErrInvalidStatus)
	}
	p.Status = core.SpecReversed
	if err := s.store.UpdateSpec(ctx, userID, p); err != nil {
		return fmt.Errorf("update installment purchase: %w", err)
	}

	s.invoices.Invalidate(ctx, userID, viewing)
	s.notifier.DataChanged(ctx, userID, events.ScopeSpecs, viewing.String())
	return nil
}

// Settle pays off an active purchase: the original is marked quitado
// (remaining installments zeroed) and a one-installment settlement
// charge for the outstanding amount lands on the current invoice.
func (s *SpecService) Settle(ctx context.Context, userID, id string, current core.YearMonth) (core.InstallmentPurchase, error) {
	p, err := s.store.GetSpec(ctx, userID, id)
	if err != nil {
		return core.InstallmentPurchase{}, err
	}
	if p.Status != core.SpecActive {
		return core.InstallmentPurchase{}, fmt.Errorf("purchase %s is %s: %w", id, p.Status, core.ErrInvalidStatus)
	}

	paidFn := func(ym core.YearMonth) (bool, error) {
		return s.paid.InvoicePaid(ctx, userID, p.CardName, ym)
	}
	c, ok, err := billing.InstallmentForMonth(p, current, paidFn)
	if err != nil {
		return core.InstallmentPurchase{}, err
	}
	if !ok {
		return core.InstallmentPurchase{}, fmt.Errorf("purchase %s in %s: %w", id, current, ErrNoOpenInstallments)
	}

	remaining := int64(p.Installments - c.Index + 1)
	payoff := core.Money{Cents: remaining * p.PerInstallment().Cents}

	p.Status = core.SpecSettled
	if err := s.store.UpdateSpec(ctx, userID, p); err != nil {
		return core.InstallmentPurchase{}, fmt.Errorf("update installment purchase: %w", err)
	}

	settlement := core.InstallmentPurchase{
		ID:           uuid.NewString(),
		CardName:     p.CardName,
		Description:  p.Description + " (quitação)",
		TotalAmount:  payoff,
		Installments: 1,
		PurchaseDate: core.Date{Time: s.now()},
		StartMonth:   current,
		Status:       core.SpecSettlementCharge,
	}
	if err := s.store.CreateSpec(ctx, userID, settlement); err != nil {
		return core.InstallmentPurchase{}, fmt.Errorf("save settlement charge: %w", err)
	}

	s.invoices.Invalidate(ctx, userID, current)
	s.notifier.DataChanged(ctx, userID, events.ScopeSpecs, current.String())
	return settlement, nil
}

// Delete removes a purchase record outright.
func (s *SpecService) Delete(ctx context.Context, userID, id string, viewing core.YearMonth) error {
	if _, err := s.store.GetSpec(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteSpec(ctx, userID, id); err != nil {
		return fmt.Errorf("delete installment purchase: %w", err)
	}
	s.invoices.Invalidate(ctx, userID, viewing)
	s.notifier.DataChanged(ctx, userID, events.ScopeSpecs, viewing.String())
	return nil
}

func (s *SpecService) List(ctx context.Context, userID string) ([]core.InstallmentPurchase, error) {
	return s.store.ListSpecs(ctx, userID)
}
