package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/andersonmelo18/Financeiro/internal/core"
	"github.com/andersonmelo18/Financeiro/internal/events"
	"github.com/andersonmelo18/Financeiro/internal/ledger"
)

// maxFutureSweep bounds the forward scan that removes future
// instances when a recurring group is deleted from a month onward.
const maxFutureSweep = 120

// FixedExpenseService manages fixed expenses and the rules that
// materialize their monthly instances. Instances are created lazily
// the first time a month is listed; a rule's exceptions map records
// months the user deleted so they are not re-materialized.
type FixedExpenseService struct {
	store    FixedStore
	ledger   *ledger.Ledger
	notifier *Notifier
}

func NewFixedExpenseService(store FixedStore, l *ledger.Ledger, notifier *Notifier) *FixedExpenseService {
	return &FixedExpenseService{store: store, ledger: l, notifier: notifier}
}

// fixedEffect is the signed ledger delta a fixed expense applied when
// it was settled: zero while pending or when charged to a card.
func fixedEffect(f core.FixedExpense) int64 {
	if f.Status != core.StatusPaid || !core.IsCashLikeFixed(f.PaymentMethod) {
		return 0
	}
	return -f.Amount.Cents
}

// List materializes any due rule instances for the month, then
// returns all of them.
func (s *FixedExpenseService) List(ctx context.Context, userID string, ym core.YearMonth) ([]core.FixedExpense, error) {
	if err := s.ensureMonth(ctx, userID, ym); err != nil {
		return nil, err
	}
	return s.store.ListFixed(ctx, userID, ym)
}

func (s *FixedExpenseService) ensureMonth(ctx context.Context, userID string, ym core.YearMonth) error {
	rules, err := s.store.ListRules(ctx, userID)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return nil
	}

	existing, err := s.store.ListFixed(ctx, userID, ym)
	if err != nil {
		return err
	}
	present := make(map[string]bool)
	for _, f := range existing {
		if f.Installment != nil {
			present[f.Installment.GroupID] = true
		}
	}

	created := false
	for _, r := range rules {
		if ym.Before(r.StartMonth) || present[r.GroupID] || r.Exceptions[ym.String()] {
			continue
		}
		idx := ym.MonthsSince(r.StartMonth) + 1
		if r.Recurrence == core.RecurrenceInstallment && idx > r.TotalInstallments {
			continue
		}

		day := r.DueDay
		if days := ym.Days(); day > days {
			day = days
		}
		instance := core.FixedExpense{
			ID:            uuid.NewString(),
			DueDate:       core.NewDate(ym.Year, int(ym.Month), day),
			Category:      r.Category,
			Description:   r.Description,
			PaymentMethod: r.PaymentMethod,
			Amount:        r.Amount,
			Recurrence:    r.Recurrence,
			Installment: &core.InstallmentInfo{
				GroupID: r.GroupID,
				Current: idx,
				Total:   r.TotalInstallments,
			},
			Status: core.StatusPending,
		}
		if err := s.store.CreateFixed(ctx, userID, ym, instance); err != nil {
			return fmt.Errorf("materialize fixed expense: %w", err)
		}
		created = true
	}
	if created {
		s.notifier.DataChanged(ctx, userID, events.ScopeFixed, ym.String())
	}
	return nil
}

// CreateSingle records a one-off fixed expense with no rule behind it.
func (s *FixedExpenseService) CreateSingle(ctx context.Context, userID string, f core.FixedExpense) (core.FixedExpense, error) {
	f.Recurrence = core.RecurrenceSingle
	f.Installment = nil
	if f.Status == "" {
		f.Status = core.StatusPending
	}
	if err := f.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	ym := core.YearMonthOf(f.DueDate)
	if err := s.store.CreateFixed(ctx, userID, ym, f); err != nil {
		return core.FixedExpense{}, fmt.Errorf("save fixed expense: %w", err)
	}
	s.notifier.DataChanged(ctx, userID, events.ScopeFixed, ym.String())
	return f, nil
}

// CreateRule registers a recurring group. Instances appear as the
// months are first listed.
func (s *FixedExpenseService) CreateRule(ctx context.Context, userID string, r core.FixedRule) (core.FixedRule, error) {
	if err := r.Validate(); err != nil {
		return core.FixedRule{}, err
	}
	if r.GroupID == "" {
		r.GroupID = uuid.NewString()
	}
	if r.Exceptions == nil {
		r.Exceptions = make(map[string]bool)
	}
	if err := s.store.SaveRule(ctx, userID, r); err != nil {
		return core.FixedRule{}, fmt.Errorf("save fixed rule: %w", err)
	}
	s.notifier.DataChanged(ctx, userID, events.ScopeFixed, r.StartMonth.String())
	return r, nil
}

// Pay settles an instance with the given method and applies the cash
// effect when the method is cash-like (including automatic debit).
func (s *FixedExpenseService) Pay(ctx context.Context, userID string, ym core.YearMonth, id, method string) error {
	f, err := s.store.GetFixed(ctx, userID, ym, id)
	if err != nil {
		return err
	}
	if f.Status == core.StatusPaid {
		return nil
	}
	before := fixedEffect(f)
	if method != "" {
		f.PaymentMethod = method
	}
	f.Status = core.StatusPaid
	after := fixedEffect(f)

	if err := s.store.UpdateFixed(ctx, userID, ym, f); err != nil {
		return fmt.Errorf("update fixed expense: %w", err)
	}
	if delta := after - before; delta != 0 {
		if _, err := s.ledger.Adjust(ctx, userID, delta); err != nil {
			return fmt.Errorf("debit fixed expense: %w", err)
		}
		s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	}
	s.notifier.DataChanged(ctx, userID, events.ScopeFixed, ym.String())
	return nil
}

// Unpay reverts an instance to pending and credits back its effect.
func (s *FixedExpenseService) Unpay(ctx context.Context, userID string, ym core.YearMonth, id string) error {
	f, err := s.store.GetFixed(ctx, userID, ym, id)
	if err != nil {
		return err
	}
	if f.Status != core.StatusPaid {
		return nil
	}
	before := fixedEffect(f)
	f.Status = core.StatusPending

	if err := s.store.UpdateFixed(ctx, userID, ym, f); err != nil {
		return fmt.Errorf("update fixed expense: %w", err)
	}
	if before != 0 {
		if _, err := s.ledger.Adjust(ctx, userID, -before); err != nil {
			return fmt.Errorf("credit fixed expense: %w", err)
		}
		s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	}
	s.notifier.DataChanged(ctx, userID, events.ScopeFixed, ym.String())
	return nil
}

// Delete removes one instance. With future set, the whole recurring
// group is retired: existing future instances are swept (bounded) and
// the rule is deleted so no more materialize.
func (s *FixedExpenseService) Delete(ctx context.Context, userID string, ym core.YearMonth, id string, future bool) error {
	f, err := s.store.GetFixed(ctx, userID, ym, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteFixed(ctx, userID, ym, id); err != nil {
		return fmt.Errorf("delete fixed expense: %w", err)
	}
	if delta := fixedEffect(f); delta != 0 {
		if _, err := s.ledger.Adjust(ctx, userID, -delta); err != nil {
			return fmt.Errorf("reverse deleted fixed expense: %w", err)
		}
		s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	}
	s.notifier.DataChanged(ctx, userID, events.ScopeFixed, ym.String())

	if f.Installment == nil {
		return nil
	}
	groupID := f.Installment.GroupID

	if !future {
		// remember the removal so listing the month again does not
		// re-materialize the instance
		rule, err := s.store.GetRule(ctx, userID, groupID)
		if err != nil {
			slog.WarnContext(ctx, "Fixed instance without rule, skipping exception",
				"group_id", groupID, "error", err)
			return nil
		}
		if rule.Exceptions == nil {
			rule.Exceptions = make(map[string]bool)
		}
		rule.Exceptions[ym.String()] = true
		if err := s.store.SaveRule(ctx, userID, rule); err != nil {
			return fmt.Errorf("record rule exception: %w", err)
		}
		return nil
	}

	for m, i := ym.Next(), 0; i < maxFutureSweep; m, i = m.Next(), i+1 {
		instances, err := s.store.ListFixed(ctx, userID, m)
		if err != nil {
			return fmt.Errorf("sweep future instances: %w", err)
		}
		for _, inst := range instances {
			if inst.Installment == nil || inst.Installment.GroupID != groupID {
				continue
			}
			if err := s.store.DeleteFixed(ctx, userID, m, inst.ID); err != nil {
				return fmt.Errorf("sweep future instances: %w", err)
			}
			s.notifier.DataChanged(ctx, userID, events.ScopeFixed, m.String())
		}
	}
	if err := s.store.DeleteRule(ctx, userID, groupID); err != nil {
		return fmt.Errorf("delete fixed rule: %w", err)
	}
	return nil
}
