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

// ExpenseService manages variable expenses. Cash-like payments drain
// the balance on create and are credited back on delete; edits apply
// the difference between the new and old effect.
type ExpenseService struct {
	store    ExpenseStore
	ledger   *ledger.Ledger
	notifier *Notifier
}

func NewExpenseService(store ExpenseStore, l *ledger.Ledger, notifier *Notifier) *ExpenseService {
	return &ExpenseService{store: store, ledger: l, notifier: notifier}
}

// cashEffect is the signed ledger delta an expense applied when it was
// created: negative for cash-like methods, zero for card charges.
func cashEffect(e core.Expense) int64 {
	if core.IsCashLike(e.PaymentMethod) {
		return -e.Amount.Cents
	}
	return 0
}

func (s *ExpenseService) Create(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	ym := core.YearMonthOf(e.Date)

	if delta := cashEffect(e); delta != 0 {
		if _, err := s.ledger.Adjust(ctx, userID, delta); err != nil {
			return core.Expense{}, fmt.Errorf("debit expense: %w", err)
		}
	}
	if err := s.store.CreateExpense(ctx, userID, ym, e); err != nil {
		if delta := cashEffect(e); delta != 0 {
			if _, compErr := s.ledger.Adjust(ctx, userID, -delta); compErr != nil {
				slog.ErrorContext(ctx, "Compensating adjustment failed, balance needs manual reconciliation",
					"user_id", userID, "delta_cents", -delta, "error", compErr)
			}
		}
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.notifier.DataChanged(ctx, userID, events.ScopeExpenses, ym.String())
	if cashEffect(e) != 0 {
		s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	}
	return e, nil
}

// Update rewrites an expense, moving it between month collections when
// the date changed. The ledger delta is new effect minus old effect.
func (s *ExpenseService) Update(ctx context.Context, userID string, oldYM core.YearMonth, id string, updated core.Expense) (core.Expense, error) {
	old, err := s.store.GetExpense(ctx, userID, oldYM, id)
	if err != nil {
		return core.Expense{}, err
	}
	updated.ID = old.ID
	if err := updated.Validate(); err != nil {
		return core.Expense{}, err
	}

	if delta := cashEffect(updated) - cashEffect(old); delta != 0 {
		if _, err := s.ledger.Adjust(ctx, userID, delta); err != nil {
			return core.Expense{}, fmt.Errorf("adjust edited expense: %w", err)
		}
	}

	newYM := core.YearMonthOf(updated.Date)
	if newYM == oldYM {
		err = s.store.UpdateExpense(ctx, userID, newYM, updated)
	} else {
		if err = s.store.DeleteExpense(ctx, userID, oldYM, id); err == nil {
			err = s.store.CreateExpense(ctx, userID, newYM, updated)
		}
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("rewrite expense: %w", err)
	}

	s.notifier.DataChanged(ctx, userID, events.ScopeExpenses, oldYM.String())
	if newYM != oldYM {
		s.notifier.DataChanged(ctx, userID, events.ScopeExpenses, newYM.String())
	}
	if cashEffect(updated) != cashEffect(old) {
		s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	}
	return updated, nil
}

// Delete removes an expense and reverses its original ledger effect.
func (s *ExpenseService) Delete(ctx context.Context, userID string, ym core.YearMonth, id string) error {
	old, err := s.store.GetExpense(ctx, userID, ym, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, userID, ym, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if delta := cashEffect(old); delta != 0 {
		if _, err := s.ledger.Adjust(ctx, userID, -delta); err != nil {
			return fmt.Errorf("reverse deleted expense: %w", err)
		}
		s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	}
	s.notifier.DataChanged(ctx, userID, events.ScopeExpenses, ym.String())
	return nil
}

// List returns the month's expenses.
func (s *ExpenseService) List(ctx context.Context, userID string, ym core.YearMonth) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, userID, ym)
}
