package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/andersonmelo18/Financeiro/internal/core"
	"github.com/andersonmelo18/Financeiro/internal/events"
	"github.com/andersonmelo18/Financeiro/internal/ledger"
)

// PendenciaService manages debts owed and receivable. A pendência
// only touches the ledger once it is settled with a cash-like method:
// paying a debt drains cash, collecting a receivable adds it.
type PendenciaService struct {
	store    PendenciaStore
	ledger   *ledger.Ledger
	notifier *Notifier
}

func NewPendenciaService(store PendenciaStore, l *ledger.Ledger, notifier *Notifier) *PendenciaService {
	return &PendenciaService{store: store, ledger: l, notifier: notifier}
}

// settledEffect is the signed delta a pendência applied when it
// reached its current state: zero while pending.
func settledEffect(p core.Pendencia) int64 {
	if p.Status != core.StatusPaid {
		return 0
	}
	return p.CashDelta()
}

func (s *PendenciaService) Create(ctx context.Context, userID string, p core.Pendencia) (core.Pendencia, error) {
	if p.Status == "" {
		p.Status = core.StatusPending
	}
	if err := p.Validate(); err != nil {
		return core.Pendencia{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	ym := core.YearMonthOf(p.DueDate)

	if err := s.store.CreatePendencia(ctx, userID, ym, p); err != nil {
		return core.Pendencia{}, fmt.Errorf("save pendencia: %w", err)
	}
	if delta := settledEffect(p); delta != 0 {
		if _, err := s.ledger.Adjust(ctx, userID, delta); err != nil {
			return core.Pendencia{}, fmt.Errorf("adjust pendencia: %w", err)
		}
		s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	}
	s.notifier.DataChanged(ctx, userID, events.ScopePendencias, ym.String())
	return p, nil
}

// Pay marks a pendência settled and applies its cash effect.
func (s *PendenciaService) Pay(ctx context.Context, userID string, ym core.YearMonth, id string) error {
	return s.setStatus(ctx, userID, ym, id, core.StatusPaid)
}

// Unpay returns a settled pendência to pending, reversing its effect.
func (s *PendenciaService) Unpay(ctx context.Context, userID string, ym core.YearMonth, id string) error {
	return s.setStatus(ctx, userID, ym, id, core.StatusPending)
}

func (s *PendenciaService) setStatus(ctx context.Context, userID string, ym core.YearMonth, id string, status core.PayStatus) error {
	p, err := s.store.GetPendencia(ctx, userID, ym, id)
	if err != nil {
		return err
	}
	if p.Status == status {
		return nil
	}

	before := settledEffect(p)
	p.Status = status
	after := settledEffect(p)

	if err := s.store.UpdatePendencia(ctx, userID, ym, p); err != nil {
		return fmt.Errorf("update pendencia: %w", err)
	}
	if delta := after - before; delta != 0 {
		if _, err := s.ledger.Adjust(ctx, userID, delta); err != nil {
			return fmt.Errorf("adjust pendencia: %w", err)
		}
		s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	}
	s.notifier.DataChanged(ctx, userID, events.ScopePendencias, ym.String())
	return nil
}

// Update rewrites a pendência; the ledger delta is the difference
// between the new and old settled effects.
func (s *PendenciaService) Update(ctx context.Context, userID string, oldYM core.YearMonth, id string, updated core.Pendencia) (core.Pendencia, error) {
	old, err := s.store.GetPendencia(ctx, userID, oldYM, id)
	if err != nil {
		return core.Pendencia{}, err
	}
	updated.ID = old.ID
	if err := updated.Validate(); err != nil {
		return core.Pendencia{}, err
	}

	if delta := settledEffect(updated) - settledEffect(old); delta != 0 {
		if _, err := s.ledger.Adjust(ctx, userID, delta); err != nil {
			return core.Pendencia{}, fmt.Errorf("adjust edited pendencia: %w", err)
		}
		s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	}

	newYM := core.YearMonthOf(updated.DueDate)
	if newYM == oldYM {
		err = s.store.UpdatePendencia(ctx, userID, newYM, updated)
	} else {
		if err = s.store.DeletePendencia(ctx, userID, oldYM, id); err == nil {
			err = s.store.CreatePendencia(ctx, userID, newYM, updated)
		}
	}
	if err != nil {
		return core.Pendencia{}, fmt.Errorf("rewrite pendencia: %w", err)
	}

	s.notifier.DataChanged(ctx, userID, events.ScopePendencias, oldYM.String())
	if newYM != oldYM {
		s.notifier.DataChanged(ctx, userID, events.ScopePendencias, newYM.String())
	}
	return updated, nil
}

// Delete removes a pendência, reversing its effect if it was settled.
func (s *PendenciaService) Delete(ctx context.Context, userID string, ym core.YearMonth, id string) error {
	old, err := s.store.GetPendencia(ctx, userID, ym, id)
	if err != nil {
		return err
	}
	if err := s.store.DeletePendencia(ctx, userID, ym, id); err != nil {
		return fmt.Errorf("delete pendencia: %w", err)
	}
	if delta := settledEffect(old); delta != 0 {
		if _, err := s.ledger.Adjust(ctx, userID, -delta); err != nil {
			return fmt.Errorf("reverse deleted pendencia: %w", err)
		}
		s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	}
	s.notifier.DataChanged(ctx, userID, events.ScopePendencias, ym.String())
	return nil
}

func (s *PendenciaService) List(ctx context.Context, userID string, ym core.YearMonth) ([]core.Pendencia, error) {
	return s.store.ListPendencias(ctx, userID, ym)
}
