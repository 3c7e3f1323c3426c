package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/andersonmelo18/Financeiro/internal/core"
	"github.com/andersonmelo18/Financeiro/internal/events"
	"github.com/andersonmelo18/Financeiro/internal/ledger"
)

// EntryService manages income records. Income always credits the
// balance on create; delete and edit apply the inverse/difference.
type EntryService struct {
	store    EntryStore
	ledger   *ledger.Ledger
	notifier *Notifier
}

func NewEntryService(store EntryStore, l *ledger.Ledger, notifier *Notifier) *EntryService {
	return &EntryService{store: store, ledger: l, notifier: notifier}
}

func (s *EntryService) Create(ctx context.Context, userID string, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	ym := core.YearMonthOf(e.Date)

	if err := s.store.CreateEntry(ctx, userID, ym, e); err != nil {
		return core.Entry{}, fmt.Errorf("save entry: %w", err)
	}
	if _, err := s.ledger.Adjust(ctx, userID, e.Amount.Cents); err != nil {
		return core.Entry{}, fmt.Errorf("credit entry: %w", err)
	}

	s.notifier.DataChanged(ctx, userID, events.ScopeEntries, ym.String())
	s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	return e, nil
}

func (s *EntryService) Update(ctx context.Context, userID string, oldYM core.YearMonth, id string, updated core.Entry) (core.Entry, error) {
	old, err := s.store.GetEntry(ctx, userID, oldYM, id)
	if err != nil {
		return core.Entry{}, err
	}
	updated.ID = old.ID
	if err := updated.Validate(); err != nil {
		return core.Entry{}, err
	}

	if delta := updated.Amount.Cents - old.Amount.Cents; delta != 0 {
		if _, err := s.ledger.Adjust(ctx, userID, delta); err != nil {
			return core.Entry{}, fmt.Errorf("adjust edited entry: %w", err)
		}
	}

	newYM := core.YearMonthOf(updated.Date)
	if newYM == oldYM {
		err = s.store.UpdateEntry(ctx, userID, newYM, updated)
	} else {
		if err = s.store.DeleteEntry(ctx, userID, oldYM, id); err == nil {
			err = s.store.CreateEntry(ctx, userID, newYM, updated)
		}
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("rewrite entry: %w", err)
	}

	s.notifier.DataChanged(ctx, userID, events.ScopeEntries, oldYM.String())
	if newYM != oldYM {
		s.notifier.DataChanged(ctx, userID, events.ScopeEntries, newYM.String())
	}
	s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	return updated, nil
}

func (s *EntryService) Delete(ctx context.Context, userID string, ym core.YearMonth, id string) error {
	old, err := s.store.GetEntry(ctx, userID, ym, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEntry(ctx, userID, ym, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if _, err := s.ledger.Adjust(ctx, userID, -old.Amount.Cents); err != nil {
		return fmt.Errorf("reverse deleted entry: %w", err)
	}

	s.notifier.DataChanged(ctx, userID, events.ScopeEntries, ym.String())
	s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	return nil
}

func (s *EntryService) List(ctx context.Context, userID string, ym core.YearMonth) ([]core.Entry, error) {
	return s.store.ListEntries(ctx, userID, ym)
}
