package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/andersonmelo18/Financeiro/internal/core"
	"github.com/andersonmelo18/Financeiro/internal/events"
)

// CardService manages card configuration. Card names are soft
// references from expenses and installment purchases, so they must be
// unique per user (case-insensitive).
type CardService struct {
	store    CardStore
	notifier *Notifier
}

func NewCardService(store CardStore, notifier *Notifier) *CardService {
	return &CardService{store: store, notifier: notifier}
}

func (s *CardService) nameTaken(ctx context.Context, userID, name, excludeID string) (bool, error) {
	cards, err := s.store.ListCards(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, c := range cards {
		if c.ID != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *CardService) Create(ctx context.Context, userID string, c core.Card) (core.Card, error) {
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	taken, err := s.nameTaken(ctx, userID, c.Name, "")
	if err != nil {
		return core.Card{}, err
	}
	if taken {
		return core.Card{}, fmt.Errorf("card %q: %w", c.Name, core.ErrDuplicateCardName)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := s.store.CreateCard(ctx, userID, c); err != nil {
		return core.Card{}, fmt.Errorf("save card: %w", err)
	}
	s.notifier.DataChanged(ctx, userID, events.ScopeCards, "")
	return c, nil
}

func (s *CardService) Update(ctx context.Context, userID string, c core.Card) (core.Card, error) {
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	if _, err := s.store.GetCard(ctx, userID, c.ID); err != nil {
		return core.Card{}, err
	}
	taken, err := s.nameTaken(ctx, userID, c.Name, c.ID)
	if err != nil {
		return core.Card{}, err
	}
	if taken {
		return core.Card{}, fmt.Errorf("card %q: %w", c.Name, core.ErrDuplicateCardName)
	}
	if err := s.store.UpdateCard(ctx, userID, c); err != nil {
		return core.Card{}, fmt.Errorf("update card: %w", err)
	}
	s.notifier.DataChanged(ctx, userID, events.ScopeCards, "")
	return c, nil
}

func (s *CardService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.store.GetCard(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteCard(ctx, userID, id); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	s.notifier.DataChanged(ctx, userID, events.ScopeCards, "")
	return nil
}

// SetBlocked toggles a card's blocked flag. Blocked cards disappear
// from payment-method selection but their invoices keep aggregating.
func (s *CardService) SetBlocked(ctx context.Context, userID, id string, blocked bool) error {
	c, err := s.store.GetCard(ctx, userID, id)
	if err != nil {
		return err
	}
	c.Blocked = blocked
	if err := s.store.UpdateCard(ctx, userID, c); err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	s.notifier.DataChanged(ctx, userID, events.ScopeCards, "")
	return nil
}

func (s *CardService) List(ctx context.Context, userID string) ([]core.Card, error) {
	return s.store.ListCards(ctx, userID)
}

// ListSelectable returns the cards offered as payment methods,
// excluding blocked ones.
func (s *CardService) ListSelectable(ctx context.Context, userID string) ([]core.Card, error) {
	cards, err := s.store.ListCards(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := cards[:0]
	for _, c := range cards {
		if !c.Blocked {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *CardService) Get(ctx context.Context, userID, id string) (core.Card, error) {
	return s.store.GetCard(ctx, userID, id)
}

// GetByName resolves a card by its (case-insensitive) name.
func (s *CardService) GetByName(ctx context.Context, userID, name string) (core.Card, error) {
	cards, err := s.store.ListCards(ctx, userID)
	if err != nil {
		return core.Card{}, err
	}
	for _, c := range cards {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return core.Card{}, fmt.Errorf("card %q: %w", name, core.ErrNotFound)
}
