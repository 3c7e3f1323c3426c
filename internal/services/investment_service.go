package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andersonmelo18/Financeiro/internal/core"
	"github.com/andersonmelo18/Financeiro/internal/events"
	"github.com/andersonmelo18/Financeiro/internal/ledger"
)

// dustThreshold is the position value below which a resgate removes
// the position entirely instead of leaving fractions of a cent behind.
const dustThreshold = 1 // cents

// InvestmentService manages positions, their movement history and the
// daily CDI accrual applied to fixed-income positions.
type InvestmentService struct {
	store          InvestmentStore
	ledger         *ledger.Ledger
	notifier       *Notifier
	defaultCDIBase float64
	now            func() time.Time
}

func NewInvestmentService(store InvestmentStore, l *ledger.Ledger, notifier *Notifier, defaultCDIBase float64) *InvestmentService {
	return &InvestmentService{
		store:          store,
		ledger:         l,
		notifier:       notifier,
		defaultCDIBase: defaultCDIBase,
		now:            time.Now,
	}
}

func (s *InvestmentService) List(ctx context.Context, userID string) ([]core.Investment, error) {
	return s.store.ListPositions(ctx, userID)
}

func (s *InvestmentService) position(ctx context.Context, userID, id string) (core.Investment, error) {
	positions, err := s.store.ListPositions(ctx, userID)
	if err != nil {
		return core.Investment{}, err
	}
	for _, p := range positions {
		if p.ID == id {
			return p, nil
		}
	}
	return core.Investment{}, fmt.Errorf("position %s: %w", id, core.ErrNotFound)
}

// Aporte moves cash from the balance into a position. Bank and type
// name match case-insensitively against existing positions; no match
// creates a new one.
func (s *InvestmentService) Aporte(ctx context.Context, userID, bank, typeGeneral, typeName string, amount core.Money, cdiPercent float64) (core.Investment, error) {
	if amount.Cents <= 0 {
		return core.Investment{}, core.ErrInvalidAmount
	}
	ok, err := s.ledger.HasSufficientBalance(ctx, userID, amount.Cents)
	if err != nil {
		return core.Investment{}, err
	}
	if !ok {
		return core.Investment{}, fmt.Errorf("aporte of %s: %w", amount, core.ErrInsufficientBalance)
	}
	if _, err := s.ledger.Adjust(ctx, userID, -amount.Cents); err != nil {
		return core.Investment{}, fmt.Errorf("debit aporte: %w", err)
	}

	positions, err := s.store.ListPositions(ctx, userID)
	if err != nil {
		return core.Investment{}, err
	}
	var target *core.Investment
	for i := range positions {
		if strings.EqualFold(positions[i].Bank, bank) && strings.EqualFold(positions[i].TypeName, typeName) {
			target = &positions[i]
			break
		}
	}

	var p core.Investment
	if target != nil {
		target.Invested.Cents += amount.Cents
		target.Current.Cents += amount.Cents
		if err := target.Validate(); err != nil {
			return core.Investment{}, err
		}
		if err := s.store.UpdatePosition(ctx, userID, *target); err != nil {
			return core.Investment{}, fmt.Errorf("update position: %w", err)
		}
		p = *target
	} else {
		p = core.Investment{
			ID:          uuid.NewString(),
			Bank:        bank,
			TypeGeneral: typeGeneral,
			TypeName:    typeName,
			Invested:    amount,
			Current:     amount,
			CDIPercent:  cdiPercent,
			LastUpdate:  s.now(),
		}
		if err := p.Validate(); err != nil {
			return core.Investment{}, err
		}
		if err := s.store.CreatePosition(ctx, userID, p); err != nil {
			return core.Investment{}, fmt.Errorf("create position: %w", err)
		}
	}

	s.recordMovement(ctx, userID, "aporte", p.Bank, p.TypeName, amount)
	s.notifier.DataChanged(ctx, userID, events.ScopeInvestments, "")
	s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	return p, nil
}

// Resgate moves value out of a position back to cash. The cost basis
// shrinks proportionally to the fraction withdrawn; a position left
// below one cent is removed.
func (s *InvestmentService) Resgate(ctx context.Context, userID, id string, amount core.Money) error {
	if amount.Cents <= 0 {
		return core.ErrInvalidAmount
	}
	p, err := s.position(ctx, userID, id)
	if err != nil {
		return err
	}
	if p.Current.Cents < amount.Cents {
		return fmt.Errorf("resgate of %s from %s: %w", amount, p.Current, core.ErrInsufficientBalance)
	}

	// proportional before mutating Current
	costReduction := decimal.NewFromInt(p.Invested.Cents).
		Mul(decimal.NewFromInt(amount.Cents)).
		Div(decimal.NewFromInt(p.Current.Cents)).
		Round(0).IntPart()

	p.Invested.Cents -= costReduction
	if p.Invested.Cents < 0 {
		p.Invested.Cents = 0
	}
	p.Current.Cents -= amount.Cents

	if p.Current.Cents < dustThreshold {
		if err := s.store.DeletePosition(ctx, userID, p.ID); err != nil {
			return fmt.Errorf("remove drained position: %w", err)
		}
	} else {
		if err := s.store.UpdatePosition(ctx, userID, p); err != nil {
			return fmt.Errorf("update position: %w", err)
		}
	}

	if _, err := s.ledger.Adjust(ctx, userID, amount.Cents); err != nil {
		return fmt.Errorf("credit resgate: %w", err)
	}
	s.recordMovement(ctx, userID, "resgate", p.Bank, p.TypeName, amount)
	s.notifier.DataChanged(ctx, userID, events.ScopeInvestments, "")
	s.notifier.DataChanged(ctx, userID, events.ScopeBalance, "")
	return nil
}

// ManualUpdate overwrites a position's market value, resetting the
// accrual clock.
func (s *InvestmentService) ManualUpdate(ctx context.Context, userID, id string, current core.Money) error {
	if current.Cents < 0 {
		return core.ErrInvalidAmount
	}
	p, err := s.position(ctx, userID, id)
	if err != nil {
		return err
	}
	p.Current = current
	p.LastUpdate = s.now()
	if err := s.store.UpdatePosition(ctx, userID, p); err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	s.notifier.DataChanged(ctx, userID, events.ScopeInvestments, "")
	return nil
}

func (s *InvestmentService) recordMovement(ctx context.Context, userID, kind, bank, typeName string, amount core.Money) {
	m := core.InvestmentMovement{
		ID:       uuid.NewString(),
		Date:     core.Date{Time: s.now()},
		Kind:     kind,
		Bank:     bank,
		TypeName: typeName,
		Amount:   amount,
	}
	if err := s.store.AppendMovement(ctx, userID, m); err != nil {
		// history is best effort, the position itself already moved
		slog.WarnContext(ctx, "Failed to append investment movement",
			"user_id", userID, "kind", kind, "error", err)
	}
}

// GetConfig returns the user's benchmark rate, falling back to the
// instance default when none was saved.
func (s *InvestmentService) GetConfig(ctx context.Context, userID string) (core.InvestmentConfig, error) {
	cfg, err := s.store.GetInvestmentConfig(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.InvestmentConfig{CDIBase: s.defaultCDIBase}, nil
	}
	if err != nil {
		return core.InvestmentConfig{}, err
	}
	return cfg, nil
}

func (s *InvestmentService) SetConfig(ctx context.Context, userID string, cfg core.InvestmentConfig) error {
	if cfg.CDIBase < 0 {
		return core.ErrInvalidAmount
	}
	if err := s.store.SetInvestmentConfig(ctx, userID, cfg); err != nil {
		return fmt.Errorf("save investment config: %w", err)
	}
	s.notifier.DataChanged(ctx, userID, events.ScopeInvestments, "")
	return nil
}

// accrue compounds a fixed-income position from its last update to
// now, one whole day at a time. Returns false when nothing changed.
func accrue(p *core.Investment, cdiBase float64, now time.Time) bool {
	if !p.AccruesDaily() || p.Current.Cents <= 0 {
		return false
	}
	days := int64(math.Floor(now.Sub(p.LastUpdate).Hours() / 24))
	if days <= 0 {
		return false
	}

	annualRate := (cdiBase * p.CDIPercent / 100) / 100
	dailyRate := math.Pow(1+annualRate, 1.0/365) - 1
	factor := decimal.NewFromFloat(1 + dailyRate).Pow(decimal.NewFromInt(days))
	updated := decimal.NewFromInt(p.Current.Cents).Mul(factor).Round(0).IntPart()

	p.Current.Cents = updated
	p.LastUpdate = now
	return true
}

// AccrueUser applies daily accrual to every eligible position of one
// user. Returns how many positions moved.
func (s *InvestmentService) AccrueUser(ctx context.Context, userID string) (int, error) {
	cfg, err := s.GetConfig(ctx, userID)
	if err != nil {
		return 0, err
	}
	positions, err := s.store.ListPositions(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	updated := 0
	for i := range positions {
		if !accrue(&positions[i], cfg.CDIBase, now) {
			continue
		}
		if err := s.store.UpdatePosition(ctx, userID, positions[i]); err != nil {
			return updated, fmt.Errorf("persist accrual for %s: %w", positions[i].ID, err)
		}
		updated++
	}
	if updated > 0 {
		s.notifier.DataChanged(ctx, userID, events.ScopeInvestments, "")
	}
	return updated, nil
}

// AccrueAll runs accrual for every known user. Per-user failures are
// logged and do not stop the sweep.
func (s *InvestmentService) AccrueAll(ctx context.Context) error {
	userIDs, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, userID := range userIDs {
		n, err := s.AccrueUser(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "Accrual sweep failed for user",
				"user_id", userID, "error", err)
			continue
		}
		if n > 0 {
			slog.InfoContext(ctx, "Applied daily accrual",
				"user_id", userID, "positions", n)
		}
	}
	return nil
}
