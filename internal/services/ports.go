// Package services orchestrates record mutations: every operation
// that touches a cash-like payment method applies its signed balance
// delta exactly once, publishes a change notification, and keeps the
// invoice cache honest.
package services

import (
	"context"

	"github.com/andersonmelo18/Financeiro/internal/core"
)

// CardStore persists card configuration records.
type CardStore interface {
	CreateCard(ctx context.Context, userID string, c core.Card) error
	UpdateCard(ctx context.Context, userID string, c core.Card) error
	DeleteCard(ctx context.Context, userID, id string) error
	ListCards(ctx context.Context, userID string) ([]core.Card, error)
	GetCard(ctx context.Context, userID, id string) (core.Card, error)
}

// ExpenseStore persists variable expense records grouped by month.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, userID string, ym core.YearMonth, e core.Expense) error
	UpdateExpense(ctx context.Context, userID string, ym core.YearMonth, e core.Expense) error
	DeleteExpense(ctx context.Context, userID string, ym core.YearMonth, id string) error
	GetExpense(ctx context.Context, userID string, ym core.YearMonth, id string) (core.Expense, error)
	ListExpenses(ctx context.Context, userID string, ym core.YearMonth) ([]core.Expense, error)
}

// FixedStore persists fixed-expense instances and the rules they are
// materialized from.
type FixedStore interface {
	CreateFixed(ctx context.Context, userID string, ym core.YearMonth, f core.FixedExpense) error
	UpdateFixed(ctx context.Context, userID string, ym core.YearMonth, f core.FixedExpense) error
	DeleteFixed(ctx context.Context, userID string, ym core.YearMonth, id string) error
	GetFixed(ctx context.Context, userID string, ym core.YearMonth, id string) (core.FixedExpense, error)
	ListFixed(ctx context.Context, userID string, ym core.YearMonth) ([]core.FixedExpense, error)

	SaveRule(ctx context.Context, userID string, r core.FixedRule) error
	DeleteRule(ctx context.Context, userID, groupID string) error
	GetRule(ctx context.Context, userID, groupID string) (core.FixedRule, error)
	ListRules(ctx context.Context, userID string) ([]core.FixedRule, error)
}

// SpecStore persists installment purchase records.
type SpecStore interface {
	CreateSpec(ctx context.Context, userID string, p core.InstallmentPurchase) error
	UpdateSpec(ctx context.Context, userID string, p core.InstallmentPurchase) error
	DeleteSpec(ctx context.Context, userID, id string) error
	GetSpec(ctx context.Context, userID, id string) (core.InstallmentPurchase, error)
	ListSpecs(ctx context.Context, userID string) ([]core.InstallmentPurchase, error)
}

// PendenciaStore persists debt records grouped by month.
type PendenciaStore interface {
	CreatePendencia(ctx context.Context, userID string, ym core.YearMonth, p core.Pendencia) error
	UpdatePendencia(ctx context.Context, userID string, ym core.YearMonth, p core.Pendencia) error
	DeletePendencia(ctx context.Context, userID string, ym core.YearMonth, id string) error
	GetPendencia(ctx context.Context, userID string, ym core.YearMonth, id string) (core.Pendencia, error)
	ListPendencias(ctx context.Context, userID string, ym core.YearMonth) ([]core.Pendencia, error)
}

// EntryStore persists income records grouped by month.
type EntryStore interface {
	CreateEntry(ctx context.Context, userID string, ym core.YearMonth, e core.Entry) error
	UpdateEntry(ctx context.Context, userID string, ym core.YearMonth, e core.Entry) error
	DeleteEntry(ctx context.Context, userID string, ym core.YearMonth, id string) error
	GetEntry(ctx context.Context, userID string, ym core.YearMonth, id string) (core.Entry, error)
	ListEntries(ctx context.Context, userID string, ym core.YearMonth) ([]core.Entry, error)
}

// InvestmentStore persists positions, movement history and the
// benchmark configuration.
type InvestmentStore interface {
	CreatePosition(ctx context.Context, userID string, p core.Investment) error
	UpdatePosition(ctx context.Context, userID string, p core.Investment) error
	DeletePosition(ctx context.Context, userID, id string) error
	ListPositions(ctx context.Context, userID string) ([]core.Investment, error)
	AppendMovement(ctx context.Context, userID string, m core.InvestmentMovement) error
	GetInvestmentConfig(ctx context.Context, userID string) (core.InvestmentConfig, error)
	SetInvestmentConfig(ctx context.Context, userID string, cfg core.InvestmentConfig) error
	ListUserIDs(ctx context.Context) ([]string, error)
}
