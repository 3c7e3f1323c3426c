package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/andersonmelo18/Financeiro/internal/core"
	"github.com/andersonmelo18/Financeiro/internal/invoice"
	"github.com/andersonmelo18/Financeiro/internal/ledger"
)

// fakeStore is the in-memory backend the service tests share. It
// implements every store port plus the ledger and invoice sources.
// Records are kept per month like the real storage layer; the userID
// argument is accepted but a single fake serves one user per test.
type fakeStore struct {
	mu sync.Mutex

	cards      map[string]core.Card
	expenses   map[string]map[string]core.Expense
	fixed      map[string]map[string]core.FixedExpense
	rules      map[string]core.FixedRule
	specs      map[string]core.InstallmentPurchase
	pendencias map[string]map[string]core.Pendencia
	entries    map[string]map[string]core.Entry
	positions  map[string]core.Investment
	movements  []core.InvestmentMovement
	invConfig  *core.InvestmentConfig
	balances   map[string]int64
	userIDs    []string

	failCreateExpense bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cards:      make(map[string]core.Card),
		expenses:   make(map[string]map[string]core.Expense),
		fixed:      make(map[string]map[string]core.FixedExpense),
		rules:      make(map[string]core.FixedRule),
		specs:      make(map[string]core.InstallmentPurchase),
		pendencias: make(map[string]map[string]core.Pendencia),
		entries:    make(map[string]map[string]core.Entry),
		positions:  make(map[string]core.Investment),
		balances:   make(map[string]int64),
	}
}

func monthKey[T any](byMonth map[string]map[string]T, ym core.YearMonth) map[string]T {
	m, ok := byMonth[ym.String()]
	if !ok {
		m = make(map[string]T)
		byMonth[ym.String()] = m
	}
	return m
}

func sortedByID[T any](m map[string]T, id func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}

// CardStore

func (f *fakeStore) CreateCard(_ context.Context, _ string, c core.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards[c.ID] = c
	return nil
}

func (f *fakeStore) UpdateCard(_ context.Context, _ string, c core.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cards[c.ID]; !ok {
		return core.ErrNotFound
	}
	f.cards[c.ID] = c
	return nil
}

func (f *fakeStore) DeleteCard(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cards, id)
	return nil
}

func (f *fakeStore) ListCards(_ context.Context, _ string) ([]core.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedByID(f.cards, func(c core.Card) string { return c.ID }), nil
}

func (f *fakeStore) GetCard(_ context.Context, _ string, id string) (core.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	if !ok {
		return core.Card{}, fmt.Errorf("card %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

// ExpenseStore

func (f *fakeStore) CreateExpense(_ context.Context, _ string, ym core.YearMonth, e core.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateExpense {
		return errors.New("store unavailable")
	}
	monthKey(f.expenses, ym)[e.ID] = e
	return nil
}

func (f *fakeStore) UpdateExpense(_ context.Context, _ string, ym core.YearMonth, e core.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := monthKey(f.expenses, ym)
	if _, ok := m[e.ID]; !ok {
		return core.ErrNotFound
	}
	m[e.ID] = e
	return nil
}

func (f *fakeStore) DeleteExpense(_ context.Context, _ string, ym core.YearMonth, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(monthKey(f.expenses, ym), id)
	return nil
}

func (f *fakeStore) GetExpense(_ context.Context, _ string, ym core.YearMonth, id string) (core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := monthKey(f.expenses, ym)[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (f *fakeStore) ListExpenses(_ context.Context, _ string, ym core.YearMonth) ([]core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedByID(monthKey(f.expenses, ym), func(e core.Expense) string { return e.ID }), nil
}

// FixedStore

func (f *fakeStore) CreateFixed(_ context.Context, _ string, ym core.YearMonth, fx core.FixedExpense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	monthKey(f.fixed, ym)[fx.ID] = fx
	return nil
}

func (f *fakeStore) UpdateFixed(_ context.Context, _ string, ym core.YearMonth, fx core.FixedExpense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := monthKey(f.fixed, ym)
	if _, ok := m[fx.ID]; !ok {
		return core.ErrNotFound
	}
	m[fx.ID] = fx
	return nil
}

func (f *fakeStore) DeleteFixed(_ context.Context, _ string, ym core.YearMonth, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(monthKey(f.fixed, ym), id)
	return nil
}

func (f *fakeStore) GetFixed(_ context.Context, _ string, ym core.YearMonth, id string) (core.FixedExpense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fx, ok := monthKey(f.fixed, ym)[id]
	if !ok {
		return core.FixedExpense{}, fmt.Errorf("fixed expense %s: %w", id, core.ErrNotFound)
	}
	return fx, nil
}

func (f *fakeStore) ListFixed(_ context.Context, _ string, ym core.YearMonth) ([]core.FixedExpense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedByID(monthKey(f.fixed, ym), func(fx core.FixedExpense) string { return fx.ID }), nil
}

func (f *fakeStore) SaveRule(_ context.Context, _ string, r core.FixedRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[r.GroupID] = r
	return nil
}

func (f *fakeStore) DeleteRule(_ context.Context, _ string, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rules, groupID)
	return nil
}

func (f *fakeStore) GetRule(_ context.Context, _ string, groupID string) (core.FixedRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rules[groupID]
	if !ok {
		return core.FixedRule{}, fmt.Errorf("rule %s: %w", groupID, core.ErrNotFound)
	}
	return r, nil
}

func (f *fakeStore) ListRules(_ context.Context, _ string) ([]core.FixedRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedByID(f.rules, func(r core.FixedRule) string { return r.GroupID }), nil
}

// SpecStore

func (f *fakeStore) CreateSpec(_ context.Context, _ string, p core.InstallmentPurchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs[p.ID] = p
	return nil
}

func (f *fakeStore) UpdateSpec(_ context.Context, _ string, p core.InstallmentPurchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.specs[p.ID]; !ok {
		return core.ErrNotFound
	}
	f.specs[p.ID] = p
	return nil
}

func (f *fakeStore) DeleteSpec(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.specs, id)
	return nil
}

func (f *fakeStore) GetSpec(_ context.Context, _ string, id string) (core.InstallmentPurchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.specs[id]
	if !ok {
		return core.InstallmentPurchase{}, fmt.Errorf("purchase %s: %w", id, core.ErrNotFound)
	}
	return p, nil
}

func (f *fakeStore) ListSpecs(_ context.Context, _ string) ([]core.InstallmentPurchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedByID(f.specs, func(p core.InstallmentPurchase) string { return p.ID }), nil
}

// PendenciaStore

func (f *fakeStore) CreatePendencia(_ context.Context, _ string, ym core.YearMonth, p core.Pendencia) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	monthKey(f.pendencias, ym)[p.ID] = p
	return nil
}

func (f *fakeStore) UpdatePendencia(_ context.Context, _ string, ym core.YearMonth, p core.Pendencia) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := monthKey(f.pendencias, ym)
	if _, ok := m[p.ID]; !ok {
		return core.ErrNotFound
	}
	m[p.ID] = p
	return nil
}

func (f *fakeStore) DeletePendencia(_ context.Context, _ string, ym core.YearMonth, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(monthKey(f.pendencias, ym), id)
	return nil
}

func (f *fakeStore) GetPendencia(_ context.Context, _ string, ym core.YearMonth, id string) (core.Pendencia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := monthKey(f.pendencias, ym)[id]
	if !ok {
		return core.Pendencia{}, fmt.Errorf("pendencia %s: %w", id, core.ErrNotFound)
	}
	return p, nil
}

func (f *fakeStore) ListPendencias(_ context.Context, _ string, ym core.YearMonth) ([]core.Pendencia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedByID(monthKey(f.pendencias, ym), func(p core.Pendencia) string { return p.ID }), nil
}

// EntryStore

func (f *fakeStore) CreateEntry(_ context.Context, _ string, ym core.YearMonth, e core.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	monthKey(f.entries, ym)[e.ID] = e
	return nil
}

func (f *fakeStore) UpdateEntry(_ context.Context, _ string, ym core.YearMonth, e core.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := monthKey(f.entries, ym)
	if _, ok := m[e.ID]; !ok {
		return core.ErrNotFound
	}
	m[e.ID] = e
	return nil
}

func (f *fakeStore) DeleteEntry(_ context.Context, _ string, ym core.YearMonth, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(monthKey(f.entries, ym), id)
	return nil
}

func (f *fakeStore) GetEntry(_ context.Context, _ string, ym core.YearMonth, id string) (core.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := monthKey(f.entries, ym)[id]
	if !ok {
		return core.Entry{}, fmt.Errorf("entry %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (f *fakeStore) ListEntries(_ context.Context, _ string, ym core.YearMonth) ([]core.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedByID(monthKey(f.entries, ym), func(e core.Entry) string { return e.ID }), nil
}

// InvestmentStore

func (f *fakeStore) CreatePosition(_ context.Context, _ string, p core.Investment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions[p.ID] = p
	return nil
}

func (f *fakeStore) UpdatePosition(_ context.Context, _ string, p core.Investment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.positions[p.ID]; !ok {
		return core.ErrNotFound
	}
	f.positions[p.ID] = p
	return nil
}

func (f *fakeStore) DeletePosition(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.positions, id)
	return nil
}

func (f *fakeStore) ListPositions(_ context.Context, _ string) ([]core.Investment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedByID(f.positions, func(p core.Investment) string { return p.ID }), nil
}

func (f *fakeStore) AppendMovement(_ context.Context, _ string, m core.InvestmentMovement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakeStore) GetInvestmentConfig(_ context.Context, _ string) (core.InvestmentConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invConfig == nil {
		return core.InvestmentConfig{}, core.ErrNotFound
	}
	return *f.invConfig, nil
}

func (f *fakeStore) SetInvestmentConfig(_ context.Context, _ string, cfg core.InvestmentConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invConfig = &cfg
	return nil
}

func (f *fakeStore) ListUserIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userIDs, nil
}

// ledger.Store

func (f *fakeStore) GetBalance(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID], nil
}

func (f *fakeStore) SetBalance(_ context.Context, userID string, cents int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] = cents
	return nil
}

// invoice.SnapshotSource

func (f *fakeStore) InvoiceSnapshot(ctx context.Context, userID string, target core.YearMonth) (invoice.Snapshot, error) {
	cards, _ := f.ListCards(ctx, userID)
	prevExp, _ := f.ListExpenses(ctx, userID, target.Prev())
	curExp, _ := f.ListExpenses(ctx, userID, target)
	prevFixed, _ := f.ListFixed(ctx, userID, target.Prev())
	curFixed, _ := f.ListFixed(ctx, userID, target)
	specs, _ := f.ListSpecs(ctx, userID)
	return invoice.Snapshot{
		Cards:        cards,
		PrevExpenses: prevExp,
		CurExpenses:  curExp,
		PrevFixed:    prevFixed,
		CurFixed:     curFixed,
		Purchases:    specs,
	}, nil
}

// invoice.PaidStatusSource

func (f *fakeStore) InvoicePaid(_ context.Context, _ string, cardName string, ym core.YearMonth) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	desc := core.InvoicePaymentDescription(cardName)
	for _, e := range monthKey(f.expenses, ym) {
		if e.IsInvoicePayment() && e.Description == desc {
			return true, nil
		}
	}
	for _, p := range monthKey(f.pendencias, ym) {
		if p.Status == core.StatusPaid && p.Description == desc {
			return true, nil
		}
	}
	return false, nil
}

// testEnv bundles the shared collaborators most service tests need.
type testEnv struct {
	store    *fakeStore
	ledger   *ledger.Ledger
	invoices *invoice.Service
	notifier *Notifier
}

func newTestEnv() *testEnv {
	fs := newFakeStore()
	return &testEnv{
		store:    fs,
		ledger:   ledger.New(fs),
		invoices: invoice.NewService(fs, fs, nil),
		notifier: NewNotifier(nil),
	}
}

func (e *testEnv) balance(userID string) int64 {
	b, _ := e.ledger.Read(context.Background(), userID)
	return b
}
