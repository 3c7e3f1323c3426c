// Package ledger maintains the single running cash balance per user.
// Every cash-affecting operation funnels through Adjust, which
// serializes read-modify-write cycles behind a per-user lock.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Store persists the accumulated balance, in cents.
type Store interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	SetBalance(ctx context.Context, userID string, cents int64) error
}

type Ledger struct {
	store Store

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

func New(store Store) *Ledger {
	return &Ledger{
		store: store,
		users: make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) userLock(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.users[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.users[userID] = lock
	}
	return lock
}

// Adjust applies a signed delta and returns the new balance. A zero
// delta is a no-op.
func (l *Ledger) Adjust(ctx context.Context, userID string, delta int64) (int64, error) {
	if delta == 0 {
		return l.Read(ctx, userID)
	}

	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	current, err := l.store.GetBalance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}

	next := current + delta
	if err := l.store.SetBalance(ctx, userID, next); err != nil {
		return 0, fmt.Errorf("write balance: %w", err)
	}

	slog.InfoContext(ctx, "Balance adjusted",
		"user_id", userID,
		"delta_cents", delta,
		"balance_cents", next)

	return next, nil
}

// Read returns the current accumulated balance in cents.
func (l *Ledger) Read(ctx context.Context, userID string) (int64, error) {
	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	current, err := l.store.GetBalance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return current, nil
}

// HasSufficientBalance reports whether the balance covers amount.
func (l *Ledger) HasSufficientBalance(ctx context.Context, userID string, amount int64) (bool, error) {
	current, err := l.Read(ctx, userID)
	if err != nil {
		return false, err
	}
	return current >= amount, nil
}
