package ledger

import (
	"context"
	"sync"
	"testing"
)

type memStore struct {
	mu       sync.Mutex
	balances map[string]int64
}

func newMemStore() *memStore {
	return &memStore{balances: make(map[string]int64)}
}

func (m *memStore) GetBalance(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID], nil
}

func (m *memStore) SetBalance(_ context.Context, userID string, cents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = cents
	return nil
}

func TestAdjustAndRead(t *testing.T) {
	ctx := context.Background()
	l := New(newMemStore())

	got, err := l.Adjust(ctx, "u1", 10000)
	if err != nil || got != 10000 {
		t.Fatalf("Adjust = %d (err=%v), want 10000", got, err)
	}
	got, err = l.Adjust(ctx, "u1", -4500)
	if err != nil || got != 5500 {
		t.Fatalf("Adjust = %d (err=%v), want 5500", got, err)
	}

	// the balance may legitimately go negative
	got, err = l.Adjust(ctx, "u1", -9000)
	if err != nil || got != -3500 {
		t.Fatalf("Adjust = %d (err=%v), want -3500", got, err)
	}

	if got, err = l.Read(ctx, "u1"); err != nil || got != -3500 {
		t.Fatalf("Read = %d (err=%v), want -3500", got, err)
	}
}

func TestZeroDeltaIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.balances["u1"] = 777
	l := New(store)

	got, err := l.Adjust(ctx, "u1", 0)
	if err != nil || got != 777 {
		t.Fatalf("Adjust(0) = %d (err=%v), want 777", got, err)
	}
}

func TestUsersAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := New(newMemStore())

	if _, err := l.Adjust(ctx, "a", 100); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Adjust(ctx, "b", 200); err != nil {
		t.Fatal(err)
	}
	if got, _ := l.Read(ctx, "a"); got != 100 {
		t.Fatalf("user a balance = %d, want 100", got)
	}
	if got, _ := l.Read(ctx, "b"); got != 200 {
		t.Fatalf("user b balance = %d, want 200", got)
	}
}

func TestHasSufficientBalance(t *testing.T) {
	ctx := context.Background()
	l := New(newMemStore())
	if _, err := l.Adjust(ctx, "u1", 30000); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		amount int64
		want   bool
	}{
		{30000, true},
		{29999, true},
		{30001, false},
	}
	for _, tc := range cases {
		ok, err := l.HasSufficientBalance(ctx, "u1", tc.amount)
		if err != nil || ok != tc.want {
			t.Fatalf("HasSufficientBalance(%d) = %v (err=%v), want %v", tc.amount, ok, err, tc.want)
		}
	}
}

func TestConcurrentAdjustsDoNotLoseDeltas(t *testing.T) {
	ctx := context.Background()
	l := New(newMemStore())

	const workers = 20
	const perWorker = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := l.Adjust(ctx, "u1", 1); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := l.Read(ctx, "u1")
	if err != nil || got != workers*perWorker {
		t.Fatalf("balance = %d (err=%v), want %d", got, err, workers*perWorker)
	}
}
