package services

import (
	"context"
	"testing"

	"github.com/andersonmelo18/Financeiro/internal/core"
)

func pendenciaFixture(kind core.PendenciaKind, method string) core.Pendencia {
	return core.Pendencia{
		Kind:          kind,
		Person:        "Maria",
		Description:   "Jantar",
		Amount:        core.Money{Cents: 8000},
		DueDate:       core.NewDate(2024, 3, 15),
		PaymentMethod: method,
	}
}

func TestPendenciaPayUnpaySigns(t *testing.T) {
	tests := []struct {
		name      string
		kind      core.PendenciaKind
		method    string
		afterPay  int64
		afterBack int64
	}{
		{"paying a debt drains cash", core.KindIOwe, "Pix", 42000, 50000},
		{"collecting a receivable adds cash", core.KindOwedToMe, "Pix", 58000, 50000},
		{"card settlement leaves cash alone", core.KindIOwe, "Visa", 50000, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv()
			svc := NewPendenciaService(env.store, env.ledger, env.notifier)
			env.store.SetBalance(ctx, "u1", 50000)

			p, err := svc.Create(ctx, "u1", pendenciaFixture(tt.kind, tt.method))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			ym, _ := core.ParseYearMonth("2024-03")

			if err := svc.Pay(ctx, "u1", ym, p.ID); err != nil {
				t.Fatalf("Pay: %v", err)
			}
			if got := env.balance("u1"); got != tt.afterPay {
				t.Errorf("balance after pay = %d, want %d", got, tt.afterPay)
			}

			// repeated pay is a no-op
			if err := svc.Pay(ctx, "u1", ym, p.ID); err != nil {
				t.Fatalf("second Pay: %v", err)
			}
			if got := env.balance("u1"); got != tt.afterPay {
				t.Errorf("balance after repeated pay = %d, want %d", got, tt.afterPay)
			}

			if err := svc.Unpay(ctx, "u1", ym, p.ID); err != nil {
				t.Fatalf("Unpay: %v", err)
			}
			if got := env.balance("u1"); got != tt.afterBack {
				t.Errorf("balance after unpay = %d, want %d", got, tt.afterBack)
			}
		})
	}
}

func TestPendenciaDeleteReversesSettledEffect(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := NewPendenciaService(env.store, env.ledger, env.notifier)
	env.store.SetBalance(ctx, "u1", 50000)

	p, err := svc.Create(ctx, "u1", pendenciaFixture(core.KindIOwe, "Pix"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ym, _ := core.ParseYearMonth("2024-03")
	if err := svc.Pay(ctx, "u1", ym, p.ID); err != nil {
		t.Fatalf("Pay: %v", err)
	}

	if err := svc.Delete(ctx, "u1", ym, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := env.balance("u1"); got != 50000 {
		t.Errorf("balance = %d, want 50000", got)
	}
}

func TestPendenciaDeletePendingLeavesBalance(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := NewPendenciaService(env.store, env.ledger, env.notifier)
	env.store.SetBalance(ctx, "u1", 50000)

	p, err := svc.Create(ctx, "u1", pendenciaFixture(core.KindIOwe, "Pix"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ym, _ := core.ParseYearMonth("2024-03")
	if err := svc.Delete(ctx, "u1", ym, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := env.balance("u1"); got != 50000 {
		t.Errorf("balance = %d, want 50000", got)
	}
}

func TestPendenciaUpdateAppliesEffectDifference(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := NewPendenciaService(env.store, env.ledger, env.notifier)
	env.store.SetBalance(ctx, "u1", 50000)

	p, err := svc.Create(ctx, "u1", pendenciaFixture(core.KindIOwe, "Pix"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ym, _ := core.ParseYearMonth("2024-03")
	if err := svc.Pay(ctx, "u1", ym, p.ID); err != nil {
		t.Fatalf("Pay: %v", err)
	}

	updated, _ := env.store.GetPendencia(ctx, "u1", ym, p.ID)
	updated.Amount = core.Money{Cents: 10000}
	if _, err := svc.Update(ctx, "u1", ym, p.ID, updated); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// settled debt grew by 2000, cash drops by the difference
	if got := env.balance("u1"); got != 40000 {
		t.Errorf("balance = %d, want 40000", got)
	}
}
