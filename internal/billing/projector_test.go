package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/andersonmelo18/Financeiro/internal/core"
)

func neverPaid(core.YearMonth) (bool, error) { return false, nil }

func paidMonths(months ...core.YearMonth) PaidFunc {
	set := make(map[core.YearMonth]bool, len(months))
	for _, m := range months {
		set[m] = true
	}
	return func(ym core.YearMonth) (bool, error) { return set[ym], nil }
}

func TestEffectiveStartMonth(t *testing.T) {
	jan := core.YearMonth{Year: 2024, Month: time.January}

	got, err := EffectiveStartMonth(jan, neverPaid)
	if err != nil || got != jan {
		t.Fatalf("unpaid start: got %s (err=%v), want %s", got, err, jan)
	}

	// two consecutive paid months push the start to March
	got, err = EffectiveStartMonth(jan, paidMonths(jan, jan.Next()))
	if err != nil || got != (core.YearMonth{Year: 2024, Month: time.March}) {
		t.Fatalf("paid run: got %s (err=%v)", got, err)
	}
}

func TestEffectiveStartMonthBounded(t *testing.T) {
	allPaid := func(core.YearMonth) (bool, error) { return true, nil }
	_, err := EffectiveStartMonth(core.YearMonth{Year: 2024, Month: time.January}, allPaid)
	if !errors.Is(err, ErrPaidWalkExceeded) {
		t.Fatalf("expected ErrPaidWalkExceeded, got %v", err)
	}
}

func TestInstallmentForMonth(t *testing.T) {
	purchase := core.InstallmentPurchase{
		ID:           "s1",
		CardName:     "Visa",
		Description:  "notebook",
		TotalAmount:  core.Money{Cents: 120000},
		Installments: 12,
		StartMonth:   core.YearMonth{Year: 2024, Month: time.January},
		Status:       core.SpecActive,
	}

	// 6th month with no paid skips: index 6, 100.00 per installment
	c, ok, err := InstallmentForMonth(purchase, core.YearMonth{Year: 2024, Month: time.June}, neverPaid)
	if err != nil || !ok {
		t.Fatalf("expected contribution, got ok=%v err=%v", ok, err)
	}
	if c.Index != 6 || c.Amount.Cents != 10000 || c.Label != "(6/12)" || c.Struck {
		t.Fatalf("unexpected contribution %+v", c)
	}

	// before the start month nothing lands
	if _, ok, _ = InstallmentForMonth(purchase, core.YearMonth{Year: 2023, Month: time.December}, neverPaid); ok {
		t.Fatal("contribution before start month")
	}

	// after the last installment nothing lands
	if _, ok, _ = InstallmentForMonth(purchase, core.YearMonth{Year: 2025, Month: time.January}, neverPaid); ok {
		t.Fatal("contribution after final installment")
	}

	// paid target month defers the charge entirely
	target := core.YearMonth{Year: 2024, Month: time.June}
	if _, ok, _ = InstallmentForMonth(purchase, target, paidMonths(target)); ok {
		t.Fatal("contribution on already-paid invoice")
	}

	// a paid start month shifts every index forward by one
	c, ok, err = InstallmentForMonth(purchase, core.YearMonth{Year: 2024, Month: time.June}, paidMonths(purchase.StartMonth))
	if err != nil || !ok {
		t.Fatalf("expected contribution, got ok=%v err=%v", ok, err)
	}
	if c.Index != 5 || c.Label != "(5/12)" {
		t.Fatalf("expected shifted index 5, got %+v", c)
	}
}

func TestInstallmentForMonthStatuses(t *testing.T) {
	base := core.InstallmentPurchase{
		CardName:     "Visa",
		Description:  "tv",
		TotalAmount:  core.Money{Cents: 60000},
		Installments: 6,
		StartMonth:   core.YearMonth{Year: 2024, Month: time.January},
	}
	target := core.YearMonth{Year: 2024, Month: time.February}

	for _, status := range []core.SpecStatus{core.SpecReversed, core.SpecSettled} {
		p := base
		p.Status = status
		c, ok, err := InstallmentForMonth(p, target, neverPaid)
		if err != nil || !ok {
			t.Fatalf("%s: expected listed contribution, got ok=%v err=%v", status, ok, err)
		}
		if c.Amount.Cents != 0 || !c.Struck {
			t.Fatalf("%s: expected zero struck contribution, got %+v", status, c)
		}
	}

	settlement := core.InstallmentPurchase{
		CardName:     "Visa",
		Description:  "tv (quitação)",
		TotalAmount:  core.Money{Cents: 40000},
		Installments: 1,
		StartMonth:   target,
		Status:       core.SpecSettlementCharge,
	}
	c, ok, err := InstallmentForMonth(settlement, target, neverPaid)
	if err != nil || !ok {
		t.Fatalf("settlement: expected contribution, got ok=%v err=%v", ok, err)
	}
	if c.Amount.Cents != 40000 || c.Struck {
		t.Fatalf("settlement: got %+v", c)
	}
}

func TestSingleInstallmentBehavesLikePlainCharge(t *testing.T) {
	p := core.InstallmentPurchase{
		CardName:     "Visa",
		Description:  "jantar",
		TotalAmount:  core.Money{Cents: 8500},
		Installments: 1,
		StartMonth:   core.YearMonth{Year: 2024, Month: time.March},
		Status:       core.SpecActive,
	}
	c, ok, err := InstallmentForMonth(p, p.StartMonth, neverPaid)
	if err != nil || !ok {
		t.Fatalf("expected contribution, got ok=%v err=%v", ok, err)
	}
	if c.Amount != p.TotalAmount || c.Index != 1 {
		t.Fatalf("got %+v, want full amount at index 1", c)
	}
	if _, ok, _ := InstallmentForMonth(p, p.StartMonth.Next(), neverPaid); ok {
		t.Fatal("single installment leaked into following month")
	}
}
