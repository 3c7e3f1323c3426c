package core

import (
	"testing"
	"time"
)

func TestCardValidate(t *testing.T) {
	good := Card{Name: "Visa", ClosingDay: 10, DueDay: 17, CreditLimit: Money{Cents: 500000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Card{
		{Name: "", ClosingDay: 10, DueDay: 17},
		{Name: "Visa", ClosingDay: 0, DueDay: 17},
		{Name: "Visa", ClosingDay: 32, DueDay: 17},
		{Name: "Visa", ClosingDay: 10, DueDay: 0},
		{Name: "Visa", ClosingDay: 10, DueDay: 17, CreditLimit: Money{Cents: -1}},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Date:          NewDate(2024, 3, 10),
		Category:      "Mercado",
		Description:   "compras",
		PaymentMethod: MethodPix,
		Amount:        Money{Cents: 100},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Date: Date{Time: time.Time{}}, Description: "a", PaymentMethod: MethodPix, Amount: Money{Cents: 1}},
		{Date: NewDate(2024, 3, 10), Description: "", PaymentMethod: MethodPix, Amount: Money{Cents: 1}},
		{Date: NewDate(2024, 3, 10), Description: "a", PaymentMethod: "", Amount: Money{Cents: 1}},
		{Date: NewDate(2024, 3, 10), Description: "a", PaymentMethod: MethodPix, Amount: Money{Cents: 0}},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestIsCashLike(t *testing.T) {
	cases := []struct {
		method string
		cash   bool
		fixed  bool
	}{
		{MethodCashBalance, true, true},
		{MethodPix, true, true},
		{MethodCash, true, true},
		{MethodAutoDebit, false, true},
		{"Visa", false, false},
		{"", false, false},
	}
	for _, tc := range cases {
		if got := IsCashLike(tc.method); got != tc.cash {
			t.Fatalf("IsCashLike(%q) = %v, want %v", tc.method, got, tc.cash)
		}
		if got := IsCashLikeFixed(tc.method); got != tc.fixed {
			t.Fatalf("IsCashLikeFixed(%q) = %v, want %v", tc.method, got, tc.fixed)
		}
	}
}

func TestPendenciaCashDelta(t *testing.T) {
	base := Pendencia{
		Kind:          KindIOwe,
		Person:        "João",
		Description:   "almoço",
		Amount:        Money{Cents: 4500},
		DueDate:       NewDate(2024, 3, 15),
		PaymentMethod: MethodPix,
		Status:        StatusPending,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got := base.CashDelta(); got != -4500 {
		t.Fatalf("euDevo delta = %d, want -4500", got)
	}

	base.Kind = KindOwedToMe
	if got := base.CashDelta(); got != 4500 {
		t.Fatalf("meDeve delta = %d, want 4500", got)
	}

	base.PaymentMethod = "Visa"
	if got := base.CashDelta(); got != 0 {
		t.Fatalf("card method delta = %d, want 0", got)
	}
}

func TestPerInstallment(t *testing.T) {
	cases := []struct {
		total int64
		n     int
		want  int64
	}{
		{120000, 12, 10000},
		{100000, 3, 33333},
		{100, 1, 100},
	}
	for _, tc := range cases {
		p := InstallmentPurchase{TotalAmount: Money{Cents: tc.total}, Installments: tc.n}
		if got := p.PerInstallment().Cents; got != tc.want {
			t.Fatalf("PerInstallment(%d/%d) = %d, want %d", tc.total, tc.n, got, tc.want)
		}
	}
}

func TestInstallmentPurchaseValidate(t *testing.T) {
	good := InstallmentPurchase{
		CardName:     "Visa",
		Description:  "notebook",
		TotalAmount:  Money{Cents: 120000},
		Installments: 12,
		PurchaseDate: NewDate(2024, 1, 5),
		StartMonth:   YearMonth{2024, time.January},
		Status:       SpecActive,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := good
	bad.Installments = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for zero installments")
	}

	bad = good
	bad.Status = "cancelado"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestInvoicePaymentDescription(t *testing.T) {
	if got := InvoicePaymentDescription("Visa"); got != "Pagamento Fatura Visa" {
		t.Fatalf("got %q", got)
	}
}
