package core

import (
	"errors"
	"strings"
	"time"
)

// Payment method names that move cash immediately and therefore touch
// the balance ledger. Card names are everything else.
const (
	MethodCashBalance = "Saldo em Caixa"
	MethodPix         = "Pix"
	MethodCash        = "Dinheiro"
	MethodAutoDebit   = "Débito Automático"
)

// CategoryInvoice marks an expense record that is itself an invoice
// payment transaction, created by the payment orchestrator.
const CategoryInvoice = "Fatura"

type (
	// SpecStatus is the lifecycle state of an installment purchase.
	SpecStatus string

	// PayStatus tracks whether a fixed expense or pendencia was settled.
	PayStatus string

	// PendenciaKind distinguishes debts the user owes from receivables.
	PendenciaKind string

	// Recurrence is the materialization mode of a fixed-expense rule.
	Recurrence string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Receipt is an opaque handle into the external blob store.
	Receipt struct {
		URL  string
		Path string
	}

	Card struct {
		ID          string
		Name        string
		Icon        string
		ClosingDay  int
		DueDay      int
		CreditLimit Money
		Blocked     bool
	}

	Expense struct {
		ID            string
		Date          Date
		Category      string
		Description   string
		PaymentMethod string
		Amount        Money
		Receipt       *Receipt
	}

	// InstallmentInfo links a record to its recurring group.
	// Total == 0 means open-ended monthly recurrence.
	InstallmentInfo struct {
		GroupID string
		Current int
		Total   int
	}

	FixedExpense struct {
		ID            string
		DueDate       Date
		Category      string
		Description   string
		PaymentMethod string
		Amount        Money
		Recurrence    Recurrence
		Installment   *InstallmentInfo
		Status        PayStatus
	}

	// FixedRule is the template a recurring fixed-expense group is
	// materialized from. Exceptions holds year-month keys where the
	// user deleted that month's instance.
	FixedRule struct {
		GroupID           string
		Category          string
		Description       string
		PaymentMethod     string
		Amount            Money
		Recurrence        Recurrence
		DueDay            int
		StartMonth        YearMonth
		TotalInstallments int
		Exceptions        map[string]bool
	}

	// InstallmentPurchase is a card purchase split into equal monthly
	// charges. StartMonth is the first invoice month, derived from the
	// purchase date and the card's closing day at creation time.
	InstallmentPurchase struct {
		ID           string
		CardName     string
		Description  string
		TotalAmount  Money
		Installments int
		PurchaseDate Date
		StartMonth   YearMonth
		Status       SpecStatus
	}

	Pendencia struct {
		ID            string
		Kind          PendenciaKind
		Person        string
		Description   string
		Amount        Money
		DueDate       Date
		PaymentMethod string
		Status        PayStatus
	}

	// Entry is an income record. Km and Hours are optional work
	// metrics carried for the dashboard.
	Entry struct {
		ID          string
		Date        Date
		Description string
		Amount      Money
		Km          float64
		Hours       float64
	}

	// Investment is one position. Invested is the cost basis, Current
	// the market value. CDIPercent > 0 enables daily accrual for
	// fixed-income positions.
	Investment struct {
		ID          string
		Bank        string
		TypeGeneral string
		TypeName    string
		Invested    Money
		Current     Money
		CDIPercent  float64
		LastUpdate  time.Time
	}

	// InvestmentMovement is one aporte/resgate history line.
	InvestmentMovement struct {
		ID       string
		Date     Date
		Kind     string // "aporte" | "resgate"
		Bank     string
		TypeName string
		Amount   Money
	}

	// InvestmentConfig holds the yearly benchmark rate (percent) that
	// CDI-indexed positions accrue against.
	InvestmentConfig struct {
		CDIBase float64
	}
)

const (
	SpecActive           SpecStatus = "ativo"
	SpecReversed         SpecStatus = "estornado"
	SpecSettled          SpecStatus = "quitado"
	SpecSettlementCharge SpecStatus = "quitado_pagamento"

	StatusPending PayStatus = "pendente"
	StatusPaid    PayStatus = "pago"

	KindIOwe     PendenciaKind = "euDevo"
	KindOwedToMe PendenciaKind = "meDeve"

	RecurrenceSingle      Recurrence = "unica"
	RecurrenceMonthly     Recurrence = "mensal"
	RecurrenceInstallment Recurrence = "parcelada"

	// TypeFixedIncome enables CDI accrual on an investment position.
	TypeFixedIncome = "Renda Fixa"
)

var (
	ErrInvalidDay          = errors.New("invalid day")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidClosingDay   = errors.New("closing day must be between 1 and 31")
	ErrInvalidDueDay       = errors.New("due day must be between 1 and 31")
	ErrInvalidInstallments = errors.New("installment count must be at least 1")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrDuplicateCardName   = errors.New("card name already in use")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotFound            = errors.New("record not found")
	ErrCardBlocked         = errors.New("card is blocked")
)

// InvoicePaymentDescription is the description every invoice payment
// record carries. Paid-status detection matches on it.
func InvoicePaymentDescription(cardName string) string {
	return "Pagamento Fatura " + cardName
}

// IsCashLike reports whether a payment method moves cash immediately
// for expenses and pendencias.
func IsCashLike(method string) bool {
	switch method {
	case MethodCashBalance, MethodPix, MethodCash:
		return true
	}
	return false
}

// IsCashLikeFixed is IsCashLike for fixed expenses, which additionally
// settle via automatic debit.
func IsCashLikeFixed(method string) bool {
	return IsCashLike(method) || method == MethodAutoDebit
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses the "YYYY-MM-DD" storage format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDay
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MarshalJSON encodes the date in the "YYYY-MM-DD" storage format.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return ErrInvalidClosingDay
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidDueDay
	}
	if c.CreditLimit.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(e.PaymentMethod) == "" {
		return errors.New("empty payment method")
	}
	return e.Amount.Validate()
}

// IsInvoicePayment reports whether this record was written by the
// payment orchestrator rather than the user.
func (e Expense) IsInvoicePayment() bool {
	return e.Category == CategoryInvoice
}

func (f FixedExpense) Validate() error {
	if err := f.DueDate.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(f.Description) == "" {
		return ErrEmptyDescription
	}
	switch f.Recurrence {
	case RecurrenceSingle, RecurrenceMonthly, RecurrenceInstallment:
	default:
		return errors.New("invalid recurrence")
	}
	switch f.Status {
	case StatusPending, StatusPaid:
	default:
		return ErrInvalidStatus
	}
	return f.Amount.Validate()
}

func (r FixedRule) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if r.DueDay < 1 || r.DueDay > 31 {
		return ErrInvalidDueDay
	}
	if r.Recurrence == RecurrenceInstallment && r.TotalInstallments < 1 {
		return ErrInvalidInstallments
	}
	if err := r.StartMonth.Validate(); err != nil {
		return err
	}
	return r.Amount.Validate()
}

func (p InstallmentPurchase) Validate() error {
	if strings.TrimSpace(p.CardName) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(p.Description) == "" {
		return ErrEmptyDescription
	}
	if p.Installments < 1 {
		return ErrInvalidInstallments
	}
	switch p.Status {
	case SpecActive, SpecReversed, SpecSettled, SpecSettlementCharge:
	default:
		return ErrInvalidStatus
	}
	if err := p.StartMonth.Validate(); err != nil {
		return err
	}
	return p.TotalAmount.Validate()
}

// PerInstallment returns the nominal monthly charge, rounded half-up.
func (p InstallmentPurchase) PerInstallment() Money {
	n := int64(p.Installments)
	return Money{Cents: (p.TotalAmount.Cents + n/2) / n}
}

func (p Pendencia) Validate() error {
	switch p.Kind {
	case KindIOwe, KindOwedToMe:
	default:
		return errors.New("invalid pendencia kind")
	}
	if strings.TrimSpace(p.Description) == "" {
		return ErrEmptyDescription
	}
	if err := p.DueDate.Validate(); err != nil {
		return err
	}
	switch p.Status {
	case StatusPending, StatusPaid:
	default:
		return ErrInvalidStatus
	}
	return p.Amount.Validate()
}

// CashDelta returns the signed ledger effect of this pendencia when it
// is settled with a cash-like method: paying a debt drains cash,
// collecting a receivable adds it. Zero for non-cash methods.
func (p Pendencia) CashDelta() int64 {
	if !IsCashLike(p.PaymentMethod) {
		return 0
	}
	if p.Kind == KindIOwe {
		return -p.Amount.Cents
	}
	return p.Amount.Cents
}

func (e Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if e.Km < 0 || e.Hours < 0 {
		return errors.New("negative work metric")
	}
	return e.Amount.Validate()
}

func (i Investment) Validate() error {
	if strings.TrimSpace(i.Bank) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(i.TypeName) == "" {
		return ErrEmptyName
	}
	if i.Invested.Cents < 0 || i.Current.Cents < 0 {
		return ErrInvalidAmount
	}
	if i.CDIPercent < 0 {
		return errors.New("negative CDI percentage")
	}
	return nil
}

// AccruesDaily reports whether the position compounds against the CDI
// benchmark.
func (i Investment) AccruesDaily() bool {
	return i.TypeGeneral == TypeFixedIncome && i.CDIPercent > 0
}
