package billing

import (
	"errors"
	"fmt"

	"github.com/andersonmelo18/Financeiro/internal/core"
)

// maxPaidWalk bounds the effective-start walk. Payment records are
// user data; a malformed run of "paid" months must not loop forever.
const maxPaidWalk = 48

// ErrPaidWalkExceeded signals more consecutive paid invoice months
// than maxPaidWalk while searching for an installment's start.
var ErrPaidWalkExceeded = errors.New("too many consecutive paid invoice months")

// PaidFunc reports whether a card's invoice for the given month was
// already settled.
type PaidFunc func(ym core.YearMonth) (bool, error)

// EffectiveStartMonth walks forward from an installment purchase's
// nominal start month, skipping months whose invoice was already paid,
// and returns the first unpaid month.
func EffectiveStartMonth(start core.YearMonth, paid PaidFunc) (core.YearMonth, error) {
	ym := start
	for i := 0; i < maxPaidWalk; i++ {
		settled, err := paid(ym)
		if err != nil {
			return ym, fmt.Errorf("check paid status for %s: %w", ym, err)
		}
		if !settled {
			return ym, nil
		}
		ym = ym.Next()
	}
	return ym, fmt.Errorf("walk from %s: %w", start, ErrPaidWalkExceeded)
}

// Contribution is an installment purchase's share of one invoice.
// Reversed and settled purchases keep a zero amount but remain listed
// struck through.
type Contribution struct {
	Amount core.Money
	Index  int
	Label  string
	Struck bool
}

// InstallmentForMonth computes the purchase's contribution to the
// target month's invoice. ok is false when no installment lands there,
// including when the target invoice itself was already paid (the
// charge then belongs to a later month).
func InstallmentForMonth(p core.InstallmentPurchase, target core.YearMonth, paid PaidFunc) (Contribution, bool, error) {
	targetPaid, err := paid(target)
	if err != nil {
		return Contribution{}, false, fmt.Errorf("check paid status for %s: %w", target, err)
	}
	if targetPaid {
		return Contribution{}, false, nil
	}

	effStart, err := EffectiveStartMonth(p.StartMonth, paid)
	if err != nil {
		return Contribution{}, false, err
	}

	idx := target.MonthsSince(effStart) + 1
	if idx < 1 || idx > p.Installments {
		return Contribution{}, false, nil
	}

	c := Contribution{
		Index: idx,
		Label: fmt.Sprintf("(%d/%d)", idx, p.Installments),
	}
	switch p.Status {
	case core.SpecReversed, core.SpecSettled:
		c.Struck = true
	case core.SpecSettlementCharge:
		c.Amount = p.TotalAmount
	default:
		c.Amount = p.PerInstallment()
	}
	return c, true, nil
}
