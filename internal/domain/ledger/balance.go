package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BalanceInput carries everything the balance derivation depends on.
// ComplementSum is the authoritative sum of the payment complement log.
type BalanceInput struct {
	Total         decimal.Decimal
	ComplementSum decimal.Decimal
	Cancelled     bool
	DueDate       *time.Time
	Now           time.Time
}

// Balance is the derived state of an obligation
type Balance struct {
	Paid      decimal.Decimal
	Remaining decimal.Decimal
	Status    ObligationStatus
}

// ComputeBalance derives paid, remaining and status from the complement sum.
// It is a pure function: no clock reads, no persistence.
//
// Remaining is clamped at zero so a legacy over-recorded payment never
// produces a negative balance. Status priority:
//  1. CANCELLED is terminal and passed through
//  2. PAID when remaining is within BalanceEpsilon of zero
//  3. PARTIAL when any payment has been applied
//  4. OVERDUE when past due date
//  5. PENDING otherwise
func ComputeBalance(in BalanceInput) Balance {
	paid := in.ComplementSum
	remaining := in.Total.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return Balance{
		Paid:      paid,
		Remaining: remaining,
		Status:    deriveBalanceStatus(in, paid, remaining),
	}
}

func deriveBalanceStatus(in BalanceInput, paid, remaining decimal.Decimal) ObligationStatus {
	switch {
	case in.Cancelled:
		return StatusCancelled
	case remaining.LessThanOrEqual(valueobject.BalanceEpsilon):
		return StatusPaid
	case paid.GreaterThan(decimal.Zero):
		return StatusPartial
	case in.DueDate != nil && in.DueDate.Before(in.Now):
		return StatusOverdue
	default:
		return StatusPending
	}
}
