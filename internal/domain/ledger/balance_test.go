package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeBalance(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	d := func(s string) decimal.Decimal {
		v, err := decimal.NewFromString(s)
		if err != nil {
			t.Fatalf("bad decimal %q: %v", s, err)
		}
		return v
	}

	tests := []struct {
		name          string
		total         string
		complementSum string
		cancelled     bool
		dueDate       *time.Time
		wantPaid      string
		wantRemaining string
		wantStatus    ObligationStatus
	}{
		{
			name:          "no payments before due date",
			total:         "1000.00",
			complementSum: "0",
			dueDate:       &future,
			wantPaid:      "0",
			wantRemaining: "1000.00",
			wantStatus:    StatusPending,
		},
		{
			name:          "no payments no due date",
			total:         "1000.00",
			complementSum: "0",
			wantPaid:      "0",
			wantRemaining: "1000.00",
			wantStatus:    StatusPending,
		},
		{
			name:          "no payments past due date",
			total:         "1000.00",
			complementSum: "0",
			dueDate:       &past,
			wantPaid:      "0",
			wantRemaining: "1000.00",
			wantStatus:    StatusOverdue,
		},
		{
			name:          "partial payment",
			total:         "1000.00",
			complementSum: "400.00",
			dueDate:       &future,
			wantPaid:      "400.00",
			wantRemaining: "600.00",
			wantStatus:    StatusPartial,
		},
		{
			name:          "partial payment past due stays partial",
			total:         "1000.00",
			complementSum: "400.00",
			dueDate:       &past,
			wantPaid:      "400.00",
			wantRemaining: "600.00",
			wantStatus:    StatusPartial,
		},
		{
			name:          "exact payoff",
			total:         "1000.00",
			complementSum: "1000.00",
			wantPaid:      "1000.00",
			wantRemaining: "0",
			wantStatus:    StatusPaid,
		},
		{
			name:          "residue within epsilon counts as paid",
			total:         "1000.00",
			complementSum: "999.99",
			wantPaid:      "999.99",
			wantRemaining: "0.01",
			wantStatus:    StatusPaid,
		},
		{
			name:          "residue just above epsilon stays partial",
			total:         "1000.00",
			complementSum: "999.98",
			wantPaid:      "999.98",
			wantRemaining: "0.02",
			wantStatus:    StatusPartial,
		},
		{
			name:          "legacy surplus clamps remaining at zero",
			total:         "1000.00",
			complementSum: "1200.00",
			wantPaid:      "1200.00",
			wantRemaining: "0",
			wantStatus:    StatusPaid,
		},
		{
			name:          "cancelled wins over everything",
			total:         "1000.00",
			complementSum: "1000.00",
			cancelled:     true,
			dueDate:       &past,
			wantPaid:      "1000.00",
			wantRemaining: "0",
			wantStatus:    StatusCancelled,
		},
		{
			name:          "cancelled with no payments",
			total:         "500.00",
			complementSum: "0",
			cancelled:     true,
			wantPaid:      "0",
			wantRemaining: "500.00",
			wantStatus:    StatusCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBalance(BalanceInput{
				Total:         d(tt.total),
				ComplementSum: d(tt.complementSum),
				Cancelled:     tt.cancelled,
				DueDate:       tt.dueDate,
				Now:           now,
			})

			assert.True(t, got.Paid.Equal(d(tt.wantPaid)), "paid: got %s want %s", got.Paid, tt.wantPaid)
			assert.True(t, got.Remaining.Equal(d(tt.wantRemaining)), "remaining: got %s want %s", got.Remaining, tt.wantRemaining)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}

func TestComputeBalanceIsPure(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	in := BalanceInput{
		Total:         decimal.NewFromInt(100),
		ComplementSum: decimal.NewFromInt(40),
		Now:           now,
	}

	first := ComputeBalance(in)
	second := ComputeBalance(in)

	assert.Equal(t, first, second)
}
