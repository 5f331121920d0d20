package ledger

import (
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayable(t *testing.T, total float64) *Obligation {
	t.Helper()
	o, err := NewObligation(
		uuid.New(),
		KindPayable,
		"Office supplies invoice",
		valueobject.NewMoneyMXNFromFloat(total),
		nil,
		nil,
		"",
	)
	require.NoError(t, err)
	return o
}

func newTestReceivable(t *testing.T, total float64) *Obligation {
	t.Helper()
	o, err := NewObligation(
		uuid.New(),
		KindReceivable,
		"Consulting services",
		valueobject.NewMoneyMXNFromFloat(total),
		nil,
		nil,
		"",
	)
	require.NoError(t, err)
	return o
}

func assertDomainErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
}

func TestNewObligation(t *testing.T) {
	tenantID := uuid.New()
	counterpartID := uuid.New()
	dueDate := time.Now().Add(30 * 24 * time.Hour)

	t.Run("creates pending payable", func(t *testing.T) {
		o, err := NewObligation(tenantID, KindPayable, "Raw materials", valueobject.NewMoneyMXNFromFloat(1500), &dueDate, &counterpartID, "Acme Supplies")
		require.NoError(t, err)

		assert.Equal(t, KindPayable, o.Kind)
		assert.Equal(t, StatusPending, o.Status)
		assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(1500)))
		assert.True(t, o.PaidAmount.IsZero())
		assert.True(t, o.RemainingAmount.Equal(decimal.NewFromInt(1500)))
		assert.False(t, o.Authorized)
		assert.Equal(t, 1, o.Version)
		assert.Len(t, o.GetDomainEvents(), 1)
		assert.Equal(t, "ObligationCreated", o.GetDomainEvents()[0].EventType())
	})

	t.Run("creates overdue obligation when due date already passed", func(t *testing.T) {
		past := time.Now().Add(-48 * time.Hour)
		o, err := NewObligation(tenantID, KindReceivable, "Late invoice", valueobject.NewMoneyMXNFromFloat(100), &past, nil, "")
		require.NoError(t, err)
		assert.Equal(t, StatusOverdue, o.Status)
	})

	t.Run("rejects invalid kind", func(t *testing.T) {
		_, err := NewObligation(tenantID, ObligationKind("BOTH"), "x", valueobject.NewMoneyMXNFromFloat(1), nil, nil, "")
		assertDomainErrorCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("rejects empty concept", func(t *testing.T) {
		_, err := NewObligation(tenantID, KindPayable, "", valueobject.NewMoneyMXNFromFloat(1), nil, nil, "")
		assertDomainErrorCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("rejects non-positive total", func(t *testing.T) {
		_, err := NewObligation(tenantID, KindPayable, "Zero invoice", valueobject.ZeroMXN(), nil, nil, "")
		assertDomainErrorCode(t, err, "VALIDATION_ERROR")

		_, err = NewObligation(tenantID, KindPayable, "Negative invoice", valueobject.NewMoneyMXNFromFloat(-10), nil, nil, "")
		assertDomainErrorCode(t, err, "VALIDATION_ERROR")
	})
}

func TestObligationAuthorize(t *testing.T) {
	signerID := uuid.New()

	t.Run("authorizes a payable", func(t *testing.T) {
		o := newTestPayable(t, 1000)
		o.ClearDomainEvents()

		err := o.Authorize(signerID, "Dana Finance")
		require.NoError(t, err)

		assert.True(t, o.Authorized)
		require.NotNil(t, o.AuthorizedBy)
		assert.Equal(t, signerID, *o.AuthorizedBy)
		assert.Equal(t, "Dana Finance", o.AuthorizedByName)
		assert.NotNil(t, o.AuthorizedAt)
		assert.Equal(t, 1, o.Version)
		require.Len(t, o.GetDomainEvents(), 1)
		assert.Equal(t, "ObligationAuthorized", o.GetDomainEvents()[0].EventType())
	})

	t.Run("is idempotent", func(t *testing.T) {
		o := newTestPayable(t, 1000)
		require.NoError(t, o.Authorize(signerID, "Dana Finance"))
		firstAt := *o.AuthorizedAt
		firstVersion := o.Version
		o.ClearDomainEvents()

		err := o.Authorize(uuid.New(), "Someone Else")
		require.NoError(t, err)

		assert.Equal(t, signerID, *o.AuthorizedBy)
		assert.Equal(t, firstAt, *o.AuthorizedAt)
		assert.Equal(t, firstVersion, o.Version)
		assert.Empty(t, o.GetDomainEvents())
	})

	t.Run("rejects receivables", func(t *testing.T) {
		o := newTestReceivable(t, 500)
		err := o.Authorize(signerID, "Dana Finance")
		assertDomainErrorCode(t, err, "INVALID_STATE")
	})

	t.Run("rejects cancelled obligations", func(t *testing.T) {
		o := newTestPayable(t, 500)
		require.NoError(t, o.Cancel("duplicate entry"))
		err := o.Authorize(signerID, "Dana Finance")
		assertDomainErrorCode(t, err, "INVALID_STATE")
	})

	t.Run("rejects empty signer", func(t *testing.T) {
		o := newTestPayable(t, 500)
		err := o.Authorize(uuid.Nil, "")
		assertDomainErrorCode(t, err, "VALIDATION_ERROR")
	})
}

func TestObligationApplyComplement(t *testing.T) {
	now := time.Now()

	t.Run("unauthorized payable rejects payment", func(t *testing.T) {
		o := newTestPayable(t, 1000)
		err := o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(100), now)
		assertDomainErrorCode(t, err, "AUTHORIZATION_REQUIRED")
		assert.True(t, o.PaidAmount.IsZero())
		assert.Equal(t, StatusPending, o.Status)
	})

	t.Run("receivable accepts payment without authorization", func(t *testing.T) {
		o := newTestReceivable(t, 1000)
		err := o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(400), now)
		require.NoError(t, err)
		assert.Equal(t, StatusPartial, o.Status)
		assert.True(t, o.PaidAmount.Equal(decimal.NewFromInt(400)))
		assert.True(t, o.RemainingAmount.Equal(decimal.NewFromInt(600)))
	})

	t.Run("authorized payable transitions partial then paid", func(t *testing.T) {
		o := newTestPayable(t, 1000)
		require.NoError(t, o.Authorize(uuid.New(), "Dana Finance"))
		o.ClearDomainEvents()

		require.NoError(t, o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(600), now))
		assert.Equal(t, StatusPartial, o.Status)
		assert.Nil(t, o.PaidAt)

		require.NoError(t, o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(400), now))
		assert.Equal(t, StatusPaid, o.Status)
		assert.True(t, o.RemainingAmount.IsZero())
		assert.NotNil(t, o.PaidAt)

		events := o.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, "ObligationPaymentApplied", events[0].EventType())
		assert.Equal(t, "ObligationPaid", events[1].EventType())
	})

	t.Run("rejects overpayment and leaves balances untouched", func(t *testing.T) {
		o := newTestReceivable(t, 1000)
		require.NoError(t, o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(900), now))
		versionBefore := o.Version

		err := o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(200), now)
		assertDomainErrorCode(t, err, "OVERPAYMENT")
		assert.True(t, o.PaidAmount.Equal(decimal.NewFromInt(900)))
		assert.True(t, o.RemainingAmount.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, versionBefore, o.Version)
	})

	t.Run("accepts payoff within epsilon over total", func(t *testing.T) {
		o := newTestReceivable(t, 1000)
		err := o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(1000.01), now)
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, o.Status)
		assert.True(t, o.RemainingAmount.IsZero())
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		o := newTestReceivable(t, 1000)
		err := o.ApplyComplement(valueobject.ZeroMXN(), now)
		assertDomainErrorCode(t, err, "VALIDATION_ERROR")

		err = o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(-5), now)
		assertDomainErrorCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("rejects payment on cancelled obligation", func(t *testing.T) {
		o := newTestReceivable(t, 1000)
		require.NoError(t, o.Cancel("customer churned"))
		err := o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(10), now)
		assertDomainErrorCode(t, err, "INVALID_STATE")
	})

	t.Run("rejects payment on paid obligation as overpayment", func(t *testing.T) {
		o := newTestReceivable(t, 100)
		require.NoError(t, o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(100), now))
		err := o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(1), now)
		assertDomainErrorCode(t, err, "OVERPAYMENT")
	})
}

func TestObligationCancel(t *testing.T) {
	t.Run("cancels pending obligation", func(t *testing.T) {
		o := newTestPayable(t, 1000)
		o.ClearDomainEvents()

		err := o.Cancel("duplicate entry")
		require.NoError(t, err)

		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, "duplicate entry", o.CancelReason)
		assert.NotNil(t, o.CancelledAt)
		assert.True(t, o.RemainingAmount.IsZero())
		require.Len(t, o.GetDomainEvents(), 1)
		assert.Equal(t, "ObligationCancelled", o.GetDomainEvents()[0].EventType())
	})

	t.Run("cancels partially paid obligation", func(t *testing.T) {
		o := newTestReceivable(t, 1000)
		require.NoError(t, o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(300), time.Now()))

		err := o.Cancel("written off")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, o.Status)
		assert.True(t, o.PaidAmount.Equal(decimal.NewFromInt(300)))
	})

	t.Run("rejects cancelling paid obligation", func(t *testing.T) {
		o := newTestReceivable(t, 100)
		require.NoError(t, o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(100), time.Now()))
		err := o.Cancel("too late")
		assertDomainErrorCode(t, err, "INVALID_STATE")
	})

	t.Run("rejects double cancel", func(t *testing.T) {
		o := newTestPayable(t, 100)
		require.NoError(t, o.Cancel("first"))
		err := o.Cancel("second")
		assertDomainErrorCode(t, err, "INVALID_STATE")
	})

	t.Run("rejects empty reason", func(t *testing.T) {
		o := newTestPayable(t, 100)
		err := o.Cancel("")
		assertDomainErrorCode(t, err, "VALIDATION_ERROR")
	})
}

func TestObligationCancelIsTerminal(t *testing.T) {
	o := newTestPayable(t, 1000)
	require.NoError(t, o.Cancel("dead"))

	assert.Error(t, o.Authorize(uuid.New(), "x"))
	assert.Error(t, o.ApplyComplement(valueobject.NewMoneyMXNFromFloat(1), time.Now()))
	due := time.Now()
	assert.Error(t, o.SetDueDate(&due))
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestObligationApplyReconciledPaid(t *testing.T) {
	now := time.Now()

	t.Run("corrects drifted cache", func(t *testing.T) {
		o := newTestReceivable(t, 1000)
		o.ApplyReconciledPaid(decimal.NewFromInt(700), now)

		assert.True(t, o.PaidAmount.Equal(decimal.NewFromInt(700)))
		assert.True(t, o.RemainingAmount.Equal(decimal.NewFromInt(300)))
		assert.Equal(t, StatusPartial, o.Status)
	})

	t.Run("settles when sum covers total", func(t *testing.T) {
		o := newTestReceivable(t, 1000)
		o.ApplyReconciledPaid(decimal.NewFromInt(1000), now)
		assert.Equal(t, StatusPaid, o.Status)
		assert.NotNil(t, o.PaidAt)
	})

	t.Run("keeps cancelled status terminal", func(t *testing.T) {
		o := newTestReceivable(t, 1000)
		require.NoError(t, o.Cancel("gone"))
		o.ApplyReconciledPaid(decimal.NewFromInt(1000), now)

		assert.Equal(t, StatusCancelled, o.Status)
		assert.True(t, o.PaidAmount.Equal(decimal.NewFromInt(1000)))
	})
}

func TestObligationEffectiveStatus(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	t.Run("pending reads as overdue after due date passes", func(t *testing.T) {
		o := newTestReceivable(t, 1000)
		o.DueDate = &past
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, StatusOverdue, o.EffectiveStatus(time.Now()))
	})

	t.Run("paid and cancelled are stable", func(t *testing.T) {
		paid := newTestReceivable(t, 100)
		require.NoError(t, paid.ApplyComplement(valueobject.NewMoneyMXNFromFloat(100), time.Now()))
		paid.DueDate = &past
		assert.Equal(t, StatusPaid, paid.EffectiveStatus(time.Now()))

		cancelled := newTestReceivable(t, 100)
		require.NoError(t, cancelled.Cancel("x"))
		assert.Equal(t, StatusCancelled, cancelled.EffectiveStatus(time.Now()))
	})

	t.Run("not overdue before due date", func(t *testing.T) {
		o := newTestReceivable(t, 1000)
		o.DueDate = &future
		assert.Equal(t, StatusPending, o.EffectiveStatus(time.Now()))
	})
}

func TestObligationSetDueDate(t *testing.T) {
	o := newTestReceivable(t, 1000)
	o.DueDateInferred = true

	due := time.Now().Add(7 * 24 * time.Hour)
	require.NoError(t, o.SetDueDate(&due))

	require.NotNil(t, o.DueDate)
	assert.Equal(t, due, *o.DueDate)
	assert.False(t, o.DueDateInferred)
}

func TestObligationDetailUpdates(t *testing.T) {
	o := newTestReceivable(t, 1000)

	require.NoError(t, o.SetConcept("Updated concept"))
	assert.Equal(t, "Updated concept", o.Concept)

	assert.Error(t, o.SetConcept(""))

	o.SetNotes("follow up with client")
	assert.Equal(t, "follow up with client", o.Notes)

	// Field mutations never advance the version; only a locked save does.
	due := time.Now().Add(14 * 24 * time.Hour)
	require.NoError(t, o.SetDueDate(&due))
	assert.Equal(t, 1, o.Version)
}

func TestObligationOverdueHelpers(t *testing.T) {
	o := newTestReceivable(t, 1000)
	assert.False(t, o.IsOverdue())
	assert.Equal(t, 0, o.DaysOverdue())

	past := time.Now().Add(-72 * time.Hour)
	o.DueDate = &past
	assert.True(t, o.IsOverdue())
	assert.Equal(t, 3, o.DaysOverdue())
}
