package ledger

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationKind discriminates payables from receivables
type ObligationKind string

const (
	KindPayable    ObligationKind = "AP" // Money the tenant owes a supplier
	KindReceivable ObligationKind = "AR" // Money a customer owes the tenant
)

// IsValid checks if the kind is a valid ObligationKind
func (k ObligationKind) IsValid() bool {
	return k == KindPayable || k == KindReceivable
}

// String returns the string representation of ObligationKind
func (k ObligationKind) String() string {
	return string(k)
}

// ObligationStatus represents the derived status of an obligation
type ObligationStatus string

const (
	StatusPending   ObligationStatus = "PENDING"   // Unpaid, not yet due
	StatusPartial   ObligationStatus = "PARTIAL"   // Partially paid, 0 < remaining < total
	StatusPaid      ObligationStatus = "PAID"      // Fully settled (within epsilon)
	StatusOverdue   ObligationStatus = "OVERDUE"   // Unpaid and past due date
	StatusCancelled ObligationStatus = "CANCELLED" // Soft-cancelled, terminal
)

// IsValid checks if the status is a valid ObligationStatus
func (s ObligationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPartial, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ObligationStatus
func (s ObligationStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the obligation is in a terminal state
func (s ObligationStatus) IsTerminal() bool {
	return s == StatusCancelled
}

// CanApplyPayment returns true if payments can be applied in this status
func (s ObligationStatus) CanApplyPayment() bool {
	return s == StatusPending || s == StatusPartial || s == StatusOverdue
}

// Obligation is the aggregate root for a single payable or receivable.
// The authoritative payment record is the payment complement log;
// PaidAmount and RemainingAmount are caches kept consistent with it.
// Version mirrors the persisted row version: field mutations leave it
// untouched and the repository advances it once per locked save.
type Obligation struct {
	shared.TenantAggregateRoot
	LegacyID         *string          `json:"legacy_id,omitempty"`
	Kind             ObligationKind   `json:"kind"`
	Concept          string           `json:"concept"`
	CounterpartID    *uuid.UUID       `json:"counterpart_id,omitempty"`
	CounterpartName  string           `json:"counterpart_name,omitempty"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	PaidAmount       decimal.Decimal  `json:"paid_amount"`
	RemainingAmount  decimal.Decimal  `json:"remaining_amount"`
	Status           ObligationStatus `json:"status"`
	DueDate          *time.Time       `json:"due_date,omitempty"`
	DueDateInferred  bool             `json:"due_date_inferred"`
	Authorized       bool             `json:"authorized"`
	AuthorizedBy     *uuid.UUID       `json:"authorized_by,omitempty"`
	AuthorizedByName string           `json:"authorized_by_name,omitempty"`
	AuthorizedAt     *time.Time       `json:"authorized_at,omitempty"`
	CancelledAt      *time.Time       `json:"cancelled_at,omitempty"`
	CancelReason     string           `json:"cancel_reason,omitempty"`
	PaidAt           *time.Time       `json:"paid_at,omitempty"`
	Notes            string           `json:"notes,omitempty"`
}

// NewObligation creates a new obligation in the derived initial status
func NewObligation(
	tenantID uuid.UUID,
	kind ObligationKind,
	concept string,
	totalAmount valueobject.Money,
	dueDate *time.Time,
	counterpartID *uuid.UUID,
	counterpartName string,
) (*Obligation, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Obligation kind must be AP or AR")
	}
	if concept == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Concept cannot be empty")
	}
	if len(concept) > 500 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Concept cannot exceed 500 characters")
	}
	if totalAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Total amount must be positive")
	}
	if counterpartID != nil && *counterpartID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Counterpart ID cannot be the zero UUID")
	}

	o := &Obligation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Kind:                kind,
		Concept:             concept,
		CounterpartID:       counterpartID,
		CounterpartName:     counterpartName,
		TotalAmount:         totalAmount.Amount(),
		PaidAmount:          decimal.Zero,
		RemainingAmount:     totalAmount.Amount(),
		DueDate:             dueDate,
	}
	o.Status = o.deriveStatus(time.Now())

	o.AddDomainEvent(NewObligationCreatedEvent(o))

	return o, nil
}

// RequiresAuthorization returns true if payments are blocked pending sign-off.
// Only payables carry the authorization gate; receivables never require it.
func (o *Obligation) RequiresAuthorization() bool {
	return o.Kind == KindPayable && !o.Authorized
}

// Authorize marks a payable as signed off for payment.
// Idempotent: authorizing an already authorized obligation is a no-op.
func (o *Obligation) Authorize(signerID uuid.UUID, signerName string) error {
	if o.Kind != KindPayable {
		return shared.NewDomainError("INVALID_STATE", "Only payables require authorization")
	}
	if o.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot authorize a cancelled obligation")
	}
	if signerID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_ERROR", "Signer ID cannot be empty")
	}
	if o.Authorized {
		return nil
	}

	now := time.Now()
	o.Authorized = true
	o.AuthorizedBy = &signerID
	o.AuthorizedByName = signerName
	o.AuthorizedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewObligationAuthorizedEvent(o))

	return nil
}

// ApplyComplement applies a payment complement amount to the obligation.
// The overpayment check tolerates rounding residue up to BalanceEpsilon.
func (o *Obligation) ApplyComplement(amount valueobject.Money, now time.Time) error {
	if o.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot apply payment to a cancelled obligation")
	}
	if o.RequiresAuthorization() {
		return shared.NewDomainError("AUTHORIZATION_REQUIRED", "Payable must be authorized before payments can be applied")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION_ERROR", "Payment amount must be positive")
	}
	if o.Status == StatusPaid {
		return shared.NewDomainError("OVERPAYMENT", "Obligation is already fully paid")
	}
	newPaid := o.PaidAmount.Add(amount.Amount())
	if newPaid.GreaterThan(o.TotalAmount.Add(valueobject.BalanceEpsilon)) {
		return shared.NewDomainError("OVERPAYMENT", fmt.Sprintf(
			"Payment amount %s exceeds remaining balance %s",
			amount.Amount().StringFixed(2), o.RemainingAmount.StringFixed(2)))
	}

	previousStatus := o.Status
	o.PaidAmount = newPaid
	o.refreshBalance(now)
	o.UpdatedAt = now

	if o.Status == StatusPaid && previousStatus != StatusPaid {
		o.AddDomainEvent(NewObligationPaidEvent(o))
	} else {
		o.AddDomainEvent(NewObligationPaymentAppliedEvent(o, amount))
	}

	return nil
}

// ApplyReconciledPaid replaces the cached paid amount with the authoritative
// complement sum and re-derives the balance. Cancelled obligations keep their
// terminal status; only the amount caches are corrected.
func (o *Obligation) ApplyReconciledPaid(paid decimal.Decimal, now time.Time) {
	o.PaidAmount = paid
	if o.Status == StatusCancelled {
		o.RemainingAmount = decimal.Zero
	} else {
		o.refreshBalance(now)
	}
	o.UpdatedAt = now
}

// Cancel soft-cancels the obligation. Terminal: no further mutations.
// Paid obligations cannot be cancelled.
func (o *Obligation) Cancel(reason string) error {
	if o.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Obligation is already cancelled")
	}
	if o.Status == StatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a fully paid obligation")
	}
	if reason == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Cancel reason is required")
	}

	now := time.Now()
	o.Status = StatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.RemainingAmount = decimal.Zero
	o.UpdatedAt = now

	o.AddDomainEvent(NewObligationCancelledEvent(o))

	return nil
}

// SetDueDate updates the due date and re-derives the status
func (o *Obligation) SetDueDate(dueDate *time.Time) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify due date of a cancelled obligation")
	}

	o.DueDate = dueDate
	o.DueDateInferred = false
	if o.Status != StatusPaid {
		o.Status = o.deriveStatus(time.Now())
	}
	o.UpdatedAt = time.Now()

	return nil
}

// SetConcept updates the concept text
func (o *Obligation) SetConcept(concept string) error {
	if concept == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Concept cannot be empty")
	}
	if len(concept) > 500 {
		return shared.NewDomainError("VALIDATION_ERROR", "Concept cannot exceed 500 characters")
	}
	o.Concept = concept
	o.UpdatedAt = time.Now()
	return nil
}

// SetNotes sets the free-form notes
func (o *Obligation) SetNotes(notes string) {
	o.Notes = notes
	o.UpdatedAt = time.Now()
}

// refreshBalance re-derives the remaining amount and status from PaidAmount
func (o *Obligation) refreshBalance(now time.Time) {
	b := ComputeBalance(BalanceInput{
		Total:         o.TotalAmount,
		ComplementSum: o.PaidAmount,
		Cancelled:     o.Status == StatusCancelled,
		DueDate:       o.DueDate,
		Now:           now,
	})
	o.PaidAmount = b.Paid
	o.RemainingAmount = b.Remaining
	o.Status = b.Status
	if b.Status == StatusPaid && o.PaidAt == nil {
		paidAt := now
		o.PaidAt = &paidAt
	}
}

// deriveStatus computes the status for the current balance at the given time
func (o *Obligation) deriveStatus(now time.Time) ObligationStatus {
	return ComputeBalance(BalanceInput{
		Total:         o.TotalAmount,
		ComplementSum: o.PaidAmount,
		Cancelled:     o.Status == StatusCancelled,
		DueDate:       o.DueDate,
		Now:           now,
	}).Status
}

// EffectiveStatus re-derives the status at the given time without mutating
// the aggregate. A stored PENDING row whose due date has since passed reads
// as OVERDUE.
func (o *Obligation) EffectiveStatus(now time.Time) ObligationStatus {
	if o.Status == StatusCancelled || o.Status == StatusPaid {
		return o.Status
	}
	return o.deriveStatus(now)
}

// Helper methods

// GetTotalAmountMoney returns total amount as Money
func (o *Obligation) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyMXN(o.TotalAmount)
}

// GetPaidAmountMoney returns paid amount as Money
func (o *Obligation) GetPaidAmountMoney() valueobject.Money {
	return valueobject.NewMoneyMXN(o.PaidAmount)
}

// GetRemainingAmountMoney returns remaining amount as Money
func (o *Obligation) GetRemainingAmountMoney() valueobject.Money {
	return valueobject.NewMoneyMXN(o.RemainingAmount)
}

// IsPaid returns true if the obligation is fully settled
func (o *Obligation) IsPaid() bool {
	return o.Status == StatusPaid
}

// IsCancelled returns true if the obligation is cancelled
func (o *Obligation) IsCancelled() bool {
	return o.Status == StatusCancelled
}

// IsOverdue returns true if the obligation is unsettled and past due
func (o *Obligation) IsOverdue() bool {
	if o.Status == StatusPaid || o.Status == StatusCancelled {
		return false
	}
	if o.DueDate == nil {
		return false
	}
	return time.Now().After(*o.DueDate)
}

// DaysOverdue returns the number of days past due (0 if not overdue)
func (o *Obligation) DaysOverdue() int {
	if !o.IsOverdue() {
		return 0
	}
	return int(time.Since(*o.DueDate).Hours() / 24)
}
