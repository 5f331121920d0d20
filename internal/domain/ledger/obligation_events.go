package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationCreatedEvent is raised when a new obligation is created
type ObligationCreatedEvent struct {
	shared.BaseDomainEvent
	ObligationID    uuid.UUID       `json:"obligation_id"`
	Kind            ObligationKind  `json:"kind"`
	Concept         string          `json:"concept"`
	CounterpartID   *uuid.UUID      `json:"counterpart_id,omitempty"`
	CounterpartName string          `json:"counterpart_name,omitempty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
}

// EventType returns the event type name
func (e *ObligationCreatedEvent) EventType() string {
	return "ObligationCreated"
}

// NewObligationCreatedEvent creates a new ObligationCreatedEvent
func NewObligationCreatedEvent(o *Obligation) *ObligationCreatedEvent {
	return &ObligationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ObligationCreated", "Obligation", o.ID, o.TenantID),
		ObligationID:    o.ID,
		Kind:            o.Kind,
		Concept:         o.Concept,
		CounterpartID:   o.CounterpartID,
		CounterpartName: o.CounterpartName,
		TotalAmount:     o.TotalAmount,
		DueDate:         o.DueDate,
	}
}

// ObligationAuthorizedEvent is raised when a payable is signed off for payment
type ObligationAuthorizedEvent struct {
	shared.BaseDomainEvent
	ObligationID     uuid.UUID  `json:"obligation_id"`
	AuthorizedBy     *uuid.UUID `json:"authorized_by,omitempty"`
	AuthorizedByName string     `json:"authorized_by_name,omitempty"`
	AuthorizedAt     time.Time  `json:"authorized_at"`
}

// EventType returns the event type name
func (e *ObligationAuthorizedEvent) EventType() string {
	return "ObligationAuthorized"
}

// NewObligationAuthorizedEvent creates a new ObligationAuthorizedEvent
func NewObligationAuthorizedEvent(o *Obligation) *ObligationAuthorizedEvent {
	authorizedAt := time.Now()
	if o.AuthorizedAt != nil {
		authorizedAt = *o.AuthorizedAt
	}
	return &ObligationAuthorizedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("ObligationAuthorized", "Obligation", o.ID, o.TenantID),
		ObligationID:     o.ID,
		AuthorizedBy:     o.AuthorizedBy,
		AuthorizedByName: o.AuthorizedByName,
		AuthorizedAt:     authorizedAt,
	}
}

// ObligationPaymentAppliedEvent is raised when a partial payment is applied
type ObligationPaymentAppliedEvent struct {
	shared.BaseDomainEvent
	ObligationID    uuid.UUID       `json:"obligation_id"`
	Kind            ObligationKind  `json:"kind"`
	PaymentAmount   decimal.Decimal `json:"payment_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// EventType returns the event type name
func (e *ObligationPaymentAppliedEvent) EventType() string {
	return "ObligationPaymentApplied"
}

// NewObligationPaymentAppliedEvent creates a new ObligationPaymentAppliedEvent
func NewObligationPaymentAppliedEvent(o *Obligation, paymentAmount valueobject.Money) *ObligationPaymentAppliedEvent {
	return &ObligationPaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ObligationPaymentApplied", "Obligation", o.ID, o.TenantID),
		ObligationID:    o.ID,
		Kind:            o.Kind,
		PaymentAmount:   paymentAmount.Amount(),
		TotalAmount:     o.TotalAmount,
		PaidAmount:      o.PaidAmount,
		RemainingAmount: o.RemainingAmount,
	}
}

// ObligationPaidEvent is raised when an obligation becomes fully settled
type ObligationPaidEvent struct {
	shared.BaseDomainEvent
	ObligationID uuid.UUID       `json:"obligation_id"`
	Kind         ObligationKind  `json:"kind"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	PaidAt       time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *ObligationPaidEvent) EventType() string {
	return "ObligationPaid"
}

// NewObligationPaidEvent creates a new ObligationPaidEvent
func NewObligationPaidEvent(o *Obligation) *ObligationPaidEvent {
	paidAt := time.Now()
	if o.PaidAt != nil {
		paidAt = *o.PaidAt
	}
	return &ObligationPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ObligationPaid", "Obligation", o.ID, o.TenantID),
		ObligationID:    o.ID,
		Kind:            o.Kind,
		TotalAmount:     o.TotalAmount,
		PaidAmount:      o.PaidAmount,
		PaidAt:          paidAt,
	}
}

// ObligationCancelledEvent is raised when an obligation is cancelled
type ObligationCancelledEvent struct {
	shared.BaseDomainEvent
	ObligationID uuid.UUID       `json:"obligation_id"`
	Kind         ObligationKind  `json:"kind"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CancelReason string          `json:"cancel_reason"`
	CancelledAt  time.Time       `json:"cancelled_at"`
}

// EventType returns the event type name
func (e *ObligationCancelledEvent) EventType() string {
	return "ObligationCancelled"
}

// NewObligationCancelledEvent creates a new ObligationCancelledEvent
func NewObligationCancelledEvent(o *Obligation) *ObligationCancelledEvent {
	cancelledAt := time.Now()
	if o.CancelledAt != nil {
		cancelledAt = *o.CancelledAt
	}
	return &ObligationCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ObligationCancelled", "Obligation", o.ID, o.TenantID),
		ObligationID:    o.ID,
		Kind:            o.Kind,
		TotalAmount:     o.TotalAmount,
		CancelReason:    o.CancelReason,
		CancelledAt:     cancelledAt,
	}
}
