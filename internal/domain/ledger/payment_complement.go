package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment complement was settled
type PaymentMethod string

const (
	MethodTransfer PaymentMethod = "TRANSFER"
	MethodCash     PaymentMethod = "CASH"
	MethodCheck    PaymentMethod = "CHECK"
	MethodCard     PaymentMethod = "CARD"
	MethodWire     PaymentMethod = "WIRE"
	MethodOther    PaymentMethod = "OTHER"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodTransfer, MethodCash, MethodCheck, MethodCard, MethodWire, MethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// ComplementTarget identifies the obligation a complement settles against.
// It is a tagged union over the obligation kind: exactly one target,
// always set, so a complement can never point at both sides or neither.
type ComplementTarget struct {
	kind         ObligationKind
	obligationID uuid.UUID
}

// PayableTarget builds a target pointing at a payable obligation
func PayableTarget(obligationID uuid.UUID) ComplementTarget {
	return ComplementTarget{kind: KindPayable, obligationID: obligationID}
}

// ReceivableTarget builds a target pointing at a receivable obligation
func ReceivableTarget(obligationID uuid.UUID) ComplementTarget {
	return ComplementTarget{kind: KindReceivable, obligationID: obligationID}
}

// NewComplementTarget builds a target for the given kind
func NewComplementTarget(kind ObligationKind, obligationID uuid.UUID) (ComplementTarget, error) {
	if !kind.IsValid() {
		return ComplementTarget{}, shared.NewDomainError("VALIDATION_ERROR", "Target kind must be AP or AR")
	}
	if obligationID == uuid.Nil {
		return ComplementTarget{}, shared.NewDomainError("VALIDATION_ERROR", "Target obligation ID cannot be empty")
	}
	return ComplementTarget{kind: kind, obligationID: obligationID}, nil
}

// Kind returns the obligation kind of the target
func (t ComplementTarget) Kind() ObligationKind {
	return t.kind
}

// ObligationID returns the targeted obligation ID
func (t ComplementTarget) ObligationID() uuid.UUID {
	return t.obligationID
}

// IsZero reports whether the target is unset
func (t ComplementTarget) IsZero() bool {
	return t.obligationID == uuid.Nil
}

// PaymentComplement is an immutable record of money applied against an
// obligation. The complement log is the authoritative payment history;
// complements are appended, never updated or deleted.
type PaymentComplement struct {
	shared.BaseEntity
	TenantID    uuid.UUID        `json:"tenant_id"`
	LegacyID    *string          `json:"legacy_id,omitempty"`
	Target      ComplementTarget `json:"-"`
	Amount      decimal.Decimal  `json:"amount"`
	PaymentDate time.Time        `json:"payment_date"`
	Method      PaymentMethod    `json:"method"`
	Reference   string           `json:"reference,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// NewPaymentComplement creates a new payment complement
func NewPaymentComplement(
	tenantID uuid.UUID,
	target ComplementTarget,
	amount valueobject.Money,
	paymentDate time.Time,
	method PaymentMethod,
	reference string,
	notes string,
) (*PaymentComplement, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Tenant ID cannot be empty")
	}
	if target.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Complement target is required")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Complement amount must be positive")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment date is required")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment method is not valid")
	}

	return &PaymentComplement{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		Target:      target,
		Amount:      amount.Amount(),
		PaymentDate: paymentDate,
		Method:      method,
		Reference:   reference,
		Notes:       notes,
	}, nil
}

// GetAmountMoney returns the amount as Money value object
func (c *PaymentComplement) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyMXN(c.Amount)
}
