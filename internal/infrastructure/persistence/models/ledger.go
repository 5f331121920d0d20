package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationModel is the persistence model for the Obligation aggregate root.
type ObligationModel struct {
	AggregateModel
	TenantID         uuid.UUID               `gorm:"type:uuid;not null;index;uniqueIndex:idx_obligation_tenant_legacy,priority:1"`
	CreatedBy        *uuid.UUID              `gorm:"type:uuid;index"`
	LegacyID         *string                 `gorm:"type:varchar(100);uniqueIndex:idx_obligation_tenant_legacy,priority:2"`
	Kind             ledger.ObligationKind   `gorm:"type:varchar(2);not null;index"`
	Concept          string                  `gorm:"type:varchar(500);not null"`
	CounterpartID    *uuid.UUID              `gorm:"type:uuid;index"`
	CounterpartName  string                  `gorm:"type:varchar(200)"`
	TotalAmount      decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	PaidAmount       decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	RemainingAmount  decimal.Decimal         `gorm:"type:decimal(18,4);not null;index"`
	Status           ledger.ObligationStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	DueDate          *time.Time              `gorm:"index"`
	DueDateInferred  bool                    `gorm:"not null;default:false"`
	Authorized       bool                    `gorm:"not null;default:false;index"`
	AuthorizedBy     *uuid.UUID              `gorm:"type:uuid"`
	AuthorizedByName string                  `gorm:"type:varchar(200)"`
	AuthorizedAt     *time.Time
	CancelledAt      *time.Time
	CancelReason     string `gorm:"type:varchar(500)"`
	PaidAt           *time.Time
	Notes            string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ObligationModel) TableName() string {
	return "obligations"
}

// ToDomain converts the persistence model to a domain Obligation entity.
func (m *ObligationModel) ToDomain() *ledger.Obligation {
	return &ledger.Obligation{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		LegacyID:         m.LegacyID,
		Kind:             m.Kind,
		Concept:          m.Concept,
		CounterpartID:    m.CounterpartID,
		CounterpartName:  m.CounterpartName,
		TotalAmount:      m.TotalAmount,
		PaidAmount:       m.PaidAmount,
		RemainingAmount:  m.RemainingAmount,
		Status:           m.Status,
		DueDate:          m.DueDate,
		DueDateInferred:  m.DueDateInferred,
		Authorized:       m.Authorized,
		AuthorizedBy:     m.AuthorizedBy,
		AuthorizedByName: m.AuthorizedByName,
		AuthorizedAt:     m.AuthorizedAt,
		CancelledAt:      m.CancelledAt,
		CancelReason:     m.CancelReason,
		PaidAt:           m.PaidAt,
		Notes:            m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Obligation entity.
func (m *ObligationModel) FromDomain(o *ledger.Obligation) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.TenantID = o.TenantID
	m.CreatedBy = o.CreatedBy
	m.LegacyID = o.LegacyID
	m.Kind = o.Kind
	m.Concept = o.Concept
	m.CounterpartID = o.CounterpartID
	m.CounterpartName = o.CounterpartName
	m.TotalAmount = o.TotalAmount
	m.PaidAmount = o.PaidAmount
	m.RemainingAmount = o.RemainingAmount
	m.Status = o.Status
	m.DueDate = o.DueDate
	m.DueDateInferred = o.DueDateInferred
	m.Authorized = o.Authorized
	m.AuthorizedBy = o.AuthorizedBy
	m.AuthorizedByName = o.AuthorizedByName
	m.AuthorizedAt = o.AuthorizedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.PaidAt = o.PaidAt
	m.Notes = o.Notes
}

// ObligationModelFromDomain creates a new persistence model from a domain Obligation.
func ObligationModelFromDomain(o *ledger.Obligation) *ObligationModel {
	m := &ObligationModel{}
	m.FromDomain(o)
	return m
}

// PaymentComplementModel is the persistence model for the PaymentComplement entity.
// The (ObligationID, ObligationKind) pair is the flattened form of the domain's
// ComplementTarget union.
type PaymentComplementModel struct {
	BaseModel
	TenantID       uuid.UUID             `gorm:"type:uuid;not null;index;uniqueIndex:idx_complement_tenant_legacy,priority:1"`
	LegacyID       *string               `gorm:"type:varchar(100);uniqueIndex:idx_complement_tenant_legacy,priority:2"`
	ObligationID   uuid.UUID             `gorm:"type:uuid;not null;index"`
	ObligationKind ledger.ObligationKind `gorm:"type:varchar(2);not null"`
	Amount         decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaymentDate    time.Time             `gorm:"not null;index"`
	Method         ledger.PaymentMethod  `gorm:"type:varchar(20);not null"`
	Reference      string                `gorm:"type:varchar(100)"`
	Notes          string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentComplementModel) TableName() string {
	return "payment_complements"
}

// ToDomain converts the persistence model to a domain PaymentComplement entity.
func (m *PaymentComplementModel) ToDomain() (*ledger.PaymentComplement, error) {
	target, err := ledger.NewComplementTarget(m.ObligationKind, m.ObligationID)
	if err != nil {
		return nil, err
	}
	return &ledger.PaymentComplement{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:    m.TenantID,
		LegacyID:    m.LegacyID,
		Target:      target,
		Amount:      m.Amount,
		PaymentDate: m.PaymentDate,
		Method:      m.Method,
		Reference:   m.Reference,
		Notes:       m.Notes,
	}, nil
}

// FromDomain populates the persistence model from a domain PaymentComplement entity.
func (m *PaymentComplementModel) FromDomain(c *ledger.PaymentComplement) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.TenantID = c.TenantID
	m.LegacyID = c.LegacyID
	m.ObligationID = c.Target.ObligationID()
	m.ObligationKind = c.Target.Kind()
	m.Amount = c.Amount
	m.PaymentDate = c.PaymentDate
	m.Method = c.Method
	m.Reference = c.Reference
	m.Notes = c.Notes
}

// PaymentComplementModelFromDomain creates a new persistence model from a domain PaymentComplement.
func PaymentComplementModelFromDomain(c *ledger.PaymentComplement) *PaymentComplementModel {
	m := &PaymentComplementModel{}
	m.FromDomain(c)
	return m
}
