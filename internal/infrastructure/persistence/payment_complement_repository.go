package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentComplementRepository implements PaymentComplementRepository using GORM
type GormPaymentComplementRepository struct {
	db *gorm.DB
}

// NewGormPaymentComplementRepository creates a new GormPaymentComplementRepository
func NewGormPaymentComplementRepository(db *gorm.DB) *GormPaymentComplementRepository {
	return &GormPaymentComplementRepository{db: db}
}

// FindByID finds a payment complement by its ID
func (r *GormPaymentComplementRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.PaymentComplement, error) {
	var model models.PaymentComplementModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByObligation finds all complements applied against an obligation
func (r *GormPaymentComplementRepository) FindByObligation(ctx context.Context, tenantID, obligationID uuid.UUID) ([]ledger.PaymentComplement, error) {
	var complementModels []models.PaymentComplementModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND obligation_id = ?", tenantID, obligationID).
		Order("payment_date ASC, created_at ASC").
		Find(&complementModels).Error; err != nil {
		return nil, err
	}
	return toDomainComplements(complementModels)
}

// FindByCounterpart finds all complements whose obligation belongs to the given counterpart
func (r *GormPaymentComplementRepository) FindByCounterpart(ctx context.Context, tenantID, counterpartID uuid.UUID) ([]ledger.PaymentComplement, error) {
	var complementModels []models.PaymentComplementModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN obligations ON obligations.id = payment_complements.obligation_id").
		Where("payment_complements.tenant_id = ? AND obligations.counterpart_id = ?", tenantID, counterpartID).
		Order("payment_complements.payment_date ASC, payment_complements.created_at ASC").
		Find(&complementModels).Error; err != nil {
		return nil, err
	}
	return toDomainComplements(complementModels)
}

// FindByLegacyID finds a complement imported under the given legacy identifier
func (r *GormPaymentComplementRepository) FindByLegacyID(ctx context.Context, tenantID uuid.UUID, legacyID string) (*ledger.PaymentComplement, error) {
	var model models.PaymentComplementModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND legacy_id = ?", tenantID, legacyID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// SumByObligation computes the authoritative complement sum for one obligation
func (r *GormPaymentComplementRepository) SumByObligation(ctx context.Context, tenantID, obligationID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentComplementModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("tenant_id = ? AND obligation_id = ?", tenantID, obligationID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumAllByObligation computes complement sums for every obligation of a tenant
// in one pass, keyed by obligation ID
func (r *GormPaymentComplementRepository) SumAllByObligation(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		ObligationID uuid.UUID
		Total        decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentComplementModel{}).
		Select("obligation_id, COALESCE(SUM(amount), 0) as total").
		Where("tenant_id = ?", tenantID).
		Group("obligation_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.ObligationID] = row.Total
	}
	return sums, nil
}

// Save persists a payment complement. Complements are append-only: an insert,
// never an upsert.
func (r *GormPaymentComplementRepository) Save(ctx context.Context, complement *ledger.PaymentComplement) error {
	model := models.PaymentComplementModelFromDomain(complement)
	return r.db.WithContext(ctx).Create(model).Error
}

func toDomainComplements(complementModels []models.PaymentComplementModel) ([]ledger.PaymentComplement, error) {
	complements := make([]ledger.PaymentComplement, len(complementModels))
	for i, model := range complementModels {
		c, err := model.ToDomain()
		if err != nil {
			return nil, err
		}
		complements[i] = *c
	}
	return complements, nil
}

// Ensure GormPaymentComplementRepository implements PaymentComplementRepository
var _ ledger.PaymentComplementRepository = (*GormPaymentComplementRepository)(nil)
