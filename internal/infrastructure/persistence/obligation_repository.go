package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// openStatuses are the statuses an obligation can still receive payments in
var openStatuses = []ledger.ObligationStatus{
	ledger.StatusPending,
	ledger.StatusPartial,
	ledger.StatusOverdue,
}

// GormObligationRepository implements ObligationRepository using GORM
type GormObligationRepository struct {
	db *gorm.DB
}

// NewGormObligationRepository creates a new GormObligationRepository
func NewGormObligationRepository(db *gorm.DB) *GormObligationRepository {
	return &GormObligationRepository{db: db}
}

// FindByID finds an obligation by its ID
func (r *GormObligationRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Obligation, error) {
	var model models.ObligationModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds an obligation by ID for a specific tenant
func (r *GormObligationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Obligation, error) {
	var model models.ObligationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLegacyID finds an obligation imported under the given legacy identifier
func (r *GormObligationRepository) FindByLegacyID(ctx context.Context, tenantID uuid.UUID, legacyID string) (*ledger.Obligation, error) {
	var model models.ObligationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND legacy_id = ?", tenantID, legacyID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all obligations for a tenant with filtering
func (r *GormObligationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.ObligationFilter) ([]ledger.Obligation, error) {
	var obligationModels []models.ObligationModel
	query := r.db.WithContext(ctx).Model(&models.ObligationModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)

	if err := query.Find(&obligationModels).Error; err != nil {
		return nil, err
	}
	obligations := make([]ledger.Obligation, len(obligationModels))
	for i, model := range obligationModels {
		obligations[i] = *model.ToDomain()
	}
	return obligations, nil
}

// CountForTenant counts obligations for a tenant
func (r *GormObligationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.ObligationFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ObligationModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts obligations of a kind by status
func (r *GormObligationRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, kind ledger.ObligationKind, status ledger.ObligationStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ObligationModel{}).
		Where("tenant_id = ? AND kind = ? AND status = ?", tenantID, kind, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumRemainingForTenant totals the remaining amounts of open obligations of a kind
func (r *GormObligationRepository) SumRemainingForTenant(ctx context.Context, tenantID uuid.UUID, kind ledger.ObligationKind) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ObligationModel{}).
		Select("COALESCE(SUM(remaining_amount), 0) as total").
		Where("tenant_id = ? AND kind = ? AND status IN ?", tenantID, kind, openStatuses).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumOverdueForTenant totals the remaining amounts of overdue obligations of a kind
func (r *GormObligationRepository) SumOverdueForTenant(ctx context.Context, tenantID uuid.UUID, kind ledger.ObligationKind) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ObligationModel{}).
		Select("COALESCE(SUM(remaining_amount), 0) as total").
		Where("tenant_id = ? AND kind = ? AND due_date < ? AND status IN ?", tenantID, kind, time.Now(), openStatuses).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save creates or updates an obligation
func (r *GormObligationRepository) Save(ctx context.Context, obligation *ledger.Obligation) error {
	model := models.ObligationModelFromDomain(obligation)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. The update only lands when the
// stored version still matches the version the aggregate was loaded at; zero
// affected rows means another transaction won. On success the version is
// advanced by one, regardless of how many fields changed in between.
func (r *GormObligationRepository) SaveWithLock(ctx context.Context, obligation *ledger.Obligation) error {
	model := models.ObligationModelFromDomain(obligation)
	model.Version = obligation.Version + 1
	result := r.db.WithContext(ctx).
		Model(&models.ObligationModel{}).
		Where("id = ? AND version = ?", obligation.ID, obligation.Version).
		Select("*").
		Omit("id", "created_at", "tenant_id").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	obligation.IncrementVersion()
	return nil
}

// applyFilter applies filter options to the query
func (r *GormObligationRepository) applyFilter(query *gorm.DB, filter ledger.ObligationFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ObligationSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormObligationRepository) applyFilterWithoutPagination(query *gorm.DB, filter ledger.ObligationFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(concept) LIKE ? OR LOWER(counterpart_name) LIKE ?",
			searchPattern, searchPattern)
	}

	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Status != nil {
		query = r.applyStatusFilter(query, *filter.Status)
	}
	if filter.CounterpartID != nil {
		query = query.Where("counterpart_id = ?", *filter.CounterpartID)
	}
	if filter.Authorized != nil {
		query = query.Where("authorized = ?", *filter.Authorized)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.Overdue != nil && *filter.Overdue {
		query = query.Where("due_date < ? AND status IN ?", time.Now(), openStatuses)
	}
	if filter.MinAmount != nil {
		query = query.Where("remaining_amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("remaining_amount <= ?", *filter.MaxAmount)
	}

	return query
}

// applyStatusFilter matches rows by their read-time status. A stored PENDING
// row past its due date reads as OVERDUE, so the PENDING/OVERDUE filters
// split on the due date instead of trusting the stored column.
func (r *GormObligationRepository) applyStatusFilter(query *gorm.DB, status ledger.ObligationStatus) *gorm.DB {
	unpaid := []ledger.ObligationStatus{ledger.StatusPending, ledger.StatusOverdue}
	switch status {
	case ledger.StatusOverdue:
		return query.Where("status IN ? AND due_date < ?", unpaid, time.Now())
	case ledger.StatusPending:
		return query.Where("status IN ? AND (due_date IS NULL OR due_date >= ?)", unpaid, time.Now())
	default:
		return query.Where("status = ?", status)
	}
}

// Ensure GormObligationRepository implements ObligationRepository
var _ ledger.ObligationRepository = (*GormObligationRepository)(nil)
