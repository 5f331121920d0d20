package ledger

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationFilter defines filtering options for obligation queries
type ObligationFilter struct {
	shared.Filter
	Kind          *ObligationKind   // Filter by AP/AR side
	Status        *ObligationStatus // Filter by status
	CounterpartID *uuid.UUID        // Filter by supplier/customer
	Authorized    *bool             // Filter by authorization state
	FromDate      *time.Time        // Filter by creation date range start
	ToDate        *time.Time        // Filter by creation date range end
	DueFrom       *time.Time        // Filter by due date range start
	DueTo         *time.Time        // Filter by due date range end
	Overdue       *bool             // Filter only overdue obligations
	MinAmount     *decimal.Decimal  // Filter by minimum remaining amount
	MaxAmount     *decimal.Decimal  // Filter by maximum remaining amount
}

// ObligationRepository defines the interface for obligation persistence
type ObligationRepository interface {
	// FindByID finds an obligation by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Obligation, error)

	// FindByIDForTenant finds an obligation by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Obligation, error)

	// FindByLegacyID finds an obligation imported under the given legacy identifier
	FindByLegacyID(ctx context.Context, tenantID uuid.UUID, legacyID string) (*Obligation, error)

	// FindAllForTenant finds all obligations for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ObligationFilter) ([]Obligation, error)

	// CountForTenant counts obligations for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ObligationFilter) (int64, error)

	// CountByStatus counts obligations of a kind by status for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID, kind ObligationKind, status ObligationStatus) (int64, error)

	// SumRemainingForTenant totals the remaining amounts of open obligations of a kind
	SumRemainingForTenant(ctx context.Context, tenantID uuid.UUID, kind ObligationKind) (decimal.Decimal, error)

	// SumOverdueForTenant totals the remaining amounts of overdue obligations of a kind
	SumOverdueForTenant(ctx context.Context, tenantID uuid.UUID, kind ObligationKind) (decimal.Decimal, error)

	// Save creates or updates an obligation
	Save(ctx context.Context, obligation *Obligation) error

	// SaveWithLock saves with optimistic locking: the write only lands when
	// the stored version still matches the aggregate's loaded version, and
	// advances the version by one on success
	SaveWithLock(ctx context.Context, obligation *Obligation) error
}

// PaymentComplementRepository defines the interface for payment complement persistence
type PaymentComplementRepository interface {
	// FindByID finds a payment complement by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentComplement, error)

	// FindByObligation finds all complements applied against an obligation,
	// ordered by payment date
	FindByObligation(ctx context.Context, tenantID, obligationID uuid.UUID) ([]PaymentComplement, error)

	// FindByCounterpart finds all complements whose obligation belongs to the
	// given counterpart
	FindByCounterpart(ctx context.Context, tenantID, counterpartID uuid.UUID) ([]PaymentComplement, error)

	// FindByLegacyID finds a complement imported under the given legacy identifier
	FindByLegacyID(ctx context.Context, tenantID uuid.UUID, legacyID string) (*PaymentComplement, error)

	// SumByObligation computes the authoritative complement sum for one obligation
	SumByObligation(ctx context.Context, tenantID, obligationID uuid.UUID) (decimal.Decimal, error)

	// SumAllByObligation computes complement sums for every obligation of a
	// tenant in one pass, keyed by obligation ID
	SumAllByObligation(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)

	// Save persists a payment complement (append-only)
	Save(ctx context.Context, complement *PaymentComplement) error
}

// LedgerRepositories bundles the repositories that participate in one transaction
type LedgerRepositories struct {
	Obligations ObligationRepository
	Complements PaymentComplementRepository
}

// TxManager runs a function with repositories bound to a single database
// transaction. Payment recording and reconciliation corrections use it to
// keep the complement log and the cached balances atomic.
type TxManager interface {
	InTx(ctx context.Context, fn func(repos LedgerRepositories) error) error
}
