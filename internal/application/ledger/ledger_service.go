package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// lockRetryAttempts is how many times a mutating operation retries after
	// losing an optimistic lock race before surfacing CONCURRENCY_CONFLICT
	lockRetryAttempts = 3

	// lockRetryBaseDelay is the base delay for exponential backoff between retries
	lockRetryBaseDelay = 50 * time.Millisecond
)

// LedgerService provides application-level obligation ledger operations
type LedgerService struct {
	obligations ledger.ObligationRepository
	complements ledger.PaymentComplementRepository
	txManager   ledger.TxManager
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	obligations ledger.ObligationRepository,
	complements ledger.PaymentComplementRepository,
	txManager ledger.TxManager,
) *LedgerService {
	return &LedgerService{
		obligations: obligations,
		complements: complements,
		txManager:   txManager,
	}
}

// ===================== Requests and responses =====================

// CreateObligationRequest carries the inputs for creating an obligation
type CreateObligationRequest struct {
	Kind            ledger.ObligationKind
	Concept         string
	TotalAmount     decimal.Decimal
	DueDate         *time.Time
	CounterpartID   *uuid.UUID
	CounterpartName string
	Notes           string
}

// RecordPaymentRequest carries the inputs for recording a payment complement
type RecordPaymentRequest struct {
	ObligationID uuid.UUID
	Amount       decimal.Decimal
	PaymentDate  time.Time
	Method       ledger.PaymentMethod
	Reference    string
	Notes        string
}

// UpdateObligationDetailsRequest carries optional detail updates.
// Amounts are deliberately absent: totals are immutable after creation.
type UpdateObligationDetailsRequest struct {
	Concept *string
	Notes   *string
	DueDate *time.Time
}

// ObligationResponse represents an obligation in API responses
type ObligationResponse struct {
	ID               uuid.UUID       `json:"id"`
	TenantID         uuid.UUID       `json:"tenant_id"`
	LegacyID         *string         `json:"legacy_id,omitempty"`
	Kind             string          `json:"kind"`
	Concept          string          `json:"concept"`
	CounterpartID    *uuid.UUID      `json:"counterpart_id,omitempty"`
	CounterpartName  string          `json:"counterpart_name,omitempty"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	RemainingAmount  decimal.Decimal `json:"remaining_amount"`
	Status           string          `json:"status"`
	DueDate          *time.Time      `json:"due_date,omitempty"`
	DueDateInferred  bool            `json:"due_date_inferred"`
	Authorized       bool            `json:"authorized"`
	AuthorizedBy     *uuid.UUID      `json:"authorized_by,omitempty"`
	AuthorizedByName string          `json:"authorized_by_name,omitempty"`
	AuthorizedAt     *time.Time      `json:"authorized_at,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Version          int             `json:"version"`
}

// PaymentComplementResponse represents a payment complement in API responses
type PaymentComplementResponse struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	LegacyID       *string         `json:"legacy_id,omitempty"`
	ObligationID   uuid.UUID       `json:"obligation_id"`
	ObligationKind string          `json:"obligation_kind"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentDate    time.Time       `json:"payment_date"`
	Method         string          `json:"method"`
	Reference      string          `json:"reference,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// RecordPaymentResult carries the created complement together with the
// obligation's post-payment balances
type RecordPaymentResult struct {
	Obligation *ObligationResponse        `json:"obligation"`
	Complement *PaymentComplementResponse `json:"complement"`
}

// ObligationListFilter defines filtering options for obligation list queries
type ObligationListFilter struct {
	Search        string           `form:"search"`
	Kind          string           `form:"kind"`
	Status        string           `form:"status"`
	CounterpartID *uuid.UUID       `form:"counterpart_id"`
	Authorized    *bool            `form:"authorized"`
	FromDate      *time.Time       `form:"from_date"`
	ToDate        *time.Time       `form:"to_date"`
	DueFrom       *time.Time       `form:"due_from"`
	DueTo         *time.Time       `form:"due_to"`
	Overdue       *bool            `form:"overdue"`
	MinAmount     *decimal.Decimal `form:"min_amount"`
	MaxAmount     *decimal.Decimal `form:"max_amount"`
	SortBy        string           `form:"sort_by"`
	SortOrder     string           `form:"sort_order"`
	Page          int              `form:"page"`
	PageSize      int              `form:"page_size"`
}

// LedgerSummary aggregates one side of the ledger for a tenant
type LedgerSummary struct {
	Kind             string          `json:"kind"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	TotalOverdue     decimal.Decimal `json:"total_overdue"`
	PendingCount     int64           `json:"pending_count"`
	PartialCount     int64           `json:"partial_count"`
	PaidCount        int64           `json:"paid_count"`
	OverdueCount     int64           `json:"overdue_count"`
	CancelledCount   int64           `json:"cancelled_count"`
}

// ===================== Obligation operations =====================

// CreateObligation creates a new obligation for the tenant
func (s *LedgerService) CreateObligation(ctx context.Context, tenantID uuid.UUID, req CreateObligationRequest) (*ObligationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "create_obligation",
		telemetry.WithAttribute(telemetry.SpanAttrKind, req.Kind.String()))
	defer span.End()

	total := valueobject.NewMoneyMXN(req.TotalAmount)
	obligation, err := ledger.NewObligation(tenantID, req.Kind, req.Concept, total, req.DueDate, req.CounterpartID, req.CounterpartName)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.Notes != "" {
		obligation.Notes = req.Notes
	}

	if err := s.obligations.Save(ctx, obligation); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrObligationID, obligation.ID.String())
	return toObligationResponse(obligation), nil
}

// GetObligation gets an obligation by ID. The returned status is re-derived
// at read time so a pending row past its due date reads as overdue.
func (s *LedgerService) GetObligation(ctx context.Context, tenantID, id uuid.UUID) (*ObligationResponse, error) {
	obligation, err := s.obligations.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := toObligationResponse(obligation)
	resp.Status = obligation.EffectiveStatus(time.Now()).String()
	return resp, nil
}

// ListObligations lists obligations with filtering
func (s *LedgerService) ListObligations(ctx context.Context, tenantID uuid.UUID, filter ObligationListFilter) ([]ObligationResponse, int64, error) {
	domainFilter := toDomainFilter(filter)

	obligations, err := s.obligations.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.obligations.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	responses := make([]ObligationResponse, len(obligations))
	for i, o := range obligations {
		resp := toObligationResponse(&o)
		resp.Status = o.EffectiveStatus(now).String()
		responses[i] = *resp
	}

	return responses, total, nil
}

// AuthorizeObligation signs off a payable for payment. Idempotent.
func (s *LedgerService) AuthorizeObligation(ctx context.Context, tenantID, id, signerID uuid.UUID, signerName string) (*ObligationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "authorize_obligation",
		telemetry.WithAttribute(telemetry.SpanAttrObligationID, id.String()))
	defer span.End()

	var result *ledger.Obligation
	err := s.withLockRetry(ctx, func(ctx context.Context) error {
		obligation, err := s.obligations.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		alreadyAuthorized := obligation.Authorized
		if err := obligation.Authorize(signerID, signerName); err != nil {
			return err
		}
		if !alreadyAuthorized {
			if err := s.obligations.SaveWithLock(ctx, obligation); err != nil {
				return err
			}
		}
		result = obligation
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return toObligationResponse(result), nil
}

// RecordPayment records a payment complement against an obligation.
// The complement insert and the balance update commit in one transaction;
// the obligation row is guarded by its version so concurrent payments
// cannot both pass the overpayment check.
func (s *LedgerService) RecordPayment(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "record_payment",
		telemetry.WithAttribute(telemetry.SpanAttrObligationID, req.ObligationID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, req.Amount.String()))
	defer span.End()

	var resultObligation *ledger.Obligation
	var resultComplement *ledger.PaymentComplement
	err := s.withLockRetry(ctx, func(ctx context.Context) error {
		return s.txManager.InTx(ctx, func(repos ledger.LedgerRepositories) error {
			obligation, err := repos.Obligations.FindByIDForTenant(ctx, tenantID, req.ObligationID)
			if err != nil {
				return err
			}

			amount := valueobject.NewMoneyMXN(req.Amount)
			if err := obligation.ApplyComplement(amount, time.Now()); err != nil {
				return err
			}

			target, err := ledger.NewComplementTarget(obligation.Kind, obligation.ID)
			if err != nil {
				return err
			}
			complement, err := ledger.NewPaymentComplement(tenantID, target, amount, req.PaymentDate, req.Method, req.Reference, req.Notes)
			if err != nil {
				return err
			}

			if err := repos.Complements.Save(ctx, complement); err != nil {
				return err
			}
			if err := repos.Obligations.SaveWithLock(ctx, obligation); err != nil {
				return err
			}

			resultObligation = obligation
			resultComplement = complement
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return &RecordPaymentResult{
		Obligation: toObligationResponse(resultObligation),
		Complement: toComplementResponse(resultComplement),
	}, nil
}

// CancelObligation soft-cancels an obligation
func (s *LedgerService) CancelObligation(ctx context.Context, tenantID, id uuid.UUID, reason string) (*ObligationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "cancel_obligation",
		telemetry.WithAttribute(telemetry.SpanAttrObligationID, id.String()))
	defer span.End()

	var result *ledger.Obligation
	err := s.withLockRetry(ctx, func(ctx context.Context) error {
		obligation, err := s.obligations.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := obligation.Cancel(reason); err != nil {
			return err
		}
		if err := s.obligations.SaveWithLock(ctx, obligation); err != nil {
			return err
		}
		result = obligation
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return toObligationResponse(result), nil
}

// UpdateObligationDetails updates the mutable detail fields of an obligation
func (s *LedgerService) UpdateObligationDetails(ctx context.Context, tenantID, id uuid.UUID, req UpdateObligationDetailsRequest) (*ObligationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "update_obligation_details",
		telemetry.WithAttribute(telemetry.SpanAttrObligationID, id.String()))
	defer span.End()

	var result *ledger.Obligation
	err := s.withLockRetry(ctx, func(ctx context.Context) error {
		obligation, err := s.obligations.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if req.Concept != nil {
			if err := obligation.SetConcept(*req.Concept); err != nil {
				return err
			}
		}
		if req.Notes != nil {
			obligation.SetNotes(*req.Notes)
		}
		if req.DueDate != nil {
			if err := obligation.SetDueDate(req.DueDate); err != nil {
				return err
			}
		}
		if err := s.obligations.SaveWithLock(ctx, obligation); err != nil {
			return err
		}
		result = obligation
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return toObligationResponse(result), nil
}

// ===================== Complement queries =====================

// ListPaymentComplements lists the complement log of an obligation
func (s *LedgerService) ListPaymentComplements(ctx context.Context, tenantID, obligationID uuid.UUID) ([]PaymentComplementResponse, error) {
	// Verify the obligation exists in this tenant before exposing its log
	if _, err := s.obligations.FindByIDForTenant(ctx, tenantID, obligationID); err != nil {
		return nil, err
	}

	complements, err := s.complements.FindByObligation(ctx, tenantID, obligationID)
	if err != nil {
		return nil, err
	}
	return toComplementResponses(complements), nil
}

// ListPaymentComplementsByCounterpart lists all complements applied against
// the given counterpart's obligations
func (s *LedgerService) ListPaymentComplementsByCounterpart(ctx context.Context, tenantID, counterpartID uuid.UUID) ([]PaymentComplementResponse, error) {
	complements, err := s.complements.FindByCounterpart(ctx, tenantID, counterpartID)
	if err != nil {
		return nil, err
	}
	return toComplementResponses(complements), nil
}

// ===================== Summary =====================

// GetLedgerSummary aggregates outstanding/overdue totals and status counts
// for one side of the ledger
func (s *LedgerService) GetLedgerSummary(ctx context.Context, tenantID uuid.UUID, kind ledger.ObligationKind) (*LedgerSummary, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Obligation kind must be AP or AR")
	}

	totalOutstanding, err := s.obligations.SumRemainingForTenant(ctx, tenantID, kind)
	if err != nil {
		return nil, err
	}
	totalOverdue, err := s.obligations.SumOverdueForTenant(ctx, tenantID, kind)
	if err != nil {
		return nil, err
	}

	summary := &LedgerSummary{
		Kind:             kind.String(),
		TotalOutstanding: totalOutstanding,
		TotalOverdue:     totalOverdue,
	}

	counts := []struct {
		status ledger.ObligationStatus
		dest   *int64
	}{
		{ledger.StatusPending, &summary.PendingCount},
		{ledger.StatusPartial, &summary.PartialCount},
		{ledger.StatusPaid, &summary.PaidCount},
		{ledger.StatusOverdue, &summary.OverdueCount},
		{ledger.StatusCancelled, &summary.CancelledCount},
	}
	for _, c := range counts {
		count, err := s.obligations.CountByStatus(ctx, tenantID, kind, c.status)
		if err != nil {
			return nil, err
		}
		*c.dest = count
	}

	return summary, nil
}

// ===================== Internals =====================

// withLockRetry retries fn after optimistic lock conflicts with exponential
// backoff. Any other error aborts immediately.
func (s *LedgerService) withLockRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < lockRetryAttempts; attempt++ {
		if attempt > 0 {
			delay := lockRetryBaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = fn(ctx)
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
	}
	return err
}

func toDomainFilter(filter ObligationListFilter) ledger.ObligationFilter {
	domainFilter := ledger.ObligationFilter{
		CounterpartID: filter.CounterpartID,
		Authorized:    filter.Authorized,
		FromDate:      filter.FromDate,
		ToDate:        filter.ToDate,
		DueFrom:       filter.DueFrom,
		DueTo:         filter.DueTo,
		Overdue:       filter.Overdue,
		MinAmount:     filter.MinAmount,
		MaxAmount:     filter.MaxAmount,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search
	domainFilter.OrderBy = filter.SortBy
	domainFilter.OrderDir = filter.SortOrder

	if filter.Kind != "" {
		kind := ledger.ObligationKind(filter.Kind)
		domainFilter.Kind = &kind
	}
	if filter.Status != "" {
		status := ledger.ObligationStatus(filter.Status)
		domainFilter.Status = &status
	}

	return domainFilter
}

func toObligationResponse(o *ledger.Obligation) *ObligationResponse {
	return &ObligationResponse{
		ID:               o.ID,
		TenantID:         o.TenantID,
		LegacyID:         o.LegacyID,
		Kind:             o.Kind.String(),
		Concept:          o.Concept,
		CounterpartID:    o.CounterpartID,
		CounterpartName:  o.CounterpartName,
		TotalAmount:      o.TotalAmount,
		PaidAmount:       o.PaidAmount,
		RemainingAmount:  o.RemainingAmount,
		Status:           o.Status.String(),
		DueDate:          o.DueDate,
		DueDateInferred:  o.DueDateInferred,
		Authorized:       o.Authorized,
		AuthorizedBy:     o.AuthorizedBy,
		AuthorizedByName: o.AuthorizedByName,
		AuthorizedAt:     o.AuthorizedAt,
		CancelledAt:      o.CancelledAt,
		CancelReason:     o.CancelReason,
		PaidAt:           o.PaidAt,
		Notes:            o.Notes,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		Version:          o.Version,
	}
}

func toComplementResponse(c *ledger.PaymentComplement) *PaymentComplementResponse {
	return &PaymentComplementResponse{
		ID:             c.ID,
		TenantID:       c.TenantID,
		LegacyID:       c.LegacyID,
		ObligationID:   c.Target.ObligationID(),
		ObligationKind: c.Target.Kind().String(),
		Amount:         c.Amount,
		PaymentDate:    c.PaymentDate,
		Method:         c.Method.String(),
		Reference:      c.Reference,
		Notes:          c.Notes,
		CreatedAt:      c.CreatedAt,
	}
}

func toComplementResponses(complements []ledger.PaymentComplement) []PaymentComplementResponse {
	responses := make([]PaymentComplementResponse, len(complements))
	for i, c := range complements {
		responses[i] = *toComplementResponse(&c)
	}
	return responses
}
