package ledger

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// reconcilePageSize bounds how many obligations are loaded per page while
// sweeping a tenant
const reconcilePageSize = 200

// BalanceSnapshot captures the cached balance fields of an obligation at a
// point in time
type BalanceSnapshot struct {
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
	Status    string          `json:"status"`
}

// ReconciliationCorrection records one balance cache correction for audit
type ReconciliationCorrection struct {
	ObligationID uuid.UUID       `json:"obligation_id"`
	Before       BalanceSnapshot `json:"before"`
	After        BalanceSnapshot `json:"after"`
}

// ReconciliationAnomaly reports a stored paid amount exceeding the complement
// sum. The surplus usually comes from legacy imports that set paid amounts
// directly without matching complement rows; it is surfaced, never corrected
// downward, because lowering it would alter historical figures without an
// audit trail.
type ReconciliationAnomaly struct {
	ObligationID  uuid.UUID       `json:"obligation_id"`
	StoredPaid    decimal.Decimal `json:"stored_paid"`
	ComplementSum decimal.Decimal `json:"complement_sum"`
	Surplus       decimal.Decimal `json:"surplus"`
}

// ReconciliationReport summarizes one reconciliation run over a tenant
type ReconciliationReport struct {
	TenantID    uuid.UUID                  `json:"tenant_id"`
	Checked     int                        `json:"checked"`
	Corrections []ReconciliationCorrection `json:"corrections"`
	Anomalies   []ReconciliationAnomaly    `json:"anomalies"`
	StartedAt   time.Time                  `json:"started_at"`
	FinishedAt  time.Time                  `json:"finished_at"`
}

// ReconciliationService re-derives obligation balance caches from the
// authoritative payment complement log. It only ever rewrites obligation-level
// aggregates; complements are never created or deleted here. Running it twice
// in a row with no new payments produces zero corrections the second time.
type ReconciliationService struct {
	obligations ledger.ObligationRepository
	complements ledger.PaymentComplementRepository
	txManager   ledger.TxManager
	logger      *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	obligations ledger.ObligationRepository,
	complements ledger.PaymentComplementRepository,
	txManager ledger.TxManager,
	logger *zap.Logger,
) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		obligations: obligations,
		complements: complements,
		txManager:   txManager,
		logger:      logger,
	}
}

// Reconcile sweeps every obligation of the tenant, compares the cached
// balances against the complement sums, and corrects drift. Corrections
// happen one obligation per transaction: the sum is re-read and the row is
// version-checked inside the same transaction, so a payment recorded after
// the sweep's initial read is never overwritten.
func (s *ReconciliationService) Reconcile(ctx context.Context, tenantID uuid.UUID) (*ReconciliationReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "reconcile",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()))
	defer span.End()

	report := &ReconciliationReport{
		TenantID:    tenantID,
		Corrections: []ReconciliationCorrection{},
		Anomalies:   []ReconciliationAnomaly{},
		StartedAt:   time.Now(),
	}

	sums, err := s.complements.SumAllByObligation(ctx, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	filter := ledger.ObligationFilter{}
	filter.PageSize = reconcilePageSize
	for page := 1; ; page++ {
		filter.Page = page
		obligations, err := s.obligations.FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		for i := range obligations {
			s.checkObligation(ctx, &obligations[i], sums, report)
			report.Checked++
		}

		if len(obligations) < reconcilePageSize {
			break
		}
	}

	report.FinishedAt = time.Now()
	telemetry.SetAttributes(span,
		"checked", report.Checked,
		"corrections", len(report.Corrections),
		"anomalies", len(report.Anomalies),
	)
	s.logger.Info("reconciliation run finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("checked", report.Checked),
		zap.Int("corrections", len(report.Corrections)),
		zap.Int("anomalies", len(report.Anomalies)),
	)
	return report, nil
}

// checkObligation classifies one obligation against its complement sum and
// applies a correction when the caches drifted. Failures on individual rows
// are logged and skipped so one bad row does not abort the sweep.
func (s *ReconciliationService) checkObligation(
	ctx context.Context,
	obligation *ledger.Obligation,
	sums map[uuid.UUID]decimal.Decimal,
	report *ReconciliationReport,
) {
	sum, ok := sums[obligation.ID]
	if !ok {
		sum = decimal.Zero
	}

	if obligation.PaidAmount.GreaterThan(sum) {
		report.Anomalies = append(report.Anomalies, ReconciliationAnomaly{
			ObligationID:  obligation.ID,
			StoredPaid:    obligation.PaidAmount,
			ComplementSum: sum,
			Surplus:       obligation.PaidAmount.Sub(sum),
		})
		return
	}

	if !s.needsCorrection(obligation, sum) {
		return
	}

	correction, err := s.correctObligation(ctx, obligation.TenantID, obligation.ID)
	if err != nil {
		s.logger.Warn("skipping obligation after failed correction",
			zap.String("obligation_id", obligation.ID.String()),
			zap.Error(err),
		)
		return
	}
	if correction != nil {
		report.Corrections = append(report.Corrections, *correction)
	}
}

// needsCorrection reports whether the cached balances diverge from what the
// complement sum derives
func (s *ReconciliationService) needsCorrection(obligation *ledger.Obligation, sum decimal.Decimal) bool {
	if !obligation.PaidAmount.Equal(sum) {
		return true
	}
	if obligation.Status == ledger.StatusCancelled {
		return !obligation.RemainingAmount.IsZero()
	}
	expected := ledger.ComputeBalance(ledger.BalanceInput{
		Total:         obligation.TotalAmount,
		ComplementSum: sum,
		DueDate:       obligation.DueDate,
		Now:           time.Now(),
	})
	return !obligation.RemainingAmount.Equal(expected.Remaining) || obligation.Status != expected.Status
}

// correctObligation re-reads the row and the authoritative sum inside one
// transaction and rewrites the caches under the version check. Returns nil
// when the re-read shows no drift anymore.
func (s *ReconciliationService) correctObligation(ctx context.Context, tenantID, obligationID uuid.UUID) (*ReconciliationCorrection, error) {
	var correction *ReconciliationCorrection
	err := s.txManager.InTx(ctx, func(repos ledger.LedgerRepositories) error {
		obligation, err := repos.Obligations.FindByIDForTenant(ctx, tenantID, obligationID)
		if err != nil {
			return err
		}
		sum, err := repos.Complements.SumByObligation(ctx, tenantID, obligationID)
		if err != nil {
			return err
		}

		if obligation.PaidAmount.GreaterThan(sum) || !s.needsCorrection(obligation, sum) {
			return nil
		}

		before := snapshotBalance(obligation)
		obligation.ApplyReconciledPaid(sum, time.Now())
		if err := repos.Obligations.SaveWithLock(ctx, obligation); err != nil {
			return err
		}

		correction = &ReconciliationCorrection{
			ObligationID: obligation.ID,
			Before:       before,
			After:        snapshotBalance(obligation),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if correction != nil {
		s.logger.Info("corrected obligation balance cache",
			zap.String("obligation_id", correction.ObligationID.String()),
			zap.String("paid_before", correction.Before.Paid.String()),
			zap.String("paid_after", correction.After.Paid.String()),
			zap.String("status_before", correction.Before.Status),
			zap.String("status_after", correction.After.Status),
		)
	}
	return correction, nil
}

func snapshotBalance(o *ledger.Obligation) BalanceSnapshot {
	return BalanceSnapshot{
		Paid:      o.PaidAmount,
		Remaining: o.RemainingAmount,
		Status:    o.Status.String(),
	}
}
