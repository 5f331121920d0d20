package ledger

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/csvimport"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LegacyObligationRow is one obligation record from the legacy export
type LegacyObligationRow struct {
	LegacyID        string
	Concept         string
	CounterpartName string
	TotalWithTax    *decimal.Decimal
	TotalWithoutTax *decimal.Decimal
	PaidAmount      *decimal.Decimal
	DueDate         *time.Time
	Authorized      bool
	AuthorizedName  string
	Notes           string
	Line            int
}

// LegacyPaymentRow is one payment record from the legacy export
type LegacyPaymentRow struct {
	LegacyID           string
	ObligationLegacyID string
	Amount             decimal.Decimal
	PaymentDate        time.Time
	Method             ledger.PaymentMethod
	Reference          string
	Notes              string
	Line               int
}

// ObligationImportResult summarizes one obligation import run
type ObligationImportResult struct {
	Created int                  `json:"created"`
	Updated int                  `json:"updated"`
	Skipped int                  `json:"skipped"`
	Errors  []csvimport.RowError `json:"errors,omitempty"`
}

// PaymentImportResult summarizes one payment import run
type PaymentImportResult struct {
	Created int                  `json:"created"`
	Skipped int                  `json:"skipped"`
	Errors  []csvimport.RowError `json:"errors,omitempty"`
}

// LegacyImportService loads obligation and payment rows exported from the
// legacy system. Imports are idempotent per legacy id: re-running the same
// file updates or skips instead of duplicating.
type LegacyImportService struct {
	obligations ledger.ObligationRepository
	complements ledger.PaymentComplementRepository
	txManager   ledger.TxManager
	logger      *zap.Logger
}

// NewLegacyImportService creates a new LegacyImportService
func NewLegacyImportService(
	obligations ledger.ObligationRepository,
	complements ledger.PaymentComplementRepository,
	txManager ledger.TxManager,
	logger *zap.Logger,
) *LegacyImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LegacyImportService{
		obligations: obligations,
		complements: complements,
		txManager:   txManager,
		logger:      logger,
	}
}

// ImportLegacyObligations upserts obligation rows keyed by legacy id.
// Rows without a usable total amount are skipped and reported; missing due
// dates default to the import time flagged as inferred so overdue analytics
// can tell them apart from real data.
func (s *LegacyImportService) ImportLegacyObligations(ctx context.Context, tenantID uuid.UUID, kind ledger.ObligationKind, rows []LegacyObligationRow) (*ObligationImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "import_legacy_obligations",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrKind, kind.String()))
	defer span.End()

	if !kind.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Obligation kind must be AP or AR")
	}

	result := &ObligationImportResult{Errors: []csvimport.RowError{}}
	now := time.Now()

	for _, row := range rows {
		if row.LegacyID == "" {
			result.Skipped++
			result.Errors = append(result.Errors, csvimport.NewRowError(row.Line, "legacy_id", csvimport.ErrCodeRequiredField, "legacy id is required"))
			continue
		}

		total, ok := resolveLegacyTotal(row)
		if !ok {
			result.Skipped++
			result.Errors = append(result.Errors, csvimport.NewRowError(row.Line, "total_with_tax", csvimport.ErrCodeMissingAmount, "no positive total amount in row"))
			continue
		}

		existing, err := s.obligations.FindByLegacyID(ctx, tenantID, row.LegacyID)
		switch {
		case err == nil:
			if err := s.updateImported(ctx, existing, row); err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, csvimport.NewRowErrorWithValue(row.Line, "", csvimport.ErrCodeRowFailed, err.Error(), row.LegacyID))
				continue
			}
			result.Updated++
		case errors.Is(err, shared.ErrNotFound):
			if err := s.createImported(ctx, tenantID, kind, row, total, now); err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, csvimport.NewRowErrorWithValue(row.Line, "", csvimport.ErrCodeRowFailed, err.Error(), row.LegacyID))
				continue
			}
			result.Created++
		default:
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	s.logger.Info("legacy obligation import finished",
		zap.String("tenant_id", tenantID.String()),
		zap.String("kind", kind.String()),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *LegacyImportService) createImported(ctx context.Context, tenantID uuid.UUID, kind ledger.ObligationKind, row LegacyObligationRow, total decimal.Decimal, importedAt time.Time) error {
	dueDate := row.DueDate
	inferred := false
	if dueDate == nil {
		// The export omits due dates on old rows. Defaulting keeps overdue
		// derivation total but the flag keeps it distinguishable.
		d := importedAt
		dueDate = &d
		inferred = true
	}

	obligation, err := ledger.NewObligation(tenantID, kind, row.Concept, valueobject.NewMoneyMXN(total), dueDate, nil, row.CounterpartName)
	if err != nil {
		return err
	}
	legacyID := row.LegacyID
	obligation.LegacyID = &legacyID
	obligation.DueDateInferred = inferred
	obligation.Notes = row.Notes

	if kind == ledger.KindPayable && row.Authorized {
		obligation.Authorized = true
		obligation.AuthorizedByName = row.AuthorizedName
		authorizedAt := importedAt
		obligation.AuthorizedAt = &authorizedAt
	}

	if row.PaidAmount != nil && row.PaidAmount.GreaterThan(decimal.Zero) {
		// Legacy paid totals arrive without matching complement rows.
		// The cache is set as-is; reconciliation later reports the gap
		// between it and the complement sum as an anomaly.
		obligation.ApplyReconciledPaid(*row.PaidAmount, importedAt)
	}

	return s.obligations.Save(ctx, obligation)
}

func (s *LegacyImportService) updateImported(ctx context.Context, existing *ledger.Obligation, row LegacyObligationRow) error {
	if existing.Status == ledger.StatusCancelled {
		return nil
	}
	changed := false
	if row.Concept != "" && row.Concept != existing.Concept {
		if err := existing.SetConcept(row.Concept); err != nil {
			return err
		}
		changed = true
	}
	if row.CounterpartName != "" && row.CounterpartName != existing.CounterpartName {
		existing.CounterpartName = row.CounterpartName
		changed = true
	}
	if row.DueDate != nil && existing.DueDateInferred {
		if err := existing.SetDueDate(row.DueDate); err != nil {
			return err
		}
		changed = true
	}
	if row.Notes != "" && row.Notes != existing.Notes {
		existing.SetNotes(row.Notes)
		changed = true
	}
	// Re-running the same file lands here with nothing to write.
	if !changed {
		return nil
	}
	return s.obligations.SaveWithLock(ctx, existing)
}

// ImportLegacyPayments loads payment rows keyed by legacy id. Rows whose
// legacy id already exists are skipped; rows referencing an unknown legacy
// obligation are skipped and reported. Each created complement and the
// balance correction it implies commit in one transaction.
func (s *LegacyImportService) ImportLegacyPayments(ctx context.Context, tenantID uuid.UUID, rows []LegacyPaymentRow) (*PaymentImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "import_legacy_payments",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()))
	defer span.End()

	result := &PaymentImportResult{Errors: []csvimport.RowError{}}

	for _, row := range rows {
		if row.LegacyID == "" {
			result.Skipped++
			result.Errors = append(result.Errors, csvimport.NewRowError(row.Line, "legacy_id", csvimport.ErrCodeRequiredField, "legacy id is required"))
			continue
		}

		_, err := s.complements.FindByLegacyID(ctx, tenantID, row.LegacyID)
		if err == nil {
			result.Skipped++
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
			return nil, err
		}

		if err := s.importPayment(ctx, tenantID, row); err != nil {
			if isRowLevelError(err) {
				result.Skipped++
				result.Errors = append(result.Errors, csvimport.NewRowErrorWithValue(row.Line, "", rowErrorCode(err), err.Error(), row.LegacyID))
				continue
			}
			telemetry.RecordError(span, err)
			return nil, err
		}
		result.Created++
	}

	s.logger.Info("legacy payment import finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// importPayment inserts one complement and corrects the obligation caches
// from the full complement sum. Historical payments bypass the authorization
// gate and the overpayment check; they already happened.
func (s *LegacyImportService) importPayment(ctx context.Context, tenantID uuid.UUID, row LegacyPaymentRow) error {
	return s.txManager.InTx(ctx, func(repos ledger.LedgerRepositories) error {
		obligation, err := repos.Obligations.FindByLegacyID(ctx, tenantID, row.ObligationLegacyID)
		if err != nil {
			return err
		}

		target, err := ledger.NewComplementTarget(obligation.Kind, obligation.ID)
		if err != nil {
			return err
		}
		complement, err := ledger.NewPaymentComplement(tenantID, target, valueobject.NewMoneyMXN(row.Amount), row.PaymentDate, row.Method, row.Reference, row.Notes)
		if err != nil {
			return err
		}
		legacyID := row.LegacyID
		complement.LegacyID = &legacyID

		if err := repos.Complements.Save(ctx, complement); err != nil {
			return err
		}

		sum, err := repos.Complements.SumByObligation(ctx, tenantID, obligation.ID)
		if err != nil {
			return err
		}
		if sum.GreaterThan(obligation.PaidAmount) {
			obligation.ApplyReconciledPaid(sum, time.Now())
			if err := repos.Obligations.SaveWithLock(ctx, obligation); err != nil {
				return err
			}
		}

		return nil
	})
}

// resolveLegacyTotal applies the amount defaulting rules: prefer the
// tax-inclusive total, fall back to the tax-exclusive one, otherwise the
// row is unusable.
func resolveLegacyTotal(row LegacyObligationRow) (decimal.Decimal, bool) {
	if row.TotalWithTax != nil && row.TotalWithTax.GreaterThan(decimal.Zero) {
		return *row.TotalWithTax, true
	}
	if row.TotalWithoutTax != nil && row.TotalWithoutTax.GreaterThan(decimal.Zero) {
		return *row.TotalWithoutTax, true
	}
	return decimal.Zero, false
}

func isRowLevelError(err error) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return true
	}
	return errors.Is(err, shared.ErrNotFound)
}

func rowErrorCode(err error) string {
	if errors.Is(err, shared.ErrNotFound) {
		return csvimport.ErrCodeUnknownRef
	}
	return csvimport.ErrCodeRowFailed
}

// ===================== CSV decoding =====================

// legacy export date layouts, tried in order
var legacyDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
}

// ParseObligationCSV decodes the legacy obligation export into rows.
// Malformed fields reject the row, never the file.
func ParseObligationCSV(r io.Reader) ([]LegacyObligationRow, []csvimport.RowError, error) {
	parser, err := csvimport.NewParser(r)
	if err != nil {
		return nil, nil, err
	}
	if missing := parser.MissingHeaders([]string{"legacy_id", "concept"}); len(missing) > 0 {
		return nil, nil, shared.NewDomainError("VALIDATION_ERROR", "CSV is missing required columns: "+strings.Join(missing, ", "))
	}

	raw, err := parser.ReadAllRows()
	if err != nil {
		return nil, nil, err
	}

	var rows []LegacyObligationRow
	var rowErrors []csvimport.RowError
	for _, rec := range raw {
		row := LegacyObligationRow{
			LegacyID:        rec.Get("legacy_id"),
			Concept:         rec.Get("concept"),
			CounterpartName: rec.Get("counterpart_name"),
			AuthorizedName:  rec.Get("authorized_by"),
			Notes:           rec.Get("notes"),
			Line:            rec.LineNumber,
		}

		withTax, badTax := parseOptionalDecimalField(rec, "total_with_tax", &rowErrors)
		withoutTax, badNoTax := parseOptionalDecimalField(rec, "total_without_tax", &rowErrors)
		paid, badPaid := parseOptionalDecimalField(rec, "paid_amount", &rowErrors)
		due, badDue := parseOptionalDateField(rec, "due_date", &rowErrors)
		if badTax || badNoTax || badPaid || badDue {
			continue
		}
		row.TotalWithTax = withTax
		row.TotalWithoutTax = withoutTax
		row.PaidAmount = paid
		row.DueDate = due
		row.Authorized = parseBool(rec.Get("authorized"))

		rows = append(rows, row)
	}

	return rows, rowErrors, nil
}

// ParsePaymentCSV decodes the legacy payment export into rows
func ParsePaymentCSV(r io.Reader) ([]LegacyPaymentRow, []csvimport.RowError, error) {
	parser, err := csvimport.NewParser(r)
	if err != nil {
		return nil, nil, err
	}
	if missing := parser.MissingHeaders([]string{"legacy_id", "obligation_legacy_id", "amount", "payment_date"}); len(missing) > 0 {
		return nil, nil, shared.NewDomainError("VALIDATION_ERROR", "CSV is missing required columns: "+strings.Join(missing, ", "))
	}

	raw, err := parser.ReadAllRows()
	if err != nil {
		return nil, nil, err
	}

	var rows []LegacyPaymentRow
	var rowErrors []csvimport.RowError
	for _, rec := range raw {
		amount, err := decimal.NewFromString(rec.Get("amount"))
		if err != nil {
			rowErrors = append(rowErrors, csvimport.NewRowErrorWithValue(rec.LineNumber, "amount", csvimport.ErrCodeInvalidFormat, "amount is not a decimal", rec.Get("amount")))
			continue
		}
		paymentDate, ok := parseLegacyDate(rec.Get("payment_date"))
		if !ok {
			rowErrors = append(rowErrors, csvimport.NewRowErrorWithValue(rec.LineNumber, "payment_date", csvimport.ErrCodeInvalidFormat, "payment date is not a recognized date", rec.Get("payment_date")))
			continue
		}

		rows = append(rows, LegacyPaymentRow{
			LegacyID:           rec.Get("legacy_id"),
			ObligationLegacyID: rec.Get("obligation_legacy_id"),
			Amount:             amount,
			PaymentDate:        paymentDate,
			Method:             parseLegacyMethod(rec.Get("method")),
			Reference:          rec.Get("reference"),
			Notes:              rec.Get("notes"),
			Line:               rec.LineNumber,
		})
	}

	return rows, rowErrors, nil
}

func parseOptionalDecimalField(rec *csvimport.Row, column string, rowErrors *[]csvimport.RowError) (*decimal.Decimal, bool) {
	value := rec.Get(column)
	if value == "" {
		return nil, false
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		*rowErrors = append(*rowErrors, csvimport.NewRowErrorWithValue(rec.LineNumber, column, csvimport.ErrCodeInvalidFormat, column+" is not a decimal", value))
		return nil, true
	}
	return &d, false
}

func parseOptionalDateField(rec *csvimport.Row, column string, rowErrors *[]csvimport.RowError) (*time.Time, bool) {
	value := rec.Get(column)
	if value == "" {
		return nil, false
	}
	t, ok := parseLegacyDate(value)
	if !ok {
		*rowErrors = append(*rowErrors, csvimport.NewRowErrorWithValue(rec.LineNumber, column, csvimport.ErrCodeInvalidFormat, column+" is not a recognized date", value))
		return nil, true
	}
	return &t, false
}

func parseLegacyDate(value string) (time.Time, bool) {
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "si", "sí":
		return true
	}
	return false
}

// parseLegacyMethod maps the legacy export's payment method labels, both
// English and Spanish, onto the enum. Unknown labels become OTHER.
func parseLegacyMethod(value string) ledger.PaymentMethod {
	switch strings.ToLower(value) {
	case "transfer", "transferencia", "spei":
		return ledger.MethodTransfer
	case "cash", "efectivo":
		return ledger.MethodCash
	case "check", "cheque":
		return ledger.MethodCheck
	case "card", "tarjeta":
		return ledger.MethodCard
	case "wire":
		return ledger.MethodWire
	default:
		return ledger.MethodOther
	}
}
