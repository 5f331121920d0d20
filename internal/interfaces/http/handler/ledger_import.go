package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/csvimport"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxImportFileSize limits uploaded legacy export files to 10MB
const maxImportFileSize = 10 * 1024 * 1024

// LedgerImportHandler handles legacy data import API endpoints
type LedgerImportHandler struct {
	BaseHandler
	service *ledgerapp.LegacyImportService
}

// NewLedgerImportHandler creates a new LedgerImportHandler
func NewLedgerImportHandler(service *ledgerapp.LegacyImportService) *LedgerImportHandler {
	return &LedgerImportHandler{
		service: service,
	}
}

// ObligationImportResponse represents the outcome of a legacy obligation import
//
//	@Description	Legacy obligation import result
type ObligationImportResponse struct {
	Created int                  `json:"created" example:"120"`
	Updated int                  `json:"updated" example:"4"`
	Skipped int                  `json:"skipped" example:"2"`
	Errors  []csvimport.RowError `json:"errors,omitempty"`
}

// PaymentImportResponse represents the outcome of a legacy payment import
//
//	@Description	Legacy payment import result
type PaymentImportResponse struct {
	Created int                  `json:"created" example:"85"`
	Skipped int                  `json:"skipped" example:"3"`
	Errors  []csvimport.RowError `json:"errors,omitempty"`
}

// ImportObligations godoc
// @ID           importLegacyObligations
//
//	@Summary		Import legacy obligations from CSV
//	@Description	Upsert obligations exported from the legacy system. Idempotent per legacy id: re-running the same file updates or skips instead of duplicating.
//	@Tags			import
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			kind	query		string	true	"Ledger side"	Enums(AP, AR)
//	@Param			file	formData	file	true	"Legacy obligation CSV export"
//	@Success		200		{object}	APIResponse[ObligationImportResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		415		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/import/obligations [post]
func (h *LedgerImportHandler) ImportObligations(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	kind := ledger.ObligationKind(c.Query("kind"))
	if !kind.IsValid() {
		h.BadRequest(c, "kind must be AP or AR")
		return
	}

	file, ok := h.openImportFile(c)
	if !ok {
		return
	}
	defer file.Close()

	rows, rowErrors, err := ledgerapp.ParseObligationCSV(file)
	if err != nil {
		h.handleFileError(c, err)
		return
	}

	result, err := h.service.ImportLegacyObligations(c.Request.Context(), tenantID, kind, rows)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ObligationImportResponse{
		Created: result.Created,
		Updated: result.Updated,
		Skipped: result.Skipped,
		Errors:  append(rowErrors, result.Errors...),
	})
}

// ImportPayments godoc
// @ID           importLegacyPayments
//
//	@Summary		Import legacy payments from CSV
//	@Description	Load payment complements exported from the legacy system and replay them against imported obligations. Rows already imported are skipped.
//	@Tags			import
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Legacy payment CSV export"
//	@Success		200		{object}	APIResponse[PaymentImportResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		415		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/import/payments [post]
func (h *LedgerImportHandler) ImportPayments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	file, ok := h.openImportFile(c)
	if !ok {
		return
	}
	defer file.Close()

	rows, rowErrors, err := ledgerapp.ParsePaymentCSV(file)
	if err != nil {
		h.handleFileError(c, err)
		return
	}

	result, err := h.service.ImportLegacyPayments(c.Request.Context(), tenantID, rows)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, PaymentImportResponse{
		Created: result.Created,
		Skipped: result.Skipped,
		Errors:  append(rowErrors, result.Errors...),
	})
}

// openImportFile extracts and validates the uploaded CSV file. On failure it
// writes the error response and returns ok=false.
func (h *LedgerImportHandler) openImportFile(c *gin.Context) (multipart.File, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return nil, false
	}

	if header.Size > maxImportFileSize {
		file.Close()
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeValidation, "file exceeds maximum size of 10MB")
		return nil, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != "text/csv" && contentType != "application/octet-stream" &&
		contentType != "text/plain" && contentType != "application/vnd.ms-excel" {
		file.Close()
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeValidation, "file must be a CSV file")
		return nil, false
	}

	return file, true
}

// handleFileError maps file-level CSV errors to HTTP responses
func (h *LedgerImportHandler) handleFileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, csvimport.ErrEmptyFile):
		h.BadRequest(c, "CSV file is empty")
	case errors.Is(err, csvimport.ErrInvalidEncoding):
		h.BadRequest(c, "CSV file has invalid encoding, must be UTF-8")
	case errors.Is(err, csvimport.ErrMissingHeader):
		h.BadRequest(c, "CSV file is missing header row")
	default:
		h.HandleDomainError(c, err)
	}
}

// RegisterRoutes registers all legacy import routes
func (h *LedgerImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/import")
	{
		imports.POST("/obligations", h.ImportObligations)
		imports.POST("/payments", h.ImportPayments)
	}
}
