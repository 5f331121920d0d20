package handler

import (
	"net/http"
	"time"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ObligationHandler handles obligation and payment complement API endpoints
type ObligationHandler struct {
	BaseHandler
	service *ledgerapp.LedgerService
}

// NewObligationHandler creates a new ObligationHandler
func NewObligationHandler(service *ledgerapp.LedgerService) *ObligationHandler {
	return &ObligationHandler{
		service: service,
	}
}

// ===================== Request/Response DTOs =====================

// CreateObligationRequest represents a request to create an obligation
//
//	@Description	Create obligation request
type CreateObligationRequest struct {
	Kind            string  `json:"kind" binding:"required,oneof=AP AR" example:"AP"`
	Concept         string  `json:"concept" binding:"required,max=500" example:"Office rent January"`
	TotalAmount     float64 `json:"total_amount" binding:"required,gt=0" example:"15000.00"`
	DueDate         string  `json:"due_date" example:"2026-02-15"`
	CounterpartID   string  `json:"counterpart_id" binding:"omitempty,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	CounterpartName string  `json:"counterpart_name" binding:"max=255" example:"Inmobiliaria del Centro"`
	Notes           string  `json:"notes" binding:"max=2000"`
}

// UpdateObligationRequest represents a partial update of obligation details.
// Amounts are immutable after creation and deliberately absent here.
//
//	@Description	Update obligation details request
type UpdateObligationRequest struct {
	Concept *string `json:"concept,omitempty" binding:"omitempty,max=500"`
	Notes   *string `json:"notes,omitempty" binding:"omitempty,max=2000"`
	DueDate *string `json:"due_date,omitempty" example:"2026-03-01"`
}

// AuthorizeObligationRequest carries the optional display name of the signer
//
//	@Description	Authorize obligation request
type AuthorizeObligationRequest struct {
	SignerName string `json:"signer_name" binding:"max=255" example:"Maria Lopez"`
}

// CancelObligationRequest represents a request to cancel an obligation
//
//	@Description	Cancel obligation request
type CancelObligationRequest struct {
	Reason string `json:"reason" binding:"required,max=500" example:"Duplicate invoice"`
}

// RecordPaymentRequest represents a request to record a payment complement
//
//	@Description	Record payment complement request
type RecordPaymentRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0" example:"5000.00"`
	PaymentDate string  `json:"payment_date" binding:"required" example:"2026-01-20"`
	Method      string  `json:"method" binding:"required,oneof=TRANSFER CASH CHECK CARD WIRE OTHER" example:"TRANSFER"`
	Reference   string  `json:"reference" binding:"max=255" example:"SPEI-8842190"`
	Notes       string  `json:"notes" binding:"max=2000"`
}

// ObligationListQuery represents filter parameters for obligation list
//
//	@Description	Obligation list filter
type ObligationListQuery struct {
	Search        string   `form:"search"`
	Kind          string   `form:"kind" binding:"omitempty,oneof=AP AR"`
	Status        string   `form:"status" binding:"omitempty,oneof=PENDING PARTIAL PAID OVERDUE CANCELLED"`
	CounterpartID string   `form:"counterpart_id" binding:"omitempty,uuid"`
	Authorized    *bool    `form:"authorized"`
	FromDate      string   `form:"from_date"`
	ToDate        string   `form:"to_date"`
	DueFrom       string   `form:"due_from"`
	DueTo         string   `form:"due_to"`
	Overdue       *bool    `form:"overdue"`
	MinAmount     *float64 `form:"min_amount" binding:"omitempty,gte=0"`
	MaxAmount     *float64 `form:"max_amount" binding:"omitempty,gte=0"`
	SortBy        string   `form:"sort_by"`
	SortOrder     string   `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page          int      `form:"page,omitempty" binding:"omitempty,min=1" example:"1"`
	PageSize      int      `form:"page_size,omitempty" binding:"omitempty,min=1,max=100" example:"20"`
}

// ===================== Obligation Handlers =====================

// ListObligations godoc
// @ID           listObligations
//
//	@Summary		List obligations
//	@Description	Get a paginated list of obligations with read-time overdue derivation
//	@Tags			obligations
//	@Produce		json
//	@Param			search			query		string	false	"Search in concept, counterpart name, notes"
//	@Param			kind			query		string	false	"Filter by kind"	Enums(AP, AR)
//	@Param			status			query		string	false	"Filter by status"	Enums(PENDING, PARTIAL, PAID, OVERDUE, CANCELLED)
//	@Param			counterpart_id	query		string	false	"Filter by counterpart"
//	@Param			authorized		query		bool	false	"Filter by authorization state"
//	@Param			overdue			query		bool	false	"Only overdue obligations"
//	@Param			from_date		query		string	false	"Created from date (YYYY-MM-DD)"
//	@Param			to_date			query		string	false	"Created to date (YYYY-MM-DD)"
//	@Param			due_from		query		string	false	"Due from date (YYYY-MM-DD)"
//	@Param			due_to			query		string	false	"Due to date (YYYY-MM-DD)"
//	@Param			min_amount		query		number	false	"Minimum total amount"
//	@Param			max_amount		query		number	false	"Maximum total amount"
//	@Param			sort_by			query		string	false	"Sort column (whitelisted, defaults to created_at)"
//	@Param			sort_order		query		string	false	"Sort direction"	Enums(asc, desc)
//	@Param			page			query		int		false	"Page number"	default(1)
//	@Param			page_size		query		int		false	"Page size"		default(20)
//	@Success		200				{object}	APIResponse[[]ledgerapp.ObligationResponse]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/obligations [get]
func (h *ObligationHandler) ListObligations(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	var query ObligationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	// Set defaults
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	filter := ledgerapp.ObligationListFilter{
		Search:     query.Search,
		Kind:       query.Kind,
		Status:     query.Status,
		Authorized: query.Authorized,
		Overdue:    query.Overdue,
		SortBy:     query.SortBy,
		SortOrder:  query.SortOrder,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	if query.CounterpartID != "" {
		id, err := uuid.Parse(query.CounterpartID)
		if err != nil {
			h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid counterpart ID")
			return
		}
		filter.CounterpartID = &id
	}
	filter.FromDate = parseQueryDate(query.FromDate, false)
	filter.ToDate = parseQueryDate(query.ToDate, true)
	filter.DueFrom = parseQueryDate(query.DueFrom, false)
	filter.DueTo = parseQueryDate(query.DueTo, true)
	if query.MinAmount != nil {
		filter.MinAmount = toDecimalPtr(*query.MinAmount)
	}
	if query.MaxAmount != nil {
		filter.MaxAmount = toDecimalPtr(*query.MaxAmount)
	}

	obligations, total, err := h.service.ListObligations(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, obligations, total, query.Page, query.PageSize)
}

// GetObligation godoc
// @ID           getObligation
//
//	@Summary		Get obligation by ID
//	@Description	Get a single obligation; its status is re-derived at read time
//	@Tags			obligations
//	@Produce		json
//	@Param			id	path		string	true	"Obligation ID"
//	@Success		200	{object}	APIResponse[ledgerapp.ObligationResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/obligations/{id} [get]
func (h *ObligationHandler) GetObligation(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	obligationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid obligation ID")
		return
	}

	obligation, err := h.service.GetObligation(c.Request.Context(), tenantID, obligationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, obligation)
}

// CreateObligation godoc
// @ID           createObligation
//
//	@Summary		Create obligation
//	@Description	Create a new payable (AP) or receivable (AR) obligation
//	@Tags			obligations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateObligationRequest	true	"Obligation creation request"
//	@Success		201		{object}	APIResponse[ledgerapp.ObligationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/obligations [post]
func (h *ObligationHandler) CreateObligation(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	var req CreateObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	serviceReq := ledgerapp.CreateObligationRequest{
		Kind:            ledger.ObligationKind(req.Kind),
		Concept:         req.Concept,
		TotalAmount:     toDecimal(req.TotalAmount),
		CounterpartName: req.CounterpartName,
		Notes:           req.Notes,
	}
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "due_date must be YYYY-MM-DD")
			return
		}
		serviceReq.DueDate = &due
	}
	if req.CounterpartID != "" {
		id, err := uuid.Parse(req.CounterpartID)
		if err != nil {
			h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid counterpart ID")
			return
		}
		serviceReq.CounterpartID = &id
	}

	obligation, err := h.service.CreateObligation(c.Request.Context(), tenantID, serviceReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, obligation)
}

// UpdateObligation godoc
// @ID           updateObligation
//
//	@Summary		Update obligation details
//	@Description	Update the mutable detail fields of an obligation; amounts cannot change
//	@Tags			obligations
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Obligation ID"
//	@Param			request	body		UpdateObligationRequest	true	"Detail update request"
//	@Success		200		{object}	APIResponse[ledgerapp.ObligationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/obligations/{id} [patch]
func (h *ObligationHandler) UpdateObligation(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	obligationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid obligation ID")
		return
	}

	var req UpdateObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	serviceReq := ledgerapp.UpdateObligationDetailsRequest{
		Concept: req.Concept,
		Notes:   req.Notes,
	}
	if req.DueDate != nil {
		due, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "due_date must be YYYY-MM-DD")
			return
		}
		serviceReq.DueDate = &due
	}

	obligation, err := h.service.UpdateObligationDetails(c.Request.Context(), tenantID, obligationID, serviceReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, obligation)
}

// AuthorizeObligation godoc
// @ID           authorizeObligation
//
//	@Summary		Authorize obligation for payment
//	@Description	Sign off a payable so payments can be recorded against it. Idempotent.
//	@Tags			obligations
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Obligation ID"
//	@Param			request	body		AuthorizeObligationRequest	false	"Signer display name"
//	@Success		200		{object}	APIResponse[ledgerapp.ObligationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/obligations/{id}/authorize [post]
func (h *ObligationHandler) AuthorizeObligation(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	userID, err := getUserID(c)
	if err != nil || userID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid user")
		return
	}

	obligationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid obligation ID")
		return
	}

	var req AuthorizeObligationRequest
	c.ShouldBindJSON(&req) // Ignore error, signer name is optional

	obligation, err := h.service.AuthorizeObligation(c.Request.Context(), tenantID, obligationID, userID, req.SignerName)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, obligation)
}

// CancelObligation godoc
// @ID           cancelObligation
//
//	@Summary		Cancel obligation
//	@Description	Soft-cancel an obligation; its payment history remains readable
//	@Tags			obligations
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Obligation ID"
//	@Param			request	body		CancelObligationRequest	true	"Cancel reason"
//	@Success		200		{object}	APIResponse[ledgerapp.ObligationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/obligations/{id}/cancel [post]
func (h *ObligationHandler) CancelObligation(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	obligationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid obligation ID")
		return
	}

	var req CancelObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	obligation, err := h.service.CancelObligation(c.Request.Context(), tenantID, obligationID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, obligation)
}

// ===================== Payment Complement Handlers =====================

// RecordPayment godoc
// @ID           recordObligationPayment
//
//	@Summary		Record payment complement
//	@Description	Record a payment against an obligation; overpayment and unauthorized payables are rejected. Returns the created complement and the obligation's updated balances.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Obligation ID"
//	@Param			request	body		RecordPaymentRequest	true	"Payment complement request"
//	@Success		201		{object}	APIResponse[ledgerapp.RecordPaymentResult]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/obligations/{id}/payments [post]
func (h *ObligationHandler) RecordPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	obligationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid obligation ID")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	paymentDate, err := time.Parse("2006-01-02", req.PaymentDate)
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "payment_date must be YYYY-MM-DD")
		return
	}

	result, err := h.service.RecordPayment(c.Request.Context(), tenantID, ledgerapp.RecordPaymentRequest{
		ObligationID: obligationID,
		Amount:       toDecimal(req.Amount),
		PaymentDate:  paymentDate,
		Method:       ledger.PaymentMethod(req.Method),
		Reference:    req.Reference,
		Notes:        req.Notes,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// ListPayments godoc
// @ID           listObligationPayments
//
//	@Summary		List payment complements of an obligation
//	@Description	Get the append-only payment complement log of an obligation
//	@Tags			payments
//	@Produce		json
//	@Param			id	path		string	true	"Obligation ID"
//	@Success		200	{object}	APIResponse[[]ledgerapp.PaymentComplementResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/obligations/{id}/payments [get]
func (h *ObligationHandler) ListPayments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	obligationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid obligation ID")
		return
	}

	complements, err := h.service.ListPaymentComplements(c.Request.Context(), tenantID, obligationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, complements)
}

// ListCounterpartPayments godoc
// @ID           listCounterpartPayments
//
//	@Summary		List payment complements by counterpart
//	@Description	Get all payment complements applied against a counterpart's obligations
//	@Tags			payments
//	@Produce		json
//	@Param			id	path		string	true	"Counterpart ID"
//	@Success		200	{object}	APIResponse[[]ledgerapp.PaymentComplementResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/counterparts/{id}/payments [get]
func (h *ObligationHandler) ListCounterpartPayments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	counterpartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid counterpart ID")
		return
	}

	complements, err := h.service.ListPaymentComplementsByCounterpart(c.Request.Context(), tenantID, counterpartID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, complements)
}

// ===================== Summary =====================

// GetLedgerSummary godoc
// @ID           getLedgerSummary
//
//	@Summary		Get ledger summary
//	@Description	Get outstanding and overdue totals plus status counts for one side of the ledger
//	@Tags			obligations
//	@Produce		json
//	@Param			kind	query		string	true	"Ledger side"	Enums(AP, AR)
//	@Success		200		{object}	APIResponse[ledgerapp.LedgerSummary]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/obligations/summary [get]
func (h *ObligationHandler) GetLedgerSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	kind := ledger.ObligationKind(c.Query("kind"))
	summary, err := h.service.GetLedgerSummary(c.Request.Context(), tenantID, kind)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// ===================== Helper Functions =====================

// parseQueryDate parses a YYYY-MM-DD query value. Invalid values are ignored
// so a bad optional filter does not fail the whole request. When endOfDay is
// set the time is pushed to the last second of the day for inclusive ranges.
func parseQueryDate(value string, endOfDay bool) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t
}

// RegisterRoutes registers all obligation and payment routes
func (h *ObligationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	obligations := rg.Group("/obligations")
	{
		obligations.GET("", h.ListObligations)
		obligations.GET("/summary", h.GetLedgerSummary)
		obligations.GET("/:id", h.GetObligation)
		obligations.POST("", h.CreateObligation)
		obligations.PATCH("/:id", h.UpdateObligation)
		obligations.POST("/:id/authorize", h.AuthorizeObligation)
		obligations.POST("/:id/cancel", h.CancelObligation)
		obligations.POST("/:id/payments", h.RecordPayment)
		obligations.GET("/:id/payments", h.ListPayments)
	}

	rg.GET("/counterparts/:id/payments", h.ListCounterpartPayments)
}
