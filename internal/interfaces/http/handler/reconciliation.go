package handler

import (
	"net/http"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReconciliationHandler handles reconciliation API endpoints
type ReconciliationHandler struct {
	BaseHandler
	service *ledgerapp.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(service *ledgerapp.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		service: service,
	}
}

// RunReconciliation godoc
// @ID           runReconciliation
//
//	@Summary		Run balance reconciliation
//	@Description	Re-derive cached obligation balances from the payment complement log for the tenant. Idempotent: a second run with no new payments reports zero corrections.
//	@Tags			reconciliation
//	@Produce		json
//	@Success		200	{object}	APIResponse[ledgerapp.ReconciliationReport]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/reconciliation/run [post]
func (h *ReconciliationHandler) RunReconciliation(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil || tenantID == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid tenant")
		return
	}

	report, err := h.service.Reconcile(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// RegisterRoutes registers reconciliation routes
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reconciliation := rg.Group("/reconciliation")
	{
		reconciliation.POST("/run", h.RunReconciliation)
	}
}
