package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateObligation(t *testing.T) {
	env := setupHandlerEnv(t)

	t.Run("creates a payable", func(t *testing.T) {
		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations", gin.H{
			"kind":             "AP",
			"concept":          "Office rent January",
			"total_amount":     15000.00,
			"due_date":         time.Now().Add(30 * 24 * time.Hour).Format("2006-01-02"),
			"counterpart_name": "Inmobiliaria del Centro",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp ledgerapp.ObligationResponse
		decodeData(t, w, &resp)
		assert.Equal(t, "AP", resp.Kind)
		assert.Equal(t, "PENDING", resp.Status)
		assert.True(t, resp.TotalAmount.Equal(resp.RemainingAmount))
		assert.True(t, resp.PaidAmount.IsZero())
		assert.False(t, resp.Authorized)
		assert.False(t, resp.DueDateInferred)
	})

	t.Run("rejects missing concept", func(t *testing.T) {
		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations", gin.H{
			"kind":         "AP",
			"total_amount": 100.00,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations", gin.H{
			"kind":         "XX",
			"concept":      "Bad kind",
			"total_amount": 100.00,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations", gin.H{
			"kind":         "AR",
			"concept":      "Zero amount",
			"total_amount": 0,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects request without tenant identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/obligations", nil)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetObligation(t *testing.T) {
	env := setupHandlerEnv(t)
	created := env.createObligation(t, "AR", 2500)

	t.Run("returns the obligation", func(t *testing.T) {
		w := env.doJSON(t, http.MethodGet, "/api/v1/obligations/"+created.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp ledgerapp.ObligationResponse
		decodeData(t, w, &resp)
		assert.Equal(t, created.ID, resp.ID)
	})

	t.Run("404 for unknown id", func(t *testing.T) {
		w := env.doJSON(t, http.MethodGet, "/api/v1/obligations/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
	})

	t.Run("400 for malformed id", func(t *testing.T) {
		w := env.doJSON(t, http.MethodGet, "/api/v1/obligations/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListObligations(t *testing.T) {
	env := setupHandlerEnv(t)
	env.createObligation(t, "AP", 1000)
	env.createObligation(t, "AP", 2000)
	env.createObligation(t, "AR", 3000)

	t.Run("lists with pagination meta", func(t *testing.T) {
		w := env.doJSON(t, http.MethodGet, "/api/v1/obligations?page=1&page_size=2", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var envelope struct {
			Success bool `json:"success"`
			Data    []ledgerapp.ObligationResponse
			Meta    struct {
				Total      int64 `json:"total"`
				TotalPages int   `json:"total_pages"`
			} `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		assert.Len(t, envelope.Data, 2)
		assert.Equal(t, int64(3), envelope.Meta.Total)
		assert.Equal(t, 2, envelope.Meta.TotalPages)
	})

	t.Run("filters by kind", func(t *testing.T) {
		w := env.doJSON(t, http.MethodGet, "/api/v1/obligations?kind=AR", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var items []ledgerapp.ObligationResponse
		decodeData(t, w, &items)
		require.Len(t, items, 1)
		assert.Equal(t, "AR", items[0].Kind)
	})

	t.Run("rejects invalid status filter", func(t *testing.T) {
		w := env.doJSON(t, http.MethodGet, "/api/v1/obligations?status=BOGUS", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthorizeObligation(t *testing.T) {
	env := setupHandlerEnv(t)
	created := env.createObligation(t, "AP", 5000)

	t.Run("authorizes a payable", func(t *testing.T) {
		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations/"+created.ID.String()+"/authorize", gin.H{
			"signer_name": "Maria Lopez",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp ledgerapp.ObligationResponse
		decodeData(t, w, &resp)
		assert.True(t, resp.Authorized)
		assert.Equal(t, "Maria Lopez", resp.AuthorizedByName)
		require.NotNil(t, resp.AuthorizedBy)
		assert.Equal(t, env.userID, *resp.AuthorizedBy)
	})

	t.Run("is idempotent", func(t *testing.T) {
		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations/"+created.ID.String()+"/authorize", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRecordPayment(t *testing.T) {
	env := setupHandlerEnv(t)

	t.Run("unauthorized payable rejects payments", func(t *testing.T) {
		payable := env.createObligation(t, "AP", 1000)
		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations/"+payable.ID.String()+"/payments", gin.H{
			"amount":       500.00,
			"payment_date": "2026-08-01",
			"method":       "TRANSFER",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_AUTHORIZATION_REQUIRED")
	})

	t.Run("records a partial payment", func(t *testing.T) {
		payable := env.createObligation(t, "AP", 1000)
		env.authorize(t, payable.ID)

		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations/"+payable.ID.String()+"/payments", gin.H{
			"amount":       400.00,
			"payment_date": "2026-08-01",
			"method":       "TRANSFER",
			"reference":    "SPEI-8842190",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var result ledgerapp.RecordPaymentResult
		decodeData(t, w, &result)
		require.NotNil(t, result.Complement)
		assert.Equal(t, payable.ID, result.Complement.ObligationID)
		assert.Equal(t, "TRANSFER", result.Complement.Method)
		require.NotNil(t, result.Obligation)
		assert.Equal(t, "PARTIAL", result.Obligation.Status)
		assert.Equal(t, "600", result.Obligation.RemainingAmount.String())

		get := env.doJSON(t, http.MethodGet, "/api/v1/obligations/"+payable.ID.String(), nil)
		var after ledgerapp.ObligationResponse
		decodeData(t, get, &after)
		assert.Equal(t, "PARTIAL", after.Status)
		assert.Equal(t, "400", after.PaidAmount.String())
	})

	t.Run("receivables accept payments without authorization", func(t *testing.T) {
		receivable := env.createObligation(t, "AR", 800)
		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations/"+receivable.ID.String()+"/payments", gin.H{
			"amount":       800.00,
			"payment_date": "2026-08-02",
			"method":       "CASH",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		get := env.doJSON(t, http.MethodGet, "/api/v1/obligations/"+receivable.ID.String(), nil)
		var after ledgerapp.ObligationResponse
		decodeData(t, get, &after)
		assert.Equal(t, "PAID", after.Status)
		assert.NotNil(t, after.PaidAt)
	})

	t.Run("overpayment is rejected", func(t *testing.T) {
		receivable := env.createObligation(t, "AR", 100)
		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations/"+receivable.ID.String()+"/payments", gin.H{
			"amount":       150.00,
			"payment_date": "2026-08-02",
			"method":       "TRANSFER",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_OVERPAYMENT")
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		receivable := env.createObligation(t, "AR", 100)
		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations/"+receivable.ID.String()+"/payments", gin.H{
			"amount":       50.00,
			"payment_date": "2026-08-02",
			"method":       "BARTER",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListPayments(t *testing.T) {
	env := setupHandlerEnv(t)
	receivable := env.createObligation(t, "AR", 1000)

	for _, amount := range []float64{200, 300} {
		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations/"+receivable.ID.String()+"/payments", gin.H{
			"amount":       amount,
			"payment_date": "2026-08-10",
			"method":       "TRANSFER",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	t.Run("lists the complement log", func(t *testing.T) {
		w := env.doJSON(t, http.MethodGet, "/api/v1/obligations/"+receivable.ID.String()+"/payments", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var complements []ledgerapp.PaymentComplementResponse
		decodeData(t, w, &complements)
		assert.Len(t, complements, 2)
	})

	t.Run("404 for unknown obligation", func(t *testing.T) {
		w := env.doJSON(t, http.MethodGet, "/api/v1/obligations/"+uuid.NewString()+"/payments", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCancelObligation(t *testing.T) {
	env := setupHandlerEnv(t)

	t.Run("cancels a pending obligation", func(t *testing.T) {
		created := env.createObligation(t, "AP", 700)
		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations/"+created.ID.String()+"/cancel", gin.H{
			"reason": "Duplicate invoice",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp ledgerapp.ObligationResponse
		decodeData(t, w, &resp)
		assert.Equal(t, "CANCELLED", resp.Status)
		assert.Equal(t, "Duplicate invoice", resp.CancelReason)
	})

	t.Run("requires a reason", func(t *testing.T) {
		created := env.createObligation(t, "AP", 700)
		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations/"+created.ID.String()+"/cancel", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects cancelling a paid obligation", func(t *testing.T) {
		receivable := env.createObligation(t, "AR", 100)
		pay := env.doJSON(t, http.MethodPost, "/api/v1/obligations/"+receivable.ID.String()+"/payments", gin.H{
			"amount":       100.00,
			"payment_date": "2026-08-02",
			"method":       "TRANSFER",
		})
		require.Equal(t, http.StatusCreated, pay.Code)

		w := env.doJSON(t, http.MethodPost, "/api/v1/obligations/"+receivable.ID.String()+"/cancel", gin.H{
			"reason": "Too late",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INVALID_STATE")
	})
}

func TestUpdateObligation(t *testing.T) {
	env := setupHandlerEnv(t)
	created := env.createObligation(t, "AP", 900)

	t.Run("updates details", func(t *testing.T) {
		w := env.doJSON(t, http.MethodPatch, "/api/v1/obligations/"+created.ID.String(), gin.H{
			"concept":  "Renegotiated rent",
			"due_date": "2026-12-01",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp ledgerapp.ObligationResponse
		decodeData(t, w, &resp)
		assert.Equal(t, "Renegotiated rent", resp.Concept)
		require.NotNil(t, resp.DueDate)
		assert.Equal(t, "2026-12-01", resp.DueDate.Format("2006-01-02"))
	})

	t.Run("rejects malformed due date", func(t *testing.T) {
		w := env.doJSON(t, http.MethodPatch, "/api/v1/obligations/"+created.ID.String(), gin.H{
			"due_date": "01/12/2026",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetLedgerSummary(t *testing.T) {
	env := setupHandlerEnv(t)
	env.createObligation(t, "AP", 1000)
	env.createObligation(t, "AP", 2000)
	env.createObligation(t, "AR", 500)

	t.Run("summarizes one side of the ledger", func(t *testing.T) {
		w := env.doJSON(t, http.MethodGet, "/api/v1/obligations/summary?kind=AP", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var summary ledgerapp.LedgerSummary
		decodeData(t, w, &summary)
		assert.Equal(t, "AP", summary.Kind)
		assert.Equal(t, "3000", summary.TotalOutstanding.String())
		assert.Equal(t, int64(2), summary.PendingCount)
	})

	t.Run("rejects missing kind", func(t *testing.T) {
		w := env.doJSON(t, http.MethodGet, "/api/v1/obligations/summary", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_VALIDATION")
	})
}

func TestRunReconciliation(t *testing.T) {
	env := setupHandlerEnv(t)
	receivable := env.createObligation(t, "AR", 1000)
	pay := env.doJSON(t, http.MethodPost, "/api/v1/obligations/"+receivable.ID.String()+"/payments", gin.H{
		"amount":       250.00,
		"payment_date": "2026-08-15",
		"method":       "TRANSFER",
	})
	require.Equal(t, http.StatusCreated, pay.Code)

	w := env.doJSON(t, http.MethodPost, "/api/v1/reconciliation/run", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report ledgerapp.ReconciliationReport
	decodeData(t, w, &report)
	assert.Equal(t, env.tenantID, report.TenantID)
	assert.Equal(t, 1, report.Checked)
	assert.Empty(t, report.Corrections)
	assert.Empty(t, report.Anomalies)
}

func TestTenantIsolation(t *testing.T) {
	env := setupHandlerEnv(t)
	created := env.createObligation(t, "AP", 100)

	// Another tenant cannot see the obligation
	other := &handlerTestEnv{router: env.router, tenantID: uuid.New(), userID: uuid.New()}
	w := other.doJSON(t, http.MethodGet, "/api/v1/obligations/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
