package handler

import (
	"net/http"
	"testing"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const obligationCSV = `legacy_id,concept,counterpart_name,total_with_tax,total_without_tax,paid_amount,due_date,authorized,authorized_by,notes
F-001,Office rent,Inmobiliaria del Centro,11600.00,10000.00,0,2026-09-30,si,Maria Lopez,
F-002,Cleaning service,Limpiezas MX,2320.00,2000.00,,2026-10-15,,,
F-003,No amount row,Proveedor X,,,,,,,`

const paymentCSV = `legacy_id,obligation_legacy_id,amount,payment_date,method,reference,notes
P-001,F-001,5000.00,2026-08-01,transferencia,SPEI-1,
P-002,F-001,1600.00,2026-08-10,efectivo,,
P-003,F-404,100.00,2026-08-11,transfer,,`

func TestImportObligations(t *testing.T) {
	env := setupHandlerEnv(t)

	t.Run("imports legacy obligations", func(t *testing.T) {
		w := env.doUpload(t, "/api/v1/import/obligations?kind=AP", "obligations.csv", obligationCSV)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result ObligationImportResponse
		decodeData(t, w, &result)
		assert.Equal(t, 2, result.Created)
		assert.Equal(t, 0, result.Updated)
		assert.Equal(t, 1, result.Skipped)

		list := env.doJSON(t, http.MethodGet, "/api/v1/obligations?kind=AP", nil)
		var items []ledgerapp.ObligationResponse
		decodeData(t, list, &items)
		assert.Len(t, items, 2)
	})

	t.Run("re-running the same file is idempotent", func(t *testing.T) {
		w := env.doUpload(t, "/api/v1/import/obligations?kind=AP", "obligations.csv", obligationCSV)
		require.Equal(t, http.StatusOK, w.Code)

		var result ObligationImportResponse
		decodeData(t, w, &result)
		assert.Equal(t, 0, result.Created)
	})

	t.Run("rejects missing kind", func(t *testing.T) {
		w := env.doUpload(t, "/api/v1/import/obligations", "obligations.csv", obligationCSV)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects file with missing required columns", func(t *testing.T) {
		w := env.doUpload(t, "/api/v1/import/obligations?kind=AP", "bad.csv", "foo,bar\n1,2")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "missing required columns")
	})

	t.Run("rejects empty file", func(t *testing.T) {
		w := env.doUpload(t, "/api/v1/import/obligations?kind=AP", "empty.csv", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestImportPayments(t *testing.T) {
	env := setupHandlerEnv(t)

	obligations := env.doUpload(t, "/api/v1/import/obligations?kind=AP", "obligations.csv", obligationCSV)
	require.Equal(t, http.StatusOK, obligations.Code, obligations.Body.String())

	t.Run("replays legacy payments against imported obligations", func(t *testing.T) {
		w := env.doUpload(t, "/api/v1/import/payments", "payments.csv", paymentCSV)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result PaymentImportResponse
		decodeData(t, w, &result)
		assert.Equal(t, 2, result.Created)
		// P-003 references an unknown obligation
		assert.NotEmpty(t, result.Errors)
	})

	t.Run("re-running skips already imported payments", func(t *testing.T) {
		w := env.doUpload(t, "/api/v1/import/payments", "payments.csv", paymentCSV)
		require.Equal(t, http.StatusOK, w.Code)

		var result PaymentImportResponse
		decodeData(t, w, &result)
		assert.Equal(t, 0, result.Created)
		// P-001 and P-002 already exist, P-003 still references an unknown obligation
		assert.Equal(t, 3, result.Skipped)
	})
}
