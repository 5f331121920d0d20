package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// handlerTestEnv wires the full HTTP stack over an in-memory database
type handlerTestEnv struct {
	router   *gin.Engine
	tenantID uuid.UUID
	userID   uuid.UUID
}

func setupHandlerEnv(t *testing.T) *handlerTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ObligationModel{}, &models.PaymentComplementModel{}))

	obligations := persistence.NewGormObligationRepository(db)
	complements := persistence.NewGormPaymentComplementRepository(db)
	txManager := persistence.NewGormTxManager(db)

	ledgerService := ledgerapp.NewLedgerService(obligations, complements, txManager)
	reconciler := ledgerapp.NewReconciliationService(obligations, complements, txManager, nil)
	importer := ledgerapp.NewLegacyImportService(obligations, complements, txManager, nil)

	router := gin.New()
	api := router.Group("/api/v1")
	NewObligationHandler(ledgerService).RegisterRoutes(api)
	NewReconciliationHandler(reconciler).RegisterRoutes(api)
	NewLedgerImportHandler(importer).RegisterRoutes(api)
	NewSystemHandler().RegisterRoutes(api)

	return &handlerTestEnv{
		router:   router,
		tenantID: uuid.New(),
		userID:   uuid.New(),
	}
}

// doJSON performs a JSON request with the env's tenant and user headers
func (e *handlerTestEnv) doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Tenant-ID", e.tenantID.String())
	req.Header.Set("X-User-ID", e.userID.String())

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// doUpload performs a multipart file upload with the env's identity headers
func (e *handlerTestEnv) doUpload(t *testing.T, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Tenant-ID", e.tenantID.String())
	req.Header.Set("X-User-ID", e.userID.String())

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the "data" payload of a success envelope into dest
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

// createObligation creates an obligation through the API and returns its response
func (e *handlerTestEnv) createObligation(t *testing.T, kind string, total float64) ledgerapp.ObligationResponse {
	t.Helper()

	w := e.doJSON(t, http.MethodPost, "/api/v1/obligations", gin.H{
		"kind":         kind,
		"concept":      "Test obligation",
		"total_amount": total,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp ledgerapp.ObligationResponse
	decodeData(t, w, &resp)
	return resp
}

// authorize signs off a payable through the API
func (e *handlerTestEnv) authorize(t *testing.T, id uuid.UUID) {
	t.Helper()

	w := e.doJSON(t, http.MethodPost, "/api/v1/obligations/"+id.String()+"/authorize", gin.H{
		"signer_name": "Approver",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
