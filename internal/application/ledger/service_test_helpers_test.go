package ledger

import (
	"context"
	"testing"
	"time"

	domainledger "github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testEnv bundles the services under test over one in-memory database
type testEnv struct {
	db          *gorm.DB
	obligations domainledger.ObligationRepository
	complements domainledger.PaymentComplementRepository
	service     *LedgerService
	reconciler  *ReconciliationService
	importer    *LegacyImportService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.ObligationModel{}, &models.PaymentComplementModel{}))

	obligations := persistence.NewGormObligationRepository(db)
	complements := persistence.NewGormPaymentComplementRepository(db)
	txManager := persistence.NewGormTxManager(db)

	return &testEnv{
		db:          db,
		obligations: obligations,
		complements: complements,
		service:     NewLedgerService(obligations, complements, txManager),
		reconciler:  NewReconciliationService(obligations, complements, txManager, nil),
		importer:    NewLegacyImportService(obligations, complements, txManager, nil),
	}
}

// createObligation creates an obligation through the service and returns it
func (e *testEnv) createObligation(t *testing.T, tenantID uuid.UUID, kind domainledger.ObligationKind, total float64, dueDate *time.Time) *ObligationResponse {
	t.Helper()
	resp, err := e.service.CreateObligation(context.Background(), tenantID, CreateObligationRequest{
		Kind:        kind,
		Concept:     "Test obligation",
		TotalAmount: decimal.NewFromFloat(total),
		DueDate:     dueDate,
	})
	require.NoError(t, err)
	return resp
}

// authorize signs off a payable so payments can flow in tests
func (e *testEnv) authorize(t *testing.T, tenantID, id uuid.UUID) {
	t.Helper()
	_, err := e.service.AuthorizeObligation(context.Background(), tenantID, id, uuid.New(), "Approver")
	require.NoError(t, err)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
