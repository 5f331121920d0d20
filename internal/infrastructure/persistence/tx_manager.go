package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormTxManager implements ledger.TxManager over a GORM connection.
// Each InTx call opens one database transaction and hands the callback
// repositories bound to it.
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new GormTxManager
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// InTx runs fn inside a single transaction. Returning an error rolls back.
func (m *GormTxManager) InTx(ctx context.Context, fn func(repos ledger.LedgerRepositories) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ledger.LedgerRepositories{
			Obligations: NewGormObligationRepository(tx),
			Complements: NewGormPaymentComplementRepository(tx),
		})
	})
}

// Ensure GormTxManager implements TxManager
var _ ledger.TxManager = (*GormTxManager)(nil)
