package persistence

import (
	"context"

	"github.com/tally/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// LedgerStore combines the account and transaction repositories over one
// database and provides the atomic scope the engine uses for compound writes.
type LedgerStore struct {
	*GormAccountRepository
	*GormTransactionRepository
	db *gorm.DB
}

// NewLedgerStore creates a new LedgerStore backed by the given database
func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{
		GormAccountRepository:     NewGormAccountRepository(db),
		GormTransactionRepository: NewGormTransactionRepository(db),
		db:                        db,
	}
}

// Atomically runs fn against stores bound to one database transaction.
// Either every write inside fn is persisted or none is.
func (s *LedgerStore) Atomically(ctx context.Context, fn func(accounts ledger.AccountStore, transactions ledger.TransactionStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormAccountRepository(tx), NewGormTransactionRepository(tx))
	})
}

// Ensure LedgerStore implements ledger.Store
var _ ledger.Store = (*LedgerStore)(nil)
