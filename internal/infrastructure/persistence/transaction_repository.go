package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tally/backend/internal/domain/ledger"
	"github.com/tally/backend/internal/domain/shared"
	"github.com/tally/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTransactionRepository implements ledger.TransactionStore using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// AppendOrReplaceTransaction inserts the record, or replaces it when the ID already exists
func (r *GormTransactionRepository) AppendOrReplaceTransaction(ctx context.Context, tx *ledger.Transaction) error {
	model := models.TransactionModelFromDomain(tx)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

// RemoveTransaction deletes a transaction record by ID
func (r *GormTransactionRepository) RemoveTransaction(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.TransactionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindTransactionByID finds a transaction by its ID
func (r *GormTransactionRepository) FindTransactionByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListTransactionsForAccount lists one window of an account's transactions,
// most recent occurrence first unless the options say otherwise
func (r *GormTransactionRepository) ListTransactionsForAccount(ctx context.Context, accountID uuid.UUID, opts ledger.TransactionListOptions) ([]ledger.Transaction, error) {
	query := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order(transactionOrderClause(opts.SortField, opts.SortDir))
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var transactionModels []models.TransactionModel
	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]ledger.Transaction, len(transactionModels))
	for i, model := range transactionModels {
		transactions[i] = *model.ToDomain()
	}
	return transactions, nil
}

// CountTransactionsForAccount returns the number of transactions logged for an account
func (r *GormTransactionRepository) CountTransactionsForAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("account_id = ?", accountID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormTransactionRepository implements ledger.TransactionStore
var _ ledger.TransactionStore = (*GormTransactionRepository)(nil)
