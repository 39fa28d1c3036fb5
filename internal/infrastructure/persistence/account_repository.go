package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tally/backend/internal/domain/ledger"
	"github.com/tally/backend/internal/domain/shared"
	"github.com/tally/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccountRepository implements ledger.AccountStore using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// GetAccount finds an account by its ID
func (r *GormAccountRepository) GetAccount(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveAccount creates or updates an account record
func (r *GormAccountRepository) SaveAccount(ctx context.Context, account *ledger.Account) error {
	model := models.AccountModelFromDomain(account)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

// SetAccountBalance overwrites the stored balance for an account
func (r *GormAccountRepository) SetAccountBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"balance":    balance,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListAccounts lists accounts in the requested order.
// A non-positive Limit returns the full collection.
func (r *GormAccountRepository) ListAccounts(ctx context.Context, opts ledger.ListOptions) ([]ledger.Account, error) {
	var accountModels []models.AccountModel

	query := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Order(accountOrderClause(opts.Sort))

	if opts.Limit > 0 {
		query = query.Offset(opts.Offset).Limit(opts.Limit)
	} else if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	if err := query.Find(&accountModels).Error; err != nil {
		return nil, err
	}

	accounts := make([]ledger.Account, len(accountModels))
	for i, model := range accountModels {
		accounts[i] = *model.ToDomain()
	}
	return accounts, nil
}

// CountAccounts returns the total number of accounts
func (r *GormAccountRepository) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AccountModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormAccountRepository implements ledger.AccountStore
var _ ledger.AccountStore = (*GormAccountRepository)(nil)
