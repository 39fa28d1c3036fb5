package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tally/backend/internal/domain/ledger"
)

// AccountModel is the persistence model for ledger accounts
type AccountModel struct {
	BaseModel
	Name    string          `gorm:"not null;index"`
	Phone   string          `gorm:"index"`
	Email   string          `gorm:"index"`
	Address string          ``
	Balance decimal.Decimal `gorm:"type:decimal(20,4);not null;index"`
}

// TableName returns the table name for AccountModel
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts AccountModel to a domain Account
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Phone:      m.Phone,
		Email:      m.Email,
		Address:    m.Address,
		Balance:    m.Balance,
	}
}

// AccountModelFromDomain converts a domain Account to its persistence model
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{
		Name:    a.Name,
		Phone:   a.Phone,
		Email:   a.Email,
		Address: a.Address,
		Balance: a.Balance,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// TransactionModel is the persistence model for ledger transactions
type TransactionModel struct {
	BaseModel
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Direction   string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Description string          ``
	OccurredAt  time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for TransactionModel
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts TransactionModel to a domain Transaction
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	return &ledger.Transaction{
		BaseEntity:  m.BaseModel.ToDomain(),
		AccountID:   m.AccountID,
		Direction:   ledger.Direction(m.Direction),
		Amount:      m.Amount,
		Description: m.Description,
		OccurredAt:  m.OccurredAt,
	}
}

// TransactionModelFromDomain converts a domain Transaction to its persistence model
func TransactionModelFromDomain(t *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{
		AccountID:   t.AccountID,
		Direction:   t.Direction.String(),
		Amount:      t.Amount,
		Description: t.Description,
		OccurredAt:  t.OccurredAt,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}
