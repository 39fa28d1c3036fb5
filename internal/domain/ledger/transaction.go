package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tally/backend/internal/domain/shared"
)

// Direction represents the direction of a ledger transaction
type Direction string

const (
	// DirectionCredit increases the account balance (the account owes the ledger owner more)
	DirectionCredit Direction = "CREDIT"
	// DirectionDebit decreases the account balance
	DirectionDebit Direction = "DEBIT"
)

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// IsValid returns true if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// Transaction represents one signed monetary entry in an account's log.
// Amount is always positive; the sign is carried by Direction.
type Transaction struct {
	shared.BaseEntity
	AccountID   uuid.UUID
	Direction   Direction
	Amount      decimal.Decimal
	Description string
	OccurredAt  time.Time
}

// NewTransaction creates a new transaction for an account
func NewTransaction(accountID uuid.UUID, direction Direction, amount decimal.Decimal, description string) (*Transaction, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Transaction direction must be CREDIT or DEBIT")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}

	return &Transaction{
		BaseEntity:  shared.NewBaseEntity(),
		AccountID:   accountID,
		Direction:   direction,
		Amount:      amount,
		Description: description,
		OccurredAt:  time.Now(),
	}, nil
}

// WithOccurredAt sets the occurrence timestamp
func (t *Transaction) WithOccurredAt(occurredAt time.Time) *Transaction {
	t.OccurredAt = occurredAt
	return t
}

// SignedAmount returns the amount with sign applied:
// positive for credits, negative for debits.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Direction == DirectionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
