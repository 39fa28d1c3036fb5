package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tally/backend/internal/domain/shared"
)

// Account represents a party tracked by the ledger. Its Balance is a cached
// aggregate over the account's transaction log; only the ledger engine may
// change it, and only together with the transaction that justifies the change.
type Account struct {
	shared.BaseEntity
	Name    string
	Phone   string
	Email   string
	Address string
	Balance decimal.Decimal
}

// NewAccount creates a new account with a zero balance.
// Accounts are created by host code; the engine only ever adjusts Balance.
func NewAccount(name string) (*Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot be blank")
	}

	return &Account{
		BaseEntity: shared.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		Balance:    decimal.Zero,
	}, nil
}

// WithPhone sets the contact phone number
func (a *Account) WithPhone(phone string) *Account {
	a.Phone = phone
	return a
}

// WithEmail sets the contact email address
func (a *Account) WithEmail(email string) *Account {
	a.Email = strings.ToLower(email)
	return a
}

// WithAddress sets the contact address
func (a *Account) WithAddress(address string) *Account {
	a.Address = address
	return a
}

// IsCreditor reports whether this account owes money to the ledger owner
func (a *Account) IsCreditor() bool {
	return a.Balance.IsPositive()
}

// IsDebtor reports whether the ledger owner owes money to this account
func (a *Account) IsDebtor() bool {
	return a.Balance.IsNegative()
}
