package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tally/backend/internal/domain/ledger"
)

// CreateAccountRequest is the payload for creating an account
type CreateAccountRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=120"`
	Phone   string `json:"phone" binding:"omitempty,max=40"`
	Email   string `json:"email" binding:"omitempty,email"`
	Address string `json:"address" binding:"omitempty,max=250"`
}

// AccountResponse is the API shape of an account
type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone,omitempty"`
	Email     string          `json:"email,omitempty"`
	Address   string          `json:"address,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to its API shape
func AccountFromDomain(a *ledger.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID.String(),
		Name:      a.Name,
		Phone:     a.Phone,
		Email:     a.Email,
		Address:   a.Address,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts a slice of domain accounts
func AccountsFromDomain(accounts []ledger.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = AccountFromDomain(&accounts[i])
	}
	return out
}

// ListAccountsRequest holds the query parameters for account listing.
// A non-empty search ignores offset and page size and returns the full
// ranked match set.
type ListAccountsRequest struct {
	Offset   int    `form:"offset" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Sort     string `form:"sort" binding:"omitempty,oneof=NAME_ASC NAME_DESC BALANCE_HIGH_TO_LOW BALANCE_LOW_TO_HIGH RECENTLY_ADDED"`
	Search   string `form:"search"`
}

// ListTransactionsRequest holds the query parameters for listing one
// account's transactions. SortField and Order are whitelisted downstream;
// unknown values fall back to occurrence order, newest first.
type ListTransactionsRequest struct {
	Offset    int    `form:"offset" binding:"min=0"`
	PageSize  int    `form:"page_size" binding:"min=0,max=100"`
	SortField string `form:"sort_field"`
	Order     string `form:"order"`
}

// InsertTransactionRequest is the payload for recording a transaction
type InsertTransactionRequest struct {
	AccountID   string          `json:"account_id" binding:"required,uuid"`
	Direction   string          `json:"direction" binding:"required,oneof=CREDIT DEBIT"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"omitempty,max=500"`
	OccurredAt  *time.Time      `json:"occurred_at"`
}

// UpdateTransactionRequest is the payload for rewriting a transaction
type UpdateTransactionRequest struct {
	Direction   string          `json:"direction" binding:"required,oneof=CREDIT DEBIT"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"omitempty,max=500"`
	OccurredAt  *time.Time      `json:"occurred_at"`
}

// TransactionResponse is the API shape of a logged transaction
type TransactionResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Direction   string          `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction to its API shape
func TransactionFromDomain(t *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID.String(),
		AccountID:   t.AccountID.String(),
		Direction:   t.Direction.String(),
		Amount:      t.Amount,
		Description: t.Description,
		OccurredAt:  t.OccurredAt,
		CreatedAt:   t.CreatedAt,
	}
}

// TransactionsFromDomain converts a slice of domain transactions
func TransactionsFromDomain(txs []ledger.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txs))
	for i := range txs {
		out[i] = TransactionFromDomain(&txs[i])
	}
	return out
}

// BalanceResponse carries one account's cached balance
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// TotalsResponse is the aggregate position across the whole ledger
type TotalsResponse struct {
	OwedToMe decimal.Decimal `json:"owed_to_me"`
	IOwe     decimal.Decimal `json:"i_owe"`
	Net      decimal.Decimal `json:"net"`
}

// VerifyResponse reports the outcome of a consistency sweep
type VerifyResponse struct {
	Repaired int `json:"repaired"`
}
