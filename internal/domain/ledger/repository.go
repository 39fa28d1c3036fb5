package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SortOrder selects the ordering of account listings
type SortOrder string

const (
	// SortNameAsc orders by name ascending, case-insensitive
	SortNameAsc SortOrder = "NAME_ASC"
	// SortNameDesc orders by name descending, case-insensitive
	SortNameDesc SortOrder = "NAME_DESC"
	// SortBalanceHighToLow orders by live balance, largest first
	SortBalanceHighToLow SortOrder = "BALANCE_HIGH_TO_LOW"
	// SortBalanceLowToHigh orders by live balance, smallest first
	SortBalanceLowToHigh SortOrder = "BALANCE_LOW_TO_HIGH"
	// SortRecentlyAdded orders by reverse insertion order
	SortRecentlyAdded SortOrder = "RECENTLY_ADDED"
)

// String returns the string representation of SortOrder
func (s SortOrder) String() string {
	return string(s)
}

// IsValid returns true if the sort order is valid
func (s SortOrder) IsValid() bool {
	switch s {
	case SortNameAsc, SortNameDesc, SortBalanceHighToLow, SortBalanceLowToHigh, SortRecentlyAdded:
		return true
	}
	return false
}

// ListOptions controls ordering and windowing of account listings.
// A non-positive Limit returns the full collection.
type ListOptions struct {
	Offset int
	Limit  int
	Sort   SortOrder
}

// AccountStore provides single-record persistence for accounts.
// Every method is atomic at the record level; atomicity across records
// (a transaction write paired with a balance write) is the engine's job.
type AccountStore interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	SaveAccount(ctx context.Context, account *Account) error
	SetAccountBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	ListAccounts(ctx context.Context, opts ListOptions) ([]Account, error)
	CountAccounts(ctx context.Context) (int64, error)
}

// TransactionListOptions controls ordering and windowing of one account's
// transaction log. SortField and SortDir carry raw caller input; stores
// whitelist the field and normalize the direction, falling back to
// occurrence order, newest first. A non-positive Limit returns the full log.
type TransactionListOptions struct {
	Offset    int
	Limit     int
	SortField string
	SortDir   string
}

// TransactionStore provides single-record persistence for the transaction log
type TransactionStore interface {
	AppendOrReplaceTransaction(ctx context.Context, tx *Transaction) error
	RemoveTransaction(ctx context.Context, id uuid.UUID) error
	FindTransactionByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactionsForAccount(ctx context.Context, accountID uuid.UUID, opts TransactionListOptions) ([]Transaction, error)
	CountTransactionsForAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// Store combines the account and transaction stores with an atomic scope.
// Atomically runs fn against stores bound to one storage transaction: either
// every write inside fn is persisted or none is.
type Store interface {
	AccountStore
	TransactionStore
	Atomically(ctx context.Context, fn func(accounts AccountStore, transactions TransactionStore) error) error
}
