package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tally/backend/internal/domain/ledger"
	"github.com/tally/backend/internal/domain/shared"
	"github.com/tally/backend/internal/infrastructure/lock"
	"go.uber.org/zap"
)

// MutationListener is notified after any committed change to the ledger.
// Listeners must not block; they run on the mutating goroutine.
type MutationListener interface {
	LedgerMutated()
}

// Service is the single writer of account balances. Every mutation takes the
// per-account lock, pairs the log write with the balance write in one storage
// transaction, and notifies subscribed listeners after commit.
type Service struct {
	store ledger.Store
	locks *lock.KeyedMutex
	log   *zap.Logger

	listenerMu sync.RWMutex
	listeners  []MutationListener
}

// NewService creates a new ledger Service
func NewService(store ledger.Store, locks *lock.KeyedMutex, log *zap.Logger) *Service {
	return &Service{
		store: store,
		locks: locks,
		log:   log,
	}
}

// Subscribe registers a listener for committed ledger mutations
func (s *Service) Subscribe(l MutationListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Service) notifyMutation() {
	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	for _, l := range s.listeners {
		l.LedgerMutated()
	}
}

// InsertTransactionRequest carries the input for recording a new transaction.
// A zero OccurredAt defaults to the current time.
type InsertTransactionRequest struct {
	AccountID   uuid.UUID
	Direction   ledger.Direction
	Amount      decimal.Decimal
	Description string
	OccurredAt  time.Time
}

// InsertTransaction appends a transaction to an account's log and moves the
// cached balance by the signed amount. Validation happens before any lock is
// taken or any state is touched; an invalid request leaves the ledger as it was.
func (s *Service) InsertTransaction(ctx context.Context, req InsertTransactionRequest) (uuid.UUID, error) {
	tx, err := ledger.NewTransaction(req.AccountID, req.Direction, req.Amount, req.Description)
	if err != nil {
		return uuid.Nil, err
	}
	if !req.OccurredAt.IsZero() {
		tx.WithOccurredAt(req.OccurredAt)
	}
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	key := req.AccountID.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	account, err := s.store.GetAccount(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return uuid.Nil, fmt.Errorf("failed to load account: %w", err)
	}

	newBalance := account.Balance.Add(tx.SignedAmount())

	// The pair write must not be torn by a caller timeout once it starts.
	mctx := context.WithoutCancel(ctx)
	err = s.store.Atomically(mctx, func(accounts ledger.AccountStore, transactions ledger.TransactionStore) error {
		if err := transactions.AppendOrReplaceTransaction(mctx, tx); err != nil {
			return err
		}
		return accounts.SetAccountBalance(mctx, req.AccountID, newBalance)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	s.log.Debug("Transaction recorded",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("account_id", req.AccountID.String()),
		zap.String("direction", req.Direction.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("balance", newBalance.String()),
	)

	s.notifyMutation()
	return tx.ID, nil
}

// UpdateTransactionRequest carries the replacement values for an existing
// transaction. The transaction keeps its identity and account.
type UpdateTransactionRequest struct {
	ID          uuid.UUID
	Direction   ledger.Direction
	Amount      decimal.Decimal
	Description string
	OccurredAt  time.Time
}

// UpdateTransaction replaces a logged transaction in place and shifts the
// cached balance by the delta between the new and old signed amounts.
func (s *Service) UpdateTransaction(ctx context.Context, req UpdateTransactionRequest) error {
	if req.ID == uuid.Nil {
		return shared.NewDomainError("INVALID_TRANSACTION", "Transaction ID cannot be empty")
	}
	if !req.Direction.IsValid() {
		return shared.NewDomainError("INVALID_DIRECTION", "Transaction direction must be CREDIT or DEBIT")
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}

	// Resolve the owning account before locking; the lock key is the account.
	existing, err := s.store.FindTransactionByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("TRANSACTION_NOT_FOUND", "Transaction not found")
		}
		return fmt.Errorf("failed to load transaction: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := existing.AccountID.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	// Re-read under the lock; the record may have changed or vanished
	// between the unlocked lookup and here.
	existing, err = s.store.FindTransactionByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("TRANSACTION_NOT_FOUND", "Transaction not found")
		}
		return fmt.Errorf("failed to load transaction: %w", err)
	}

	account, err := s.store.GetAccount(ctx, existing.AccountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return fmt.Errorf("failed to load account: %w", err)
	}

	updated := *existing
	updated.Direction = req.Direction
	updated.Amount = req.Amount
	updated.Description = req.Description
	if !req.OccurredAt.IsZero() {
		updated.OccurredAt = req.OccurredAt
	}
	updated.Touch()

	delta := updated.SignedAmount().Sub(existing.SignedAmount())
	newBalance := account.Balance.Add(delta)

	mctx := context.WithoutCancel(ctx)
	err = s.store.Atomically(mctx, func(accounts ledger.AccountStore, transactions ledger.TransactionStore) error {
		if err := transactions.AppendOrReplaceTransaction(mctx, &updated); err != nil {
			return err
		}
		return accounts.SetAccountBalance(mctx, existing.AccountID, newBalance)
	})
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	s.log.Debug("Transaction updated",
		zap.String("transaction_id", req.ID.String()),
		zap.String("account_id", existing.AccountID.String()),
		zap.String("delta", delta.String()),
		zap.String("balance", newBalance.String()),
	)

	s.notifyMutation()
	return nil
}

// DeleteTransaction removes a transaction from the log and subtracts its
// signed amount from the cached balance.
func (s *Service) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return shared.NewDomainError("INVALID_TRANSACTION", "Transaction ID cannot be empty")
	}

	existing, err := s.store.FindTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("TRANSACTION_NOT_FOUND", "Transaction not found")
		}
		return fmt.Errorf("failed to load transaction: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := existing.AccountID.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	existing, err = s.store.FindTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("TRANSACTION_NOT_FOUND", "Transaction not found")
		}
		return fmt.Errorf("failed to load transaction: %w", err)
	}

	account, err := s.store.GetAccount(ctx, existing.AccountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return fmt.Errorf("failed to load account: %w", err)
	}

	newBalance := account.Balance.Sub(existing.SignedAmount())

	mctx := context.WithoutCancel(ctx)
	err = s.store.Atomically(mctx, func(accounts ledger.AccountStore, transactions ledger.TransactionStore) error {
		if err := transactions.RemoveTransaction(mctx, id); err != nil {
			return err
		}
		return accounts.SetAccountBalance(mctx, existing.AccountID, newBalance)
	})
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	s.log.Debug("Transaction deleted",
		zap.String("transaction_id", id.String()),
		zap.String("account_id", existing.AccountID.String()),
		zap.String("balance", newBalance.String()),
	)

	s.notifyMutation()
	return nil
}

// GetBalance returns the cached balance for an account
func (s *Service) GetBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return decimal.Zero, fmt.Errorf("failed to load account: %w", err)
	}
	return account.Balance, nil
}

// RecalculateBalance recomputes an account's balance from its full
// transaction log and overwrites the cached value. The operation is
// idempotent; running it on a consistent account changes nothing.
func (s *Service) RecalculateBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	if accountID == uuid.Nil {
		return decimal.Zero, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	key := accountID.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return decimal.Zero, fmt.Errorf("failed to load account: %w", err)
	}

	recomputed, err := sumTransactions(ctx, s.store, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.store.SetAccountBalance(context.WithoutCancel(ctx), accountID, recomputed); err != nil {
		return decimal.Zero, fmt.Errorf("failed to write recalculated balance: %w", err)
	}

	s.log.Debug("Balance recalculated",
		zap.String("account_id", accountID.String()),
		zap.String("balance", recomputed.String()),
	)

	s.notifyMutation()
	return recomputed, nil
}

// sumTransactions folds an account's log into its true balance
func sumTransactions(ctx context.Context, store ledger.TransactionStore, accountID uuid.UUID) (decimal.Decimal, error) {
	txs, err := store.ListTransactionsForAccount(ctx, accountID, ledger.TransactionListOptions{})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list transactions: %w", err)
	}
	total := decimal.Zero
	for i := range txs {
		total = total.Add(txs[i].SignedAmount())
	}
	return total, nil
}
