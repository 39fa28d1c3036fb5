package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tally/backend/internal/domain/ledger"
	"github.com/tally/backend/internal/domain/shared"
	"github.com/tally/backend/internal/infrastructure/lock"
	"go.uber.org/zap"
)

// driftEpsilon is the tolerance for comparing a cached balance against the
// recomputed log sum. Amounts are exact decimals so genuine drift exceeds it
// by orders of magnitude; the band only absorbs legacy data that was rounded
// on import.
var driftEpsilon = decimal.New(1, -3)

// Verifier checks cached balances against the transaction log and repairs
// any that drifted. Each account is checked under its own lock so a repair
// never races an in-flight mutation.
type Verifier struct {
	store   ledger.Store
	locks   *lock.KeyedMutex
	log     *zap.Logger
	epsilon decimal.Decimal

	listenerMu sync.RWMutex
	listeners  []MutationListener
}

// NewVerifier creates a new Verifier with the default drift tolerance
func NewVerifier(store ledger.Store, locks *lock.KeyedMutex, log *zap.Logger) *Verifier {
	return &Verifier{
		store:   store,
		locks:   locks,
		log:     log,
		epsilon: driftEpsilon,
	}
}

// Subscribe registers a listener notified after any repair. A repair changes
// a stored balance, so caches built on balances must hear about it.
func (v *Verifier) Subscribe(l MutationListener) {
	v.listenerMu.Lock()
	defer v.listenerMu.Unlock()
	v.listeners = append(v.listeners, l)
}

func (v *Verifier) notifyRepair() {
	v.listenerMu.RLock()
	defer v.listenerMu.RUnlock()
	for _, l := range v.listeners {
		l.LedgerMutated()
	}
}

// VerifyAccount recomputes one account's balance from its log and overwrites
// the cached value if it drifted beyond the tolerance. It reports whether a
// repair was made.
func (v *Verifier) VerifyAccount(ctx context.Context, accountID uuid.UUID) (bool, error) {
	if accountID == uuid.Nil {
		return false, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := accountID.String()
	v.locks.Lock(key)
	defer v.locks.Unlock(key)

	account, err := v.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return false, fmt.Errorf("failed to load account: %w", err)
	}

	recomputed, err := sumTransactions(ctx, v.store, accountID)
	if err != nil {
		return false, err
	}

	drift := recomputed.Sub(account.Balance).Abs()
	if drift.LessThanOrEqual(v.epsilon) {
		return false, nil
	}

	if err := v.store.SetAccountBalance(context.WithoutCancel(ctx), accountID, recomputed); err != nil {
		return false, fmt.Errorf("failed to repair balance: %w", err)
	}

	v.log.Warn("Repaired drifted balance",
		zap.String("account_id", accountID.String()),
		zap.String("cached", account.Balance.String()),
		zap.String("recomputed", recomputed.String()),
		zap.String("drift", drift.String()),
	)

	v.notifyRepair()
	return true, nil
}

// VerifyAll sweeps every account and repairs drifted balances.
// It returns the number of accounts that were repaired.
func (v *Verifier) VerifyAll(ctx context.Context) (int, error) {
	accounts, err := v.store.ListAccounts(ctx, ledger.ListOptions{Sort: ledger.SortRecentlyAdded})
	if err != nil {
		return 0, fmt.Errorf("failed to list accounts: %w", err)
	}

	fixed := 0
	for i := range accounts {
		repaired, err := v.VerifyAccount(ctx, accounts[i].ID)
		if err != nil {
			// An account deleted mid-sweep is not a verification failure.
			var derr *shared.DomainError
			if errors.As(err, &derr) && derr.Code == "ACCOUNT_NOT_FOUND" {
				continue
			}
			return fixed, err
		}
		if repaired {
			fixed++
		}
	}

	v.log.Info("Balance verification sweep complete",
		zap.Int("accounts", len(accounts)),
		zap.Int("repaired", fixed),
	)

	return fixed, nil
}
