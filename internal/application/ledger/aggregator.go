package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tally/backend/internal/domain/ledger"
)

// Aggregator serves cross-account totals from a cache that is invalidated by
// ledger mutations. A Totals call after any number of untouched reads is a
// map lookup; the first call after a mutation recomputes from live balances.
type Aggregator struct {
	store ledger.AccountStore

	mu     sync.RWMutex
	cached *Totals
}

// NewAggregator creates an Aggregator over the account store. Wire it to the
// mutating service with Subscribe so the cache tracks the ledger.
func NewAggregator(store ledger.AccountStore) *Aggregator {
	return &Aggregator{store: store}
}

var _ MutationListener = (*Aggregator)(nil)

// Totals returns the aggregate position across all accounts
func (a *Aggregator) Totals(ctx context.Context) (Totals, error) {
	a.mu.RLock()
	if a.cached != nil {
		t := *a.cached
		a.mu.RUnlock()
		return t, nil
	}
	a.mu.RUnlock()

	accounts, err := a.store.ListAccounts(ctx, ledger.ListOptions{Sort: ledger.SortNameAsc})
	if err != nil {
		return Totals{}, fmt.Errorf("failed to list accounts: %w", err)
	}

	t := Totals{
		OwedToMe: decimal.Zero,
		IOwe:     decimal.Zero,
		Net:      decimal.Zero,
	}
	for i := range accounts {
		balance := accounts[i].Balance
		if balance.IsPositive() {
			t.OwedToMe = t.OwedToMe.Add(balance)
		} else if balance.IsNegative() {
			t.IOwe = t.IOwe.Add(balance.Neg())
		}
	}
	t.Net = t.OwedToMe.Sub(t.IOwe)

	a.mu.Lock()
	a.cached = &t
	a.mu.Unlock()
	return t, nil
}

// LedgerMutated invalidates the cached totals
func (a *Aggregator) LedgerMutated() {
	a.mu.Lock()
	a.cached = nil
	a.mu.Unlock()
}
