package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domain "github.com/tally/backend/internal/domain/ledger"
)

func TestAggregator_Totals(t *testing.T) {
	ctx := context.Background()

	t.Run("splits balances into owed-to-me and I-owe", func(t *testing.T) {
		service, store := newTestEngine(t)
		aggregator := NewAggregator(store)
		service.Subscribe(aggregator)

		alice := createAccount(t, store, "Alice")
		bob := createAccount(t, store, "Bob")
		createAccount(t, store, "Cara")

		_, err := service.InsertTransaction(ctx, InsertTransactionRequest{
			AccountID: alice.ID,
			Direction: domain.DirectionCredit,
			Amount:    decimal.NewFromInt(50),
		})
		require.NoError(t, err)
		_, err = service.InsertTransaction(ctx, InsertTransactionRequest{
			AccountID: bob.ID,
			Direction: domain.DirectionDebit,
			Amount:    decimal.NewFromInt(20),
		})
		require.NoError(t, err)

		totals, err := aggregator.Totals(ctx)
		require.NoError(t, err)
		assert.True(t, totals.OwedToMe.Equal(decimal.NewFromInt(50)))
		assert.True(t, totals.IOwe.Equal(decimal.NewFromInt(20)))
		assert.True(t, totals.Net.Equal(decimal.NewFromInt(30)))
	})

	t.Run("empty ledger totals to zero", func(t *testing.T) {
		_, store := newTestEngine(t)
		aggregator := NewAggregator(store)

		totals, err := aggregator.Totals(ctx)
		require.NoError(t, err)
		assert.True(t, totals.OwedToMe.IsZero())
		assert.True(t, totals.IOwe.IsZero())
		assert.True(t, totals.Net.IsZero())
	})

	t.Run("cache tracks mutations", func(t *testing.T) {
		service, store := newTestEngine(t)
		aggregator := NewAggregator(store)
		service.Subscribe(aggregator)

		alice := createAccount(t, store, "Alice")

		id, err := service.InsertTransaction(ctx, InsertTransactionRequest{
			AccountID: alice.ID,
			Direction: domain.DirectionCredit,
			Amount:    decimal.NewFromInt(10),
		})
		require.NoError(t, err)

		totals, err := aggregator.Totals(ctx)
		require.NoError(t, err)
		assert.True(t, totals.Net.Equal(decimal.NewFromInt(10)))

		require.NoError(t, service.DeleteTransaction(ctx, id))

		totals, err = aggregator.Totals(ctx)
		require.NoError(t, err)
		assert.True(t, totals.Net.IsZero())
	})

	t.Run("unsubscribed aggregator serves stale totals", func(t *testing.T) {
		service, store := newTestEngine(t)
		aggregator := NewAggregator(store)

		alice := createAccount(t, store, "Alice")

		totals, err := aggregator.Totals(ctx)
		require.NoError(t, err)
		assert.True(t, totals.Net.IsZero())

		_, err = service.InsertTransaction(ctx, InsertTransactionRequest{
			AccountID: alice.ID,
			Direction: domain.DirectionCredit,
			Amount:    decimal.NewFromInt(10),
		})
		require.NoError(t, err)

		// Nothing invalidated the cache, so the old answer comes back.
		totals, err = aggregator.Totals(ctx)
		require.NoError(t, err)
		assert.True(t, totals.Net.IsZero())

		aggregator.LedgerMutated()
		totals, err = aggregator.Totals(ctx)
		require.NoError(t, err)
		assert.True(t, totals.Net.Equal(decimal.NewFromInt(10)))
	})
}
