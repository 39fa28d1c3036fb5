package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirection(t *testing.T) {
	t.Run("IsValid returns true for valid directions", func(t *testing.T) {
		assert.True(t, DirectionCredit.IsValid())
		assert.True(t, DirectionDebit.IsValid())
	})

	t.Run("IsValid returns false for invalid direction", func(t *testing.T) {
		assert.False(t, Direction("TRANSFER").IsValid())
		assert.False(t, Direction("").IsValid())
	})

	t.Run("String returns correct value", func(t *testing.T) {
		assert.Equal(t, "CREDIT", DirectionCredit.String())
		assert.Equal(t, "DEBIT", DirectionDebit.String())
	})
}

func TestNewTransaction(t *testing.T) {
	accountID := uuid.New()

	t.Run("creates valid credit transaction", func(t *testing.T) {
		tx, err := NewTransaction(accountID, DirectionCredit, decimal.NewFromInt(100), "lunch")
		require.NoError(t, err)

		assert.Equal(t, accountID, tx.AccountID)
		assert.Equal(t, DirectionCredit, tx.Direction)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, "lunch", tx.Description)
		assert.False(t, tx.OccurredAt.IsZero())
	})

	t.Run("rejects empty account ID", func(t *testing.T) {
		_, err := NewTransaction(uuid.Nil, DirectionCredit, decimal.NewFromInt(10), "")
		assert.Error(t, err)
	})

	t.Run("rejects invalid direction", func(t *testing.T) {
		_, err := NewTransaction(accountID, Direction("SIDEWAYS"), decimal.NewFromInt(10), "")
		assert.Error(t, err)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		_, err := NewTransaction(accountID, DirectionDebit, decimal.Zero, "")
		assert.Error(t, err)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := NewTransaction(accountID, DirectionDebit, decimal.NewFromInt(-5), "")
		assert.Error(t, err)
	})

	t.Run("WithOccurredAt overrides the timestamp", func(t *testing.T) {
		occurred := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		tx, err := NewTransaction(accountID, DirectionCredit, decimal.NewFromInt(10), "")
		require.NoError(t, err)

		tx.WithOccurredAt(occurred)
		assert.Equal(t, occurred, tx.OccurredAt)
	})
}

func TestTransactionSignedAmount(t *testing.T) {
	accountID := uuid.New()

	credit, err := NewTransaction(accountID, DirectionCredit, decimal.NewFromFloat(12.5), "")
	require.NoError(t, err)
	assert.True(t, credit.SignedAmount().Equal(decimal.NewFromFloat(12.5)))

	debit, err := NewTransaction(accountID, DirectionDebit, decimal.NewFromFloat(12.5), "")
	require.NoError(t, err)
	assert.True(t, debit.SignedAmount().Equal(decimal.NewFromFloat(-12.5)))
}
