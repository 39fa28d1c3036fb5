package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tally/backend/internal/domain/ledger"
	"github.com/tally/backend/internal/domain/shared"
	"github.com/tally/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.AccountModel{}, &models.TransactionModel{})
	require.NoError(t, err)

	return db
}

func mustAccount(t *testing.T, name string) *ledger.Account {
	t.Helper()
	account, err := ledger.NewAccount(name)
	require.NoError(t, err)
	return account
}

func TestGormAccountRepository_SaveAndGet(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()

	t.Run("saves and retrieves account", func(t *testing.T) {
		account := mustAccount(t, "Alice").WithPhone("555-0101").WithEmail("alice@example.com")

		require.NoError(t, repo.SaveAccount(ctx, account))

		found, err := repo.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, account.ID, found.ID)
		assert.Equal(t, "Alice", found.Name)
		assert.Equal(t, "555-0101", found.Phone)
		assert.True(t, found.Balance.IsZero())
	})

	t.Run("save replaces existing record", func(t *testing.T) {
		account := mustAccount(t, "Bob")
		require.NoError(t, repo.SaveAccount(ctx, account))

		account.Phone = "555-0202"
		require.NoError(t, repo.SaveAccount(ctx, account))

		found, err := repo.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, "555-0202", found.Phone)

		count, err := repo.CountAccounts(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, int64(1))
	})

	t.Run("returns ErrNotFound for unknown account", func(t *testing.T) {
		_, err := repo.GetAccount(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormAccountRepository_SetAccountBalance(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()

	account := mustAccount(t, "Cara")
	require.NoError(t, repo.SaveAccount(ctx, account))

	t.Run("overwrites stored balance", func(t *testing.T) {
		err := repo.SetAccountBalance(ctx, account.ID, decimal.NewFromFloat(42.5))
		require.NoError(t, err)

		found, err := repo.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, found.Balance.Equal(decimal.NewFromFloat(42.5)))
	})

	t.Run("returns ErrNotFound for unknown account", func(t *testing.T) {
		err := repo.SetAccountBalance(ctx, uuid.New(), decimal.NewFromInt(1))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormAccountRepository_ListAccounts(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()

	// Alice:50, bob:-20, Cara:0. The lowercase name checks case-insensitive ordering.
	for _, fixture := range []struct {
		name    string
		balance decimal.Decimal
	}{
		{"Alice", decimal.NewFromInt(50)},
		{"bob", decimal.NewFromInt(-20)},
		{"Cara", decimal.Zero},
	} {
		account := mustAccount(t, fixture.name)
		account.Balance = fixture.balance
		require.NoError(t, repo.SaveAccount(ctx, account))
	}

	names := func(accounts []ledger.Account) []string {
		out := make([]string, len(accounts))
		for i, a := range accounts {
			out[i] = a.Name
		}
		return out
	}

	t.Run("sorts by name ascending case-insensitively", func(t *testing.T) {
		accounts, err := repo.ListAccounts(ctx, ledger.ListOptions{Sort: ledger.SortNameAsc})
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "bob", "Cara"}, names(accounts))
	})

	t.Run("sorts by name descending", func(t *testing.T) {
		accounts, err := repo.ListAccounts(ctx, ledger.ListOptions{Sort: ledger.SortNameDesc})
		require.NoError(t, err)
		assert.Equal(t, []string{"Cara", "bob", "Alice"}, names(accounts))
	})

	t.Run("sorts by balance high to low", func(t *testing.T) {
		accounts, err := repo.ListAccounts(ctx, ledger.ListOptions{Sort: ledger.SortBalanceHighToLow})
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Cara", "bob"}, names(accounts))
	})

	t.Run("sorts by balance low to high", func(t *testing.T) {
		accounts, err := repo.ListAccounts(ctx, ledger.ListOptions{Sort: ledger.SortBalanceLowToHigh})
		require.NoError(t, err)
		assert.Equal(t, []string{"bob", "Cara", "Alice"}, names(accounts))
	})

	t.Run("applies offset and limit", func(t *testing.T) {
		accounts, err := repo.ListAccounts(ctx, ledger.ListOptions{Offset: 1, Limit: 1, Sort: ledger.SortNameAsc})
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, names(accounts))
	})

	t.Run("counts accounts", func(t *testing.T) {
		count, err := repo.CountAccounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}
