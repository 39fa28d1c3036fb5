package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tally/backend/internal/domain/ledger"
	"github.com/tally/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Snapshot is a portable dump of the ledger: every account with its contact
// details, and every transaction in occurrence order. Cached balances are
// deliberately absent; a restore rebuilds them by replaying the log.
type Snapshot struct {
	ExportedAt   time.Time             `json:"exported_at"`
	Accounts     []SnapshotAccount     `json:"accounts"`
	Transactions []SnapshotTransaction `json:"transactions"`
}

// SnapshotAccount is one account in a snapshot
type SnapshotAccount struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone,omitempty"`
	Email   string    `json:"email,omitempty"`
	Address string    `json:"address,omitempty"`
}

// SnapshotTransaction is one logged transaction in a snapshot
type SnapshotTransaction struct {
	AccountID   uuid.UUID       `json:"account_id"`
	Direction   string          `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// SnapshotService exports and restores whole-ledger snapshots
type SnapshotService struct {
	store   ledger.Store
	service *Service
	log     *zap.Logger
}

// NewSnapshotService creates a new SnapshotService
func NewSnapshotService(store ledger.Store, service *Service, log *zap.Logger) *SnapshotService {
	return &SnapshotService{
		store:   store,
		service: service,
		log:     log,
	}
}

// Export dumps every account and transaction. Transactions come out oldest
// first so a restore replays them in the order they happened.
func (s *SnapshotService) Export(ctx context.Context) (*Snapshot, error) {
	accounts, err := s.store.ListAccounts(ctx, ledger.ListOptions{Sort: ledger.SortNameAsc})
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	snap := &Snapshot{
		ExportedAt:   time.Now(),
		Accounts:     make([]SnapshotAccount, 0, len(accounts)),
		Transactions: make([]SnapshotTransaction, 0),
	}

	for i := range accounts {
		a := &accounts[i]
		snap.Accounts = append(snap.Accounts, SnapshotAccount{
			ID:      a.ID,
			Name:    a.Name,
			Phone:   a.Phone,
			Email:   a.Email,
			Address: a.Address,
		})

		txs, err := s.store.ListTransactionsForAccount(ctx, a.ID, ledger.TransactionListOptions{SortDir: "ASC"})
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions for account %s: %w", a.ID, err)
		}
		for j := range txs {
			snap.Transactions = append(snap.Transactions, SnapshotTransaction{
				AccountID:   txs[j].AccountID,
				Direction:   txs[j].Direction.String(),
				Amount:      txs[j].Amount,
				Description: txs[j].Description,
				OccurredAt:  txs[j].OccurredAt,
			})
		}
	}

	s.log.Info("Ledger exported",
		zap.Int("accounts", len(snap.Accounts)),
		zap.Int("transactions", len(snap.Transactions)),
	)

	return snap, nil
}

// Restore loads a snapshot into an empty store. Accounts are created with
// zero balances, then every transaction is replayed through the mutating
// service, so the restored cached balances are consistent by construction.
func (s *SnapshotService) Restore(ctx context.Context, snap *Snapshot) error {
	count, err := s.store.CountAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect store: %w", err)
	}
	if count > 0 {
		return shared.NewDomainError("STORE_NOT_EMPTY", "Cannot restore a snapshot into a non-empty ledger")
	}

	for i := range snap.Accounts {
		sa := &snap.Accounts[i]
		account, err := ledger.NewAccount(sa.Name)
		if err != nil {
			return fmt.Errorf("invalid account %q in snapshot: %w", sa.Name, err)
		}
		account.WithPhone(sa.Phone).WithEmail(sa.Email).WithAddress(sa.Address)
		if sa.ID != uuid.Nil {
			// Keep the original ID so transactions still point at it.
			account.ID = sa.ID
		}
		if err := s.store.SaveAccount(ctx, account); err != nil {
			return fmt.Errorf("failed to save account %q: %w", sa.Name, err)
		}
	}

	for i := range snap.Transactions {
		st := &snap.Transactions[i]
		_, err := s.service.InsertTransaction(ctx, InsertTransactionRequest{
			AccountID:   st.AccountID,
			Direction:   ledger.Direction(st.Direction),
			Amount:      st.Amount,
			Description: st.Description,
			OccurredAt:  st.OccurredAt,
		})
		if err != nil {
			return fmt.Errorf("failed to replay transaction %d: %w", i, err)
		}
	}

	s.log.Info("Ledger restored",
		zap.Int("accounts", len(snap.Accounts)),
		zap.Int("transactions", len(snap.Transactions)),
	)

	return nil
}
