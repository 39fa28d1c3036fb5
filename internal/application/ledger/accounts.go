package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tally/backend/internal/domain/ledger"
	"github.com/tally/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AccountService manages the accounts themselves. It creates and reads them;
// balances are off limits here and only move through the transaction service.
type AccountService struct {
	store ledger.Store
	log   *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(store ledger.Store, log *zap.Logger) *AccountService {
	return &AccountService{store: store, log: log}
}

// CreateAccountRequest carries the input for creating an account
type CreateAccountRequest struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// CreateAccount creates a new account with a zero balance
func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*ledger.Account, error) {
	account, err := ledger.NewAccount(req.Name)
	if err != nil {
		return nil, err
	}
	account.WithPhone(req.Phone).WithEmail(req.Email).WithAddress(req.Address)

	if err := s.store.SaveAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	s.log.Info("Account created",
		zap.String("account_id", account.ID.String()),
		zap.String("name", account.Name),
	)

	return account, nil
}

// GetAccount returns one account by ID
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ACCOUNT_NOT_FOUND", "Account not found")
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}
