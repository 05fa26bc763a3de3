package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/internal/storage"
	"github.com/ruivenancio/finance-app/models"
)

type AccountService struct {
	store storage.Store
}

func NewAccountService(store storage.Store) *AccountService {
	return &AccountService{store: store}
}

func (s *AccountService) List(ctx context.Context, userID string) ([]models.Account, error) {
	return s.store.ListAccounts(ctx, userID)
}

func (s *AccountService) Create(ctx context.Context, userID, name string, typ models.AccountType, balance decimal.Decimal) (*models.Account, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", ErrInvalidInput)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, typ)
	}
	account := &models.Account{
		UserID:  userID,
		Name:    name,
		Type:    typ,
		Balance: balance,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Update applies a partial update. A direct balance edit is a manual
// correction and is not compensated against the transaction history.
func (s *AccountService) Update(ctx context.Context, userID, id string, patch models.AccountPatch) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, fmt.Errorf("%w: account name is required", ErrInvalidInput)
		}
		account.Name = *patch.Name
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, *patch.Type)
		}
		account.Type = *patch.Type
	}
	if patch.Balance != nil {
		account.Balance = *patch.Balance
	}
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Delete removes the account. Transactions and stocks that reference it
// keep their accountId; the delete path tolerates those orphans.
func (s *AccountService) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteAccount(ctx, id, userID)
}
