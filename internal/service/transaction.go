package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/internal/importer"
	"github.com/ruivenancio/finance-app/internal/storage"
	"github.com/ruivenancio/finance-app/models"
)

// TransactionService owns the balance bookkeeping: every mutation keeps
// the owning account's balance equal to the sum of its posted amounts.
// All multi-write paths run inside one store transaction.
type TransactionService struct {
	store storage.Store
}

func NewTransactionService(store storage.Store) *TransactionService {
	return &TransactionService{store: store}
}

type TransactionInput struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	AccountID   string
	CategoryID  *string
}

type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Date          time.Time
	Description   string
}

func (s *TransactionService) List(ctx context.Context, userID string) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

// Create posts the amount to the account balance and inserts the
// transaction as one atomic unit.
func (s *TransactionService) Create(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error) {
	if in.AccountID == "" {
		return nil, fmt.Errorf("%w: accountId is required", ErrInvalidInput)
	}
	var created *models.Transaction
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		account, err := tx.GetAccountForUpdate(ctx, in.AccountID, userID)
		if err != nil {
			return err
		}
		if in.CategoryID != nil {
			if _, err := tx.GetCategory(ctx, *in.CategoryID, userID); err != nil {
				return err
			}
		}
		account.Balance = account.Balance.Add(in.Amount)
		if err := tx.UpdateAccount(ctx, account); err != nil {
			return err
		}
		created = &models.Transaction{
			UserID:      userID,
			AccountID:   in.AccountID,
			CategoryID:  in.CategoryID,
			Date:        in.Date,
			Amount:      in.Amount,
			Description: in.Description,
		}
		return tx.CreateTransaction(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies a partial update. An amount change corrects the balance
// by (new - old); an account change reverses the old amount on the old
// account and applies the new amount to the new account.
func (s *TransactionService) Update(ctx context.Context, userID, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	var updated *models.Transaction
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		t, err := tx.GetTransaction(ctx, id, userID)
		if err != nil {
			return err
		}
		oldAmount := t.Amount
		oldAccountID := t.AccountID

		if patch.Date != nil {
			t.Date = *patch.Date
		}
		if patch.Amount != nil {
			t.Amount = *patch.Amount
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.AccountID != nil {
			t.AccountID = *patch.AccountID
		}
		if patch.CategoryID.Set {
			if patch.CategoryID.Valid {
				if _, err := tx.GetCategory(ctx, patch.CategoryID.Value, userID); err != nil {
					return err
				}
			}
			t.CategoryID = patch.CategoryID.Ptr()
		}

		switch {
		case t.AccountID != oldAccountID:
			// Move the amount's effect between accounts. The new account
			// must exist; a dangling old account only skips the reversal.
			// Lock in id order, same as Transfer, so opposite moves over
			// the same pair cannot deadlock.
			first, second := oldAccountID, t.AccountID
			if second < first {
				first, second = second, first
			}
			locked := map[string]*models.Account{}
			for _, accountID := range []string{first, second} {
				account, err := tx.GetAccountForUpdate(ctx, accountID, userID)
				if errors.Is(err, storage.ErrNotFound) && accountID == oldAccountID {
					continue
				}
				if err != nil {
					return err
				}
				locked[accountID] = account
			}
			if old, ok := locked[oldAccountID]; ok {
				old.Balance = old.Balance.Sub(oldAmount)
				if err := tx.UpdateAccount(ctx, old); err != nil {
					return err
				}
			}
			dest := locked[t.AccountID]
			dest.Balance = dest.Balance.Add(t.Amount)
			if err := tx.UpdateAccount(ctx, dest); err != nil {
				return err
			}
		case !t.Amount.Equal(oldAmount):
			if err := s.adjustBalance(ctx, tx, t.AccountID, userID, t.Amount.Sub(oldAmount), true); err != nil {
				return err
			}
		}

		updated = t
		return tx.UpdateTransaction(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete reverses the amount from the account balance and removes the
// row. A dangling account reference skips the reversal.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	return s.store.InTx(ctx, func(tx storage.Store) error {
		t, err := tx.GetTransaction(ctx, id, userID)
		if err != nil {
			return err
		}
		if err := s.adjustBalance(ctx, tx, t.AccountID, userID, t.Amount.Neg(), true); err != nil {
			return err
		}
		return tx.DeleteTransaction(ctx, id, userID)
	})
}

// adjustBalance adds delta to the account's balance under a row lock.
// With tolerateMissing a vanished account is skipped instead of failing.
func (s *TransactionService) adjustBalance(ctx context.Context, tx storage.Store, accountID, userID string, delta decimal.Decimal, tolerateMissing bool) error {
	account, err := tx.GetAccountForUpdate(ctx, accountID, userID)
	if errors.Is(err, storage.ErrNotFound) && tolerateMissing {
		return nil
	}
	if err != nil {
		return err
	}
	account.Balance = account.Balance.Add(delta)
	return tx.UpdateAccount(ctx, account)
}

// Transfer moves amount between two accounts and records the two
// mirrored transactions, all atomically.
func (s *TransactionService) Transfer(ctx context.Context, userID string, in TransferInput) error {
	if in.FromAccountID == "" || in.ToAccountID == "" {
		return fmt.Errorf("%w: both account ids are required", ErrInvalidInput)
	}
	if in.FromAccountID == in.ToAccountID {
		return fmt.Errorf("%w: cannot transfer to the same account", ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: transfer amount must be positive", ErrInvalidInput)
	}
	return s.store.InTx(ctx, func(tx storage.Store) error {
		// Lock in id order so concurrent opposite transfers cannot deadlock.
		first, second := in.FromAccountID, in.ToAccountID
		if second < first {
			first, second = second, first
		}
		locked := map[string]*models.Account{}
		for _, id := range []string{first, second} {
			account, err := tx.GetAccountForUpdate(ctx, id, userID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					if id == in.FromAccountID {
						return fmt.Errorf("source account %w", storage.ErrNotFound)
					}
					return fmt.Errorf("destination account %w", storage.ErrNotFound)
				}
				return err
			}
			locked[id] = account
		}
		from, to := locked[in.FromAccountID], locked[in.ToAccountID]

		from.Balance = from.Balance.Sub(in.Amount)
		to.Balance = to.Balance.Add(in.Amount)
		if err := tx.UpdateAccount(ctx, from); err != nil {
			return err
		}
		if err := tx.UpdateAccount(ctx, to); err != nil {
			return err
		}

		outDesc := fmt.Sprintf("Transfer to %s", to.Name)
		inDesc := fmt.Sprintf("Transfer from %s", from.Name)
		if in.Description != "" {
			outDesc += ": " + in.Description
			inDesc += ": " + in.Description
		}
		out := &models.Transaction{
			UserID:      userID,
			AccountID:   from.ID,
			Date:        in.Date,
			Amount:      in.Amount.Neg(),
			Description: outDesc,
		}
		if err := tx.CreateTransaction(ctx, out); err != nil {
			return err
		}
		incoming := &models.Transaction{
			UserID:      userID,
			AccountID:   to.ID,
			Date:        in.Date,
			Amount:      in.Amount,
			Description: inDesc,
		}
		return tx.CreateTransaction(ctx, incoming)
	})
}

// Import creates one transaction per spreadsheet row against the given
// account. Each row applies the same balance contract as Create in its
// own atomic unit; failed rows are logged and skipped.
func (s *TransactionService) Import(ctx context.Context, userID, accountID string, rows []importer.Row) (int, error) {
	if accountID == "" {
		return 0, fmt.Errorf("%w: accountId is required", ErrInvalidInput)
	}
	if _, err := s.store.GetAccount(ctx, accountID, userID); err != nil {
		return 0, err
	}
	imported := 0
	for i, row := range rows {
		_, err := s.Create(ctx, userID, TransactionInput{
			Date:        row.Date,
			Amount:      row.Amount,
			Description: row.Description,
			AccountID:   accountID,
		})
		if err != nil {
			log.Printf("import: row %d skipped: %v", i+1, err)
			continue
		}
		imported++
	}
	return imported, nil
}
