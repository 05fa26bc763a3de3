package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/internal/service"
	"github.com/ruivenancio/finance-app/internal/storage/memory"
	"github.com/ruivenancio/finance-app/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// newTestUser seeds a user with one BANK account holding the given
// opening balance and returns the store plus both ids.
func newTestUser(t *testing.T, balance string) (*memory.Store, string, string) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	user := &models.User{Email: "jane@example.com", PasswordHash: "x"}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	account := &models.Account{
		UserID:  user.ID,
		Name:    "Checking",
		Type:    models.AccountBank,
		Balance: dec(balance),
	}
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return store, user.ID, account.ID
}

func accountBalance(t *testing.T, store *memory.Store, id, userID string) decimal.Decimal {
	t.Helper()
	account, err := store.GetAccount(context.Background(), id, userID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return account.Balance
}

func mustCreateCategory(t *testing.T, store *memory.Store, userID, name string, typ models.CategoryType) *models.Category {
	t.Helper()
	c, err := service.NewCategoryService(store).Create(context.Background(), userID, name, typ, nil)
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}
