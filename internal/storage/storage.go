// Package storage defines the persistence contract for the finance app.
// Two implementations exist: postgres (production) and memory (tests,
// demos). Every read and mutation of a user-owned entity is scoped by the
// owner's id; a row that exists but belongs to someone else is reported
// as ErrNotFound.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type Store interface {
	// InTx runs fn against a store whose writes commit together or not
	// at all. Concurrent mutations of the same account or stock row are
	// serialized by the implementation.
	InTx(ctx context.Context, fn func(Store) error) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateAccount(ctx context.Context, a *models.Account) error
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
	GetAccount(ctx context.Context, id, userID string) (*models.Account, error)
	// GetAccountForUpdate locks the row for the duration of the enclosing
	// InTx scope.
	GetAccountForUpdate(ctx context.Context, id, userID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, a *models.Account) error
	DeleteAccount(ctx context.Context, id, userID string) error

	CreateCategory(ctx context.Context, c *models.Category) error
	ListCategories(ctx context.Context, userID string) ([]models.Category, error)
	GetCategory(ctx context.Context, id, userID string) (*models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id, userID string) error

	CreateTransaction(ctx context.Context, t *models.Transaction) error
	// ListTransactions returns the user's transactions newest first, each
	// carrying its category when one is set.
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	ListTransactionsSince(ctx context.Context, userID string, since time.Time) ([]models.Transaction, error)
	ListRecentTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, id, userID string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, id, userID string) error

	ListBudgets(ctx context.Context, userID string, year int) ([]models.Budget, error)
	CreateBudget(ctx context.Context, b *models.Budget) error

	CreateStock(ctx context.Context, s *models.Stock) error
	ListStocks(ctx context.Context, userID string) ([]models.Stock, error)
	// ListAllStocks spans every user; used by the scheduled price refresh.
	ListAllStocks(ctx context.Context) ([]models.Stock, error)
	GetStock(ctx context.Context, id, userID string) (*models.Stock, error)
	GetStockForUpdate(ctx context.Context, id, userID string) (*models.Stock, error)
	UpdateStock(ctx context.Context, s *models.Stock) error
	// UpdateStockPrice writes only currentPrice, so a slow quote lookup
	// cannot clobber quantity or averagePrice written since the holding
	// was read.
	UpdateStockPrice(ctx context.Context, id string, price decimal.Decimal) error
	DeleteStock(ctx context.Context, id, userID string) error

	CreateStockTransaction(ctx context.Context, st *models.StockTransaction) error
	ListStockTransactions(ctx context.Context, stockID, userID string) ([]models.StockTransaction, error)
}
