// Package postgres implements storage.Store on pgx. All mutations that the
// services group with InTx run on one pgx transaction; account and stock
// rows are locked with SELECT ... FOR UPDATE inside that scope.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/internal/storage"
	"github.com/ruivenancio/finance-app/models"
)

//go:embed schema.sql
var schemaSQL string

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	q    querier
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (s *Store) InTx(ctx context.Context, fn func(storage.Store) error) error {
	if _, nested := s.q.(pgx.Tx); nested {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{pool: s.pool, q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ---- users ----

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	_, err := s.q.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return storage.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.q.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting user: %w", err)
	}
	return &u, nil
}

// ---- accounts ----

const accountColumns = `id, user_id, name, type, balance, created_at, updated_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning account: %w", err)
	}
	return &a, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *models.Account) error {
	a.ID = uuid.NewString()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := s.q.Exec(ctx, `
		INSERT INTO accounts (id, user_id, name, type, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, a.Name, a.Type, a.Balance, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("selecting accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) GetAccount(ctx context.Context, id, userID string) (*models.Account, error) {
	return scanAccount(s.q.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2`,
		id, userID))
}

func (s *Store) GetAccountForUpdate(ctx context.Context, id, userID string) (*models.Account, error) {
	return scanAccount(s.q.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, userID))
}

func (s *Store) UpdateAccount(ctx context.Context, a *models.Account) error {
	a.UpdatedAt = time.Now().UTC()
	tag, err := s.q.Exec(ctx, `
		UPDATE accounts SET name = $1, type = $2, balance = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6`,
		a.Name, a.Type, a.Balance, a.UpdatedAt, a.ID, a.UserID)
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, id, userID string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ---- categories ----

const categoryColumns = `id, user_id, name, type, parent_id, created_at, updated_at`

func scanCategory(row pgx.Row) (*models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.ParentID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning category: %w", err)
	}
	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	c.ID = uuid.NewString()
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := s.q.Exec(ctx, `
		INSERT INTO categories (id, user_id, name, type, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.UserID, c.Name, c.Type, c.ParentID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("selecting categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id, userID string) (*models.Category, error) {
	return scanCategory(s.q.QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND user_id = $2`,
		id, userID))
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	c.UpdatedAt = time.Now().UTC()
	tag, err := s.q.Exec(ctx, `
		UPDATE categories SET name = $1, type = $2, parent_id = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6`,
		c.Name, c.Type, c.ParentID, c.UpdatedAt, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("updating category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id, userID string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ---- transactions ----

const transactionSelect = `
	SELECT t.id, t.user_id, t.account_id, t.category_id, t.date, t.amount, t.description,
	       t.created_at, t.updated_at,
	       c.id, c.user_id, c.name, c.type, c.parent_id, c.created_at, c.updated_at
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	var (
		cID, cUserID, cName, cParent *string
		cType                        *models.CategoryType
		cCreated, cUpdated           *time.Time
	)
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &t.Date, &t.Amount,
		&t.Description, &t.CreatedAt, &t.UpdatedAt,
		&cID, &cUserID, &cName, &cType, &cParent, &cCreated, &cUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning transaction: %w", err)
	}
	if cID != nil {
		t.Category = &models.Category{
			ID:        *cID,
			UserID:    *cUserID,
			Name:      *cName,
			Type:      *cType,
			ParentID:  cParent,
			CreatedAt: *cCreated,
			UpdatedAt: *cUpdated,
		}
	}
	return &t, nil
}

func (s *Store) queryTransactions(ctx context.Context, sql string, args ...any) ([]models.Transaction, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	t.ID = uuid.NewString()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err := s.q.Exec(ctx, `
		INSERT INTO transactions (id, user_id, account_id, category_id, date, amount, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.UserID, t.AccountID, t.CategoryID, t.Date, t.Amount, t.Description, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, transactionSelect+`
		WHERE t.user_id = $1 ORDER BY t.date DESC, t.created_at DESC`, userID)
}

func (s *Store) ListTransactionsSince(ctx context.Context, userID string, since time.Time) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, transactionSelect+`
		WHERE t.user_id = $1 AND t.date >= $2 ORDER BY t.date DESC, t.created_at DESC`, userID, since)
}

func (s *Store) ListRecentTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, transactionSelect+`
		WHERE t.user_id = $1 ORDER BY t.date DESC, t.created_at DESC LIMIT $2`, userID, limit)
}

func (s *Store) GetTransaction(ctx context.Context, id, userID string) (*models.Transaction, error) {
	return scanTransaction(s.q.QueryRow(ctx, transactionSelect+`
		WHERE t.id = $1 AND t.user_id = $2`, id, userID))
}

func (s *Store) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	t.UpdatedAt = time.Now().UTC()
	tag, err := s.q.Exec(ctx, `
		UPDATE transactions SET account_id = $1, category_id = $2, date = $3, amount = $4, description = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8`,
		t.AccountID, t.CategoryID, t.Date, t.Amount, t.Description, t.UpdatedAt, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id, userID string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ---- budgets ----

func (s *Store) CreateBudget(ctx context.Context, b *models.Budget) error {
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now().UTC()
	_, err := s.q.Exec(ctx, `
		INSERT INTO budgets (id, user_id, year, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.UserID, b.Year, b.Amount, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting budget: %w", err)
	}
	return nil
}

func (s *Store) ListBudgets(ctx context.Context, userID string, year int) ([]models.Budget, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, user_id, year, amount, created_at
		FROM budgets WHERE user_id = $1 AND year = $2 ORDER BY created_at`,
		userID, year)
	if err != nil {
		return nil, fmt.Errorf("selecting budgets: %w", err)
	}
	defer rows.Close()

	var out []models.Budget
	for rows.Next() {
		var b models.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Year, &b.Amount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ---- stocks ----

const stockSelect = `
	SELECT s.id, s.user_id, s.account_id, s.symbol, s.quantity, s.average_price, s.current_price,
	       s.created_at, s.updated_at,
	       a.id, a.user_id, a.name, a.type, a.balance, a.created_at, a.updated_at
	FROM stocks s
	LEFT JOIN accounts a ON a.id = s.account_id`

func scanStock(row pgx.Row) (*models.Stock, error) {
	var st models.Stock
	var (
		aID, aUserID, aName *string
		aType               *models.AccountType
		aBalance            *decimal.Decimal
		aCreated, aUpdated  *time.Time
	)
	err := row.Scan(&st.ID, &st.UserID, &st.AccountID, &st.Symbol, &st.Quantity, &st.AveragePrice,
		&st.CurrentPrice, &st.CreatedAt, &st.UpdatedAt,
		&aID, &aUserID, &aName, &aType, &aBalance, &aCreated, &aUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning stock: %w", err)
	}
	if aID != nil {
		st.Account = &models.Account{
			ID:        *aID,
			UserID:    *aUserID,
			Name:      *aName,
			Type:      *aType,
			Balance:   *aBalance,
			CreatedAt: *aCreated,
			UpdatedAt: *aUpdated,
		}
	}
	return &st, nil
}

func (s *Store) CreateStock(ctx context.Context, st *models.Stock) error {
	st.ID = uuid.NewString()
	now := time.Now().UTC()
	st.CreatedAt, st.UpdatedAt = now, now
	_, err := s.q.Exec(ctx, `
		INSERT INTO stocks (id, user_id, account_id, symbol, quantity, average_price, current_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		st.ID, st.UserID, st.AccountID, st.Symbol, st.Quantity, st.AveragePrice, st.CurrentPrice, st.CreatedAt, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting stock: %w", err)
	}
	return nil
}

func (s *Store) queryStocks(ctx context.Context, sql string, args ...any) ([]models.Stock, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting stocks: %w", err)
	}
	defer rows.Close()

	var out []models.Stock
	for rows.Next() {
		st, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

func (s *Store) ListStocks(ctx context.Context, userID string) ([]models.Stock, error) {
	return s.queryStocks(ctx, stockSelect+` WHERE s.user_id = $1 ORDER BY s.created_at`, userID)
}

func (s *Store) ListAllStocks(ctx context.Context) ([]models.Stock, error) {
	return s.queryStocks(ctx, stockSelect+` ORDER BY s.created_at`)
}

func (s *Store) GetStock(ctx context.Context, id, userID string) (*models.Stock, error) {
	return scanStock(s.q.QueryRow(ctx, stockSelect+` WHERE s.id = $1 AND s.user_id = $2`, id, userID))
}

func (s *Store) GetStockForUpdate(ctx context.Context, id, userID string) (*models.Stock, error) {
	// FOR UPDATE OF s keeps the joined account row unlocked; the account is
	// locked separately through GetAccountForUpdate.
	return scanStock(s.q.QueryRow(ctx, stockSelect+`
		WHERE s.id = $1 AND s.user_id = $2 FOR UPDATE OF s`, id, userID))
}

func (s *Store) UpdateStock(ctx context.Context, st *models.Stock) error {
	st.UpdatedAt = time.Now().UTC()
	tag, err := s.q.Exec(ctx, `
		UPDATE stocks SET account_id = $1, symbol = $2, quantity = $3, average_price = $4, current_price = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8`,
		st.AccountID, st.Symbol, st.Quantity, st.AveragePrice, st.CurrentPrice, st.UpdatedAt, st.ID, st.UserID)
	if err != nil {
		return fmt.Errorf("updating stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateStockPrice(ctx context.Context, id string, price decimal.Decimal) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE stocks SET current_price = $1, updated_at = $2 WHERE id = $3`,
		price, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating stock price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteStock(ctx context.Context, id, userID string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM stocks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ---- stock transactions ----

func (s *Store) CreateStockTransaction(ctx context.Context, st *models.StockTransaction) error {
	st.ID = uuid.NewString()
	st.CreatedAt = time.Now().UTC()
	_, err := s.q.Exec(ctx, `
		INSERT INTO stock_transactions (id, user_id, stock_id, type, quantity, price, amount, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		st.ID, st.UserID, st.StockID, st.Type, st.Quantity, st.Price, st.Amount, st.Date, st.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting stock transaction: %w", err)
	}
	return nil
}

func (s *Store) ListStockTransactions(ctx context.Context, stockID, userID string) ([]models.StockTransaction, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, user_id, stock_id, type, quantity, price, amount, date, created_at
		FROM stock_transactions
		WHERE stock_id = $1 AND user_id = $2
		ORDER BY date DESC, created_at DESC`,
		stockID, userID)
	if err != nil {
		return nil, fmt.Errorf("selecting stock transactions: %w", err)
	}
	defer rows.Close()

	var out []models.StockTransaction
	for rows.Next() {
		var st models.StockTransaction
		if err := rows.Scan(&st.ID, &st.UserID, &st.StockID, &st.Type, &st.Quantity, &st.Price,
			&st.Amount, &st.Date, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning stock transaction: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

var _ storage.Store = (*Store)(nil)
