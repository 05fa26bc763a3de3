// Package memory is an in-memory storage.Store used by the service tests
// and local demos. A single mutex serializes every operation, which also
// gives InTx its all-or-nothing behavior: the state is cloned before the
// callback runs and restored if it fails.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/internal/storage"
	"github.com/ruivenancio/finance-app/models"
)

type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	users        map[string]models.User
	userByEmail  map[string]string
	accounts     map[string]models.Account
	categories   map[string]models.Category
	transactions map[string]models.Transaction
	budgets      map[string]models.Budget
	stocks       map[string]models.Stock
	stockTxs     map[string]models.StockTransaction
}

func New() *Store {
	return &Store{st: &state{
		users:        make(map[string]models.User),
		userByEmail:  make(map[string]string),
		accounts:     make(map[string]models.Account),
		categories:   make(map[string]models.Category),
		transactions: make(map[string]models.Transaction),
		budgets:      make(map[string]models.Budget),
		stocks:       make(map[string]models.Stock),
		stockTxs:     make(map[string]models.StockTransaction),
	}}
}

func (s *state) clone() *state {
	c := &state{
		users:        make(map[string]models.User, len(s.users)),
		userByEmail:  make(map[string]string, len(s.userByEmail)),
		accounts:     make(map[string]models.Account, len(s.accounts)),
		categories:   make(map[string]models.Category, len(s.categories)),
		transactions: make(map[string]models.Transaction, len(s.transactions)),
		budgets:      make(map[string]models.Budget, len(s.budgets)),
		stocks:       make(map[string]models.Stock, len(s.stocks)),
		stockTxs:     make(map[string]models.StockTransaction, len(s.stockTxs)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.userByEmail {
		c.userByEmail[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.budgets {
		c.budgets[k] = v
	}
	for k, v := range s.stocks {
		c.stocks[k] = v
	}
	for k, v := range s.stockTxs {
		c.stockTxs[k] = v
	}
	return c
}

// view operates on the state without locking; it is only reachable while
// the owning Store's mutex is held.
type view struct {
	st *state
}

func (s *Store) InTx(ctx context.Context, fn func(storage.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.st.clone()
	if err := fn(view{st: s.st}); err != nil {
		s.st = saved
		return err
	}
	return nil
}

// InTx on a view is already inside a transaction; just run the callback.
func (v view) InTx(ctx context.Context, fn func(storage.Store) error) error {
	return fn(v)
}

func (s *Store) locked(fn func(view) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(view{st: s.st})
}

// ---- users ----

func (v view) CreateUser(ctx context.Context, u *models.User) error {
	if _, ok := v.st.userByEmail[u.Email]; ok {
		return storage.ErrDuplicateEmail
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	v.st.users[u.ID] = *u
	v.st.userByEmail[u.Email] = u.ID
	return nil
}

func (v view) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	id, ok := v.st.userByEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u := v.st.users[id]
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.locked(func(v view) error { return v.CreateUser(ctx, u) })
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (u *models.User, err error) {
	s.locked(func(v view) error { u, err = v.GetUserByEmail(ctx, email); return nil })
	return u, err
}

// ---- accounts ----

func (v view) CreateAccount(ctx context.Context, a *models.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	v.st.accounts[a.ID] = *a
	return nil
}

func (v view) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	var out []models.Account
	for _, a := range v.st.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (v view) GetAccount(ctx context.Context, id, userID string) (*models.Account, error) {
	a, ok := v.st.accounts[id]
	if !ok || a.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &a, nil
}

func (v view) GetAccountForUpdate(ctx context.Context, id, userID string) (*models.Account, error) {
	return v.GetAccount(ctx, id, userID)
}

func (v view) UpdateAccount(ctx context.Context, a *models.Account) error {
	cur, ok := v.st.accounts[a.ID]
	if !ok || cur.UserID != a.UserID {
		return storage.ErrNotFound
	}
	a.CreatedAt = cur.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	v.st.accounts[a.ID] = *a
	return nil
}

func (v view) DeleteAccount(ctx context.Context, id, userID string) error {
	a, ok := v.st.accounts[id]
	if !ok || a.UserID != userID {
		return storage.ErrNotFound
	}
	delete(v.st.accounts, id)
	return nil
}

func (s *Store) CreateAccount(ctx context.Context, a *models.Account) error {
	return s.locked(func(v view) error { return v.CreateAccount(ctx, a) })
}

func (s *Store) ListAccounts(ctx context.Context, userID string) (out []models.Account, err error) {
	s.locked(func(v view) error { out, err = v.ListAccounts(ctx, userID); return nil })
	return out, err
}

func (s *Store) GetAccount(ctx context.Context, id, userID string) (a *models.Account, err error) {
	s.locked(func(v view) error { a, err = v.GetAccount(ctx, id, userID); return nil })
	return a, err
}

func (s *Store) GetAccountForUpdate(ctx context.Context, id, userID string) (*models.Account, error) {
	return s.GetAccount(ctx, id, userID)
}

func (s *Store) UpdateAccount(ctx context.Context, a *models.Account) error {
	return s.locked(func(v view) error { return v.UpdateAccount(ctx, a) })
}

func (s *Store) DeleteAccount(ctx context.Context, id, userID string) error {
	return s.locked(func(v view) error { return v.DeleteAccount(ctx, id, userID) })
}

// ---- categories ----

func (v view) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	v.st.categories[c.ID] = *c
	return nil
}

func (v view) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	var out []models.Category
	for _, c := range v.st.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (v view) GetCategory(ctx context.Context, id, userID string) (*models.Category, error) {
	c, ok := v.st.categories[id]
	if !ok || c.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &c, nil
}

func (v view) UpdateCategory(ctx context.Context, c *models.Category) error {
	cur, ok := v.st.categories[c.ID]
	if !ok || cur.UserID != c.UserID {
		return storage.ErrNotFound
	}
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	v.st.categories[c.ID] = *c
	return nil
}

func (v view) DeleteCategory(ctx context.Context, id, userID string) error {
	c, ok := v.st.categories[id]
	if !ok || c.UserID != userID {
		return storage.ErrNotFound
	}
	delete(v.st.categories, id)
	return nil
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	return s.locked(func(v view) error { return v.CreateCategory(ctx, c) })
}

func (s *Store) ListCategories(ctx context.Context, userID string) (out []models.Category, err error) {
	s.locked(func(v view) error { out, err = v.ListCategories(ctx, userID); return nil })
	return out, err
}

func (s *Store) GetCategory(ctx context.Context, id, userID string) (c *models.Category, err error) {
	s.locked(func(v view) error { c, err = v.GetCategory(ctx, id, userID); return nil })
	return c, err
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	return s.locked(func(v view) error { return v.UpdateCategory(ctx, c) })
}

func (s *Store) DeleteCategory(ctx context.Context, id, userID string) error {
	return s.locked(func(v view) error { return v.DeleteCategory(ctx, id, userID) })
}

// ---- transactions ----

func (v view) attachCategory(t models.Transaction) models.Transaction {
	if t.CategoryID != nil {
		if c, ok := v.st.categories[*t.CategoryID]; ok {
			t.Category = &c
		}
	}
	return t
}

func (v view) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	stored := *t
	stored.Category = nil
	v.st.transactions[t.ID] = stored
	return nil
}

func (v view) listTransactions(userID string, keep func(models.Transaction) bool) []models.Transaction {
	var out []models.Transaction
	for _, t := range v.st.transactions {
		if t.UserID == userID && keep(t) {
			out = append(out, v.attachCategory(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (v view) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	return v.listTransactions(userID, func(models.Transaction) bool { return true }), nil
}

func (v view) ListTransactionsSince(ctx context.Context, userID string, since time.Time) ([]models.Transaction, error) {
	return v.listTransactions(userID, func(t models.Transaction) bool {
		return !t.Date.Before(since)
	}), nil
}

func (v view) ListRecentTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	all := v.listTransactions(userID, func(models.Transaction) bool { return true })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (v view) GetTransaction(ctx context.Context, id, userID string) (*models.Transaction, error) {
	t, ok := v.st.transactions[id]
	if !ok || t.UserID != userID {
		return nil, storage.ErrNotFound
	}
	t = v.attachCategory(t)
	return &t, nil
}

func (v view) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	cur, ok := v.st.transactions[t.ID]
	if !ok || cur.UserID != t.UserID {
		return storage.ErrNotFound
	}
	t.CreatedAt = cur.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	stored := *t
	stored.Category = nil
	v.st.transactions[t.ID] = stored
	return nil
}

func (v view) DeleteTransaction(ctx context.Context, id, userID string) error {
	t, ok := v.st.transactions[id]
	if !ok || t.UserID != userID {
		return storage.ErrNotFound
	}
	delete(v.st.transactions, id)
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return s.locked(func(v view) error { return v.CreateTransaction(ctx, t) })
}

func (s *Store) ListTransactions(ctx context.Context, userID string) (out []models.Transaction, err error) {
	s.locked(func(v view) error { out, err = v.ListTransactions(ctx, userID); return nil })
	return out, err
}

func (s *Store) ListTransactionsSince(ctx context.Context, userID string, since time.Time) (out []models.Transaction, err error) {
	s.locked(func(v view) error { out, err = v.ListTransactionsSince(ctx, userID, since); return nil })
	return out, err
}

func (s *Store) ListRecentTransactions(ctx context.Context, userID string, limit int) (out []models.Transaction, err error) {
	s.locked(func(v view) error { out, err = v.ListRecentTransactions(ctx, userID, limit); return nil })
	return out, err
}

func (s *Store) GetTransaction(ctx context.Context, id, userID string) (t *models.Transaction, err error) {
	s.locked(func(v view) error { t, err = v.GetTransaction(ctx, id, userID); return nil })
	return t, err
}

func (s *Store) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	return s.locked(func(v view) error { return v.UpdateTransaction(ctx, t) })
}

func (s *Store) DeleteTransaction(ctx context.Context, id, userID string) error {
	return s.locked(func(v view) error { return v.DeleteTransaction(ctx, id, userID) })
}

// ---- budgets ----

func (v view) CreateBudget(ctx context.Context, b *models.Budget) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now().UTC()
	v.st.budgets[b.ID] = *b
	return nil
}

func (v view) ListBudgets(ctx context.Context, userID string, year int) ([]models.Budget, error) {
	var out []models.Budget
	for _, b := range v.st.budgets {
		if b.UserID == userID && b.Year == year {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateBudget(ctx context.Context, b *models.Budget) error {
	return s.locked(func(v view) error { return v.CreateBudget(ctx, b) })
}

func (s *Store) ListBudgets(ctx context.Context, userID string, year int) (out []models.Budget, err error) {
	s.locked(func(v view) error { out, err = v.ListBudgets(ctx, userID, year); return nil })
	return out, err
}

// ---- stocks ----

func (v view) attachAccount(st models.Stock) models.Stock {
	if a, ok := v.st.accounts[st.AccountID]; ok {
		st.Account = &a
	}
	return st
}

func (v view) CreateStock(ctx context.Context, st *models.Stock) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	st.CreatedAt, st.UpdatedAt = now, now
	stored := *st
	stored.Account = nil
	v.st.stocks[st.ID] = stored
	return nil
}

func (v view) ListStocks(ctx context.Context, userID string) ([]models.Stock, error) {
	var out []models.Stock
	for _, st := range v.st.stocks {
		if st.UserID == userID {
			out = append(out, v.attachAccount(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (v view) ListAllStocks(ctx context.Context) ([]models.Stock, error) {
	var out []models.Stock
	for _, st := range v.st.stocks {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (v view) GetStock(ctx context.Context, id, userID string) (*models.Stock, error) {
	st, ok := v.st.stocks[id]
	if !ok || st.UserID != userID {
		return nil, storage.ErrNotFound
	}
	st = v.attachAccount(st)
	return &st, nil
}

func (v view) GetStockForUpdate(ctx context.Context, id, userID string) (*models.Stock, error) {
	return v.GetStock(ctx, id, userID)
}

func (v view) UpdateStock(ctx context.Context, st *models.Stock) error {
	cur, ok := v.st.stocks[st.ID]
	if !ok || cur.UserID != st.UserID {
		return storage.ErrNotFound
	}
	st.CreatedAt = cur.CreatedAt
	st.UpdatedAt = time.Now().UTC()
	stored := *st
	stored.Account = nil
	v.st.stocks[st.ID] = stored
	return nil
}

func (v view) UpdateStockPrice(ctx context.Context, id string, price decimal.Decimal) error {
	st, ok := v.st.stocks[id]
	if !ok {
		return storage.ErrNotFound
	}
	st.CurrentPrice = &price
	st.UpdatedAt = time.Now().UTC()
	v.st.stocks[id] = st
	return nil
}

func (v view) DeleteStock(ctx context.Context, id, userID string) error {
	st, ok := v.st.stocks[id]
	if !ok || st.UserID != userID {
		return storage.ErrNotFound
	}
	delete(v.st.stocks, id)
	for txID, tx := range v.st.stockTxs {
		if tx.StockID == id {
			delete(v.st.stockTxs, txID)
		}
	}
	return nil
}

func (s *Store) CreateStock(ctx context.Context, st *models.Stock) error {
	return s.locked(func(v view) error { return v.CreateStock(ctx, st) })
}

func (s *Store) ListStocks(ctx context.Context, userID string) (out []models.Stock, err error) {
	s.locked(func(v view) error { out, err = v.ListStocks(ctx, userID); return nil })
	return out, err
}

func (s *Store) ListAllStocks(ctx context.Context) (out []models.Stock, err error) {
	s.locked(func(v view) error { out, err = v.ListAllStocks(ctx); return nil })
	return out, err
}

func (s *Store) GetStock(ctx context.Context, id, userID string) (st *models.Stock, err error) {
	s.locked(func(v view) error { st, err = v.GetStock(ctx, id, userID); return nil })
	return st, err
}

func (s *Store) GetStockForUpdate(ctx context.Context, id, userID string) (*models.Stock, error) {
	return s.GetStock(ctx, id, userID)
}

func (s *Store) UpdateStock(ctx context.Context, st *models.Stock) error {
	return s.locked(func(v view) error { return v.UpdateStock(ctx, st) })
}

func (s *Store) UpdateStockPrice(ctx context.Context, id string, price decimal.Decimal) error {
	return s.locked(func(v view) error { return v.UpdateStockPrice(ctx, id, price) })
}

func (s *Store) DeleteStock(ctx context.Context, id, userID string) error {
	return s.locked(func(v view) error { return v.DeleteStock(ctx, id, userID) })
}

// ---- stock transactions ----

func (v view) CreateStockTransaction(ctx context.Context, st *models.StockTransaction) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	st.CreatedAt = time.Now().UTC()
	v.st.stockTxs[st.ID] = *st
	return nil
}

func (v view) ListStockTransactions(ctx context.Context, stockID, userID string) ([]models.StockTransaction, error) {
	var out []models.StockTransaction
	for _, tx := range v.st.stockTxs {
		if tx.StockID == stockID && tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateStockTransaction(ctx context.Context, st *models.StockTransaction) error {
	return s.locked(func(v view) error { return v.CreateStockTransaction(ctx, st) })
}

func (s *Store) ListStockTransactions(ctx context.Context, stockID, userID string) (out []models.StockTransaction, err error) {
	s.locked(func(v view) error { out, err = v.ListStockTransactions(ctx, stockID, userID); return nil })
	return out, err
}

var (
	_ storage.Store = (*Store)(nil)
	_ storage.Store = view{}
)
