package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/internal/quotes"
	"github.com/ruivenancio/finance-app/internal/service"
	"github.com/ruivenancio/finance-app/internal/storage"
	"github.com/ruivenancio/finance-app/models"
)

func newHolding(t *testing.T, svc *service.StockService, userID, accountID, symbol, qty, avg string) *models.Stock {
	t.Helper()
	stock, err := svc.Create(context.Background(), userID, service.StockInput{
		Symbol:       symbol,
		Quantity:     dec(qty),
		AveragePrice: dec(avg),
		AccountID:    accountID,
	})
	if err != nil {
		t.Fatalf("create holding: %v", err)
	}
	return stock
}

func TestCreateStockQuoteIsBestEffort(t *testing.T) {
	store, userID, accountID := newTestUser(t, "0")

	// Empty static source fails every lookup; creation must still work.
	svc := service.NewStockService(store, quotes.Static{})
	stock := newHolding(t, svc, userID, accountID, "AAPL", "10", "100")
	if stock.CurrentPrice != nil {
		t.Errorf("expected unset current price, got %s", stock.CurrentPrice)
	}

	svc = service.NewStockService(store, quotes.Static{"MSFT": dec("410.25")})
	stock = newHolding(t, svc, userID, accountID, "MSFT", "1", "400")
	if stock.CurrentPrice == nil || !stock.CurrentPrice.Equal(dec("410.25")) {
		t.Errorf("expected current price 410.25, got %v", stock.CurrentPrice)
	}
}

func TestBuyUpdatesQuantityAndAveragePrice(t *testing.T) {
	store, userID, accountID := newTestUser(t, "2000")
	svc := service.NewStockService(store, quotes.Static{})
	stock := newHolding(t, svc, userID, accountID, "AAPL", "10", "100")

	_, err := svc.CreateTransaction(context.Background(), userID, stock.ID, service.StockTransactionInput{
		Type:     models.StockBuy,
		Quantity: decp("5"),
		Price:    decp("120"),
		Amount:   dec("600"),
		Date:     time.Now(),
	})
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}

	got, err := svc.Get(context.Background(), userID, stock.ID)
	if err != nil {
		t.Fatalf("get holding: %v", err)
	}
	if !got.Quantity.Equal(dec("15")) {
		t.Errorf("quantity = %s, want 15", got.Quantity)
	}
	// (10*100 + 600) / 15
	want := dec("1600").Div(dec("15"))
	if !got.AveragePrice.Equal(want) {
		t.Errorf("average price = %s, want %s", got.AveragePrice, want)
	}
	if balance := accountBalance(t, store, accountID, userID); !balance.Equal(dec("1400")) {
		t.Errorf("account balance = %s, want 1400", balance)
	}

	list, err := service.NewTransactionService(store).List(context.Background(), userID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 mirrored transaction, got %d", len(list))
	}
	if list[0].Description != "Buy AAPL (5 shares)" {
		t.Errorf("mirror description = %q", list[0].Description)
	}
	if !list[0].Amount.Equal(dec("-600")) {
		t.Errorf("mirror amount = %s, want -600", list[0].Amount)
	}
}

func TestSellKeepsAveragePrice(t *testing.T) {
	store, userID, accountID := newTestUser(t, "0")
	svc := service.NewStockService(store, quotes.Static{})
	stock := newHolding(t, svc, userID, accountID, "AAPL", "15", "106.67")

	_, err := svc.CreateTransaction(context.Background(), userID, stock.ID, service.StockTransactionInput{
		Type:     models.StockSell,
		Quantity: decp("5"),
		Price:    decp("110"),
		Amount:   dec("550"),
		Date:     time.Now(),
	})
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}

	got, err := svc.Get(context.Background(), userID, stock.ID)
	if err != nil {
		t.Fatalf("get holding: %v", err)
	}
	if !got.Quantity.Equal(dec("10")) {
		t.Errorf("quantity = %s, want 10", got.Quantity)
	}
	if !got.AveragePrice.Equal(dec("106.67")) {
		t.Errorf("average price changed on sell: %s", got.AveragePrice)
	}
	if balance := accountBalance(t, store, accountID, userID); !balance.Equal(dec("550")) {
		t.Errorf("account balance = %s, want 550", balance)
	}
}

func TestDividendOnlyMovesCash(t *testing.T) {
	store, userID, accountID := newTestUser(t, "100")
	svc := service.NewStockService(store, quotes.Static{})
	stock := newHolding(t, svc, userID, accountID, "AAPL", "10", "100")

	_, err := svc.CreateTransaction(context.Background(), userID, stock.ID, service.StockTransactionInput{
		Type:   models.StockDividend,
		Amount: dec("24"),
		Date:   time.Now(),
	})
	if err != nil {
		t.Fatalf("dividend failed: %v", err)
	}

	got, err := svc.Get(context.Background(), userID, stock.ID)
	if err != nil {
		t.Fatalf("get holding: %v", err)
	}
	if !got.Quantity.Equal(dec("10")) || !got.AveragePrice.Equal(dec("100")) {
		t.Errorf("holding changed on dividend: qty %s avg %s", got.Quantity, got.AveragePrice)
	}
	if balance := accountBalance(t, store, accountID, userID); !balance.Equal(dec("124")) {
		t.Errorf("account balance = %s, want 124", balance)
	}

	list, err := service.NewTransactionService(store).List(context.Background(), userID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(list) != 1 || list[0].Description != "Dividend AAPL" {
		t.Errorf("unexpected mirrored transactions: %+v", list)
	}
}

func TestStockTransactionValidation(t *testing.T) {
	store, userID, accountID := newTestUser(t, "0")
	svc := service.NewStockService(store, quotes.Static{})
	stock := newHolding(t, svc, userID, accountID, "AAPL", "10", "100")
	ctx := context.Background()

	_, err := svc.CreateTransaction(ctx, userID, stock.ID, service.StockTransactionInput{
		Type:   models.StockBuy,
		Amount: dec("100"),
	})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("buy without quantity: got %v", err)
	}

	_, err = svc.CreateTransaction(ctx, userID, stock.ID, service.StockTransactionInput{
		Type:   "SPLIT",
		Amount: dec("0"),
	})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("unknown type: got %v", err)
	}

	_, err = svc.CreateTransaction(ctx, userID, "missing", service.StockTransactionInput{
		Type:   models.StockDividend,
		Amount: dec("1"),
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown stock: got %v", err)
	}
}

func TestStockTransactionOrphanAccount(t *testing.T) {
	store, userID, accountID := newTestUser(t, "100")
	svc := service.NewStockService(store, quotes.Static{})
	stock := newHolding(t, svc, userID, accountID, "AAPL", "10", "100")
	ctx := context.Background()

	if err := store.DeleteAccount(ctx, accountID, userID); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	// The cash leg is skipped when the funding account is gone, but the
	// stock transaction and the holding update still commit.
	_, err := svc.CreateTransaction(ctx, userID, stock.ID, service.StockTransactionInput{
		Type:     models.StockBuy,
		Quantity: decp("2"),
		Amount:   dec("250"),
		Date:     time.Now(),
	})
	if err != nil {
		t.Fatalf("buy with orphaned account failed: %v", err)
	}

	got, err := svc.Get(ctx, userID, stock.ID)
	if err != nil {
		t.Fatalf("get holding: %v", err)
	}
	if !got.Quantity.Equal(dec("12")) {
		t.Errorf("quantity = %s, want 12", got.Quantity)
	}
	list, err := service.NewTransactionService(store).List(ctx, userID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("mirrored transaction recorded without an account: %+v", list)
	}
}

func TestListStockTransactions(t *testing.T) {
	store, userID, accountID := newTestUser(t, "1000")
	svc := service.NewStockService(store, quotes.Static{})
	stock := newHolding(t, svc, userID, accountID, "AAPL", "0", "0")
	ctx := context.Background()

	for _, amount := range []string{"100", "200"} {
		if _, err := svc.CreateTransaction(ctx, userID, stock.ID, service.StockTransactionInput{
			Type:     models.StockBuy,
			Quantity: decp("1"),
			Amount:   dec(amount),
			Date:     time.Now(),
		}); err != nil {
			t.Fatalf("buy failed: %v", err)
		}
	}

	list, err := svc.ListTransactions(ctx, userID, stock.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 stock transactions, got %d", len(list))
	}

	if _, err := svc.ListTransactions(ctx, userID, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown stock: got %v", err)
	}
}

func TestSyncPrices(t *testing.T) {
	store, userID, accountID := newTestUser(t, "0")
	svc := service.NewStockService(store, quotes.Static{"AAPL": dec("190.10")})
	ctx := context.Background()

	aapl := newHolding(t, svc, userID, accountID, "AAPL", "10", "100")
	newHolding(t, svc, userID, accountID, "ZZZZ", "1", "1")

	updated, err := svc.SyncPrices(ctx, userID)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1 (unknown symbol skipped)", updated)
	}

	got, err := svc.Get(ctx, userID, aapl.ID)
	if err != nil {
		t.Fatalf("get holding: %v", err)
	}
	if got.CurrentPrice == nil || !got.CurrentPrice.Equal(dec("190.10")) {
		t.Errorf("current price = %v, want 190.10", got.CurrentPrice)
	}
}

// quoteFunc lets a test run arbitrary code in the window between the
// holdings read and the price write-back.
type quoteFunc struct {
	fn func(ctx context.Context, symbol string) (decimal.Decimal, error)
}

func (q *quoteFunc) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return q.fn(ctx, symbol)
}

func TestSyncPricesKeepsConcurrentBuy(t *testing.T) {
	store, userID, accountID := newTestUser(t, "2000")
	provider := &quoteFunc{fn: func(context.Context, string) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("not yet")
	}}
	svc := service.NewStockService(store, provider)
	stock := newHolding(t, svc, userID, accountID, "AAPL", "10", "100")
	ctx := context.Background()

	// A buy lands while the sync is waiting on the quote API. The sync
	// must not write its stale holding snapshot back over it.
	provider.fn = func(context.Context, string) (decimal.Decimal, error) {
		if _, err := svc.CreateTransaction(ctx, userID, stock.ID, service.StockTransactionInput{
			Type:     models.StockBuy,
			Quantity: decp("5"),
			Amount:   dec("600"),
			Date:     time.Now(),
		}); err != nil {
			t.Fatalf("concurrent buy failed: %v", err)
		}
		return dec("123.45"), nil
	}

	updated, err := svc.SyncPrices(ctx, userID)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	got, err := svc.Get(ctx, userID, stock.ID)
	if err != nil {
		t.Fatalf("get holding: %v", err)
	}
	if !got.Quantity.Equal(dec("15")) {
		t.Errorf("quantity = %s after sync, want 15", got.Quantity)
	}
	if want := dec("1600").Div(dec("15")); !got.AveragePrice.Equal(want) {
		t.Errorf("average price = %s after sync, want %s", got.AveragePrice, want)
	}
	if got.CurrentPrice == nil || !got.CurrentPrice.Equal(dec("123.45")) {
		t.Errorf("current price = %v, want 123.45", got.CurrentPrice)
	}
}

func TestDeleteStockRemovesItsTransactions(t *testing.T) {
	store, userID, accountID := newTestUser(t, "1000")
	svc := service.NewStockService(store, quotes.Static{})
	stock := newHolding(t, svc, userID, accountID, "AAPL", "0", "0")
	ctx := context.Background()

	if _, err := svc.CreateTransaction(ctx, userID, stock.ID, service.StockTransactionInput{
		Type:     models.StockBuy,
		Quantity: decp("1"),
		Amount:   dec("100"),
		Date:     time.Now(),
	}); err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	if err := svc.Delete(ctx, userID, stock.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, userID, stock.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("stock still present: %v", err)
	}
}
