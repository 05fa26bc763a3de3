package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/internal/quotes"
	"github.com/ruivenancio/finance-app/internal/storage"
	"github.com/ruivenancio/finance-app/models"
)

// StockService manages holdings and their BUY/SELL/DIVIDEND bookkeeping:
// quantity and average price on the holding, the cash effect on the
// linked account, and the mirrored ledger transaction.
type StockService struct {
	store  storage.Store
	quotes quotes.Provider
}

func NewStockService(store storage.Store, provider quotes.Provider) *StockService {
	return &StockService{store: store, quotes: provider}
}

type StockInput struct {
	Symbol       string
	Quantity     decimal.Decimal
	AveragePrice decimal.Decimal
	AccountID    string
}

type StockTransactionInput struct {
	Type     models.StockTransactionType
	Quantity *decimal.Decimal
	Price    *decimal.Decimal
	Amount   decimal.Decimal
	Date     time.Time
}

func (s *StockService) List(ctx context.Context, userID string) ([]models.Stock, error) {
	return s.store.ListStocks(ctx, userID)
}

func (s *StockService) Get(ctx context.Context, userID, id string) (*models.Stock, error) {
	return s.store.GetStock(ctx, id, userID)
}

// Create registers a holding. The initial quote lookup is best-effort:
// on failure the current price stays unset and creation still succeeds.
func (s *StockService) Create(ctx context.Context, userID string, in StockInput) (*models.Stock, error) {
	if in.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidInput)
	}
	if _, err := s.store.GetAccount(ctx, in.AccountID, userID); err != nil {
		return nil, err
	}

	stock := &models.Stock{
		UserID:       userID,
		AccountID:    in.AccountID,
		Symbol:       in.Symbol,
		Quantity:     in.Quantity,
		AveragePrice: in.AveragePrice,
	}
	if price, err := s.quotes.Quote(ctx, in.Symbol); err != nil {
		log.Printf("initial quote for %s failed: %v", in.Symbol, err)
	} else {
		stock.CurrentPrice = &price
	}

	if err := s.store.CreateStock(ctx, stock); err != nil {
		return nil, err
	}
	return stock, nil
}

func (s *StockService) Update(ctx context.Context, userID, id string, patch models.StockPatch) (*models.Stock, error) {
	stock, err := s.store.GetStock(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if patch.Symbol != nil {
		if *patch.Symbol == "" {
			return nil, fmt.Errorf("%w: symbol is required", ErrInvalidInput)
		}
		stock.Symbol = *patch.Symbol
	}
	if patch.AccountID != nil {
		if _, err := s.store.GetAccount(ctx, *patch.AccountID, userID); err != nil {
			return nil, err
		}
		stock.AccountID = *patch.AccountID
	}
	if err := s.store.UpdateStock(ctx, stock); err != nil {
		return nil, err
	}
	return stock, nil
}

func (s *StockService) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteStock(ctx, id, userID)
}

// SyncPrices refreshes the caller's holdings from the quote source.
// Per-symbol failures are logged and skipped; the count of holdings
// actually updated is returned.
func (s *StockService) SyncPrices(ctx context.Context, userID string) (int, error) {
	stocks, err := s.store.ListStocks(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.refresh(ctx, stocks), nil
}

// RefreshAllPrices spans every user's holdings; the cron job calls it.
func (s *StockService) RefreshAllPrices(ctx context.Context) (int, error) {
	stocks, err := s.store.ListAllStocks(ctx)
	if err != nil {
		return 0, err
	}
	return s.refresh(ctx, stocks), nil
}

func (s *StockService) refresh(ctx context.Context, stocks []models.Stock) int {
	updated := 0
	for _, stock := range stocks {
		price, err := s.quotes.Quote(ctx, stock.Symbol)
		if err != nil {
			log.Printf("price sync for %s failed: %v", stock.Symbol, err)
			continue
		}
		// Write only the price: the holding may have changed while the
		// quote lookup was in flight, and a BUY or SELL committed in that
		// window must not be overwritten with the stale snapshot.
		if err := s.store.UpdateStockPrice(ctx, stock.ID, price); err != nil {
			log.Printf("price sync for %s failed: %v", stock.Symbol, err)
			continue
		}
		updated++
	}
	return updated
}

func (s *StockService) ListTransactions(ctx context.Context, userID, stockID string) ([]models.StockTransaction, error) {
	if _, err := s.store.GetStock(ctx, stockID, userID); err != nil {
		return nil, err
	}
	return s.store.ListStockTransactions(ctx, stockID, userID)
}

// CreateTransaction records a BUY, SELL or DIVIDEND against a holding.
// The stock-transaction insert, the holding's quantity/average-price
// update, the linked account's balance change and the mirrored ledger
// transaction commit together or not at all.
//
// BUY:      totalCost = q0*p0 + amount; q = q0 + quantity;
//           avgPrice = totalCost/q when q > 0; account -= amount.
// SELL:     q = q0 - quantity; avgPrice unchanged; account += amount.
// DIVIDEND: q and avgPrice unchanged; account += amount.
func (s *StockService) CreateTransaction(ctx context.Context, userID, stockID string, in StockTransactionInput) (*models.StockTransaction, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown stock transaction type %q", ErrInvalidInput, in.Type)
	}
	if (in.Type == models.StockBuy || in.Type == models.StockSell) && in.Quantity == nil {
		return nil, fmt.Errorf("%w: quantity is required for %s", ErrInvalidInput, in.Type)
	}

	var created *models.StockTransaction
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		stock, err := tx.GetStockForUpdate(ctx, stockID, userID)
		if err != nil {
			return err
		}

		created = &models.StockTransaction{
			UserID:   userID,
			StockID:  stockID,
			Type:     in.Type,
			Quantity: in.Quantity,
			Price:    in.Price,
			Amount:   in.Amount,
			Date:     in.Date,
		}
		if err := tx.CreateStockTransaction(ctx, created); err != nil {
			return err
		}

		var cashDelta decimal.Decimal
		var mirrorAmount decimal.Decimal
		var mirrorDesc string

		switch in.Type {
		case models.StockBuy:
			totalCost := stock.Quantity.Mul(stock.AveragePrice).Add(in.Amount)
			stock.Quantity = stock.Quantity.Add(*in.Quantity)
			if stock.Quantity.IsPositive() {
				stock.AveragePrice = totalCost.Div(stock.Quantity)
			}
			cashDelta = in.Amount.Neg()
			mirrorAmount = in.Amount.Neg()
			mirrorDesc = fmt.Sprintf("Buy %s (%s shares)", stock.Symbol, in.Quantity)
		case models.StockSell:
			// Average price stays put on a sell; realized gain/loss is
			// not tracked separately.
			stock.Quantity = stock.Quantity.Sub(*in.Quantity)
			cashDelta = in.Amount
			mirrorAmount = in.Amount
			mirrorDesc = fmt.Sprintf("Sell %s (%s shares)", stock.Symbol, in.Quantity)
		case models.StockDividend:
			cashDelta = in.Amount
			mirrorAmount = in.Amount
			mirrorDesc = fmt.Sprintf("Dividend %s", stock.Symbol)
		}

		stock.Account = nil
		if err := tx.UpdateStock(ctx, stock); err != nil {
			return err
		}

		account, err := tx.GetAccountForUpdate(ctx, stock.AccountID, userID)
		if errors.Is(err, storage.ErrNotFound) {
			// Funding account was deleted: no cash side to record.
			log.Printf("stock %s: linked account %s is gone, skipping cash leg", stock.Symbol, stock.AccountID)
			return nil
		}
		if err != nil {
			return err
		}
		account.Balance = account.Balance.Add(cashDelta)
		if err := tx.UpdateAccount(ctx, account); err != nil {
			return err
		}

		mirror := &models.Transaction{
			UserID:      userID,
			AccountID:   stock.AccountID,
			Date:        in.Date,
			Amount:      mirrorAmount,
			Description: mirrorDesc,
		}
		return tx.CreateTransaction(ctx, mirror)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
