package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock is a holding: a position in a symbol funded by one account.
// Quantity and AveragePrice are maintained by the stock-transaction
// bookkeeping; CurrentPrice is advisory and refreshed best-effort.
type Stock struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	AccountID    string           `json:"accountId"`
	Symbol       string           `json:"symbol"`
	Quantity     decimal.Decimal  `json:"quantity"`
	AveragePrice decimal.Decimal  `json:"averagePrice"`
	CurrentPrice *decimal.Decimal `json:"currentPrice"`
	Account      *Account         `json:"account,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type StockPatch struct {
	Symbol    *string `json:"symbol"`
	AccountID *string `json:"accountId"`
}

type StockTransactionType string

const (
	StockBuy      StockTransactionType = "BUY"
	StockSell     StockTransactionType = "SELL"
	StockDividend StockTransactionType = "DIVIDEND"
)

func (t StockTransactionType) Valid() bool {
	switch t {
	case StockBuy, StockSell, StockDividend:
		return true
	}
	return false
}

type StockTransaction struct {
	ID        string               `json:"id"`
	UserID    string               `json:"userId"`
	StockID   string               `json:"stockId"`
	Type      StockTransactionType `json:"type"`
	Quantity  *decimal.Decimal     `json:"quantity"`
	Price     *decimal.Decimal     `json:"price"`
	Amount    decimal.Decimal      `json:"amount"`
	Date      time.Time            `json:"date"`
	CreatedAt time.Time            `json:"createdAt"`
}
