package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Budget struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Year      int             `json:"year"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}
