package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a signed cash movement posted against an account.
// Negative amounts are expenses, positive amounts income.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	AccountID   string          `json:"accountId"`
	CategoryID  *string         `json:"categoryId"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    *Category       `json:"category,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// TransactionPatch carries a partial update. CategoryID distinguishes
// "not sent" from an explicit null that clears the category.
type TransactionPatch struct {
	Date        *time.Time       `json:"date"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	AccountID   *string          `json:"accountId"`
	CategoryID  Optional[string] `json:"categoryId"`
}
