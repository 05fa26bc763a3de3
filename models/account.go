package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountBank  AccountType = "BANK"
	AccountStock AccountType = "STOCK"
	AccountCard  AccountType = "CARD"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountBank, AccountStock, AccountCard:
		return true
	}
	return false
}

type Account struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// AccountPatch carries a partial update; nil fields are left untouched.
type AccountPatch struct {
	Name    *string          `json:"name"`
	Type    *AccountType     `json:"type"`
	Balance *decimal.Decimal `json:"balance"`
}
