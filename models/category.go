package models

import "time"

type CategoryType string

const (
	CategoryIncome  CategoryType = "INCOME"
	CategoryExpense CategoryType = "EXPENSE"
)

func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

type Category struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	ParentID  *string      `json:"parentId"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// CategoryPatch carries a partial update. ParentID distinguishes "not sent"
// from an explicit null that detaches the category from its parent.
type CategoryPatch struct {
	Name     *string          `json:"name"`
	Type     *CategoryType    `json:"type"`
	ParentID Optional[string] `json:"parentId"`
}
