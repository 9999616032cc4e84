package finance

import (
	"time"

	"github.com/jrsteele09/go-finance-client/money"
)

type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

type Transaction struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      money.Amount    `json:"amount"`
	Type        TransactionType `json:"type"`
	Date        time.Time       `json:"date"`
	UserID      string          `json:"userId"`
	CategoryID  *string         `json:"categoryId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	Color       *string   `json:"color,omitempty"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateTransactionInput struct {
	Description string          `json:"description"`
	Amount      money.Amount    `json:"amount"`
	Type        TransactionType `json:"type"`
	CategoryID  *string         `json:"categoryId,omitempty"`
	Date        *time.Time      `json:"date,omitempty"`
}

// UpdateTransactionInput changes only the fields that are set.
type UpdateTransactionInput struct {
	Description *string          `json:"description,omitempty"`
	Amount      *money.Amount    `json:"amount,omitempty"`
	Type        *TransactionType `json:"type,omitempty"`
	CategoryID  *string          `json:"categoryId,omitempty"`
	Date        *time.Time       `json:"date,omitempty"`
}

type CreateCategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Color       *string `json:"color,omitempty"`
}

type UpdateCategoryInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// TransactionFilters narrows a paginated listing. Page and Limit start at 1.
type TransactionFilters struct {
	Search     *string          `json:"search,omitempty"`
	Type       *TransactionType `json:"type,omitempty"`
	CategoryID *string          `json:"categoryId,omitempty"`
	Month      *int             `json:"month,omitempty"`
	Year       *int             `json:"year,omitempty"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
}

type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalItems      int  `json:"totalItems"`
	ItemsPerPage    int  `json:"itemsPerPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

type PaginatedTransactions struct {
	Transactions []Transaction `json:"transactions"`
	Pagination   Pagination    `json:"pagination"`
}

type updateUserInput struct {
	Name string `json:"name"`
}
