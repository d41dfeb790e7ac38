package storage

import "database/sql"

// Row types mirror the tables one to one. Timestamps are RFC 3339 text and
// business dates are YYYY-MM-DD text so that they compare lexicographically.

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    string
	UpdatedAt    string
}

type Budget struct {
	ID               string
	UserID           string
	TotalAmountCents int64
	CreatedAt        string
	UpdatedAt        string
}

type Category struct {
	ID          string
	BudgetID    string
	Name        string
	AmountCents int64
	Period      string
	CreatedAt   string
	UpdatedAt   string
}

type Transaction struct {
	ID           string
	UserID       string
	Type         string
	AmountCents  int64
	Description  string
	CategoryID   sql.NullString
	CategoryName string
	Date         string
	CreatedAt    string
	UpdatedAt    string
}
