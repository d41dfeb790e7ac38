package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Monthly Granularity = "monthly"
	Weekly  Granularity = "weekly"
	Daily   Granularity = "daily"
)

// UncategorizedSentinel is accepted in place of a category id on income
// transactions and means "no category".
const UncategorizedSentinel = "income"

const (
	maxNameLength        = 100
	maxDescriptionLength = 200
)

type (
	TransactionType string

	// Granularity is informational only; summaries always use the resolved window.
	Granularity string

	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	Budget struct {
		ID          string     `json:"id"`
		UserID      string     `json:"user_id"`
		TotalAmount Money      `json:"total_amount"`
		Categories  []Category `json:"categories"`
		CreatedAt   time.Time  `json:"created_at"`
		UpdatedAt   time.Time  `json:"updated_at"`
	}

	Category struct {
		ID        string      `json:"id"`
		BudgetID  string      `json:"budget_id"`
		Name      string      `json:"name"`
		Amount    Money       `json:"amount"`
		Period    Granularity `json:"period"`
		CreatedAt time.Time   `json:"created_at"`
		UpdatedAt time.Time   `json:"updated_at"`
	}

	Transaction struct {
		ID           string          `json:"id"`
		UserID       string          `json:"user_id"`
		Type         TransactionType `json:"type"`
		Amount       Money           `json:"amount"`
		Description  string          `json:"description"`
		CategoryID   *string         `json:"category_id"`
		CategoryName string          `json:"category_name,omitempty"`
		Date         Date            `json:"date"`
		CreatedAt    time.Time       `json:"created_at"`
		UpdatedAt    time.Time       `json:"updated_at"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidType        = errors.New("type must be income or expense")
	ErrInvalidGranularity = errors.New("period must be daily, weekly or monthly")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (g Granularity) Valid() bool {
	switch g {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// HasCategory reports whether the transaction is linked to a category.
func (t Transaction) HasCategory() bool {
	return t.CategoryID != nil && *t.CategoryID != ""
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > maxDescriptionLength {
		return errors.New("description too long (max 200 characters)")
	}
	return t.Date.Validate()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > maxNameLength {
		return errors.New("name too long (max 100 characters)")
	}
	if c.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !c.Period.Valid() {
		return ErrInvalidGranularity
	}
	return nil
}
