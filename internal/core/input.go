package core

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

type (
	// CategoryInput is a create request, or an update when ID is set
	// (only inside a budget upsert).
	CategoryInput struct {
		ID     string      `json:"id,omitempty"`
		Name   string      `json:"name"`
		Amount *Money      `json:"amount"`
		Period Granularity `json:"period,omitempty"`
	}

	// CategoryPatch lists the fields to change; nil means untouched.
	CategoryPatch struct {
		Name   *string      `json:"name,omitempty"`
		Amount *Money       `json:"amount,omitempty"`
		Period *Granularity `json:"period,omitempty"`
	}

	BudgetInput struct {
		TotalAmount *Money          `json:"total_amount"`
		Categories  []CategoryInput `json:"categories"`
	}

	TransactionInput struct {
		Type        TransactionType `json:"type"`
		Amount      *Money          `json:"amount"`
		Description string          `json:"description"`
		CategoryID  string          `json:"category_id,omitempty"`
		Date        *Date           `json:"date"`
	}

	// TransactionPatch lists the fields to change; nil means untouched.
	// A CategoryID pointing at "" clears the category.
	TransactionPatch struct {
		Type        *TransactionType `json:"type,omitempty"`
		Amount      *Money           `json:"amount,omitempty"`
		Description *string          `json:"description,omitempty"`
		CategoryID  *string          `json:"category_id,omitempty"`
		Date        *Date            `json:"date,omitempty"`
	}

	TransactionFilter struct {
		Page       int
		Limit      int
		Type       TransactionType
		CategoryID string
		Start      *Date
		End        *Date
	}

	Pagination struct {
		Page        int  `json:"page"`
		Limit       int  `json:"limit"`
		Total       int  `json:"total"`
		TotalPages  int  `json:"totalPages"`
		HasNextPage bool `json:"hasNextPage"`
		HasPrevPage bool `json:"hasPrevPage"`
	}

	TransactionPage struct {
		Transactions []Transaction `json:"transactions"`
		Pagination   Pagination    `json:"pagination"`
	}
)

var ErrNoChanges = errors.New("no changes to update")

// Category builds the entity a create request describes.
func (in CategoryInput) Category(budgetID string) (Category, error) {
	c := Category{
		BudgetID: budgetID,
		Name:     strings.TrimSpace(in.Name),
		Period:   in.Period,
	}
	if c.Name == "" || in.Amount == nil {
		return Category{}, errors.New("category name and amount are required")
	}
	c.Amount = *in.Amount
	if c.Period == "" {
		c.Period = Monthly
	}
	if err := c.Validate(); err != nil {
		return Category{}, err
	}
	return c, nil
}

// Patch converts an upsert entry carrying an id into a partial update.
func (in CategoryInput) Patch() CategoryPatch {
	var p CategoryPatch
	if name := strings.TrimSpace(in.Name); name != "" {
		p.Name = &name
	}
	if in.Amount != nil {
		amount := *in.Amount
		p.Amount = &amount
	}
	if in.Period != "" {
		period := in.Period
		p.Period = &period
	}
	return p
}

func (p CategoryPatch) IsEmpty() bool {
	return p.Name == nil && p.Amount == nil && p.Period == nil
}

func (p CategoryPatch) Validate() error {
	if p.IsEmpty() {
		return ErrNoChanges
	}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return ErrEmptyName
		}
		if len(*p.Name) > maxNameLength {
			return errors.New("name too long (max 100 characters)")
		}
	}
	if p.Amount != nil && p.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if p.Period != nil && !p.Period.Valid() {
		return ErrInvalidGranularity
	}
	return nil
}

func (in BudgetInput) Validate() error {
	if in.TotalAmount == nil {
		return errors.New("total amount is required")
	}
	if in.TotalAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// NormalizeCategoryRef maps the empty string and the income sentinel to no category.
func NormalizeCategoryRef(id string) string {
	id = strings.TrimSpace(id)
	if id == UncategorizedSentinel {
		return ""
	}
	return id
}

// UnmarshalJSON reads the category reference from "category", falling back to
// "category_id".
func (in *TransactionInput) UnmarshalJSON(data []byte) error {
	type plain TransactionInput
	aux := struct {
		*plain
		Category *string `json:"category"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Category != nil {
		in.CategoryID = *aux.Category
	}
	return nil
}

// UnmarshalJSON reads the category reference from "category", falling back to
// "category_id".
func (p *TransactionPatch) UnmarshalJSON(data []byte) error {
	type plain TransactionPatch
	aux := struct {
		*plain
		Category *string `json:"category"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Category != nil {
		p.CategoryID = aux.Category
	}
	return nil
}

// Transaction builds the entity a create request describes.
func (in TransactionInput) Transaction(userID string) (Transaction, error) {
	if in.Type == "" || in.Amount == nil || strings.TrimSpace(in.Description) == "" || in.Date == nil || in.Date.IsZero() {
		return Transaction{}, errors.New("type, amount, description, and date are required")
	}
	tx := Transaction{
		UserID:      userID,
		Type:        in.Type,
		Amount:      *in.Amount,
		Description: strings.TrimSpace(in.Description),
		Date:        *in.Date,
	}
	if ref := NormalizeCategoryRef(in.CategoryID); ref != "" {
		tx.CategoryID = &ref
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

func (p TransactionPatch) IsEmpty() bool {
	return p.Type == nil && p.Amount == nil && p.Description == nil && p.CategoryID == nil && p.Date == nil
}

func (p TransactionPatch) Validate() error {
	if p.IsEmpty() {
		return ErrNoChanges
	}
	if p.Type != nil && !p.Type.Valid() {
		return ErrInvalidType
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if strings.TrimSpace(*p.Description) == "" {
			return ErrEmptyDescription
		}
		if len(*p.Description) > maxDescriptionLength {
			return errors.New("description too long (max 200 characters)")
		}
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Normalize fills in paging defaults and clamps the page size.
func (f TransactionFilter) Normalize() TransactionFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}

func (f TransactionFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

func (f TransactionFilter) Validate() error {
	if f.Type != "" && !f.Type.Valid() {
		return ErrInvalidType
	}
	if f.Start != nil && f.End != nil && f.Start.After(f.End.Time) {
		return ErrInvalidPeriod
	}
	return nil
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  pages,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}
