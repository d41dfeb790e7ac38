package services

import (
	"context"

	"budge/internal/amqp"
	"budge/internal/core"
)

// TxRunner scopes a unit of work to one store transaction. Store calls made
// with the context handed to fn take part in it.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUserByID(ctx context.Context, id string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
}

type BudgetStore interface {
	TxRunner
	GetBudgetByUser(ctx context.Context, userID string) (core.Budget, error)
	CreateBudget(ctx context.Context, userID string, total core.Money) (core.Budget, error)
	UpdateBudgetTotal(ctx context.Context, budgetID string, total core.Money) error
	ListCategories(ctx context.Context, budgetID string) ([]core.Category, error)
	GetCategoryForUser(ctx context.Context, categoryID, userID string) (core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, budgetID, categoryID string, patch core.CategoryPatch) error
	ClearTransactionCategory(ctx context.Context, categoryID string) (int64, error)
	CountCategoryTransactions(ctx context.Context, categoryID string) (int64, error)
	DeleteCategory(ctx context.Context, budgetID, categoryID string) error
	ListExpensesInPeriod(ctx context.Context, userID string, p core.Period) ([]core.Transaction, error)
}

type TransactionStore interface {
	GetCategoryForUser(ctx context.Context, categoryID, userID string) (core.Category, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id, userID string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id, userID string, patch core.TransactionPatch) error
	DeleteTransaction(ctx context.Context, id, userID string) error
	ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, int, error)
}

// EventPublisher announces committed changes. A nil publisher disables events.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.BudgetEvent) error
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(u core.User) (string, error)
}
