package services

import (
	"context"
	"errors"

	"budge/internal/amqp"
	"budge/internal/core"
	"budge/internal/storage"
)

const (
	msgTransactionNotFound = "transaction not found"
	msgInvalidCategory     = "invalid category"
)

type TransactionService struct {
	store   TransactionStore
	budgets *BudgetService
	events  EventPublisher
}

func NewTransactionService(store TransactionStore, budgets *BudgetService, events EventPublisher) *TransactionService {
	return &TransactionService{
		store:   store,
		budgets: budgets,
		events:  events,
	}
}

// List returns one page of the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID string, f core.TransactionFilter) (core.TransactionPage, error) {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return core.TransactionPage{}, core.Invalid(err)
	}
	f.CategoryID = core.NormalizeCategoryRef(f.CategoryID)

	txs, total, err := s.store.ListTransactions(ctx, userID, f)
	if err != nil {
		return core.TransactionPage{}, core.Store("list transactions", err)
	}
	return core.TransactionPage{
		Transactions: txs,
		Pagination:   core.NewPagination(f.Page, f.Limit, total),
	}, nil
}

func (s *TransactionService) Create(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error) {
	tx, err := in.Transaction(userID)
	if err != nil {
		return core.Transaction{}, core.Invalid(err)
	}
	if tx.HasCategory() {
		if err := s.checkCategory(ctx, userID, *tx.CategoryID); err != nil {
			return core.Transaction{}, err
		}
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, core.Store("create transaction", err)
	}

	publish(ctx, s.events, amqp.NewBudgetEvent(amqp.EventTransactionCreated, userID, created.ID, created.Date.String()))
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id, userID)
	if err != nil {
		return core.Transaction{}, transactionError(err, "get transaction")
	}
	return tx, nil
}

// Update applies the fields present in patch to one of the user's transactions.
func (s *TransactionService) Update(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	if patch.CategoryID != nil {
		ref := core.NormalizeCategoryRef(*patch.CategoryID)
		patch.CategoryID = &ref
	}
	if err := patch.Validate(); err != nil {
		return core.Transaction{}, core.Invalid(err)
	}
	if patch.CategoryID != nil && *patch.CategoryID != "" {
		if err := s.checkCategory(ctx, userID, *patch.CategoryID); err != nil {
			return core.Transaction{}, err
		}
	}

	if err := s.store.UpdateTransaction(ctx, id, userID, patch); err != nil {
		return core.Transaction{}, transactionError(err, "update transaction")
	}
	updated, err := s.Get(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	publish(ctx, s.events, amqp.NewBudgetEvent(amqp.EventTransactionUpdated, userID, id, updated.Date.String()))
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id, userID); err != nil {
		return transactionError(err, "delete transaction")
	}

	publish(ctx, s.events, amqp.NewBudgetEvent(amqp.EventTransactionDeleted, userID, id, existing.Date.String()))
	return nil
}

// SpendingByCategory lists the categories with spend inside period. A user
// without a budget simply has no spending.
func (s *TransactionService) SpendingByCategory(ctx context.Context, userID string, period core.Period) ([]core.SpendingByCategory, error) {
	summaries, err := s.budgets.Summary(ctx, userID, period)
	if err != nil {
		if core.KindOf(err) == core.NotFound {
			return []core.SpendingByCategory{}, nil
		}
		return nil, err
	}
	return core.Spending(summaries), nil
}

func (s *TransactionService) checkCategory(ctx context.Context, userID, categoryID string) error {
	if _, err := s.store.GetCategoryForUser(ctx, categoryID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Wrap(core.InvalidArgument, msgInvalidCategory, err)
		}
		return core.Store("get category", err)
	}
	return nil
}

func transactionError(err error, op string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return core.Wrap(core.NotFound, msgTransactionNotFound, err)
	}
	return core.Store(op, err)
}
