package services

import (
	"context"
	"errors"
	"fmt"

	"budge/internal/amqp"
	"budge/internal/core"
	"budge/internal/storage"
)

const (
	msgBudgetNotFound    = "budget not found"
	msgCreateBudgetFirst = "budget not found, please create a budget first"
	msgCategoryNotFound  = "category not found or does not belong to your budget"
)

// BudgetService owns a user's budget, its categories and the spending summary.
type BudgetService struct {
	store  BudgetStore
	events EventPublisher
}

func NewBudgetService(store BudgetStore, events EventPublisher) *BudgetService {
	return &BudgetService{
		store:  store,
		events: events,
	}
}

// GetBudget returns the user's budget with its categories.
func (s *BudgetService) GetBudget(ctx context.Context, userID string) (core.Budget, error) {
	var budget core.Budget
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		budget, err = s.loadBudget(ctx, userID)
		return err
	})
	return budget, err
}

func (s *BudgetService) loadBudget(ctx context.Context, userID string) (core.Budget, error) {
	budget, err := s.store.GetBudgetByUser(ctx, userID)
	if err != nil {
		return core.Budget{}, budgetLookupError(err, msgBudgetNotFound, core.NotFound)
	}
	cats, err := s.store.ListCategories(ctx, budget.ID)
	if err != nil {
		return core.Budget{}, core.Store("list categories", err)
	}
	budget.Categories = cats
	return budget, nil
}

// ListCategories returns the categories of the user's budget ordered by name.
func (s *BudgetService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	budget, err := s.GetBudget(ctx, userID)
	if err != nil {
		return nil, err
	}
	return budget.Categories, nil
}

// UpsertBudget creates the user's budget or updates its total, then applies
// every category entry. The whole call is one store transaction: the first
// failing entry rolls back everything and is reported by index.
func (s *BudgetService) UpsertBudget(ctx context.Context, userID string, in core.BudgetInput) (core.Budget, error) {
	if err := in.Validate(); err != nil {
		return core.Budget{}, core.Invalid(err)
	}

	var budget core.Budget
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		budgetID, err := s.resolveBudget(ctx, userID, *in.TotalAmount)
		if err != nil {
			return err
		}

		for i, entry := range in.Categories {
			if entry.ID == "" {
				_, err = s.createCategory(ctx, budgetID, entry)
			} else {
				err = s.updateCategory(ctx, budgetID, entry.ID, entry.Patch())
			}
			if err != nil {
				return entryError(i, err)
			}
		}

		budget, err = s.loadBudget(ctx, userID)
		return err
	})
	if err != nil {
		return core.Budget{}, err
	}

	publish(ctx, s.events, amqp.NewBudgetEvent(amqp.EventBudgetUpserted, userID, budget.ID, ""))
	return budget, nil
}

// resolveBudget returns the id of the user's single budget, creating it when
// missing and otherwise updating its total.
func (s *BudgetService) resolveBudget(ctx context.Context, userID string, total core.Money) (string, error) {
	existing, err := s.store.GetBudgetByUser(ctx, userID)
	switch {
	case err == nil:
		if err := s.store.UpdateBudgetTotal(ctx, existing.ID, total); err != nil {
			return "", core.Store("update budget", err)
		}
		return existing.ID, nil
	case !errors.Is(err, storage.ErrNotFound):
		return "", core.Store("get budget", err)
	}

	created, err := s.store.CreateBudget(ctx, userID, total)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return "", core.Wrap(core.Conflict, "budget was created concurrently, retry the request", err)
		}
		return "", core.Store("create budget", err)
	}
	return created.ID, nil
}

// CreateCategory adds a category to the user's budget.
func (s *BudgetService) CreateCategory(ctx context.Context, userID string, in core.CategoryInput) (core.Category, error) {
	budget, err := s.store.GetBudgetByUser(ctx, userID)
	if err != nil {
		return core.Category{}, budgetLookupError(err, msgCreateBudgetFirst, core.PreconditionFailed)
	}

	c, err := s.createCategory(ctx, budget.ID, in)
	if err != nil {
		return core.Category{}, err
	}

	publish(ctx, s.events, amqp.NewBudgetEvent(amqp.EventCategoryCreated, userID, c.ID, ""))
	return c, nil
}

func (s *BudgetService) createCategory(ctx context.Context, budgetID string, in core.CategoryInput) (core.Category, error) {
	c, err := in.Category(budgetID)
	if err != nil {
		return core.Category{}, core.Invalid(err)
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, core.Store("create category", err)
	}
	return created, nil
}

// UpdateCategory applies patch to one of the user's categories. Categories
// that do not exist and categories of other users are reported identically.
func (s *BudgetService) UpdateCategory(ctx context.Context, userID, categoryID string, patch core.CategoryPatch) (core.Category, error) {
	current, err := s.ownedCategory(ctx, userID, categoryID)
	if err != nil {
		return core.Category{}, err
	}
	if err := s.updateCategory(ctx, current.BudgetID, categoryID, patch); err != nil {
		return core.Category{}, err
	}

	updated, err := s.ownedCategory(ctx, userID, categoryID)
	if err != nil {
		return core.Category{}, err
	}

	publish(ctx, s.events, amqp.NewBudgetEvent(amqp.EventCategoryUpdated, userID, categoryID, ""))
	return updated, nil
}

func (s *BudgetService) updateCategory(ctx context.Context, budgetID, categoryID string, patch core.CategoryPatch) error {
	if err := patch.Validate(); err != nil {
		return core.Invalid(err)
	}
	if err := s.store.UpdateCategory(ctx, budgetID, categoryID, patch); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Wrap(core.NotFound, msgCategoryNotFound, err)
		}
		return core.Store("update category", err)
	}
	return nil
}

// DeleteCategory detaches every transaction from the category and removes
// it, both in one store transaction.
func (s *BudgetService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.ownedCategory(ctx, userID, categoryID)
		if err != nil {
			return err
		}
		if _, err := s.store.ClearTransactionCategory(ctx, categoryID); err != nil {
			return core.Store("detach transactions", err)
		}
		remaining, err := s.store.CountCategoryTransactions(ctx, categoryID)
		if err != nil {
			return core.Store("detach transactions", err)
		}
		if remaining != 0 {
			return core.Store("detach transactions", fmt.Errorf("%d transactions still reference category %s", remaining, categoryID))
		}
		if err := s.store.DeleteCategory(ctx, current.BudgetID, categoryID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return core.Wrap(core.NotFound, msgCategoryNotFound, err)
			}
			return core.Store("delete category", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	publish(ctx, s.events, amqp.NewBudgetEvent(amqp.EventCategoryDeleted, userID, categoryID, ""))
	return nil
}

func (s *BudgetService) ownedCategory(ctx context.Context, userID, categoryID string) (core.Category, error) {
	c, err := s.store.GetCategoryForUser(ctx, categoryID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Category{}, core.Wrap(core.NotFound, msgCategoryNotFound, err)
		}
		return core.Category{}, core.Store("get category", err)
	}
	return c, nil
}

// Summary reports budgeted against spent for every category of the user's
// budget over period. Budget, categories and expenses are read from one
// snapshot.
func (s *BudgetService) Summary(ctx context.Context, userID string, period core.Period) ([]core.CategorySummary, error) {
	if err := period.Validate(); err != nil {
		return nil, core.Invalid(err)
	}

	var out []core.CategorySummary
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		budget, err := s.loadBudget(ctx, userID)
		if err != nil {
			return err
		}
		if len(budget.Categories) == 0 {
			out = []core.CategorySummary{}
			return nil
		}
		txs, err := s.store.ListExpensesInPeriod(ctx, userID, period)
		if err != nil {
			return core.Store("list expenses", err)
		}
		out = core.Summarize(userID, budget.Categories, txs, period)
		return nil
	})
	return out, err
}

func budgetLookupError(err error, msg string, kind core.Kind) error {
	if errors.Is(err, storage.ErrNotFound) {
		return core.Wrap(kind, msg, err)
	}
	return core.Store("get budget", err)
}

// entryError prefixes the failure of one upsert entry with its index.
// Store failures keep their kind; everything else is a bad request.
func entryError(i int, err error) error {
	kind := core.KindOf(err)
	if kind != core.StoreFailure {
		kind = core.InvalidArgument
	}
	return &core.Error{
		Kind:    kind,
		Message: fmt.Sprintf("categories[%d]: %s", i, core.MessageOf(err)),
		Err:     err,
	}
}
