package storage

import (
	"context"
	"path/filepath"
	"testing"

	"budge/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedBudget(t *testing.T, repo *SQLiteRepository, email string) (core.User, core.Budget) {
	t.Helper()
	ctx := context.Background()
	u, err := repo.CreateUser(ctx, core.User{Name: "Test", Email: email, PasswordHash: "x"})
	require.NoError(t, err)
	b, err := repo.CreateBudget(ctx, u.ID, core.MustMoney("5000"))
	require.NoError(t, err)
	return u, b
}

func TestRepository_UsersAndBudgets(t *testing.T) {
	repo := createTestRepository(t)
	ctx := context.Background()

	u, b := seedBudget(t, repo, "a@example.com")

	_, err := repo.CreateUser(ctx, core.User{Name: "Dup", Email: "a@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrConflict)

	byEmail, err := repo.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "x", byEmail.PasswordHash)

	_, err = repo.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.CreateBudget(ctx, u.ID, core.MustMoney("1"))
	assert.ErrorIs(t, err, ErrConflict, "a user owns at most one budget")

	require.NoError(t, repo.UpdateBudgetTotal(ctx, b.ID, core.MustMoney("6000")))
	got, err := repo.GetBudgetByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600000), got.TotalAmount.Cents)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRepository_CategoryOwnershipAndPatch(t *testing.T) {
	repo := createTestRepository(t)
	ctx := context.Background()

	owner, budget := seedBudget(t, repo, "owner@example.com")
	other, _ := seedBudget(t, repo, "other@example.com")

	c, err := repo.CreateCategory(ctx, core.Category{BudgetID: budget.ID, Name: "Food", Amount: core.MustMoney("400"), Period: core.Monthly})
	require.NoError(t, err)

	_, err = repo.GetCategoryForUser(ctx, c.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	amount := core.MustMoney("450")
	require.NoError(t, repo.UpdateCategory(ctx, budget.ID, c.ID, core.CategoryPatch{Amount: &amount}))

	got, err := repo.GetCategoryForUser(ctx, c.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Name, "absent fields stay untouched")
	assert.Equal(t, int64(45000), got.Amount.Cents)
	assert.Equal(t, core.Monthly, got.Period)

	err = repo.UpdateCategory(ctx, "another-budget", c.ID, core.CategoryPatch{Amount: &amount})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_CategoriesOrderedByName(t *testing.T) {
	repo := createTestRepository(t)
	ctx := context.Background()
	_, budget := seedBudget(t, repo, "order@example.com")

	for _, name := range []string{"Travel", "Food", "Bills", "Food"} {
		_, err := repo.CreateCategory(ctx, core.Category{BudgetID: budget.ID, Name: name, Period: core.Monthly})
		require.NoError(t, err)
	}

	cats, err := repo.ListCategories(ctx, budget.ID)
	require.NoError(t, err)
	require.Len(t, cats, 4)
	assert.Equal(t, "Bills", cats[0].Name)
	assert.Equal(t, "Food", cats[1].Name)
	assert.Equal(t, "Food", cats[2].Name)
	assert.Less(t, cats[1].ID, cats[2].ID)
	assert.Equal(t, "Travel", cats[3].Name)
}

func TestRepository_DeleteCategoryRequiresDetach(t *testing.T) {
	repo := createTestRepository(t)
	ctx := context.Background()
	u, budget := seedBudget(t, repo, "fk@example.com")

	c, err := repo.CreateCategory(ctx, core.Category{BudgetID: budget.ID, Name: "Food", Amount: core.MustMoney("10"), Period: core.Monthly})
	require.NoError(t, err)
	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: u.ID, Type: core.Expense, Amount: core.MustMoney("5"), Description: "bread",
		CategoryID: &c.ID, Date: core.NewDate(2023, 9, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, "Food", tx.CategoryName)

	n, err := repo.CountCategoryTransactions(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Error(t, repo.DeleteCategory(ctx, budget.ID, c.ID), "foreign key must block deleting a referenced category")

	err = repo.WithinTx(ctx, func(ctx context.Context) error {
		n, err := repo.ClearTransactionCategory(ctx, c.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), n)
		remaining, err := repo.CountCategoryTransactions(ctx, c.ID)
		if err != nil {
			return err
		}
		assert.Zero(t, remaining)
		return repo.DeleteCategory(ctx, budget.ID, c.ID)
	})
	require.NoError(t, err)

	got, err := repo.GetTransaction(ctx, tx.ID, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Empty(t, got.CategoryName)
}

func TestRepository_WithinTxRollsBack(t *testing.T) {
	repo := createTestRepository(t)
	ctx := context.Background()
	_, budget := seedBudget(t, repo, "rollback@example.com")

	err := repo.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := repo.CreateCategory(ctx, core.Category{BudgetID: budget.ID, Name: "Temp", Period: core.Monthly}); err != nil {
			return err
		}
		return ErrConflict
	})
	assert.ErrorIs(t, err, ErrConflict)

	cats, err := repo.ListCategories(ctx, budget.ID)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestRepository_TransactionsPagingAndFilters(t *testing.T) {
	repo := createTestRepository(t)
	ctx := context.Background()
	u, budget := seedBudget(t, repo, "tx@example.com")
	other, _ := seedBudget(t, repo, "tx-other@example.com")

	food, err := repo.CreateCategory(ctx, core.Category{BudgetID: budget.ID, Name: "Food", Amount: core.MustMoney("100"), Period: core.Monthly})
	require.NoError(t, err)

	for day := 1; day <= 5; day++ {
		_, err := repo.CreateTransaction(ctx, core.Transaction{
			UserID: u.ID, Type: core.Expense, Amount: core.MustMoney("1"), Description: "coffee",
			CategoryID: &food.ID, Date: core.NewDate(2023, 9, day),
		})
		require.NoError(t, err)
	}
	_, err = repo.CreateTransaction(ctx, core.Transaction{
		UserID: u.ID, Type: core.Income, Amount: core.MustMoney("2000"), Description: "salary", Date: core.NewDate(2023, 9, 28),
	})
	require.NoError(t, err)
	_, err = repo.CreateTransaction(ctx, core.Transaction{
		UserID: other.ID, Type: core.Expense, Amount: core.MustMoney("9"), Description: "not mine", Date: core.NewDate(2023, 9, 3),
	})
	require.NoError(t, err)

	page, total, err := repo.ListTransactions(ctx, u.ID, core.TransactionFilter{Page: 1, Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, page, 4)
	assert.Equal(t, "2023-09-28", page[0].Date.String(), "newest first")
	assert.Equal(t, "2023-09-05", page[1].Date.String())

	page, _, err = repo.ListTransactions(ctx, u.ID, core.TransactionFilter{Page: 2, Limit: 4})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	start, end := core.NewDate(2023, 9, 2), core.NewDate(2023, 9, 4)
	page, total, err = repo.ListTransactions(ctx, u.ID, core.TransactionFilter{Type: core.Expense, CategoryID: food.ID, Start: &start, End: &end})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 3)

	expenses, err := repo.ListExpensesInPeriod(ctx, u.ID, core.Period{Start: core.NewDate(2023, 9, 1), End: core.NewDate(2023, 9, 30)})
	require.NoError(t, err)
	assert.Len(t, expenses, 5, "income and uncategorized rows are excluded")
}

func TestRepository_TransactionPatch(t *testing.T) {
	repo := createTestRepository(t)
	ctx := context.Background()
	u, budget := seedBudget(t, repo, "patch@example.com")
	food, err := repo.CreateCategory(ctx, core.Category{BudgetID: budget.ID, Name: "Food", Period: core.Monthly})
	require.NoError(t, err)

	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: u.ID, Type: core.Expense, Amount: core.MustMoney("12.50"), Description: "lunch",
		CategoryID: &food.ID, Date: core.NewDate(2023, 9, 12),
	})
	require.NoError(t, err)

	desc := "team lunch"
	require.NoError(t, repo.UpdateTransaction(ctx, tx.ID, u.ID, core.TransactionPatch{Description: &desc}))
	got, err := repo.GetTransaction(ctx, tx.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "team lunch", got.Description)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, food.ID, *got.CategoryID)

	none := ""
	require.NoError(t, repo.UpdateTransaction(ctx, tx.ID, u.ID, core.TransactionPatch{CategoryID: &none}))
	got, err = repo.GetTransaction(ctx, tx.ID, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Equal(t, int64(1250), got.Amount.Cents)

	assert.ErrorIs(t, repo.UpdateTransaction(ctx, tx.ID, "someone-else", core.TransactionPatch{Description: &desc}), ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTransaction(ctx, tx.ID, "someone-else"), ErrNotFound)
	require.NoError(t, repo.DeleteTransaction(ctx, tx.ID, u.ID))
	_, err = repo.GetTransaction(ctx, tx.ID, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
