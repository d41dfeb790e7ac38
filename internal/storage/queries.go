package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createUser = `INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, arg User) error {
	_, err := q.db.ExecContext(ctx, createUser,
		arg.ID, arg.Name, arg.Email, arg.PasswordHash, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const userColumns = `id, name, email, password_hash, created_at, updated_at`

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const createBudget = `INSERT INTO budgets (id, user_id, total_amount_cents, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateBudget(ctx context.Context, arg Budget) error {
	_, err := q.db.ExecContext(ctx, createBudget,
		arg.ID, arg.UserID, arg.TotalAmountCents, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const getBudgetByUser = `SELECT id, user_id, total_amount_cents, created_at, updated_at
FROM budgets WHERE user_id = ?`

func (q *Queries) GetBudgetByUser(ctx context.Context, userID string) (Budget, error) {
	var b Budget
	err := q.db.QueryRowContext(ctx, getBudgetByUser, userID).
		Scan(&b.ID, &b.UserID, &b.TotalAmountCents, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

const updateBudgetTotal = `UPDATE budgets SET total_amount_cents = ?, updated_at = ? WHERE id = ?`

type UpdateBudgetTotalParams struct {
	ID               string
	TotalAmountCents int64
	UpdatedAt        string
}

func (q *Queries) UpdateBudgetTotal(ctx context.Context, arg UpdateBudgetTotalParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateBudgetTotal, arg.TotalAmountCents, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const categoryColumns = `c.id, c.budget_id, c.name, c.amount_cents, c.period, c.created_at, c.updated_at`

const createCategory = `INSERT INTO categories (id, budget_id, name, amount_cents, period, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateCategory(ctx context.Context, arg Category) error {
	_, err := q.db.ExecContext(ctx, createCategory,
		arg.ID, arg.BudgetID, arg.Name, arg.AmountCents, arg.Period, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const listCategoriesByBudget = `SELECT ` + categoryColumns + `
FROM categories c WHERE c.budget_id = ?
ORDER BY c.name ASC, c.id ASC`

func (q *Queries) ListCategoriesByBudget(ctx context.Context, budgetID string) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategoriesByBudget, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.BudgetID, &c.Name, &c.AmountCents, &c.Period, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCategoryForUser = `SELECT ` + categoryColumns + `
FROM categories c JOIN budgets b ON b.id = c.budget_id
WHERE c.id = ? AND b.user_id = ?`

func (q *Queries) GetCategoryForUser(ctx context.Context, id, userID string) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, getCategoryForUser, id, userID).
		Scan(&c.ID, &c.BudgetID, &c.Name, &c.AmountCents, &c.Period, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// NULL parameters leave the column untouched.
const updateCategory = `UPDATE categories SET
    name = COALESCE(?, name),
    amount_cents = COALESCE(?, amount_cents),
    period = COALESCE(?, period),
    updated_at = ?
WHERE id = ? AND budget_id = ?`

type UpdateCategoryParams struct {
	ID          string
	BudgetID    string
	Name        sql.NullString
	AmountCents sql.NullInt64
	Period      sql.NullString
	UpdatedAt   string
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateCategory,
		arg.Name, arg.AmountCents, arg.Period, arg.UpdatedAt, arg.ID, arg.BudgetID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const clearTransactionCategory = `UPDATE transactions SET category_id = NULL, updated_at = ? WHERE category_id = ?`

func (q *Queries) ClearTransactionCategory(ctx context.Context, categoryID, updatedAt string) (int64, error) {
	res, err := q.db.ExecContext(ctx, clearTransactionCategory, updatedAt, categoryID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteCategory = `DELETE FROM categories WHERE id = ? AND budget_id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id, budgetID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCategory, id, budgetID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const transactionColumns = `t.id, t.user_id, t.type, t.amount_cents, t.description, t.category_id,
    COALESCE(c.name, ''), t.date, t.created_at, t.updated_at`

const createTransaction = `INSERT INTO transactions (id, user_id, type, amount_cents, description, category_id, date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID, arg.UserID, arg.Type, arg.AmountCents, arg.Description, arg.CategoryID, arg.Date, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const getTransaction = `SELECT ` + transactionColumns + `
FROM transactions t LEFT JOIN categories c ON c.id = t.category_id
WHERE t.id = ? AND t.user_id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id, userID string) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id, userID)
	var t Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.AmountCents, &t.Description, &t.CategoryID,
		&t.CategoryName, &t.Date, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// Empty filter values disable the matching predicate.
const transactionFilter = `
WHERE t.user_id = ?
  AND (? = '' OR t.type = ?)
  AND (? = '' OR t.category_id = ?)
  AND (? = '' OR t.date >= ?)
  AND (? = '' OR t.date <= ?)`

type ListTransactionsParams struct {
	UserID     string
	Type       string
	CategoryID string
	StartDate  string
	EndDate    string
	Limit      int64
	Offset     int64
}

func (p ListTransactionsParams) filterArgs() []interface{} {
	return []interface{}{
		p.UserID,
		p.Type, p.Type,
		p.CategoryID, p.CategoryID,
		p.StartDate, p.StartDate,
		p.EndDate, p.EndDate,
	}
}

const listTransactions = `SELECT ` + transactionColumns + `
FROM transactions t LEFT JOIN categories c ON c.id = t.category_id` + transactionFilter + `
ORDER BY t.date DESC, t.created_at DESC, t.id DESC
LIMIT ? OFFSET ?`

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	args := append(arg.filterArgs(), arg.Limit, arg.Offset)
	return q.queryTransactions(ctx, listTransactions, args...)
}

const countTransactions = `SELECT COUNT(*) FROM transactions t` + transactionFilter

func (q *Queries) CountTransactions(ctx context.Context, arg ListTransactionsParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions, arg.filterArgs()...).Scan(&n)
	return n, err
}

const listCategorizedExpenses = `SELECT ` + transactionColumns + `
FROM transactions t JOIN categories c ON c.id = t.category_id
WHERE t.user_id = ? AND t.type = 'expense' AND t.date >= ? AND t.date <= ?
ORDER BY t.date ASC, t.id ASC`

func (q *Queries) ListCategorizedExpenses(ctx context.Context, userID, startDate, endDate string) ([]Transaction, error) {
	return q.queryTransactions(ctx, listCategorizedExpenses, userID, startDate, endDate)
}

const countTransactionsByCategory = `SELECT COUNT(*) FROM transactions WHERE category_id = ?`

func (q *Queries) CountTransactionsByCategory(ctx context.Context, categoryID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactionsByCategory, categoryID).Scan(&n)
	return n, err
}

func (q *Queries) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.AmountCents, &t.Description, &t.CategoryID,
			&t.CategoryName, &t.Date, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// NULL parameters leave the column untouched; clear_category wins over category_id.
const updateTransaction = `UPDATE transactions SET
    type = COALESCE(?, type),
    amount_cents = COALESCE(?, amount_cents),
    description = COALESCE(?, description),
    category_id = CASE WHEN ? THEN NULL ELSE COALESCE(?, category_id) END,
    date = COALESCE(?, date),
    updated_at = ?
WHERE id = ? AND user_id = ?`

type UpdateTransactionParams struct {
	ID            string
	UserID        string
	Type          sql.NullString
	AmountCents   sql.NullInt64
	Description   sql.NullString
	ClearCategory bool
	CategoryID    sql.NullString
	Date          sql.NullString
	UpdatedAt     string
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Type, arg.AmountCents, arg.Description, arg.ClearCategory, arg.CategoryID, arg.Date,
		arg.UpdatedAt, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
