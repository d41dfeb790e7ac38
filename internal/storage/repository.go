package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budge/internal/core"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

type txKey struct{}

// DSN returns the connection string used for every pooled connection.
// Foreign keys are enforced per connection, so they go in the DSN.
func DSN(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// WithinTx runs fn inside one database transaction. Repository calls made
// with the context passed to fn join that transaction. Nested calls reuse
// the outer transaction.
func (r *SQLiteRepository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) q(ctx context.Context) *Queries {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return r.queries.WithTx(tx)
	}
	return r.queries
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().Format(time.RFC3339Nano)
}

// CreateUser inserts a user. A duplicate email yields ErrConflict.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	ts := r.timestamp()
	row := User{
		ID:           uuid.NewString(),
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := r.q(ctx).CreateUser(ctx, row); err != nil {
		if isUniqueViolation(err) {
			return core.User{}, ErrConflict
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", row.ID)
	return toUser(row), nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (core.User, error) {
	row, err := r.q(ctx).GetUserByID(ctx, id)
	if err != nil {
		return core.User{}, notFound("get user", err)
	}
	return toUser(row), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.q(ctx).GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, notFound("get user by email", err)
	}
	return toUser(row), nil
}

// GetBudgetByUser returns the user's budget without its categories.
func (r *SQLiteRepository) GetBudgetByUser(ctx context.Context, userID string) (core.Budget, error) {
	row, err := r.q(ctx).GetBudgetByUser(ctx, userID)
	if err != nil {
		return core.Budget{}, notFound("get budget", err)
	}
	return toBudget(row), nil
}

// CreateBudget inserts the user's budget. The unique index on user_id turns
// a concurrent second insert into ErrConflict.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, userID string, total core.Money) (core.Budget, error) {
	ts := r.timestamp()
	row := Budget{
		ID:               uuid.NewString(),
		UserID:           userID,
		TotalAmountCents: total.Cents,
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
	if err := r.q(ctx).CreateBudget(ctx, row); err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, ErrConflict
		}
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created", "budget_id", row.ID, "user_id", userID)
	return toBudget(row), nil
}

func (r *SQLiteRepository) UpdateBudgetTotal(ctx context.Context, budgetID string, total core.Money) error {
	n, err := r.q(ctx).UpdateBudgetTotal(ctx, UpdateBudgetTotalParams{
		ID:               budgetID,
		TotalAmountCents: total.Cents,
		UpdatedAt:        r.timestamp(),
	})
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCategories returns the budget's categories ordered by name, then id.
func (r *SQLiteRepository) ListCategories(ctx context.Context, budgetID string) ([]core.Category, error) {
	rows, err := r.q(ctx).ListCategoriesByBudget(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCategory(row))
	}
	return out, nil
}

// GetCategoryForUser returns the category only if its budget belongs to userID.
func (r *SQLiteRepository) GetCategoryForUser(ctx context.Context, categoryID, userID string) (core.Category, error) {
	row, err := r.q(ctx).GetCategoryForUser(ctx, categoryID, userID)
	if err != nil {
		return core.Category{}, notFound("get category", err)
	}
	return toCategory(row), nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	ts := r.timestamp()
	row := Category{
		ID:          uuid.NewString(),
		BudgetID:    c.BudgetID,
		Name:        c.Name,
		AmountCents: c.Amount.Cents,
		Period:      string(c.Period),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := r.q(ctx).CreateCategory(ctx, row); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "category_id", row.ID, "budget_id", row.BudgetID)
	return toCategory(row), nil
}

// UpdateCategory applies the fields present in patch to a category of budgetID.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, budgetID, categoryID string, patch core.CategoryPatch) error {
	arg := UpdateCategoryParams{
		ID:        categoryID,
		BudgetID:  budgetID,
		UpdatedAt: r.timestamp(),
	}
	if patch.Name != nil {
		arg.Name = sql.NullString{String: strings.TrimSpace(*patch.Name), Valid: true}
	}
	if patch.Amount != nil {
		arg.AmountCents = sql.NullInt64{Int64: patch.Amount.Cents, Valid: true}
	}
	if patch.Period != nil {
		arg.Period = sql.NullString{String: string(*patch.Period), Valid: true}
	}

	n, err := r.q(ctx).UpdateCategory(ctx, arg)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearTransactionCategory detaches every transaction from the category and
// returns how many were touched.
func (r *SQLiteRepository) ClearTransactionCategory(ctx context.Context, categoryID string) (int64, error) {
	n, err := r.q(ctx).ClearTransactionCategory(ctx, categoryID, r.timestamp())
	if err != nil {
		return 0, fmt.Errorf("clear transaction category: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, budgetID, categoryID string) error {
	n, err := r.q(ctx).DeleteCategory(ctx, categoryID, budgetID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Category deleted", "category_id", categoryID, "budget_id", budgetID)
	return nil
}

// CountCategoryTransactions reports how many transactions reference the category.
func (r *SQLiteRepository) CountCategoryTransactions(ctx context.Context, categoryID string) (int64, error) {
	n, err := r.q(ctx).CountTransactionsByCategory(ctx, categoryID)
	if err != nil {
		return 0, fmt.Errorf("count category transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	ts := r.timestamp()
	row := Transaction{
		ID:          uuid.NewString(),
		UserID:      t.UserID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Description: t.Description,
		CategoryID:  nullString(t.CategoryID),
		Date:        t.Date.String(),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := r.q(ctx).CreateTransaction(ctx, row); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"type", row.Type,
		"amount_cents", row.AmountCents,
		"date", row.Date)

	return r.GetTransaction(ctx, row.ID, row.UserID)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id, userID string) (core.Transaction, error) {
	row, err := r.q(ctx).GetTransaction(ctx, id, userID)
	if err != nil {
		return core.Transaction{}, notFound("get transaction", err)
	}
	return toTransaction(row)
}

// UpdateTransaction applies the fields present in patch to the user's transaction.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id, userID string, patch core.TransactionPatch) error {
	arg := UpdateTransactionParams{
		ID:        id,
		UserID:    userID,
		UpdatedAt: r.timestamp(),
	}
	if patch.Type != nil {
		arg.Type = sql.NullString{String: string(*patch.Type), Valid: true}
	}
	if patch.Amount != nil {
		arg.AmountCents = sql.NullInt64{Int64: patch.Amount.Cents, Valid: true}
	}
	if patch.Description != nil {
		arg.Description = sql.NullString{String: strings.TrimSpace(*patch.Description), Valid: true}
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID == "" {
			arg.ClearCategory = true
		} else {
			arg.CategoryID = sql.NullString{String: *patch.CategoryID, Valid: true}
		}
	}
	if patch.Date != nil {
		arg.Date = sql.NullString{String: patch.Date.String(), Valid: true}
	}

	n, err := r.q(ctx).UpdateTransaction(ctx, arg)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id, userID string) error {
	n, err := r.q(ctx).DeleteTransaction(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// ListTransactions returns one page of the user's transactions, newest first,
// together with the number of rows matching the filter.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, int, error) {
	f = f.Normalize()
	arg := ListTransactionsParams{
		UserID:     userID,
		Type:       string(f.Type),
		CategoryID: f.CategoryID,
		Limit:      int64(f.Limit),
		Offset:     int64(f.Offset()),
	}
	if f.Start != nil {
		arg.StartDate = f.Start.String()
	}
	if f.End != nil {
		arg.EndDate = f.End.String()
	}

	total, err := r.q(ctx).CountTransactions(ctx, arg)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	rows, err := r.q(ctx).ListTransactions(ctx, arg)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	out, err := toTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, int(total), nil
}

// ListExpensesInPeriod returns the user's categorized expenses dated inside p.
func (r *SQLiteRepository) ListExpensesInPeriod(ctx context.Context, userID string, p core.Period) ([]core.Transaction, error) {
	rows, err := r.q(ctx).ListCategorizedExpenses(ctx, userID, p.Start.String(), p.End.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses in period: %w", err)
	}
	return toTransactions(rows)
}

func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func toUser(row User) core.User {
	return core.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    parseTime(row.CreatedAt),
		UpdatedAt:    parseTime(row.UpdatedAt),
	}
}

func toBudget(row Budget) core.Budget {
	return core.Budget{
		ID:          row.ID,
		UserID:      row.UserID,
		TotalAmount: core.Money{Cents: row.TotalAmountCents},
		Categories:  []core.Category{},
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
	}
}

func toCategory(row Category) core.Category {
	return core.Category{
		ID:        row.ID,
		BudgetID:  row.BudgetID,
		Name:      row.Name,
		Amount:    core.Money{Cents: row.AmountCents},
		Period:    core.Granularity(row.Period),
		CreatedAt: parseTime(row.CreatedAt),
		UpdatedAt: parseTime(row.UpdatedAt),
	}
}

func toTransaction(row Transaction) (core.Transaction, error) {
	d, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s has bad date %q: %w", row.ID, row.Date, err)
	}
	t := core.Transaction{
		ID:           row.ID,
		UserID:       row.UserID,
		Type:         core.TransactionType(row.Type),
		Amount:       core.Money{Cents: row.AmountCents},
		Description:  row.Description,
		CategoryName: row.CategoryName,
		Date:         d,
		CreatedAt:    parseTime(row.CreatedAt),
		UpdatedAt:    parseTime(row.UpdatedAt),
	}
	if row.CategoryID.Valid {
		id := row.CategoryID.String
		t.CategoryID = &id
	}
	return t, nil
}

func toTransactions(rows []Transaction) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
