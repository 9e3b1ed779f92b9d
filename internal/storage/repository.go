// Package storage persists the ledger in SQLite and owns every SQL statement
// in the application. All aggregations are delegated to the engine and return
// empty result sets, never errors, when no rows match.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"lumen/internal/core"

	_ "modernc.org/sqlite"
)

// SyncStatus values for the export pipeline.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

type (
	// TransactionRow is a transaction joined with its category name.
	TransactionRow struct {
		core.Transaction
		CategoryName string
		SyncStatus   string
		CreatedAt    time.Time
	}

	// BudgetRow is a budget joined with its category and the expense sum of
	// matching transactions for the budget's month.
	BudgetRow struct {
		ID           int64
		CategoryID   int64
		CategoryName string
		Month        string
		AmountCents  int64
		SpentCents   int64
	}

	// MonthReportRow is one month of the month-over-month report.
	MonthReportRow struct {
		Month        string
		IncomeCents  int64
		ExpenseCents int64
		NetCents     int64
	}

	// CategoryReportRow is one category of the per-month expense breakdown.
	CategoryReportRow struct {
		CategoryName string
		ExpenseCents int64
	}

	// PendingTransaction carries the minimal data for export queue messages.
	PendingTransaction struct {
		ID        int64
		CreatedAt time.Time
	}
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- categories ---

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind
		FROM categories
		ORDER BY kind, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (name, kind) VALUES (?, ?)", c.Name, c.Kind)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category id: %w", err)
	}
	slog.InfoContext(ctx, "Category created", "id", id, "name", c.Name, "kind", c.Kind)
	return id, nil
}

// CategoryNameByID returns core.ErrNotFound for an absent category.
func (r *SQLiteRepository) CategoryNameByID(ctx context.Context, id int64) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		"SELECT name FROM categories WHERE id = ?", id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("category name by id: %w", err)
	}
	return name, nil
}

// --- transactions ---

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	var note, receipt any
	if t.Note != "" {
		note = t.Note
	}
	if t.ReceiptPath != "" {
		receipt = t.ReceiptPath
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (kind, amount_cents, category_id, occurred_on, note, receipt_path, sync_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Kind, t.AmountCents, t.CategoryID, t.OccurredOn, note, receipt,
		SyncPending, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"kind", t.Kind,
		"amount_cents", t.AmountCents,
		"occurred_on", t.OccurredOn)
	return id, nil
}

// ListTransactions returns the month's transactions, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, month string, limit int) ([]TransactionRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.kind, t.amount_cents, t.category_id, t.occurred_on,
		       COALESCE(t.note, ''), COALESCE(t.receipt_path, ''),
		       COALESCE(c.name, ''), t.sync_status, t.created_at
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.occurred_on LIKE ?
		ORDER BY t.occurred_on DESC, t.id DESC
		LIMIT ?`, month+"-%", limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []TransactionRow
	for rows.Next() {
		row, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetTransaction returns core.ErrNotFound for an absent id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.kind, t.amount_cents, t.category_id, t.occurred_on,
		       COALESCE(t.note, ''), COALESCE(t.receipt_path, ''),
		       COALESCE(c.name, ''), t.sync_status, t.created_at
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.id = ?`, id)
	if err != nil {
		return TransactionRow{}, fmt.Errorf("get transaction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return TransactionRow{}, fmt.Errorf("get transaction: %w", err)
		}
		return TransactionRow{}, core.ErrNotFound
	}
	return scanTransaction(rows)
}

func scanTransaction(rows *sql.Rows) (TransactionRow, error) {
	var row TransactionRow
	var categoryID sql.NullInt64
	var createdAt string
	if err := rows.Scan(&row.ID, &row.Kind, &row.AmountCents, &categoryID,
		&row.OccurredOn, &row.Note, &row.ReceiptPath,
		&row.CategoryName, &row.SyncStatus, &createdAt); err != nil {
		return TransactionRow{}, fmt.Errorf("scan transaction: %w", err)
	}
	if categoryID.Valid {
		id := categoryID.Int64
		row.CategoryID = &id
	}
	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		row.CreatedAt = ts
	}
	return row, nil
}

// ListTransactionMonths returns the distinct months with recorded
// transactions, most recent first, capped at limit.
func (r *SQLiteRepository) ListTransactionMonths(ctx context.Context, limit int) ([]string, error) {
	return r.listMonths(ctx, `
		SELECT DISTINCT substr(occurred_on, 1, 7) AS month
		FROM transactions
		ORDER BY month DESC
		LIMIT ?`, limit)
}

// ListBudgetMonths returns the distinct months with budget records, most
// recent first, capped at limit.
func (r *SQLiteRepository) ListBudgetMonths(ctx context.Context, limit int) ([]string, error) {
	return r.listMonths(ctx, `
		SELECT DISTINCT month
		FROM budgets
		ORDER BY month DESC
		LIMIT ?`, limit)
}

func (r *SQLiteRepository) listMonths(ctx context.Context, query string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- aggregations ---

// MonthTotals sums transaction amounts for the month, partitioned by kind.
// Absent rows yield zeros.
func (r *SQLiteRepository) MonthTotals(ctx context.Context, month string) (income, expense int64, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents END), 0),
		       COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount_cents END), 0)
		FROM transactions
		WHERE occurred_on LIKE ?`, month+"-%").Scan(&income, &expense)
	if err != nil {
		return 0, 0, fmt.Errorf("month totals: %w", err)
	}
	return income, expense, nil
}

// ListBudgets returns every budget row for the month with the spent sum of
// matching expense transactions. A budget with no transactions reports zero
// spent. Duplicate (category, month) budgets are all returned.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, month string) ([]BudgetRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.category_id, c.name, b.month, b.amount_cents,
		       COALESCE(SUM(t.amount_cents), 0) AS spent_cents
		FROM budgets b
		JOIN categories c ON b.category_id = c.id
		LEFT JOIN transactions t
		    ON t.category_id = b.category_id
		   AND t.kind = 'expense'
		   AND t.occurred_on LIKE ?
		WHERE b.month = ?
		GROUP BY b.id, b.category_id, c.name, b.month, b.amount_cents
		ORDER BY c.name`, month+"-%", month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []BudgetRow
	for rows.Next() {
		var b BudgetRow
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.CategoryName, &b.Month,
			&b.AmountCents, &b.SpentCents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertBudget(ctx context.Context, b core.Budget) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO budgets (category_id, month, amount_cents) VALUES (?, ?, ?)",
		b.CategoryID, b.Month, b.AmountCents)
	if err != nil {
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("budget id: %w", err)
	}
	slog.InfoContext(ctx, "Budget saved",
		"id", id, "category_id", b.CategoryID, "month", b.Month, "amount_cents", b.AmountCents)
	return id, nil
}

// ReportMonths returns one row per distinct month in transaction history,
// most recent first: income, expense and net sums.
func (r *SQLiteRepository) ReportMonths(ctx context.Context, limit int) ([]MonthReportRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(occurred_on, 1, 7) AS month,
		       COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents END), 0) AS income_cents,
		       COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount_cents END), 0) AS expense_cents
		FROM transactions
		GROUP BY month
		ORDER BY month DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("report months: %w", err)
	}
	defer rows.Close()

	var out []MonthReportRow
	for rows.Next() {
		var m MonthReportRow
		if err := rows.Scan(&m.Month, &m.IncomeCents, &m.ExpenseCents); err != nil {
			return nil, fmt.Errorf("scan month report: %w", err)
		}
		m.NetCents = m.IncomeCents - m.ExpenseCents
		out = append(out, m)
	}
	return out, rows.Err()
}

// ReportCategories returns the month's expense sum per category, descending.
func (r *SQLiteRepository) ReportCategories(ctx context.Context, month string) ([]CategoryReportRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, COALESCE(SUM(t.amount_cents), 0) AS expense_cents
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.kind = 'expense' AND t.occurred_on LIKE ?
		GROUP BY c.name
		ORDER BY expense_cents DESC`, month+"-%")
	if err != nil {
		return nil, fmt.Errorf("report categories: %w", err)
	}
	defer rows.Close()

	var out []CategoryReportRow
	for rows.Next() {
		var c CategoryReportRow
		if err := rows.Scan(&c.CategoryName, &c.ExpenseCents); err != nil {
			return nil, fmt.Errorf("scan category report: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- export queue ---

// ListPendingExport returns transactions not yet mirrored to the export
// target, oldest first.
func (r *SQLiteRepository) ListPendingExport(ctx context.Context, limit int) ([]PendingTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at
		FROM transactions
		WHERE sync_status = ?
		ORDER BY id
		LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()

	var out []PendingTransaction
	for rows.Next() {
		var p PendingTransaction
		var createdAt string
		if err := rows.Scan(&p.ID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending export: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			p.CreatedAt = ts
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET sync_status = ? WHERE id = ?", SyncDone, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET sync_status = ? WHERE id = ?", SyncError, id); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

// --- users and sessions ---

func (r *SQLiteRepository) HasUsers(ctx context.Context) (bool, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) InsertUser(ctx context.Context, username, passwordHash string, createdAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, passwordHash, createdAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user id: %w", err)
	}
	slog.InfoContext(ctx, "User created", "id", id, "username", username)
	return id, nil
}

// UserCredentials returns core.ErrNotFound for an unknown username.
func (r *SQLiteRepository) UserCredentials(ctx context.Context, username string) (int64, string, error) {
	var id int64
	var hash string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, password_hash FROM users WHERE username = ?", username).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", core.ErrNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("user credentials: %w", err)
	}
	return id, hash, nil
}

// UserBySession resolves the current identity from a session token,
// returning core.ErrNotFound when the token is unknown.
func (r *SQLiteRepository) UserBySession(ctx context.Context, token string) (core.User, error) {
	var u core.User
	var createdAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.password_hash, u.created_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ?`, token).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("user by session: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		u.CreatedAt = ts
	}
	return u, nil
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, userID int64, token string, createdAt time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)",
		token, userID, createdAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// PruneSessions retains only the keep most-recent sessions of the user,
// discarding the oldest beyond that bound. Single delete-by-rank statement.
func (r *SQLiteRepository) PruneSessions(ctx context.Context, userID int64, keep int) error {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE user_id = ?
		  AND id NOT IN (
		      SELECT id FROM sessions
		      WHERE user_id = ?
		      ORDER BY created_at DESC, id DESC
		      LIMIT ?)`, userID, userID, keep); err != nil {
		return fmt.Errorf("prune sessions: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSessionsForUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SessionCount(ctx context.Context, userID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("session count: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, userID); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	slog.InfoContext(ctx, "Password updated", "user_id", userID)
	return nil
}
