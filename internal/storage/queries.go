package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
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

// Row types mirror the tables one to one.
type (
	Transaction struct {
		ID          string
		UserID      string
		Type        string
		Amount      string
		Description string
		Category    string
		Date        string
		Notes       string
		CreatedAt   string
		Version     int64
		SyncStatus  string
		SyncedAt    sql.NullString
	}

	Account struct {
		ID        string
		UserID    string
		Title     string
		Amount    string
		Status    string
		DueDate   string
		Notes     string
		CreatedAt string
	}

	UserSettings struct {
		UserID         string
		Theme          string
		SidebarVariant string
		HiddenSections string
		UpdatedAt      string
	}
)

const transactionColumns = `id, user_id, type, amount, description, category, date, notes, created_at, version, sync_status, synced_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Type,
		&i.Amount,
		&i.Description,
		&i.Category,
		&i.Date,
		&i.Notes,
		&i.CreatedAt,
		&i.Version,
		&i.SyncStatus,
		&i.SyncedAt,
	)
	return i, err
}

const createTransaction = `INSERT INTO transactions (id, user_id, type, amount, description, category, date, notes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
	ID          string
	UserID      string
	Type        string
	Amount      string
	Description string
	Category    string
	Date        string
	Notes       string
	CreatedAt   string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.ID,
		arg.UserID,
		arg.Type,
		arg.Amount,
		arg.Description,
		arg.Category,
		arg.Date,
		arg.Notes,
		arg.CreatedAt,
	)
	return scanTransaction(row)
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions
WHERE user_id = ? AND type = ?
ORDER BY date DESC, created_at DESC`

func (q *Queries) ListTransactions(ctx context.Context, userID, typ string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, userID, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Transaction{}
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id, userID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getPendingSyncTransactions = `SELECT id, version FROM transactions
WHERE sync_status = 'pending'
ORDER BY created_at
LIMIT ?`

type PendingSyncRow struct {
	ID      string
	Version int64
}

func (q *Queries) GetPendingSyncTransactions(ctx context.Context, limit int64) ([]PendingSyncRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PendingSyncRow{}
	for rows.Next() {
		var i PendingSyncRow
		if err := rows.Scan(&i.ID, &i.Version); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markTransactionSynced = `UPDATE transactions SET sync_status = 'synced', synced_at = ? WHERE id = ?`

func (q *Queries) MarkTransactionSynced(ctx context.Context, id, at string) error {
	_, err := q.db.ExecContext(ctx, markTransactionSynced, at, id)
	return err
}

const markTransactionSyncError = `UPDATE transactions SET sync_status = 'error' WHERE id = ?`

func (q *Queries) MarkTransactionSyncError(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markTransactionSyncError, id)
	return err
}

const accountColumns = `id, user_id, title, amount, status, due_date, notes, created_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (Account, error) {
	var i Account
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Title,
		&i.Amount,
		&i.Status,
		&i.DueDate,
		&i.Notes,
		&i.CreatedAt,
	)
	return i, err
}

const createAccount = `INSERT INTO accounts (id, user_id, title, amount, status, due_date, notes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + accountColumns

type CreateAccountParams struct {
	ID        string
	UserID    string
	Title     string
	Amount    string
	Status    string
	DueDate   string
	Notes     string
	CreatedAt string
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, createAccount,
		arg.ID,
		arg.UserID,
		arg.Title,
		arg.Amount,
		arg.Status,
		arg.DueDate,
		arg.Notes,
		arg.CreatedAt,
	)
	return scanAccount(row)
}

const getAccount = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ? AND user_id = ?`

func (q *Queries) GetAccount(ctx context.Context, id, userID string) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccount, id, userID))
}

const listAccounts = `SELECT ` + accountColumns + ` FROM accounts
WHERE user_id = ?
ORDER BY due_date ASC, created_at ASC`

func (q *Queries) ListAccounts(ctx context.Context, userID string) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		i, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateAccountStatus = `UPDATE accounts SET status = ? WHERE id = ? AND user_id = ?
RETURNING ` + accountColumns

func (q *Queries) UpdateAccountStatus(ctx context.Context, status, id, userID string) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, updateAccountStatus, status, id, userID))
}

const deleteAccount = `DELETE FROM accounts WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteAccount(ctx context.Context, id, userID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAccount, id, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Dates are stored as YYYY-MM-DD so string comparison is chronological.
const markOverdueAccounts = `UPDATE accounts SET status = 'em_atraso'
WHERE status = 'pendente' AND due_date < ?`

func (q *Queries) MarkOverdueAccounts(ctx context.Context, today string) (int64, error) {
	result, err := q.db.ExecContext(ctx, markOverdueAccounts, today)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getUserSettings = `SELECT user_id, theme, sidebar_variant, hidden_sections, updated_at
FROM user_settings WHERE user_id = ?`

func (q *Queries) GetUserSettings(ctx context.Context, userID string) (UserSettings, error) {
	var i UserSettings
	err := q.db.QueryRowContext(ctx, getUserSettings, userID).Scan(
		&i.UserID,
		&i.Theme,
		&i.SidebarVariant,
		&i.HiddenSections,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertUserSettings = `INSERT INTO user_settings (user_id, theme, sidebar_variant, hidden_sections, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    theme = excluded.theme,
    sidebar_variant = excluded.sidebar_variant,
    hidden_sections = excluded.hidden_sections,
    updated_at = excluded.updated_at`

func (q *Queries) UpsertUserSettings(ctx context.Context, arg UserSettings) error {
	_, err := q.db.ExecContext(ctx, upsertUserSettings,
		arg.UserID,
		arg.Theme,
		arg.SidebarVariant,
		arg.HiddenSections,
		arg.UpdatedAt,
	)
	return err
}
