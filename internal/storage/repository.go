package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/ports"
	"financas/internal/settings"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
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

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Timestamps are stored as RFC 3339 text in UTC.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

func toTransaction(t Transaction) (core.Transaction, error) {
	amount, err := decimal.NewFromString(t.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount %q: %w", t.ID, t.Amount, err)
	}
	date, err := core.ParseDate(t.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s date %q: %w", t.ID, t.Date, err)
	}
	return core.Transaction{
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        core.TransactionType(t.Type),
		Amount:      amount,
		Description: t.Description,
		Category:    t.Category,
		Date:        date,
		Notes:       t.Notes,
		CreatedAt:   parseTimestamp(t.CreatedAt),
	}, nil
}

func toAccount(a Account) (core.Account, error) {
	amount, err := decimal.NewFromString(a.Amount)
	if err != nil {
		return core.Account{}, fmt.Errorf("account %s amount %q: %w", a.ID, a.Amount, err)
	}
	due, err := core.ParseDate(a.DueDate)
	if err != nil {
		return core.Account{}, fmt.Errorf("account %s due date %q: %w", a.ID, a.DueDate, err)
	}
	return core.Account{
		ID:        a.ID,
		UserID:    a.UserID,
		Title:     a.Title,
		Amount:    amount,
		Status:    core.AccountStatus(a.Status),
		DueDate:   due,
		Notes:     a.Notes,
		CreatedAt: parseTimestamp(a.CreatedAt),
	}, nil
}

// CreateTransaction implements ports.TransactionWriter
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = core.NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now().UTC()
	}
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        string(t.Type),
		Amount:      t.Amount.String(),
		Description: t.Description,
		Category:    t.Category,
		Date:        t.Date.String(),
		Notes:       t.Notes,
		CreatedAt:   formatTimestamp(t.CreatedAt),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"type", row.Type,
		"amount", row.Amount,
		"date", row.Date)

	return toTransaction(row)
}

// ListTransactions implements ports.TransactionLister
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, typ core.TransactionType) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, userID, string(typ))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toTransaction(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable transaction row", "id", row.ID, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// GetTransaction implements ports.TransactionReader. An empty userID skips
// the ownership check; the sync worker uses that.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, notFound(err))
	}
	if userID != "" && row.UserID != userID {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
	}
	return toTransaction(row)
}

// DeleteTransaction implements ports.TransactionDeleter
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %s: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// PendingSync implements ports.SyncQueue
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]ports.PendingSync, error) {
	rows, err := r.queries.GetPendingSyncTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	out := make([]ports.PendingSync, len(rows))
	for i, row := range rows {
		out[i] = ports.PendingSync{ID: row.ID, Version: row.Version}
	}
	return out, nil
}

// MarkSynced marks a transaction as successfully mirrored
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if err := r.queries.MarkTransactionSynced(ctx, id, formatTimestamp(r.now())); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as having sync errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if err := r.queries.MarkTransactionSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

// CreateAccount implements ports.AccountStore
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.ID == "" {
		a.ID = core.NewID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now().UTC()
	}
	if a.Status == "" {
		a.Status = core.StatusPending
	}
	row, err := r.queries.CreateAccount(ctx, CreateAccountParams{
		ID:        a.ID,
		UserID:    a.UserID,
		Title:     a.Title,
		Amount:    a.Amount.String(),
		Status:    string(a.Status),
		DueDate:   a.DueDate.String(),
		Notes:     a.Notes,
		CreatedAt: formatTimestamp(a.CreatedAt),
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	slog.InfoContext(ctx, "Account saved to SQLite", "id", row.ID, "due_date", row.DueDate)
	return toAccount(row)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.Account, 0, len(rows))
	for _, row := range rows {
		a, err := toAccount(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable account row", "id", row.ID, "error", err)
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	row, err := r.queries.GetAccount(ctx, id, userID)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, notFound(err))
	}
	return toAccount(row)
}

func (r *SQLiteRepository) UpdateAccountStatus(ctx context.Context, userID, id string, status core.AccountStatus) (core.Account, error) {
	row, err := r.queries.UpdateAccountStatus(ctx, string(status), id, userID)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account %s status: %w", id, notFound(err))
	}
	slog.InfoContext(ctx, "Account status updated", "id", id, "status", status)
	return toAccount(row)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteAccount(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete account %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) MarkOverdue(ctx context.Context, today core.Date) (int64, error) {
	n, err := r.queries.MarkOverdueAccounts(ctx, today.String())
	if err != nil {
		return 0, fmt.Errorf("mark overdue accounts: %w", err)
	}
	return n, nil
}

// LoadSettings implements settings.Store
func (r *SQLiteRepository) LoadSettings(ctx context.Context, userID string) (settings.Settings, error) {
	row, err := r.queries.GetUserSettings(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Default(), nil
	}
	if err != nil {
		return settings.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	s := settings.Settings{
		Theme:          settings.Theme(row.Theme),
		SidebarVariant: settings.SidebarVariant(row.SidebarVariant),
	}
	if err := json.Unmarshal([]byte(row.HiddenSections), &s.HiddenSections); err != nil {
		slog.WarnContext(ctx, "Ignoring malformed hidden sections", "user_id", userID, "error", err)
	}
	return s.Normalize(), nil
}

// SaveSettings implements settings.Store
func (r *SQLiteRepository) SaveSettings(ctx context.Context, userID string, s settings.Settings) error {
	s = s.Normalize()
	if err := s.Validate(); err != nil {
		return err
	}
	hidden, err := json.Marshal(s.HiddenSections)
	if err != nil {
		return fmt.Errorf("encode hidden sections: %w", err)
	}
	err = r.queries.UpsertUserSettings(ctx, UserSettings{
		UserID:         userID,
		Theme:          string(s.Theme),
		SidebarVariant: string(s.SidebarVariant),
		HiddenSections: string(hidden),
		UpdatedAt:      formatTimestamp(r.now()),
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

var (
	_ ports.Ledger    = (*SQLiteRepository)(nil)
	_ ports.SyncQueue = (*SQLiteRepository)(nil)
)
