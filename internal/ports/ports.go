// Package ports declares the persistence contracts the services depend on.
// Both the SQLite repository and the in-memory store satisfy them.
package ports

import (
	"context"

	"financas/internal/core"
	"financas/internal/settings"
)

type (
	TransactionWriter interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}

	// TransactionLister returns a user's transactions of one type, newest date first.
	TransactionLister interface {
		ListTransactions(ctx context.Context, userID string, typ core.TransactionType) ([]core.Transaction, error)
	}

	TransactionReader interface {
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	}

	TransactionDeleter interface {
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	TransactionStore interface {
		TransactionWriter
		TransactionLister
		TransactionReader
		TransactionDeleter
	}

	AccountStore interface {
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		// ListAccounts returns a user's bills, earliest due date first.
		ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
		GetAccount(ctx context.Context, userID, id string) (core.Account, error)
		UpdateAccountStatus(ctx context.Context, userID, id string, status core.AccountStatus) (core.Account, error)
		DeleteAccount(ctx context.Context, userID, id string) error
		// MarkOverdue flags every pending bill due before today, for all users,
		// and returns how many changed.
		MarkOverdue(ctx context.Context, today core.Date) (int64, error)
	}

	// SyncQueue tracks which transactions still have to be mirrored to the spreadsheet.
	SyncQueue interface {
		PendingSync(ctx context.Context, limit int) ([]PendingSync, error)
		MarkSynced(ctx context.Context, id string) error
		MarkSyncError(ctx context.Context, id string) error
	}

	// Ledger is everything the HTTP server needs from a backend.
	Ledger interface {
		TransactionStore
		AccountStore
		settings.Store
		Ping(ctx context.Context) error
	}
)

// PendingSync is the minimal data needed to enqueue a sync message.
type PendingSync struct {
	ID      string
	Version int64
}
