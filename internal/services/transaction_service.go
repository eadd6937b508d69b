package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/ports"
)

// SyncPublisher announces stored and deleted transactions to the spreadsheet mirror.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id string, version int64) error
	PublishTransactionDelete(ctx context.Context, id string) error
}

// TransactionInput is a transaction as typed by the user. Amount is localized
// text such as "R$ 1.234,50"; Date is YYYY-MM-DD.
type TransactionInput struct {
	Type        core.TransactionType `json:"type"`
	Amount      string               `json:"amount"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Date        string               `json:"date"`
	Notes       string               `json:"notes"`
}

// TransactionService orchestrates transaction operations across storage,
// the list cache and AMQP.
type TransactionService struct {
	store     ports.TransactionStore
	publisher SyncPublisher
	cache     cache.Cache[[]core.Transaction]
	now       func() time.Time
}

// NewTransactionService wires the service. publisher and listCache may be nil.
func NewTransactionService(store ports.TransactionStore, publisher SyncPublisher, listCache cache.Cache[[]core.Transaction]) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		cache:     listCache,
		now:       time.Now,
	}
}

func listKey(userID string, typ core.TransactionType) string {
	return userID + ":" + string(typ)
}

// Create validates and stores a transaction, then publishes a sync message.
func (s *TransactionService) Create(ctx context.Context, userID string, in TransactionInput) (core.Transaction, error) {
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}
	t := core.Transaction{
		ID:          core.NewID(),
		UserID:      userID,
		Type:        in.Type,
		Amount:      core.ParseCurrencyInput(in.Amount),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Date:        date,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   s.now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}

	// Save first; the spreadsheet mirror is best-effort.
	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate(userID, saved.Type)

	if err := s.publishSyncMessage(ctx, saved.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", saved.ID, "error", err)
		// Don't fail the request - the transaction is stored and the
		// worker picks up pending rows on its next sweep.
	}

	return saved, nil
}

// List returns the user's transactions of one type, newest date first.
func (s *TransactionService) List(ctx context.Context, userID string, typ core.TransactionType) ([]core.Transaction, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, core.ErrInvalidType)
	}
	key := listKey(userID, typ)
	if s.cache != nil {
		if txs, ok := s.cache.Get(key); ok {
			return txs, nil
		}
	}
	txs, err := s.store.ListTransactions(ctx, userID, typ)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(key, txs)
	}
	return txs, nil
}

// Records returns entries and exits projected for the aggregation engine.
func (s *TransactionService) Records(ctx context.Context, userID string) (entries, exits []core.Record, err error) {
	in, err := s.List(ctx, userID, core.Entry)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.List(ctx, userID, core.Exit)
	if err != nil {
		return nil, nil, err
	}
	return core.Records(in), core.Records(out), nil
}

// Delete removes one of the user's transactions, then asks the worker to drop
// its spreadsheet row.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	t, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID, t.Type)

	if err := s.publishDeleteMessage(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
		// Don't fail the request - the transaction is deleted locally.
	}
	return nil
}

func (s *TransactionService) invalidate(userID string, typ core.TransactionType) {
	if s.cache != nil {
		s.cache.Delete(listKey(userID, typ))
	}
}

func (s *TransactionService) publishSyncMessage(ctx context.Context, id string, version int64) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishTransactionSync(ctx, id, version)
}

func (s *TransactionService) publishDeleteMessage(ctx context.Context, id string) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.publisher.PublishTransactionDelete(ctx, id)
}

// Close releases the publisher when it holds a connection.
func (s *TransactionService) Close() error {
	var errs []error
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
