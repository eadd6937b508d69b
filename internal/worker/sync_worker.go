package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/ports"
	"financas/internal/sheets"
)

// Syncer mirrors one stored transaction to the spreadsheet.
type Syncer interface {
	SyncOne(ctx context.Context, id string) error
}

// SyncWorker handles synchronization of transactions from storage to Google
// Sheets when driven by AMQP messages.
type SyncWorker struct {
	queue     ports.SyncQueue
	syncer    Syncer
	deleter   sheets.TransactionDeleter
	batchSize int
}

// NewSyncWorker wires the worker. deleter may be nil, in which case delete
// messages are acknowledged without touching the spreadsheet.
func NewSyncWorker(queue ports.SyncQueue, syncer Syncer, deleter sheets.TransactionDeleter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		queue:     queue,
		syncer:    syncer,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP.
// A returned error makes the consumer requeue the message. A transaction
// deleted before its message arrived has nothing to mirror, so the message is
// considered done.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	if err := w.syncer.SyncOne(ctx, msg.ID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction no longer exists, skipping sync",
				"id", msg.ID,
				"version", msg.Version)
			return nil
		}
		return fmt.Errorf("sync transaction to sheets: %w", err)
	}
	return nil
}

// HandleDeleteMessage removes a deleted transaction's row from the spreadsheet.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.TransactionDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if w.deleter == nil {
		slog.WarnContext(ctx, "No transaction deleter configured, skipping Google Sheets deletion",
			"id", msg.ID)
		return nil
	}
	if err := w.deleter.DeleteTransaction(ctx, msg.ID); err != nil {
		return fmt.Errorf("delete transaction from sheets: %w", err)
	}
	return nil
}

// ProcessPendingTransactions syncs transactions that never got a message
// through. This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	_, _, err := w.syncPending(ctx, w.batchSize)
	return err
}

// StartupSyncCheck syncs a larger batch of pending transactions at worker
// startup, to recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.syncPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced+failed == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup sync completed",
		"total", synced+failed,
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) syncPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.queue.PendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		if err := w.syncer.SyncOne(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}
