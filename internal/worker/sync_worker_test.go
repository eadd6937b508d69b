package worker

import (
	"context"
	"errors"
	"testing"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/memory"
	"financas/internal/ports"
	"financas/internal/services"
)

type fakeQueue struct {
	pending []ports.PendingSync
	limit   int
	err     error
}

func (q *fakeQueue) PendingSync(_ context.Context, limit int) ([]ports.PendingSync, error) {
	q.limit = limit
	if q.err != nil {
		return nil, q.err
	}
	if len(q.pending) > limit {
		return q.pending[:limit], nil
	}
	return q.pending, nil
}

func (q *fakeQueue) MarkSynced(context.Context, string) error    { return nil }
func (q *fakeQueue) MarkSyncError(context.Context, string) error { return nil }

type fakeSyncer struct {
	seen []string
	fail map[string]bool
}

func (s *fakeSyncer) SyncOne(_ context.Context, id string) error {
	s.seen = append(s.seen, id)
	if s.fail[id] {
		return errors.New("sheets unavailable")
	}
	return nil
}

func TestHandleSyncMessage(t *testing.T) {
	syncer := &fakeSyncer{fail: map[string]bool{"bad": true}}
	w := NewSyncWorker(&fakeQueue{}, syncer, nil, 10)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewTransactionSyncMessage("ok", 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.HandleSyncMessage(context.Background(), amqp.NewTransactionSyncMessage("bad", 1)); err == nil {
		t.Fatal("expected error to trigger requeue")
	}
	if len(syncer.seen) != 2 || syncer.seen[0] != "ok" {
		t.Fatalf("unexpected calls: %v", syncer.seen)
	}
}

type fakeSheet struct {
	rows    map[string]bool
	deleted []string
	err     error
}

func (f *fakeSheet) AppendTransaction(_ context.Context, t core.Transaction) (string, error) {
	if f.rows == nil {
		f.rows = make(map[string]bool)
	}
	f.rows[t.ID] = true
	return "A1", nil
}

func (f *fakeSheet) DeleteTransaction(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	delete(f.rows, id)
	return nil
}

func TestHandleSyncMessage_DeletedTransactionIsAcked(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	txs := services.NewTransactionService(store, nil, nil)
	processor := services.NewSyncProcessor(store, &fakeSheet{}, services.DefaultSyncProcessorConfig())
	w := NewSyncWorker(store, processor, nil, 10)

	tx, err := txs.Create(ctx, "u1", services.TransactionInput{
		Type:        core.Exit,
		Amount:      "12,50",
		Description: "Padaria",
		Date:        "2024-03-10",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := txs.Delete(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Redeliveries must not keep failing, or the consumer requeues forever.
	for i := 0; i < 3; i++ {
		if err := w.HandleSyncMessage(ctx, amqp.NewTransactionSyncMessage(tx.ID, 1)); err != nil {
			t.Fatalf("delivery %d: unexpected error: %v", i+1, err)
		}
	}
}

func TestHandleDeleteMessage(t *testing.T) {
	ctx := context.Background()
	sheet := &fakeSheet{rows: map[string]bool{"tx-1": true}}
	w := NewSyncWorker(&fakeQueue{}, &fakeSyncer{}, sheet, 10)

	if err := w.HandleDeleteMessage(ctx, amqp.NewTransactionDeleteMessage("tx-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sheet.deleted) != 1 || sheet.rows["tx-1"] {
		t.Fatalf("row not removed: deleted=%v rows=%v", sheet.deleted, sheet.rows)
	}

	sheet.err = errors.New("quota exceeded")
	if err := w.HandleDeleteMessage(ctx, amqp.NewTransactionDeleteMessage("tx-2")); err == nil {
		t.Fatal("expected error to trigger requeue")
	}
}

func TestHandleDeleteMessage_NoDeleter(t *testing.T) {
	w := NewSyncWorker(&fakeQueue{}, &fakeSyncer{}, nil, 10)
	if err := w.HandleDeleteMessage(context.Background(), amqp.NewTransactionDeleteMessage("tx-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProcessPendingTransactions(t *testing.T) {
	q := &fakeQueue{pending: []ports.PendingSync{{ID: "a", Version: 1}, {ID: "b", Version: 1}, {ID: "c", Version: 1}}}
	syncer := &fakeSyncer{fail: map[string]bool{"b": true}}
	w := NewSyncWorker(q, syncer, nil, 2)

	if err := w.ProcessPendingTransactions(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.limit != 2 {
		t.Errorf("limit = %d, want 2", q.limit)
	}
	if len(syncer.seen) != 2 {
		t.Errorf("expected 2 sync attempts, got %v", syncer.seen)
	}
}

func TestStartupSyncCheckUsesLargerBatch(t *testing.T) {
	q := &fakeQueue{}
	w := NewSyncWorker(q, &fakeSyncer{}, nil, 4)

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.limit != 20 {
		t.Errorf("limit = %d, want 20", q.limit)
	}
}

func TestStartupSyncCheckQueueError(t *testing.T) {
	w := NewSyncWorker(&fakeQueue{err: errors.New("db locked")}, &fakeSyncer{}, nil, 0)
	if err := w.StartupSyncCheck(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
