package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"financas/internal/core"
	"financas/internal/ports"
	"financas/internal/sheets"
)

// SyncSource is the storage side of the spreadsheet mirror.
type SyncSource interface {
	ports.TransactionReader
	ports.SyncQueue
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending items (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of items to process per poll cycle (default: 10)
	BatchSize int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 10 * time.Second,
		BatchSize:    10,
	}
}

// SyncProcessor mirrors pending transactions to the spreadsheet. It runs
// either as a polling loop or item by item from AMQP messages via SyncOne.
type SyncProcessor struct {
	storage SyncSource
	sheets  sheets.TransactionWriter
	config  SyncProcessorConfig
	now     func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(storage SyncSource, writer sheets.TransactionWriter, config SyncProcessorConfig) *SyncProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncProcessorConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultSyncProcessorConfig().BatchSize
	}
	return &SyncProcessor{
		storage: storage,
		sheets:  writer,
		config:  config,
		now:     time.Now,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on startup
	p.ProcessBatch(ctx, p.config.BatchSize)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx, p.config.BatchSize)
		}
	}
}

// ProcessBatch mirrors up to limit pending transactions and reports how many
// succeeded and failed. Failures are marked and do not stop the batch.
func (p *SyncProcessor) ProcessBatch(ctx context.Context, limit int) (synced, failed int) {
	items, err := p.storage.PendingSync(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load pending sync batch", "error", err)
		return 0, 0
	}
	if len(items) == 0 {
		return 0, 0
	}

	slog.DebugContext(ctx, "Processing sync batch", "count", len(items))

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		if err := p.SyncOne(ctx, item.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", item.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed
}

// SyncOne appends one stored transaction to the spreadsheet and records the
// outcome in the sync queue.
func (p *SyncProcessor) SyncOne(ctx context.Context, id string) error {
	t, err := p.storage.GetTransaction(ctx, "", id)
	if err != nil {
		// A deleted transaction has no row left to flag.
		if !errors.Is(err, core.ErrNotFound) {
			p.markError(ctx, id)
		}
		return err
	}

	ref, err := p.sheets.AppendTransaction(ctx, t)
	if err != nil {
		p.markError(ctx, id)
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := p.storage.MarkSynced(ctx, id); err != nil {
		slog.WarnContext(ctx, "Failed to mark transaction as synced",
			"id", id, "error", err)
		// Don't fail - the row is already in the sheet
	}

	slog.InfoContext(ctx, "Synced transaction to Google Sheets",
		"id", id,
		"sheets_ref", ref)
	return nil
}

func (p *SyncProcessor) markError(ctx context.Context, id string) {
	if err := p.storage.MarkSyncError(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", err)
	}
}
