package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// OverdueMarker is the part of AccountService the processor drives.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// OverdueProcessor periodically moves pending bills past their due date to
// overdue.
type OverdueProcessor struct {
	accounts OverdueMarker
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewOverdueProcessor creates a processor that runs every interval (1h when
// interval is not positive).
func NewOverdueProcessor(accounts OverdueMarker, interval time.Duration) *OverdueProcessor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OverdueProcessor{
		accounts: accounts,
		interval: interval,
		now:      time.Now,
	}
}

// RunOnce marks overdue bills as of the current time.
func (p *OverdueProcessor) RunOnce(ctx context.Context) (int64, error) {
	if p.accounts == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	return p.accounts.MarkOverdue(ctx, p.now())
}

// Start runs RunOnce immediately and then on every tick until Stop or ctx is done.
func (p *OverdueProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("overdue processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go func() {
		defer close(p.doneCh)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.tick(ctx)
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.tick(ctx)
			}
		}
	}()

	slog.InfoContext(ctx, "Overdue processor started", "interval", p.interval)
	return nil
}

func (p *OverdueProcessor) tick(ctx context.Context) {
	if _, err := p.RunOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Overdue processing failed", "error", err)
	}
}

// Stop signals the loop and waits for it to finish.
func (p *OverdueProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)
	select {
	case <-p.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *OverdueProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
