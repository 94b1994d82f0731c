package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/satheeshds/driverdesk/models"
	"github.com/satheeshds/driverdesk/store"
)

// AbandonOutbox is the queue the worker drains.
type AbandonOutbox interface {
	PendingAbandons(ctx context.Context, limit int) ([]store.PendingAbandon, error)
	DeleteAbandon(ctx context.Context, id string) error
	MarkAbandonFailed(ctx context.Context, id string, cause error) error
	CountPendingAbandons(ctx context.Context) (int, error)
}

// AbandonSender delivers an abandon signal.
type AbandonSender interface {
	AbandonDelivery(ctx context.Context, req models.AbandonDeliveryRequest) error
}

// RetryObserver receives the worker's results.
type RetryObserver interface {
	AbandonRetry(err error)
	SetPending(n int)
}

// AbandonWorker periodically resends queued abandon signals.
type AbandonWorker struct {
	outbox   AbandonOutbox
	sender   AbandonSender
	observer RetryObserver

	interval    time.Duration
	batchSize   int
	workerCount int
}

// NewAbandonWorker creates a worker polling every interval. observer may be nil.
func NewAbandonWorker(outbox AbandonOutbox, sender AbandonSender, interval time.Duration, batchSize int, observer RetryObserver) *AbandonWorker {
	if batchSize < 1 {
		batchSize = 20
	}
	return &AbandonWorker{
		outbox:      outbox,
		sender:      sender,
		observer:    observer,
		interval:    interval,
		batchSize:   batchSize,
		workerCount: 4,
	}
}

// Start runs the worker loop until ctx is cancelled. Blocking call.
func (w *AbandonWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	slog.Info("abandon worker started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("abandon worker stopped")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch sends one batch of queued signals through a small worker pool
// and returns how many were delivered.
func (w *AbandonWorker) ProcessBatch(ctx context.Context) int {
	pending, err := w.outbox.PendingAbandons(ctx, w.batchSize)
	if err != nil {
		slog.Error("listing pending abandons failed", "error", err)
		return 0
	}
	if len(pending) == 0 {
		return 0
	}
	slog.Debug("retrying abandon signals", "count", len(pending))

	jobs := make(chan store.PendingAbandon, len(pending))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sent int
	)
	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				if w.retry(ctx, p) {
					mu.Lock()
					sent++
					mu.Unlock()
				}
			}
		}()
	}
	for _, p := range pending {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	if w.observer != nil {
		if n, err := w.outbox.CountPendingAbandons(ctx); err == nil {
			w.observer.SetPending(n)
		}
	}
	return sent
}

func (w *AbandonWorker) retry(ctx context.Context, p store.PendingAbandon) bool {
	err := w.sender.AbandonDelivery(ctx, p.Request())
	if w.observer != nil {
		w.observer.AbandonRetry(err)
	}
	if err != nil {
		slog.Warn("abandon retry failed", "id", p.ID, "invoiceNo", p.InvoiceNo, "attempts", p.Attempts+1, "error", err)
		if merr := w.outbox.MarkAbandonFailed(ctx, p.ID, err); merr != nil {
			slog.Error("marking abandon failed", "id", p.ID, "error", merr)
		}
		return false
	}
	if err := w.outbox.DeleteAbandon(ctx, p.ID); err != nil {
		slog.Error("deleting delivered abandon failed", "id", p.ID, "error", err)
	}
	slog.Info("abandon signal delivered", "invoiceNo", p.InvoiceNo, "attempts", p.Attempts+1)
	return true
}
