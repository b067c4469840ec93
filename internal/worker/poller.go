package worker

import (
	"context"
	"strconv"
	"time"

	"book-stock-service/internal/models"
	"book-stock-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SalesFetcher is the external sales service surface the poller needs.
type SalesFetcher interface {
	FetchUnprocessed(ctx context.Context) ([]models.UnprocessedSale, error)
	MarkProcessed(ctx context.Context, saleID int64) error
}

// PollingReconciler periodically asks the sales service for sales it still
// marks unprocessed, runs each through the shared reconcile flow, then
// acknowledges it remotely. It is the fallback path for sales whose event was
// lost; the idempotency record makes overlap with the consumer harmless.
type PollingReconciler struct {
	sales      SalesFetcher
	reconciler Reconciler
	interval   time.Duration
	logger     *zap.Logger
}

// NewPollingReconciler creates a new polling reconciler
func NewPollingReconciler(sales SalesFetcher, reconciler Reconciler, interval time.Duration) *PollingReconciler {
	return &PollingReconciler{
		sales:      sales,
		reconciler: reconciler,
		interval:   interval,
		logger:     util.GetLogger(),
	}
}

// Start runs poll cycles until ctx is cancelled. A failed cycle is swallowed;
// the next tick retries from scratch.
func (p *PollingReconciler) Start(ctx context.Context) {
	p.logger.Info("Starting polling reconciler", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.RunCycle(ctx)
		case <-ctx.Done():
			p.logger.Info("Stopping polling reconciler")
			return
		}
	}
}

// RunCycle executes one poll cycle. Each sale in the batch is reconciled
// independently: a failure on one entry never aborts the rest.
func (p *PollingReconciler) RunCycle(ctx context.Context) {
	util.PollCyclesTotal.Inc()
	cycleID := uuid.New().String()[:8]

	sales, err := p.sales.FetchUnprocessed(ctx)
	if err != nil {
		// No sale id is associated with this failure; nothing to record.
		util.PollFetchFailuresTotal.Inc()
		p.logger.Warn("Failed to fetch unprocessed sales",
			zap.String("cycle", cycleID),
			zap.Error(err))
		return
	}

	if len(sales) == 0 {
		return
	}

	p.logger.Info("Reconciling unprocessed sales",
		zap.String("cycle", cycleID),
		zap.Int("count", len(sales)))

	for _, sale := range sales {
		if ctx.Err() != nil {
			return
		}
		p.reconcileOne(ctx, cycleID, sale)
	}
}

func (p *PollingReconciler) reconcileOne(ctx context.Context, cycleID string, sale models.UnprocessedSale) {
	saleID := strconv.FormatInt(sale.ID, 10)

	outcome, err := p.reconciler.Reconcile(ctx, saleID, sale.BookISBN, sale.Quantity)
	if err != nil {
		// Transient: the sale stays unprocessed remotely and the next
		// cycle picks it up again.
		p.logger.Error("Failed to reconcile polled sale",
			zap.String("cycle", cycleID),
			zap.String("sale_id", saleID),
			zap.Error(err))
		return
	}

	// Locally terminal either way; tell the sales service to stop
	// reporting this sale.
	if err := p.sales.MarkProcessed(ctx, sale.ID); err != nil {
		util.SaleAckFailuresTotal.Inc()
		p.logger.Warn("Failed to acknowledge sale, will retry next cycle",
			zap.String("cycle", cycleID),
			zap.String("sale_id", saleID),
			zap.String("status", outcome.Status),
			zap.Error(err))
	}
}
