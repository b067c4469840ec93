package service

import (
	"context"
	"time"

	"book-stock-service/internal/models"
	"book-stock-service/internal/util"

	"go.uber.org/zap"
)

// ReconciliationStore is the transactional backend shared by both entry
// points. ReconcileSale must decrement stock and record the outcome
// atomically, and must never decrement twice for one sale id.
type ReconciliationStore interface {
	ReconcileSale(ctx context.Context, saleID, isbn string, quantity int) (*models.SaleReconciliation, bool, error)
}

// OutcomeCache is an optional read-through cache of terminal outcomes.
type OutcomeCache interface {
	GetOutcome(ctx context.Context, saleID string) (*models.SaleReconciliation, error)
	SetOutcome(ctx context.Context, rec *models.SaleReconciliation) error
}

// Outcome is the terminal result of reconciling one sale.
type Outcome struct {
	SaleID   string
	Status   string
	Message  string
	Replayed bool
}

// Completed reports whether the stock decrement succeeded (now or on a
// previous attempt for the same sale id).
func (o *Outcome) Completed() bool {
	return o.Status == models.StatusCompleted
}

// Reconciler is the single reconcile flow invoked by both the event consumer
// and the polling reconciler. The two paths must not diverge: any change to
// how a sale is applied belongs here.
type Reconciler struct {
	store   ReconciliationStore
	cache   OutcomeCache
	timeout time.Duration
	logger  *zap.Logger
}

// NewReconciler creates a new reconciler. cache may be nil; timeout bounds
// each attempt's store and cache calls (zero disables the bound).
func NewReconciler(store ReconciliationStore, cache OutcomeCache, timeout time.Duration) *Reconciler {
	return &Reconciler{
		store:   store,
		cache:   cache,
		timeout: timeout,
		logger:  util.GetLogger(),
	}
}

// Reconcile applies one sale to the stock ledger exactly once and returns its
// terminal outcome. A non-nil error means no outcome was recorded and the
// attempt is safe to retry; every other result is terminal for this sale id.
func (r *Reconciler) Reconcile(ctx context.Context, saleID, bookKey string, quantity int) (*Outcome, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.Reconcile")
	defer span.End()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		util.ReconcileLatency.Observe(time.Since(start).Seconds())
	}()

	if r.cache != nil {
		cached, err := r.cache.GetOutcome(ctx, saleID)
		if err != nil {
			r.logger.Warn("Outcome cache read failed, falling back to store",
				zap.String("sale_id", saleID),
				zap.Error(err))
		}
		if cached != nil {
			util.ReconciliationReplaysTotal.Inc()
			return outcomeFrom(cached, true), nil
		}
	}

	rec, replayed, err := r.store.ReconcileSale(ctx, saleID, bookKey, quantity)
	if err != nil {
		return nil, err
	}

	if replayed {
		util.ReconciliationReplaysTotal.Inc()
		r.logger.Info("Sale already reconciled, re-emitting recorded outcome",
			zap.String("sale_id", saleID),
			zap.String("status", rec.Status))
	} else {
		util.SalesReconciledTotal.WithLabelValues(resultLabel(rec.Status)).Inc()
		r.logger.Info("Sale reconciled",
			zap.String("sale_id", saleID),
			zap.String("book_key", bookKey),
			zap.Int("quantity", quantity),
			zap.String("status", rec.Status))
	}

	if r.cache != nil {
		if err := r.cache.SetOutcome(ctx, rec); err != nil {
			r.logger.Warn("Failed to cache outcome",
				zap.String("sale_id", saleID),
				zap.Error(err))
		}
	}

	return outcomeFrom(rec, replayed), nil
}

func outcomeFrom(rec *models.SaleReconciliation, replayed bool) *Outcome {
	return &Outcome{
		SaleID:   rec.SaleID,
		Status:   rec.Status,
		Message:  rec.Message,
		Replayed: replayed,
	}
}

func resultLabel(status string) string {
	if status == models.StatusCompleted {
		return "completed"
	}
	return "error"
}
