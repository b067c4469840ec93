package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"book-stock-service/internal/broker"
	"book-stock-service/internal/models"
	"book-stock-service/internal/service"
	"book-stock-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Reconciler is the shared reconcile flow both workers invoke.
type Reconciler interface {
	Reconcile(ctx context.Context, saleID, bookKey string, quantity int) (*service.Outcome, error)
}

// ResponsePublisher emits reconciliation outcomes to the response feed.
type ResponsePublisher interface {
	PublishCompleted(ctx context.Context, saleID, message string)
	PublishError(ctx context.Context, saleID, message string)
}

// SaleEventWorker consumes the sale-events topic and reconciles SALE_CREATED
// events. Delivery is at-least-once and unordered across sale ids; the
// reconciler absorbs redeliveries, so every handled message answers with the
// sale's terminal outcome.
type SaleEventWorker struct {
	consumer   *broker.Consumer
	reconciler Reconciler
	publisher  ResponsePublisher
	logger     *zap.Logger
}

// NewSaleEventWorker creates a new sale event worker
func NewSaleEventWorker(consumer *broker.Consumer, reconciler Reconciler, publisher ResponsePublisher) *SaleEventWorker {
	return &SaleEventWorker{
		consumer:   consumer,
		reconciler: reconciler,
		publisher:  publisher,
		logger:     util.GetLogger(),
	}
}

// Start starts the worker
func (w *SaleEventWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting sale event worker")
	return w.consumer.StartConsuming(ctx, w.HandleMessage)
}

// Stop stops the worker
func (w *SaleEventWorker) Stop() error {
	w.logger.Info("Stopping sale event worker")
	return w.consumer.Close()
}

// HandleMessage processes one message. A nil return commits the message; an
// error makes the consumer retry it with backoff before fetching further.
// Only transient reconciliation failures return an error: decode failures and
// unsupported kinds are permanent, answered with STOCK_ERROR and committed so
// they are never retried.
func (w *SaleEventWorker) HandleMessage(ctx context.Context, msg kafka.Message) (err error) {
	var saleID string

	// One bad message must not take down the consumer loop.
	defer func() {
		if rec := recover(); rec != nil {
			w.logger.Error("Panic while handling sale event",
				zap.String("sale_id", saleID),
				zap.Any("panic", rec))
			w.publisher.PublishError(ctx, saleID, fmt.Sprintf("panic: %v", rec))
			err = nil
		}
	}()

	var env models.EventEnvelope
	if uerr := json.Unmarshal(msg.Value, &env); uerr != nil {
		util.EventDecodeFailuresTotal.Inc()
		w.logger.Warn("Malformed event envelope", zap.Error(uerr))
		w.publisher.PublishError(ctx, "", fmt.Sprintf("malformed event envelope: %v", uerr))
		return nil
	}

	// The kind is message input; only known kinds become label values.
	switch env.Kind {
	case models.KindSaleCreated:
		util.SaleEventsConsumedTotal.WithLabelValues(env.Kind).Inc()
		payload, derr := env.SaleCreated()
		if derr != nil {
			util.EventDecodeFailuresTotal.Inc()
			w.logger.Warn("Undecodable SALE_CREATED payload", zap.Error(derr))
			w.publisher.PublishError(ctx, "", derr.Error())
			return nil
		}
		saleID = payload.SaleID

		outcome, rerr := w.reconciler.Reconcile(ctx, payload.SaleID, payload.BookKey, payload.Quantity)
		if rerr != nil {
			// Transient: the consumer retries this message.
			w.logger.Error("Reconciliation failed, message will be retried",
				zap.String("sale_id", payload.SaleID),
				zap.Error(rerr))
			return rerr
		}

		if outcome.Completed() {
			w.publisher.PublishCompleted(ctx, outcome.SaleID, outcome.Message)
		} else {
			w.publisher.PublishError(ctx, outcome.SaleID, outcome.Message)
		}
		return nil

	default:
		util.SaleEventsConsumedTotal.WithLabelValues("unsupported").Inc()
		w.logger.Warn("Unsupported event kind", zap.String("kind", env.Kind))
		w.publisher.PublishError(ctx, "", fmt.Sprintf("unsupported event kind: %s", env.Kind))
		return nil
	}
}
