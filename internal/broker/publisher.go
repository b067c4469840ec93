package broker

import (
	"context"

	"book-stock-service/internal/models"
	"book-stock-service/internal/util"

	"go.uber.org/zap"
)

// ResponsePublisher emits reconciliation outcomes to the response topic.
// Publishing is fire-and-forget from the caller's perspective: a failure is
// logged and counted, never retried, because the ledger mutation already
// happened (or was rejected) and a redelivery replays the same outcome.
type ResponsePublisher struct {
	producer *Producer
	logger   *zap.Logger
}

// NewResponsePublisher creates a new response publisher
func NewResponsePublisher(producer *Producer) *ResponsePublisher {
	return &ResponsePublisher{
		producer: producer,
		logger:   util.GetLogger(),
	}
}

// PublishCompleted emits a STOCK_COMPLETED response for the sale.
func (rp *ResponsePublisher) PublishCompleted(ctx context.Context, saleID, message string) {
	rp.publish(ctx, models.KindStockCompleted, saleID, models.StatusCompleted, message)
}

// PublishError emits a STOCK_ERROR response. saleID may be empty when none
// could be extracted from the triggering message.
func (rp *ResponsePublisher) PublishError(ctx context.Context, saleID, message string) {
	rp.publish(ctx, models.KindStockError, saleID, models.StatusError, message)
}

func (rp *ResponsePublisher) publish(ctx context.Context, kind, saleID, status, message string) {
	env, err := models.NewStockResponse(kind, saleID, status, message)
	if err != nil {
		util.ResponsePublishFailuresTotal.Inc()
		rp.logger.Error("Failed to build response envelope",
			zap.String("sale_id", saleID),
			zap.Error(err))
		return
	}

	if err := rp.producer.PublishEvent(ctx, saleID, env); err != nil {
		util.ResponsePublishFailuresTotal.Inc()
		rp.logger.Error("Failed to publish response event",
			zap.String("sale_id", saleID),
			zap.String("kind", kind),
			zap.Error(err))
		return
	}

	util.ResponsesPublishedTotal.WithLabelValues(status).Inc()
}
