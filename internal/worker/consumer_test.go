package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"book-stock-service/internal/models"
	"book-stock-service/internal/service"
	"book-stock-service/internal/util"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	outcome *service.Outcome
	err     error
	panics  bool
	calls   int
}

func (f *fakeReconciler) Reconcile(ctx context.Context, saleID, bookKey string, quantity int) (*service.Outcome, error) {
	f.calls++
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.outcome != nil {
		return f.outcome, nil
	}
	return &service.Outcome{
		SaleID:  saleID,
		Status:  models.StatusCompleted,
		Message: "stock decremented",
	}, nil
}

type publishedResponse struct {
	Status  string
	SaleID  string
	Message string
}

type fakePublisher struct {
	mu        sync.Mutex
	responses []publishedResponse
}

func (f *fakePublisher) PublishCompleted(ctx context.Context, saleID, message string) {
	f.record(models.StatusCompleted, saleID, message)
}

func (f *fakePublisher) PublishError(ctx context.Context, saleID, message string) {
	f.record(models.StatusError, saleID, message)
}

func (f *fakePublisher) record(status, saleID, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, publishedResponse{status, saleID, message})
}

func (f *fakePublisher) last(t *testing.T) publishedResponse {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.responses)
	return f.responses[len(f.responses)-1]
}

func saleCreatedMessage(body string) kafka.Message {
	return kafka.Message{Value: []byte(body)}
}

func TestHandleSaleCreated(t *testing.T) {
	rec := &fakeReconciler{}
	pub := &fakePublisher{}
	w := NewSaleEventWorker(nil, rec, pub)

	msg := saleCreatedMessage(`{"kind":"SALE_CREATED","payload":{"saleId":"S1","bookKey":"B1","quantity":3}}`)
	err := w.HandleMessage(context.Background(), msg)
	require.NoError(t, err)

	resp := pub.last(t)
	assert.Equal(t, models.StatusCompleted, resp.Status)
	assert.Equal(t, "S1", resp.SaleID)
	assert.Equal(t, 1, rec.calls)
}

func TestHandleSaleCreatedBusinessError(t *testing.T) {
	rec := &fakeReconciler{outcome: &service.Outcome{
		SaleID:  "S1",
		Status:  models.StatusError,
		Message: "insufficient stock: available=2, requested=5",
	}}
	pub := &fakePublisher{}
	w := NewSaleEventWorker(nil, rec, pub)

	msg := saleCreatedMessage(`{"kind":"SALE_CREATED","payload":{"saleId":"S1","bookKey":"B2","quantity":5}}`)
	err := w.HandleMessage(context.Background(), msg)
	require.NoError(t, err, "a business rejection is terminal, not retried")

	resp := pub.last(t)
	assert.Equal(t, models.StatusError, resp.Status)
	assert.Equal(t, "S1", resp.SaleID)
	assert.Contains(t, resp.Message, "insufficient stock")
}

func TestHandleMalformedEnvelope(t *testing.T) {
	rec := &fakeReconciler{}
	pub := &fakePublisher{}
	w := NewSaleEventWorker(nil, rec, pub)

	err := w.HandleMessage(context.Background(), saleCreatedMessage(`{not json`))
	require.NoError(t, err, "decode failures are permanent and must be committed")

	resp := pub.last(t)
	assert.Equal(t, models.StatusError, resp.Status)
	assert.Empty(t, resp.SaleID, "no sale id could be extracted")
	assert.Zero(t, rec.calls, "the ledger must not be touched")

	// The next well-formed message is unaffected.
	msg := saleCreatedMessage(`{"kind":"SALE_CREATED","payload":{"saleId":"S2","bookKey":"B1","quantity":1}}`)
	err = w.HandleMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, pub.last(t).Status)
	assert.Equal(t, "S2", pub.last(t).SaleID)
}

func TestHandleUndecodablePayload(t *testing.T) {
	rec := &fakeReconciler{}
	pub := &fakePublisher{}
	w := NewSaleEventWorker(nil, rec, pub)

	msg := saleCreatedMessage(`{"kind":"SALE_CREATED","payload":"not an object"}`)
	err := w.HandleMessage(context.Background(), msg)
	require.NoError(t, err)

	resp := pub.last(t)
	assert.Equal(t, models.StatusError, resp.Status)
	assert.Empty(t, resp.SaleID)
	assert.Zero(t, rec.calls)
}

func TestHandleUnsupportedKind(t *testing.T) {
	rec := &fakeReconciler{}
	pub := &fakePublisher{}
	w := NewSaleEventWorker(nil, rec, pub)

	msg := saleCreatedMessage(`{"kind":"SALE_DELETED","payload":{}}`)
	err := w.HandleMessage(context.Background(), msg)
	require.NoError(t, err)

	resp := pub.last(t)
	assert.Equal(t, models.StatusError, resp.Status)
	assert.Contains(t, resp.Message, "unsupported event kind")
	assert.Zero(t, rec.calls)
}

func TestUnknownKindsShareOneMetricLabel(t *testing.T) {
	rec := &fakeReconciler{}
	pub := &fakePublisher{}
	w := NewSaleEventWorker(nil, rec, pub)

	before := testutil.ToFloat64(util.SaleEventsConsumedTotal.WithLabelValues("unsupported"))

	// Kinds are message input; distinct bogus kinds must not mint distinct
	// label values.
	require.NoError(t, w.HandleMessage(context.Background(), saleCreatedMessage(`{"kind":"SALE_DELETED","payload":{}}`)))
	require.NoError(t, w.HandleMessage(context.Background(), saleCreatedMessage(`{"kind":"GARBAGE_KIND_42","payload":{}}`)))

	after := testutil.ToFloat64(util.SaleEventsConsumedTotal.WithLabelValues("unsupported"))
	assert.Equal(t, float64(2), after-before)
	assert.Zero(t, testutil.ToFloat64(util.SaleEventsConsumedTotal.WithLabelValues("GARBAGE_KIND_42")))
}

func TestHandleTransientFailureLeavesMessageUncommitted(t *testing.T) {
	rec := &fakeReconciler{err: errors.New("connection refused")}
	pub := &fakePublisher{}
	w := NewSaleEventWorker(nil, rec, pub)

	msg := saleCreatedMessage(`{"kind":"SALE_CREATED","payload":{"saleId":"S1","bookKey":"B1","quantity":3}}`)
	err := w.HandleMessage(context.Background(), msg)

	assert.Error(t, err, "transient failures must surface so the message is retried")
	assert.Empty(t, pub.responses, "no terminal response before an outcome exists")
}

func TestHandlePanicRecovered(t *testing.T) {
	rec := &fakeReconciler{panics: true}
	pub := &fakePublisher{}
	w := NewSaleEventWorker(nil, rec, pub)

	msg := saleCreatedMessage(`{"kind":"SALE_CREATED","payload":{"saleId":"S1","bookKey":"B1","quantity":3}}`)

	var err error
	require.NotPanics(t, func() {
		err = w.HandleMessage(context.Background(), msg)
	})
	require.NoError(t, err)

	resp := pub.last(t)
	assert.Equal(t, models.StatusError, resp.Status)
	assert.Equal(t, "S1", resp.SaleID, "sale id was decoded before the panic")
	assert.Contains(t, resp.Message, "panic")
}
