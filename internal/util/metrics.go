package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesReconciledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_reconciled_total",
		Help: "Total number of sales reconciled, by result",
	}, []string{"result"})

	ReconciliationReplaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_replays_total",
		Help: "Total number of reconciliation attempts resolved as already handled",
	})

	ReconcileLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconcile_latency_seconds",
		Help:    "Latency of the shared reconcile operation",
		Buckets: prometheus.DefBuckets,
	})

	SaleEventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sale_events_consumed_total",
		Help: "Total number of events consumed from the sale-events topic, by kind",
	}, []string{"kind"})

	EventDecodeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_decode_failures_total",
		Help: "Total number of messages whose envelope or payload failed to decode",
	})

	ResponsesPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_responses_published_total",
		Help: "Total number of response events published, by status",
	}, []string{"status"})

	ResponsePublishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_response_publish_failures_total",
		Help: "Total number of response events that failed to publish",
	})

	PollCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poll_cycles_total",
		Help: "Total number of polling cycles executed",
	})

	PollFetchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poll_fetch_failures_total",
		Help: "Total number of failed fetches of the unprocessed sales list",
	})

	SaleAckFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sale_ack_failures_total",
		Help: "Total number of failed acknowledgment calls to the sales service",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
