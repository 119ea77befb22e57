package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Orders created per pass type and outcome",
		},
		[]string{"pass_type", "status"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Gateway webhook deliveries per event type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	scanOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_operations_total",
			Help: "Gate scan attempts per outcome",
		},
		[]string{"outcome"},
	)

	rateLimitStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_store_errors_total",
			Help: "Rate limit checks that failed open because the counter store errored",
		},
		[]string{"scope"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of payment gateway calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"operation"},
	)
)

// Monitor wraps the prometheus vectors behind small tracking methods so
// services do not touch metric internals directly.
type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// TrackOrder records one order-creation attempt.
func (m *Monitor) TrackOrder(passType, status string) {
	ordersTotal.WithLabelValues(passType, status).Inc()
}

// TrackWebhook records one webhook delivery.
func (m *Monitor) TrackWebhook(eventType, outcome string) {
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// TrackScan records one gate scan attempt.
func (m *Monitor) TrackScan(outcome string) {
	scanOperations.WithLabelValues(outcome).Inc()
}

// TrackRateLimitFailOpen records a rate limit check that was skipped
// because the counter store errored. A non-flat rate on this counter
// means scans are running unthrottled.
func (m *Monitor) TrackRateLimitFailOpen(scope string) {
	rateLimitStoreErrors.WithLabelValues(scope).Inc()
}

// TrackGatewayRequest records the latency of one gateway call.
func (m *Monitor) TrackGatewayRequest(operation string, duration time.Duration) {
	gatewayRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
