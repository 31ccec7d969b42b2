// Package observability exposes Prometheus instruments for the bot pipeline.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing, so tests can skip registration.
type Metrics struct {
	Turns          *prometheus.CounterVec
	TurnErrors     prometheus.Counter
	ContextReplays prometheus.Counter
	Deliveries     *prometheus.CounterVec
	DeliveryErrors *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by platform.",
		}, []string{"platform"}),
		TurnErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turn_errors_total",
			Help:      "Turns that degraded to the generic apology reply.",
		}),
		ContextReplays: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_replays_total",
			Help:      "Context-set pushes performed after idle resumption.",
		}),
		Deliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Messages delivered by platform and message type.",
		}, []string{"platform", "type"}),
		DeliveryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_errors_total",
			Help:      "Per-message delivery failures by platform.",
		}, []string{"platform"}),
	}
}

func (m *Metrics) IncTurn(platform string) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(platform).Inc()
}

func (m *Metrics) IncTurnError() {
	if m == nil {
		return
	}
	m.TurnErrors.Inc()
}

func (m *Metrics) IncContextReplay() {
	if m == nil {
		return
	}
	m.ContextReplays.Inc()
}

func (m *Metrics) IncDelivery(platform, msgType string) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(platform, msgType).Inc()
}

func (m *Metrics) IncDeliveryError(platform string) {
	if m == nil {
		return
	}
	m.DeliveryErrors.WithLabelValues(platform).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
