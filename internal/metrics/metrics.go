package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "notifications",
		Name:      "live_connections",
		Help:      "Open live notification channels on this instance.",
	})

	PushesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "notifications",
		Name:      "pushes_delivered_total",
		Help:      "Push messages written to live channels.",
	})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notifications",
		Name:      "created_total",
		Help:      "Notification rows created, by event type.",
	}, []string{"type"})

	NotificationsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notifications",
		Name:      "skipped_total",
		Help:      "Notifications not created, by event type and reason.",
	}, []string{"type", "reason"})

	FanoutFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notifications",
		Name:      "fanout_failures_total",
		Help:      "Per-recipient failures during fan-out, by event type.",
	}, []string{"type"})

	TemplateCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notifications",
		Name:      "template_cache_lookups_total",
		Help:      "Template cache lookups by result (hit or miss).",
	}, []string{"result"})

	KafkaEventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notifications",
		Name:      "kafka_events_consumed_total",
		Help:      "Ticket events read from kafka, by outcome.",
	}, []string{"outcome"})
)

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
