package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_events_published_total",
			Help: "Events written to Kafka",
		},
		[]string{"topic", "event_type"},
	)

	eventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_events_publish_errors_total",
			Help: "Events that could not be written to Kafka",
		},
		[]string{"topic", "event_type"},
	)

	publishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_events_publish_duration_seconds",
			Help:    "Time spent writing one event to Kafka",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"topic"},
	)
)

// observePublish records the outcome of one write.
func observePublish(topic, eventType string, started time.Time, err error) {
	publishDuration.WithLabelValues(topic).Observe(time.Since(started).Seconds())
	if err != nil {
		eventsFailed.WithLabelValues(topic, eventType).Inc()
		return
	}
	eventsPublished.WithLabelValues(topic, eventType).Inc()
}
