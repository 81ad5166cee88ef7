package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "robinhoot"

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Pricing metrics
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_price_quotes_total",
			Help: "Total number of computed price quotes by discount source",
		},
		[]string{"source"},
	)

	QuoteCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_price_quote_cache_total",
			Help: "Quote cache lookups by result",
		},
		[]string{"result"},
	)

	RepricesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_reprices_total",
			Help: "Product reprice runs by outcome",
		},
		[]string{"outcome"},
	)

	RepriceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_reprice_all_duration_seconds",
			Help:    "Duration of a full catalog reprice in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Price stream metrics
	SSESubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_price_stream_subscribers",
			Help: "Open price change SSE subscriptions",
		},
	)

	SSEDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_price_stream_dropped_events_total",
			Help: "Price events skipped for subscribers with a full buffer",
		},
	)

	// Order event metrics
	OrderEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_events_total",
			Help: "Consumed order events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	// Authentication metrics
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Register and login attempts by outcome",
		},
		[]string{"action", "outcome"},
	)

	// Moderation metrics
	ModerationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_banner_moderation_total",
			Help: "Banner image moderation results",
		},
		[]string{"status"},
	)
)

// RecordQuote increments the quote counter for a discount source.
func RecordQuote(source string) {
	QuotesTotal.WithLabelValues(source).Inc()
}

// RecordQuoteCache records a cache hit or miss.
func RecordQuoteCache(hit bool) {
	if hit {
		QuoteCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	QuoteCacheTotal.WithLabelValues("miss").Inc()
}

// RecordReprice increments the reprice counter for an outcome
// (changed, unchanged or error).
func RecordReprice(outcome string) {
	RepricesTotal.WithLabelValues(outcome).Inc()
}

// TrackRepriceAll returns a function that records the duration of a full reprice.
func TrackRepriceAll() func() {
	start := time.Now()
	return func() {
		RepriceDuration.Observe(time.Since(start).Seconds())
	}
}

// SetSSESubscribers records the number of open price streams.
func SetSSESubscribers(n int) {
	SSESubscribers.Set(float64(n))
}

// RecordSSEDrop counts one event skipped for a lagging subscriber.
func RecordSSEDrop() {
	SSEDroppedTotal.Inc()
}

// RecordOrderEvent increments the order event counter.
func RecordOrderEvent(eventType, outcome string) {
	OrderEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordAuth increments the auth attempt counter.
func RecordAuth(action, outcome string) {
	AuthAttemptsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordModeration increments the moderation counter.
func RecordModeration(status string) {
	ModerationTotal.WithLabelValues(status).Inc()
}
