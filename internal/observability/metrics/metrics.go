package metrics

import "github.com/prometheus/client_golang/prometheus"

// PlatformMetrics exposes counters/histograms for the voice pipeline.
type PlatformMetrics struct {
	webhookEvents    *prometheus.CounterVec
	webhookLatency   *prometheus.HistogramVec
	smsTotal         *prometheus.CounterVec
	bookingConflicts prometheus.Counter
}

func NewPlatformMetrics(reg prometheus.Registerer) *PlatformMetrics {
	m := &PlatformMetrics{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubvoice",
			Subsystem: "voice",
			Name:      "webhook_events_total",
			Help:      "Total voice webhook events received",
		}, []string{"event_type", "status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clubvoice",
			Subsystem: "voice",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of voice webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
		smsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubvoice",
			Subsystem: "notifications",
			Name:      "sms_total",
			Help:      "Total outbound SMS attempts",
		}, []string{"provider", "status"}),
		bookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clubvoice",
			Subsystem: "bookings",
			Name:      "conflicts_total",
			Help:      "Total booking attempts rejected for slot conflicts",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.webhookEvents, m.webhookLatency, m.smsTotal, m.bookingConflicts)
	return m
}

func (m *PlatformMetrics) ObserveWebhookEvent(eventType, status string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType, status).Inc()
}

func (m *PlatformMetrics) ObserveWebhookLatency(eventType string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(eventType).Observe(seconds)
}

func (m *PlatformMetrics) ObserveSMS(provider, status string) {
	if m == nil {
		return
	}
	m.smsTotal.WithLabelValues(provider, status).Inc()
}

func (m *PlatformMetrics) ObserveBookingConflict() {
	if m == nil {
		return
	}
	m.bookingConflicts.Inc()
}
