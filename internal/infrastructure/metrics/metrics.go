package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bloodlink",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bloodlink",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bloodlink",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	// DonorNotifications counts per-recipient donor messages.
	DonorNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bloodlink",
			Name:      "donor_notifications_total",
			Help:      "Donor notification messages by channel and result.",
		},
		[]string{"channel", "result"},
	)

	// NotificationJobs counts fan-out jobs by lifecycle outcome.
	NotificationJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bloodlink",
			Name:      "notification_jobs_total",
			Help:      "Donor fan-out jobs by outcome (queued, dropped, completed, failed).",
		},
		[]string{"result"},
	)

	// EmergencyRequests counts emergency request creation outcomes.
	EmergencyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bloodlink",
			Name:      "emergency_requests_total",
			Help:      "Emergency request creation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// Reminders counts appointment reminder deliveries.
	Reminders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bloodlink",
			Name:      "appointment_reminders_total",
			Help:      "Appointment reminders by kind and result.",
		},
		[]string{"kind", "result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		DonorNotifications,
		NotificationJobs,
		EmergencyRequests,
		Reminders,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count, latency and in-flight gauge per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordDonorNotification records one donor message attempt.
func RecordDonorNotification(channel string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	DonorNotifications.WithLabelValues(channel, result).Inc()
}

// RecordNotificationJob records a fan-out job outcome.
func RecordNotificationJob(result string) {
	NotificationJobs.WithLabelValues(result).Inc()
}

// RecordEmergencyRequest records an emergency request creation outcome.
func RecordEmergencyRequest(outcome string) {
	EmergencyRequests.WithLabelValues(outcome).Inc()
}

// RecordReminder records an appointment reminder delivery.
func RecordReminder(kind string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	Reminders.WithLabelValues(kind, result).Inc()
}
