package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stories_http_requests_total",
			Help: "Total number of HTTP requests processed by the stories service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stories_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	itemsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stories_items_created_total",
			Help: "Total number of ephemeral items created.",
		},
		[]string{"kind"},
	)
	viewsMarkedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stories_views_marked_total",
			Help: "Total number of view marks recorded.",
		},
		[]string{"kind"},
	)
	expiredPurgedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stories_expired_purged_total",
			Help: "Total number of expired items physically removed by the sweeper.",
		},
		[]string{"kind"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stories_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stories_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stories_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		itemsCreatedTotal,
		viewsMarkedTotal,
		expiredPurgedTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncItemCreated(kind string) {
	itemsCreatedTotal.WithLabelValues(kind).Inc()
}

func IncViewMarked(kind string) {
	viewsMarkedTotal.WithLabelValues(kind).Inc()
}

func AddExpiredPurged(kind string, count int64) {
	expiredPurgedTotal.WithLabelValues(kind).Add(float64(count))
}

func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
