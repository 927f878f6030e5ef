package metrics

import (
	"net/http"
	"strconv"
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
			Namespace: "investx",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "investx",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "investx",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	ledgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "investx",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger operations by name and outcome code.",
		},
		[]string{"operation", "outcome"},
	)

	ledgerAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "investx",
			Subsystem: "ledger",
			Name:      "amount_total",
			Help:      "Sum of amounts moved by successful ledger operations, in RWF.",
		},
		[]string{"operation"},
	)

	settledInvestments = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "investx",
			Subsystem: "investments",
			Name:      "settled_total",
			Help:      "Investments settled at maturity.",
		},
	)

	settlementDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "investx",
			Subsystem: "investments",
			Name:      "settlement_run_duration_seconds",
			Help:      "Duration of scheduled settlement passes.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ledgerOperations,
		ledgerAmount,
		settledInvestments,
		settlementDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count and latency per matched route.
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

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordLedgerOperation counts one ledger operation. outcome is "ok" or an error code.
func RecordLedgerOperation(operation, outcome string, amount int64) {
	if outcome == "" {
		outcome = "ok"
	}
	ledgerOperations.WithLabelValues(operation, outcome).Inc()
	if outcome == "ok" && amount > 0 {
		ledgerAmount.WithLabelValues(operation).Add(float64(amount))
	}
}

func RecordSettled(n int) {
	if n > 0 {
		settledInvestments.Add(float64(n))
	}
}

func RecordSettlementRun(d time.Duration) {
	settlementDuration.Observe(d.Seconds())
}
