// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"billdesk/internal/domain"
)

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	BillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billdesk_bills_total",
			Help: "Generated bills by change outcome",
		},
		[]string{"change"},
	)

	DenominationCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "billdesk_denomination_count",
			Help: "Notes on hand per denomination value",
		},
		[]string{"value"},
	)
)

// Init registers the collectors with the default registry. Call once from main.
func Init() {
	prometheus.MustRegister(HttpRequestsTotal, HttpRequestDuration, BillsTotal, DenominationCount)
}

func ObserveBill(kind domain.ChangeKind) {
	BillsTotal.WithLabelValues(string(kind)).Inc()
}

// SetInventory replaces the denomination gauges with the given snapshot.
func SetInventory(denoms []domain.Denomination) {
	DenominationCount.Reset()
	for _, d := range denoms {
		DenominationCount.WithLabelValues(strconv.FormatInt(d.Value, 10)).Set(float64(d.Count))
	}
}

func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "undefined"
		}

		HttpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HttpRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
	}
}
