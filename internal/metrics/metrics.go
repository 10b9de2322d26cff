// Package metrics collects Prometheus metrics for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the registered collectors
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	chatReplies   *prometheus.CounterVec
	uploadedBytes prometheus.Counter
	wsConnections prometheus.Gauge
}

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "citytours_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "citytours_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		chatReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "citytours_chat_replies_total",
			Help: "Chat replies by source (webhook or fallback) and fallback bucket",
		}, []string{"source", "bucket"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "citytours_image_upload_bytes_total",
			Help: "Bytes of tour images stored",
		}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "citytours_ws_connections",
			Help: "Open chat WebSocket connections",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.chatReplies,
		c.uploadedBytes,
		c.wsConnections,
	)

	return c
}

// RecordRequest records one served HTTP request
func (c *Collector) RecordRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordChatReply records where a chat answer came from
func (c *Collector) RecordChatReply(fallback bool, bucket string) {
	source := "webhook"
	if fallback {
		source = "fallback"
	}
	c.chatReplies.WithLabelValues(source, bucket).Inc()
}

// RecordUpload records the size of a stored image
func (c *Collector) RecordUpload(bytes int) {
	c.uploadedBytes.Add(float64(bytes))
}

// WSConnected tracks open chat connections
func (c *Collector) WSConnected(delta int) {
	c.wsConnections.Add(float64(delta))
}

// Handler returns the scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
