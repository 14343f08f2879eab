package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Product write operations.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

var (
	// RequestsTotal tracks total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration tracks HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// OrdersCreated tracks orders placed, by initial status
	OrdersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total number of orders created",
		},
		[]string{"status"},
	)

	// ProductWrites tracks catalogue mutations
	ProductWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_product_writes_total",
			Help: "Total number of product create, update and delete operations",
		},
		[]string{"operation"},
	)

	// ThrottledRequests tracks requests rejected by the rate limiter
	ThrottledRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_throttled_requests_total",
			Help: "Total number of requests rejected by throttling",
		},
	)
)

// ObserveRequest records one served request. Unmatched requests should pass
// an empty route so that arbitrary paths do not create new series.
func ObserveRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// OrderCreated counts a newly placed order.
func OrderCreated(status string) {
	OrdersCreated.WithLabelValues(status).Inc()
}

// ProductWritten counts a catalogue mutation.
func ProductWritten(operation string) {
	ProductWrites.WithLabelValues(operation).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
