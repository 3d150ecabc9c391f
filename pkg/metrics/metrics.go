package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agrohub"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// Checkout results used as the "result" label.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultPartial = "partial"
	ResultError   = "error"
)

type CheckoutMetrics struct {
	Checkouts  *prometheus.CounterVec
	Partitions prometheus.Histogram
	Orders     *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Checkout attempts by result.",
	}, []string{"result"})
	partitions := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "partitions",
		Help:      "Number of seller partitions per submitted checkout.",
		Buckets:   []float64{1, 2, 3, 4, 5, 8, 13},
	})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "orders_total",
		Help:      "Sibling orders by creation outcome.",
	}, []string{"outcome"})

	reg.MustRegister(checkouts, partitions, orders)
	return &CheckoutMetrics{Checkouts: checkouts, Partitions: partitions, Orders: orders}
}

// ObserveCheckout is safe to call on a nil receiver.
func (m *CheckoutMetrics) ObserveCheckout(result string, partitions, created, failed int) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(result).Inc()
	if partitions > 0 {
		m.Partitions.Observe(float64(partitions))
	}
	m.Orders.WithLabelValues("created").Add(float64(created))
	m.Orders.WithLabelValues("failed").Add(float64(failed))
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
