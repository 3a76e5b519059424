package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes used as the "outcome" label.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected_in_flight"
	OutcomeGuarded   = "guarded"
	OutcomeInvalid   = "invalid_cart"
)

// CheckoutMetrics holds the collectors for the checkout flow.
type CheckoutMetrics struct {
	submissions        *prometheus.CounterVec
	submissionDuration prometheus.Histogram
	inFlight           prometheus.Gauge
	guardRedirects     *prometheus.CounterVec
	cartsCleared       prometheus.Counter
	staleCompletions   prometheus.Counter
	orderTotal         prometheus.Histogram
}

// NewCheckoutMetrics registers collectors on the default registerer.
func NewCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &CheckoutMetrics{
		submissions: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_order_submissions_total",
			Help: "Order submissions by outcome",
		}, []string{"outcome"})),
		submissionDuration: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "checkout_order_submission_duration_seconds",
			Help:    "Time spent waiting on the order boundary",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		})),
		inFlight: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "checkout_order_submissions_in_flight",
			Help: "Submissions currently waiting on the order boundary",
		})),
		guardRedirects: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_guard_redirects_total",
			Help: "Step guard redirects by requested step and redirect target",
		}, []string{"step", "redirect"})),
		cartsCleared: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkout_carts_cleared_total",
			Help: "Carts whose items were cleared after a placed order",
		})),
		staleCompletions: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkout_stale_completions_total",
			Help: "Placed orders whose cart was reset before the order boundary answered",
		})),
		orderTotal: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "checkout_order_total_price",
			Help:    "Total price of placed orders",
			Buckets: []float64{15, 50, 100, 200, 500, 1000, 5000},
		})),
	}
}

// register returns the already registered collector when one with the same
// descriptor exists, so tests and multiple services can share a registry.
func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if err := registerer.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := already.ExistingCollector.(T)
			if !ok {
				panic(fmt.Sprintf("collector already registered with unexpected type: %v", err))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return collector
}

func (m *CheckoutMetrics) SubmissionStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// SubmissionFinished records the boundary call duration and outcome.
func (m *CheckoutMetrics) SubmissionFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.submissionDuration.Observe(d.Seconds())
	m.submissions.WithLabelValues(outcome).Inc()
}

// SubmissionSkipped records an attempt that never reached the order boundary.
func (m *CheckoutMetrics) SubmissionSkipped(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *CheckoutMetrics) GuardRedirect(step, redirect string) {
	if m == nil {
		return
	}
	m.guardRedirects.WithLabelValues(step, redirect).Inc()
}

func (m *CheckoutMetrics) CartCleared() {
	if m == nil {
		return
	}
	m.cartsCleared.Inc()
}

func (m *CheckoutMetrics) StaleCompletion() {
	if m == nil {
		return
	}
	m.staleCompletions.Inc()
}

func (m *CheckoutMetrics) OrderPlaced(total float64) {
	if m == nil {
		return
	}
	m.orderTotal.Observe(total)
}
