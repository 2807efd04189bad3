// Package metrics provides Prometheus metrics collection for Grana.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for Grana.
type Collector struct {
	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Auth metrics
	AuthFailures prometheus.Counter

	// Billing metrics
	PurchasesCreated   prometheus.Counter
	InstallmentsSplit  prometheus.Counter
	InvoicesOpened     prometheus.Counter
	InvoicesClosed     *prometheus.CounterVec
	LimitRejections    prometheus.Counter
	BalanceAdjustments *prometheus.CounterVec
}

// New creates a new metrics collector registered on a fresh registry.
// Returns the collector and the registry to expose via promhttp.
func New() (*Collector, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "grana",
				Name:      "requests_total",
				Help:      "Total number of API requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "grana",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "path"},
		),
		AuthFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "grana",
				Name:      "auth_failures_total",
				Help:      "Requests rejected for missing or invalid credentials",
			},
		),
		PurchasesCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "grana",
				Name:      "purchases_created_total",
				Help:      "Logical card purchases accepted",
			},
		),
		InstallmentsSplit: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "grana",
				Name:      "installments_written_total",
				Help:      "Installment rows written across all purchases",
			},
		),
		InvoicesOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "grana",
				Name:      "invoices_opened_total",
				Help:      "Invoices lazily created for new billing periods",
			},
		),
		InvoicesClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "grana",
				Name:      "invoices_closed_total",
				Help:      "Invoices closed, by resulting status",
			},
			[]string{"status"},
		),
		LimitRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "grana",
				Name:      "credit_limit_rejections_total",
				Help:      "Credit purchases rejected by the limit validator",
			},
		),
		BalanceAdjustments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "grana",
				Name:      "balance_adjustments_total",
				Help:      "Card balance ledger mutations, by operation",
			},
			[]string{"operation"},
		),
	}

	return c, reg
}
