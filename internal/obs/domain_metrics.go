package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SalesFinalizedTotal counts finalized sales by payment method.
	SalesFinalizedTotal *prometheus.CounterVec
	// SalesRejectedTotal counts finalize attempts rejected before a sale was recorded.
	SalesRejectedTotal *prometheus.CounterVec
	// SaleFinalizeLatency records finalize latency in milliseconds.
	SaleFinalizeLatency prometheus.Histogram
	// SessionsClosedTotal counts cash session close outcomes.
	SessionsClosedTotal *prometheus.CounterVec
	// SessionCashDifference records the absolute counted-vs-system difference per closed session, in minor units.
	SessionCashDifference *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SalesFinalizedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_finalized_total",
			Help:      "Count of finalized sales by payment method.",
		}, []string{"payment_method"})
		SalesRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_rejected_total",
			Help:      "Count of finalize attempts rejected by precondition checks.",
		}, []string{"reason"})
		SaleFinalizeLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_finalize_duration_ms",
			Help:      "Latency of sale finalization in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		})
		SessionsClosedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Count of cash session close outcomes.",
		}, []string{"result"})
		SessionCashDifference = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_cash_difference_minor_units",
			Help:      "Absolute difference between counted and system totals per method at session close.",
			Buckets:   []float64{0, 100, 500, 1000, 5000, 10000, 50000, 100000},
		}, []string{"payment_method"})

		mustRegisterCollector(reg, SalesFinalizedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SalesFinalizedTotal = v
			}
		})
		mustRegisterCollector(reg, SalesRejectedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SalesRejectedTotal = v
			}
		})
		mustRegisterCollector(reg, SaleFinalizeLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				SaleFinalizeLatency = v
			}
		})
		mustRegisterCollector(reg, SessionsClosedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SessionsClosedTotal = v
			}
		})
		mustRegisterCollector(reg, SessionCashDifference, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				SessionCashDifference = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
