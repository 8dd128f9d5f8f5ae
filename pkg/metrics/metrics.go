// Package metrics 提供 Prometheus helper，覆盖订单、周期与结算的核心业务指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	// 订单指标
	OrdersSubmitted prometheus.Counter
	OrdersFilled    prometheus.Counter
	OrdersRejected  *prometheus.CounterVec
	OrdersSplit     prometheus.Counter

	// 周期指标
	CyclesCompleted prometheus.Counter
	CycleExecutions prometheus.Histogram

	// 风控指标
	RiskDeferred prometheus.Counter
	DailyPnL     prometheus.Gauge

	// 结算指标
	SettlementsTotal prometheus.Counter

	registry *prometheus.Registry
}

// New 创建并注册指标实例
func New(serviceName string) *Metrics {
	m := &Metrics{
		OrdersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "orders_submitted_total",
			Help:      "Total orders submitted to the execution adapter",
		}),
		OrdersFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "orders_filled_total",
			Help:      "Total orders filled",
		}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "orders_rejected_total",
			Help:      "Total orders rejected, labelled by gate rule",
		}, []string{"rule"}),
		OrdersSplit: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "orders_split_total",
			Help:      "Total oversized orders decomposed into child orders",
		}),
		CyclesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "cycles_completed_total",
			Help:      "Total trading cycles completed",
		}),
		CycleExecutions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "cycle_executions",
			Help:      "Executed trades per completed cycle",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		RiskDeferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "risk_deferred_total",
			Help:      "Total signals deferred by adaptive capacity",
		}),
		DailyPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "daily_pnl",
			Help:      "Realized P&L for the current trading day",
		}),
		SettlementsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "settlements_total",
			Help:      "Total settlement computations performed",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.OrdersSubmitted,
		m.OrdersFilled,
		m.OrdersRejected,
		m.OrdersSplit,
		m.CyclesCompleted,
		m.CycleExecutions,
		m.RiskDeferred,
		m.DailyPnL,
		m.SettlementsTotal,
	)
	return m
}

// Handler 返回 Prometheus 抓取端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
