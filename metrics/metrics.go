// Package metrics provides Prometheus metrics for the arbitrage engine
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"etf-arb-go/market"
	"etf-arb-go/risk"
	"etf-arb-go/valuation"
)

// Collector 引擎运行指标。
type Collector struct {
	Cycles        prometheus.Counter
	CyclesSkipped prometheus.Counter
	OrdersPlaced  *prometheus.CounterVec
	OrdersCancel  prometheus.Counter
	RiskRejects   prometheus.Counter
	RestErrors    *prometheus.CounterVec
	Position      *prometheus.GaugeVec
	Gross         prometheus.Gauge
	BasketSkew    prometheus.Gauge
	IntervalLow   *prometheus.GaugeVec
	IntervalHigh  *prometheus.GaugeVec
}

// NewCollector 注册全部指标到默认 registry。
func NewCollector() *Collector {
	return &Collector{
		Cycles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trader_cycles_total",
			Help: "决策轮次数量",
		}),
		CyclesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trader_cycles_skipped_total",
			Help: "因盘口抓取失败被跳过的轮次",
		}),
		OrdersPlaced: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_orders_placed_total",
			Help: "下单数量",
		}, []string{"kind"}),
		OrdersCancel: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trader_orders_cancelled_total",
			Help: "撤单数量",
		}),
		RiskRejects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trader_risk_rejects_total",
			Help: "风控拒单数量",
		}),
		RestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_rest_errors_total",
			Help: "REST 错误数量",
		}, []string{"call"}),
		Position: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trader_position",
			Help: "当前净仓位",
		}, []string{"instrument"}),
		Gross: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "trader_gross_position",
			Help: "当前总仓位（绝对值之和）",
		}),
		BasketSkew: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "trader_basket_skew",
			Help: "篮子失衡 (GEM+UB)-ETF",
		}),
		IntervalLow: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trader_interval_low",
			Help: "估值区间下界",
		}, []string{"instrument"}),
		IntervalHigh: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trader_interval_high",
			Help: "估值区间上界",
		}, []string{"instrument"}),
	}
}

// ObservePositions 更新仓位相关 gauge。
func (c *Collector) ObservePositions(positions map[market.Instrument]int) {
	if c == nil {
		return
	}
	for inst, pos := range positions {
		c.Position.WithLabelValues(string(inst)).Set(float64(pos))
	}
	c.Gross.Set(float64(risk.GrossPosition(positions)))
	c.BasketSkew.Set(float64(risk.BasketSkew(positions)))
}

// ObserveIntervals 更新估值区间 gauge。
func (c *Collector) ObserveIntervals(intervals map[market.Instrument]valuation.Interval) {
	if c == nil {
		return
	}
	for inst, iv := range intervals {
		c.IntervalLow.WithLabelValues(string(inst)).Set(iv.Low)
		c.IntervalHigh.WithLabelValues(string(inst)).Set(iv.High)
	}
}

// StartMetricsServer 启动Prometheus指标服务器
func StartMetricsServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, nil)
	}()
}
