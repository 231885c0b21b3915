package valuation

import (
	"math"

	"etf-arb-go/market"
)

// Interval 标的公允价值区间 [Low, High]。
type Interval struct {
	Low  float64
	High float64
}

// Mid 返回区间中点。
func (iv Interval) Mid() float64 {
	return (iv.Low + iv.High) / 2
}

// Width 返回区间宽度。
func (iv Interval) Width() float64 {
	return iv.High - iv.Low
}

// Prior 返回标的的静态先验区间（case 文档给定）。
func Prior(inst market.Instrument) Interval {
	switch inst {
	case market.GEM:
		return Interval{Low: 20, High: 30}
	case market.UB:
		return Interval{Low: 40, High: 60}
	case market.ETF:
		return Interval{Low: 60, High: 90}
	}
	return Interval{}
}

// Band 把点估计按剩余时间展开为区间：半宽 = (300 - t) / 50。
// t 超过 300 时半宽为负，区间会出现 Low > High；上游喂价公式即如此，
// 这里不做纠正，由调用方自行容忍。
func Band(t int, estimate float64) Interval {
	half := float64(300-t) / 50
	return Interval{
		Low:  round2(estimate - half),
		High: round2(estimate + half),
	}
}

// Midpoints 返回各标的区间中点，供日志与指标使用。
func Midpoints(intervals map[market.Instrument]Interval) map[market.Instrument]float64 {
	mids := make(map[market.Instrument]float64, len(intervals))
	for inst, iv := range intervals {
		mids[inst] = iv.Mid()
	}
	return mids
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
