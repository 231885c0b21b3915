package valuation

import (
	"strconv"
	"strings"

	"etf-arb-go/market"
)

// Item 一条私有新闻。Headline 含标的名，Body 含美元点估计。
type Item struct {
	ID       int
	Tick     int
	Headline string
	Body     string
}

// Estimator 跨周期保存最新估值区间，仅当新闻条数变化时重算。
type Estimator struct {
	intervals map[market.Instrument]Interval
	newsLen   int
	sentinels map[int]bool
}

// NewEstimator 以静态先验初始化。开收盘公告（news_id 1/12）不含估计，跳过。
func NewEstimator() *Estimator {
	e := &Estimator{
		intervals: make(map[market.Instrument]Interval),
		sentinels: map[int]bool{1: true, 12: true},
	}
	for _, inst := range market.Instruments() {
		e.intervals[inst] = Prior(inst)
	}
	return e
}

// Current 返回缓存区间的副本。
func (e *Estimator) Current() map[market.Instrument]Interval {
	out := make(map[market.Instrument]Interval, len(e.intervals))
	for inst, iv := range e.intervals {
		out[inst] = iv
	}
	return out
}

// Refresh 处理最新新闻列表。条数与上轮一致时直接返回缓存（changed=false）；
// 否则重算 GEM/UB 区间并按篮子恒等式推导 ETF。
func (e *Estimator) Refresh(items []Item) (map[market.Instrument]Interval, bool) {
	if len(items) == e.newsLen {
		return e.Current(), false
	}
	e.newsLen = len(items)

	bands := map[market.Instrument][]Interval{}
	for _, item := range items {
		if e.sentinels[item.ID] {
			continue
		}
		inst, ok := instrumentOf(item.Headline)
		if !ok {
			continue
		}
		estimate, ok := parseEstimate(item.Body)
		if !ok {
			continue
		}
		// 新闻发布于 tick，经过时间取 tick+1 秒
		bands[inst] = append(bands[inst], Band(item.Tick+1, estimate))
	}

	gem := intersect(market.GEM, bands[market.GEM])
	ub := intersect(market.UB, bands[market.UB])
	e.intervals[market.GEM] = gem
	e.intervals[market.UB] = ub
	// ETF = GEM + UB，逐元素求和，每轮重新推导
	e.intervals[market.ETF] = Interval{Low: gem.Low + ub.Low, High: gem.High + ub.High}

	return e.Current(), true
}

// intersect 取所有区间下界的最大值与上界的最小值，再被先验夹住；
// 无样本时退回先验。
func intersect(inst market.Instrument, bands []Interval) Interval {
	prior := Prior(inst)
	if len(bands) == 0 {
		return prior
	}
	low, high := prior.Low, prior.High
	for _, b := range bands {
		if b.Low > low {
			low = b.Low
		}
		if b.High < high {
			high = b.High
		}
	}
	return Interval{Low: low, High: high}
}

func instrumentOf(headline string) (market.Instrument, bool) {
	if strings.Contains(headline, "GEM") {
		return market.GEM, true
	}
	if strings.Contains(headline, "UB") {
		return market.UB, true
	}
	return "", false
}

// parseEstimate 取正文最后一个 '$' 之后的首个字段解析为数值。
func parseEstimate(body string) (float64, bool) {
	if body == "" {
		return 0, false
	}
	seg := body
	if i := strings.LastIndex(body, "$"); i >= 0 {
		seg = body[i+1:]
	}
	fields := strings.Fields(strings.TrimSpace(seg))
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
