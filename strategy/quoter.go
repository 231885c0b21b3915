package strategy

import (
	"math"

	"etf-arb-go/market"
	"etf-arb-go/order"
	"etf-arb-go/risk"
	"etf-arb-go/valuation"
)

// Params 报价管线的可调参数。
type Params struct {
	Commission  float64 // 单腿佣金（美元/股）
	HedgeLegs   int     // 完整对冲的腿数，佣金按每腿各付一次预留
	MaxClipSize int     // 单侧最大挂量
	ImproveTick float64 // 压过对手盘的最小改进价差
}

// DefaultParams case 口径：三腿对冲、每腿 2 美分、2000 股、1 美分档。
func DefaultParams() Params {
	return Params{
		Commission:  0.02,
		HedgeLegs:   3,
		MaxClipSize: 2000,
		ImproveTick: 0.01,
	}
}

// Quoter 由篮子关系与估值区间推导双边报价。三段变换均为纯函数，
// 依次 Competitive -> Optimize -> Adjust，结果交给 order.Reconcile。
type Quoter struct {
	Params Params
	Limits risk.Limits
}

// NewQuoter 返回缺省参数的报价器。
func NewQuoter(limits risk.Limits) Quoter {
	return Quoter{Params: DefaultParams(), Limits: limits}
}

// Competitive 按合成腿推导每个标的的理论报价：
// 标的的隐含 bid 来自 ETF 最优买价减另一条腿的最优卖价（ETF 对称反推），
// 扣除三腿佣金缓冲；随后被估值区间夹住，bid 不高于 High、ask 不低于 Low
// （各留佣金缓冲加一档）。量取两条对冲腿可用量的较小者，封顶 MaxClipSize。
// 盘口缺失一侧时退回先验边界、量记 0。
func (q Quoter) Competitive(books map[market.Instrument]market.Book, intervals map[market.Instrument]valuation.Interval) map[market.Instrument]order.Quote {
	buf := q.Params.Commission * float64(q.Params.HedgeLegs)
	tick := q.Params.ImproveTick

	gemBid := books[market.GEM].BestBid(valuation.Prior(market.GEM).Low)
	gemAsk := books[market.GEM].BestAsk(valuation.Prior(market.GEM).High)
	ubBid := books[market.UB].BestBid(valuation.Prior(market.UB).Low)
	ubAsk := books[market.UB].BestAsk(valuation.Prior(market.UB).High)
	etfBid := books[market.ETF].BestBid(valuation.Prior(market.ETF).Low)
	etfAsk := books[market.ETF].BestAsk(valuation.Prior(market.ETF).High)

	gem := intervals[market.GEM]
	ub := intervals[market.UB]
	etf := intervals[market.ETF]

	quotes := make(map[market.Instrument]order.Quote, 3)

	quotes[market.GEM] = order.Quote{
		Bid: q.clip(
			clampBid(etfBid.Price-ubAsk.Price-buf, gem, buf, tick),
			minInt(ubAsk.Size, etfBid.Size)),
		Ask: q.clip(
			clampAsk(etfAsk.Price-ubBid.Price+buf, gem, buf, tick),
			minInt(ubBid.Size, etfAsk.Size)),
	}
	quotes[market.UB] = order.Quote{
		Bid: q.clip(
			clampBid(etfBid.Price-gemAsk.Price-buf, ub, buf, tick),
			minInt(gemAsk.Size, etfBid.Size)),
		Ask: q.clip(
			clampAsk(etfAsk.Price-gemBid.Price+buf, ub, buf, tick),
			minInt(gemBid.Size, etfAsk.Size)),
	}
	quotes[market.ETF] = order.Quote{
		Bid: q.clip(
			clampBid(gemBid.Price+ubBid.Price-buf, etf, buf, tick),
			minInt(gemBid.Size, ubBid.Size)),
		Ask: q.clip(
			clampAsk(gemAsk.Price+ubAsk.Price+buf, etf, buf, tick),
			minInt(gemAsk.Size, ubAsk.Size)),
	}
	return quotes
}

// clampBid 把合成 bid 限制在区间内：先压到 High 之下、再托到 Low 之下
// 一个佣金缓冲加一档的位置。
func clampBid(synthetic float64, iv valuation.Interval, buf, tick float64) float64 {
	p := round2(math.Min(synthetic, iv.High-buf-tick))
	return round2(math.Max(p, iv.Low-buf-tick))
}

// clampAsk 对称：先托到 Low 之上、再压到 High 之上。
func clampAsk(synthetic float64, iv valuation.Interval, buf, tick float64) float64 {
	p := round2(math.Max(synthetic, iv.Low+buf+tick))
	return round2(math.Min(p, iv.High+buf+tick))
}

func (q Quoter) clip(price float64, size int) market.PriceLevel {
	return market.PriceLevel{Price: price, Size: minInt(size, q.Params.MaxClipSize)}
}

// Optimize 只在比市场更激进时收敛到对手盘加减一档：
// bid 高于最优买价时压到 best_bid+tick，ask 低于最优卖价时抬到 best_ask-tick。
// 已不如市场激进的报价原样保留，绝不外扩。
func (q Quoter) Optimize(quotes map[market.Instrument]order.Quote, books map[market.Instrument]market.Book) map[market.Instrument]order.Quote {
	tick := q.Params.ImproveTick
	out := make(map[market.Instrument]order.Quote, len(quotes))
	for inst, quote := range quotes {
		prior := valuation.Prior(inst)
		bestBid := books[inst].BestBid(prior.Low).Price
		bestAsk := books[inst].BestAsk(prior.High).Price
		if quote.Bid.Price > bestBid {
			quote.Bid.Price = round2(bestBid + tick)
		}
		if quote.Ask.Price < bestAsk {
			quote.Ask.Price = round2(bestAsk - tick)
		}
		out[inst] = quote
	}
	return out
}

// Adjust 按仓位偏斜缩放挂量：skew = position/limit ∈ [-1,1]，
// bid 量乘 (1-skew)、ask 量乘 (1+skew)，收缩会加重偏斜的一侧。
func (q Quoter) Adjust(quotes map[market.Instrument]order.Quote, positions map[market.Instrument]int) map[market.Instrument]order.Quote {
	out := make(map[market.Instrument]order.Quote, len(quotes))
	for inst, quote := range quotes {
		skew := 0.0
		if limit := q.Limits[inst]; limit > 0 {
			skew = float64(positions[inst]) / float64(limit)
		}
		quote.Bid.Size = int(math.Round(float64(quote.Bid.Size) * (1 - skew)))
		quote.Ask.Size = int(math.Round(float64(quote.Ask.Size) * (1 + skew)))
		out[inst] = quote
	}
	return out
}

// Run 跑完整条报价管线。
func (q Quoter) Run(books map[market.Instrument]market.Book, intervals map[market.Instrument]valuation.Interval, positions map[market.Instrument]int) map[market.Instrument]order.Quote {
	return q.Adjust(q.Optimize(q.Competitive(books, intervals), books), positions)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
