package order

import "etf-arb-go/market"

// Side 买卖方向，取值与交易所 action 字段一致。
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Type 订单类型。
type Type string

const (
	Limit  Type = "LIMIT"
	Market Type = "MARKET"
)

// Intent 一次性决策输出的新单。LIMIT 必须带价格，MARKET 忽略价格。
type Intent struct {
	Instrument market.Instrument
	Type       Type
	Side       Side
	Price      float64
	Quantity   int
}

// Resting 交易所回报的自身挂单；ID 由交易所分配，引擎不自造。
type Resting struct {
	ID         int
	Instrument market.Instrument
	Side       Side
	Price      float64
	Size       int // 净量，已扣除成交部分
}

// Quote 单一标的的两侧意向挂单。
type Quote struct {
	Bid market.PriceLevel
	Ask market.PriceLevel
}
