package strategy

import (
	"fmt"

	"go.uber.org/zap"

	"etf-arb-go/market"
	"etf-arb-go/order"
	"etf-arb-go/risk"
	"etf-arb-go/valuation"
)

// Mispricing 标记某标的盘口两侧是否越过估值区间。
type Mispricing struct {
	Bid bool // 有买单挂在区间上界之上，可向其卖出
	Ask bool // 有卖单挂在区间下界之下，可从其买入
}

// SideSizes 两侧可吃总量。
type SideSizes struct {
	Bid int
	Ask int
}

// 盘口缺失一侧时错价检测用的缺省最优价，三个标的共用同一组值。
const (
	fallbackBestBid = 20
	fallbackBestAsk = 90
)

// DetectMispricing 检查各标的最优对手盘是否落在估值区间之外。
func DetectMispricing(books map[market.Instrument]market.Book, intervals map[market.Instrument]valuation.Interval) map[market.Instrument]Mispricing {
	out := make(map[market.Instrument]Mispricing, len(books))
	for _, inst := range market.Instruments() {
		iv := intervals[inst]
		out[inst] = Mispricing{
			Bid: books[inst].BestBid(fallbackBestBid).Price > iv.High,
			Ask: books[inst].BestAsk(fallbackBestAsk).Price < iv.Low,
		}
	}
	return out
}

// AvailableSize 自最优档向外累计仍在 bound 有利一侧（含等于）的挂量，
// 遇到第一档穿越 bound 即停，保证不吃穿公允价。
// side 指被吃的盘口方向：Buy 走买盘（bids），Sell 走卖盘（asks）。
func AvailableSize(b market.Book, bound float64, side order.Side) int {
	total := 0
	switch side {
	case order.Buy: // 吃对手买单：价格跌破 bound 即停
		for _, lvl := range b.Bids {
			if lvl.Price < bound {
				break
			}
			total += lvl.Size
		}
	case order.Sell: // 吃对手卖单：价格升破 bound 即停
		for _, lvl := range b.Asks {
			if lvl.Price > bound {
				break
			}
			total += lvl.Size
		}
	}
	return total
}

// PositionSource 提供当前持仓快照。
type PositionSource interface {
	Positions() (map[market.Instrument]int, error)
}

// OrderPlacer 提交单笔订单。
type OrderPlacer interface {
	Place(intent order.Intent) error
}

// Hitter 检测错价并以整块市价单吃掉，逐单过风控闸门。
type Hitter struct {
	BlockSize int
	Policy    risk.Policy
	Positions PositionSource
	Exec      OrderPlacer
	Log       *zap.Logger
	Rejects   interface{ Inc() } // 可选计数器，风控拒单时递增
}

// NewHitter 返回 case 口径（5000 股块）的 Hitter。
func NewHitter(policy risk.Policy, positions PositionSource, exec OrderPlacer, log *zap.Logger) *Hitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hitter{
		BlockSize: 5000,
		Policy:    policy,
		Positions: positions,
		Exec:      exec,
		Log:       log,
	}
}

// MeasureSizes 对每个错价侧计算可吃总量；未错价的一侧记 0。
func MeasureSizes(books map[market.Instrument]market.Book, intervals map[market.Instrument]valuation.Interval, mispricings map[market.Instrument]Mispricing) map[market.Instrument]SideSizes {
	out := make(map[market.Instrument]SideSizes, len(books))
	for _, inst := range market.Instruments() {
		var s SideSizes
		if mispricings[inst].Bid {
			s.Bid = AvailableSize(books[inst], intervals[inst].High, order.Buy)
		}
		if mispricings[inst].Ask {
			s.Ask = AvailableSize(books[inst], intervals[inst].Low, order.Sell)
		}
		out[inst] = s
	}
	return out
}

// BuildOrders 每满一个 BlockSize 生成一笔市价单：错价买单 -> 卖出，
// 错价卖单 -> 买入。不足整块的尾量刻意放弃。
func (h *Hitter) BuildOrders(sizes map[market.Instrument]SideSizes) []order.Intent {
	var intents []order.Intent
	for _, inst := range market.Instruments() {
		s := sizes[inst]
		for i := 0; i < s.Bid/h.BlockSize; i++ {
			intents = append(intents, order.Intent{
				Instrument: inst, Type: order.Market, Side: order.Sell, Quantity: h.BlockSize,
			})
		}
		for i := 0; i < s.Ask/h.BlockSize; i++ {
			intents = append(intents, order.Intent{
				Instrument: inst, Type: order.Market, Side: order.Buy, Quantity: h.BlockSize,
			})
		}
	}
	return intents
}

// Run 执行一轮吃单：检测错价、量度深度、逐单发出。
// 每笔发出前重读持仓——前序订单可能已改变风险敞口，闸门必须
// 看到最新快照；违规的订单直接跳过，不重试不排队。
func (h *Hitter) Run(books map[market.Instrument]market.Book, intervals map[market.Instrument]valuation.Interval) error {
	mispricings := DetectMispricing(books, intervals)
	sizes := MeasureSizes(books, intervals, mispricings)
	intents := h.BuildOrders(sizes)

	for _, intent := range intents {
		positions, err := h.Positions.Positions()
		if err != nil {
			return fmt.Errorf("refresh positions: %w", err)
		}
		if err := h.Policy.Admit(positions, intent.Instrument, intent.Side, intent.Quantity); err != nil {
			if h.Rejects != nil {
				h.Rejects.Inc()
			}
			h.Log.Debug("hit order skipped by risk gate",
				zap.String("instrument", string(intent.Instrument)),
				zap.String("side", string(intent.Side)),
				zap.Int("quantity", intent.Quantity),
				zap.Error(err))
			continue
		}
		if err := h.Exec.Place(intent); err != nil {
			return fmt.Errorf("place hit order: %w", err)
		}
		h.Log.Info("hit order placed",
			zap.String("instrument", string(intent.Instrument)),
			zap.String("side", string(intent.Side)),
			zap.Int("quantity", intent.Quantity))
	}
	return nil
}
