package risk

import (
	"errors"
	"fmt"

	"etf-arb-go/market"
	"etf-arb-go/order"
)

var (
	ErrGrossExceed    = errors.New("gross position exceed")
	ErrPositionExceed = errors.New("instrument position exceed")
)

// Limits 各标的有符号持仓上限（±limit）。
type Limits map[market.Instrument]int

// DefaultLimits case 给定的持仓限额；ETF 限额为两条腿之和。
func DefaultLimits() Limits {
	return Limits{
		market.GEM: 33000,
		market.UB:  17500,
		market.ETF: 33000 + 17500,
	}
}

// Policy 持仓与单笔数量的准入控制。无内部状态，
// 全部判断基于调用时刻的持仓快照。
type Policy struct {
	Limits       Limits
	GrossCeiling int
	MaxOrderQty  int
}

// DefaultPolicy 返回 case 限额：总仓 100000，单笔 5000。
func DefaultPolicy() Policy {
	return Policy{
		Limits:       DefaultLimits(),
		GrossCeiling: 100000,
		MaxOrderQty:  5000,
	}
}

// GrossPosition 返回各标的持仓绝对值之和。
func GrossPosition(positions map[market.Instrument]int) int {
	gross := 0
	for _, p := range positions {
		if p < 0 {
			gross -= p
		} else {
			gross += p
		}
	}
	return gross
}

// BasketSkew 返回 (GEM + UB) - ETF，两腿对冲不平衡度。
func BasketSkew(positions map[market.Instrument]int) int {
	return positions[market.GEM] + positions[market.UB] - positions[market.ETF]
}

// ProjectGross 预测该笔订单全部成交后的总仓。买入在已多头时加大总仓、
// 空头时先行冲抵；卖出对称。
func ProjectGross(positions map[market.Instrument]int, inst market.Instrument, side order.Side, qty int) int {
	gross := GrossPosition(positions)
	switch side {
	case order.Buy:
		if positions[inst] >= 0 {
			return gross + qty
		}
		return gross - qty
	case order.Sell:
		if positions[inst] > 0 {
			return gross - qty
		}
		return gross + qty
	}
	return gross
}

// Admit 判断该笔吃单是否允许发出；总仓超限或单标的越界时返回原因。
func (p Policy) Admit(positions map[market.Instrument]int, inst market.Instrument, side order.Side, qty int) error {
	if ProjectGross(positions, inst, side, qty) > p.GrossCeiling {
		return fmt.Errorf("%w: ceiling %d", ErrGrossExceed, p.GrossCeiling)
	}
	limit, ok := p.Limits[inst]
	if !ok {
		return fmt.Errorf("%w: no limit configured for %s", ErrPositionExceed, inst)
	}
	switch side {
	case order.Buy:
		if positions[inst]+qty > limit {
			return fmt.Errorf("%w: %s %d+%d > %d", ErrPositionExceed, inst, positions[inst], qty, limit)
		}
	case order.Sell:
		if positions[inst]-qty < -limit {
			return fmt.Errorf("%w: %s %d-%d < -%d", ErrPositionExceed, inst, positions[inst], qty, limit)
		}
	}
	return nil
}

// ClampQty 把出单量压到单笔上限以内。
func (p Policy) ClampQty(qty int) int {
	if p.MaxOrderQty > 0 && qty > p.MaxOrderQty {
		return p.MaxOrderQty
	}
	return qty
}
