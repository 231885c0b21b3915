package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"etf-arb-go/market"
	"etf-arb-go/order"
)

func TestGrossPosition(t *testing.T) {
	positions := map[market.Instrument]int{
		market.GEM: 10000,
		market.UB:  -5000,
		market.ETF: -2000,
	}
	assert.Equal(t, 17000, GrossPosition(positions))
	assert.Equal(t, 10000-5000+2000, BasketSkew(positions))
}

func TestProjectGrossAsymmetry(t *testing.T) {
	// 多头买入扩大总仓
	long := map[market.Instrument]int{market.GEM: 1000}
	assert.Equal(t, 6000, ProjectGross(long, market.GEM, order.Buy, 5000))
	// 空头买入冲抵总仓
	short := map[market.Instrument]int{market.GEM: -1000}
	assert.Equal(t, -4000, ProjectGross(short, market.GEM, order.Buy, 5000))
	// 零仓卖出按加大总仓处理（position > 0 才算减仓）
	flat := map[market.Instrument]int{market.GEM: 0}
	assert.Equal(t, 5000, ProjectGross(flat, market.GEM, order.Sell, 5000))
}

func TestAdmitGrossCeiling(t *testing.T) {
	p := DefaultPolicy()
	positions := map[market.Instrument]int{
		market.GEM: 33000, market.UB: 17000, market.ETF: 48000,
	}
	// 总仓 98000，+5000 超过 100000
	err := p.Admit(positions, market.UB, order.Buy, 5000)
	assert.ErrorIs(t, err, ErrGrossExceed)
}

func TestAdmitInstrumentLimit(t *testing.T) {
	p := DefaultPolicy()
	positions := map[market.Instrument]int{market.UB: 15000}

	assert.NoError(t, p.Admit(positions, market.UB, order.Buy, 2500))
	assert.ErrorIs(t, p.Admit(positions, market.UB, order.Buy, 2501), ErrPositionExceed)

	positions[market.UB] = -15000
	assert.NoError(t, p.Admit(positions, market.UB, order.Sell, 2500))
	assert.ErrorIs(t, p.Admit(positions, market.UB, order.Sell, 2501), ErrPositionExceed)
}

func TestClampQty(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 5000, p.ClampQty(8000))
	assert.Equal(t, 1200, p.ClampQty(1200))
}
