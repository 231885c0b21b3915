package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"etf-arb-go/market"
)

func TestReconcileCreatesWhenNothingRests(t *testing.T) {
	desired := map[market.Instrument]Quote{
		market.GEM: {Bid: market.PriceLevel{Price: 24.50, Size: 1000}, Ask: market.PriceLevel{Price: 25.10, Size: 800}},
	}
	cancels, creates := Reconcile(nil, desired)
	assert.Empty(t, cancels)
	assert.Equal(t, []Intent{
		{Instrument: market.GEM, Type: Limit, Side: Buy, Price: 24.50, Quantity: 1000},
		{Instrument: market.GEM, Type: Limit, Side: Sell, Price: 25.10, Quantity: 800},
	}, creates)
}

func TestReconcileCancelReplaceOnPriceChange(t *testing.T) {
	resting := []Resting{
		{ID: 7, Instrument: market.GEM, Side: Buy, Price: 24.40, Size: 1000},
		{ID: 8, Instrument: market.GEM, Side: Sell, Price: 25.10, Size: 800},
	}
	desired := map[market.Instrument]Quote{
		market.GEM: {Bid: market.PriceLevel{Price: 24.50, Size: 1000}, Ask: market.PriceLevel{Price: 25.10, Size: 800}},
	}
	cancels, creates := Reconcile(resting, desired)
	// bid 价变 -> 撤旧挂新；ask 价同 -> 原样保留
	assert.Equal(t, []int{7}, cancels)
	assert.Equal(t, []Intent{
		{Instrument: market.GEM, Type: Limit, Side: Buy, Price: 24.50, Quantity: 1000},
	}, creates)
}

func TestReconcileIdempotent(t *testing.T) {
	desired := map[market.Instrument]Quote{
		market.GEM: {Bid: market.PriceLevel{Price: 24.50, Size: 1000}, Ask: market.PriceLevel{Price: 25.10, Size: 800}},
		market.UB:  {Bid: market.PriceLevel{Price: 45.00, Size: 500}, Ask: market.PriceLevel{Price: 46.00, Size: 500}},
	}
	resting := []Resting{
		{ID: 1, Instrument: market.GEM, Side: Buy, Price: 24.50, Size: 1000},
		{ID: 2, Instrument: market.GEM, Side: Sell, Price: 25.10, Size: 800},
		{ID: 3, Instrument: market.UB, Side: Buy, Price: 45.00, Size: 500},
		{ID: 4, Instrument: market.UB, Side: Sell, Price: 46.00, Size: 500},
	}
	cancels, creates := Reconcile(resting, desired)
	assert.Empty(t, cancels)
	assert.Empty(t, creates)
	// 再跑一遍输入不变，结果仍为空
	cancels, creates = Reconcile(resting, desired)
	assert.Empty(t, cancels)
	assert.Empty(t, creates)
}

func TestReconcileZeroSizeLeavesRestingAlone(t *testing.T) {
	resting := []Resting{
		{ID: 9, Instrument: market.UB, Side: Buy, Price: 44.00, Size: 500},
	}
	desired := map[market.Instrument]Quote{
		market.UB: {Bid: market.PriceLevel{Price: 45.00, Size: 0}, Ask: market.PriceLevel{Price: 46.00, Size: 0}},
	}
	cancels, creates := Reconcile(resting, desired)
	// 期望量为 0 时既不撤也不挂
	assert.Empty(t, cancels)
	assert.Empty(t, creates)
}
