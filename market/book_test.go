package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsolidateMergesEqualPrices(t *testing.T) {
	raw := RawBook{
		Bids: []RawOrder{
			{TraderID: "anon", Price: 24.50, Quantity: 1000, Filled: 200},
			{TraderID: "anon", Price: 24.50, Quantity: 500, Filled: 0},
			{TraderID: "anon", Price: 24.40, Quantity: 300, Filled: 0},
		},
		Asks: []RawOrder{
			{TraderID: "anon", Price: 25.10, Quantity: 700, Filled: 100},
			{TraderID: "anon", Price: 25.00, Quantity: 400, Filled: 0},
		},
	}
	b := Consolidate(raw, "user15")

	// 同价位合并为一档，净量 = quantity - filled
	assert.Equal(t, []PriceLevel{{24.50, 1300}, {24.40, 300}}, b.Bids)
	// asks 升序
	assert.Equal(t, []PriceLevel{{25.00, 400}, {25.10, 600}}, b.Asks)
}

func TestConsolidateFiltersOwnOrders(t *testing.T) {
	raw := RawBook{
		Bids: []RawOrder{
			{TraderID: "user15", Price: 24.60, Quantity: 2000},
			{TraderID: "anon", Price: 24.50, Quantity: 100},
		},
	}
	b := Consolidate(raw, "user15")
	assert.Equal(t, []PriceLevel{{24.50, 100}}, b.Bids)

	// 未提供 selfID 时不过滤
	all := Consolidate(raw, "")
	assert.Len(t, all.Bids, 2)
}

func TestConsolidateSumProperty(t *testing.T) {
	orders := []RawOrder{
		{TraderID: "a", Price: 30, Quantity: 100, Filled: 10},
		{TraderID: "b", Price: 30, Quantity: 200, Filled: 50},
		{TraderID: "c", Price: 30, Quantity: 300, Filled: 0},
	}
	b := Consolidate(RawBook{Asks: orders}, "user15")
	want := 0
	for _, o := range orders {
		want += o.Quantity - o.Filled
	}
	assert.Equal(t, []PriceLevel{{30, want}}, b.Asks)
}

func TestBestWithFallback(t *testing.T) {
	var empty Book
	assert.Equal(t, PriceLevel{Price: 20}, empty.BestBid(20))
	assert.Equal(t, PriceLevel{Price: 30}, empty.BestAsk(30))

	b := Book{Bids: []PriceLevel{{24.5, 100}}, Asks: []PriceLevel{{25.0, 200}}}
	assert.Equal(t, PriceLevel{24.5, 100}, b.BestBid(20))
	assert.Equal(t, PriceLevel{25.0, 200}, b.BestAsk(30))

	bid, ask, hasBid, hasAsk := b.NBBO()
	assert.True(t, hasBid)
	assert.True(t, hasAsk)
	assert.Equal(t, 24.5, bid.Price)
	assert.Equal(t, 25.0, ask.Price)

	_, _, hasBid, hasAsk = empty.NBBO()
	assert.False(t, hasBid)
	assert.False(t, hasAsk)
}
