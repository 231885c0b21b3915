package market

import "sort"

// RawOrder 交易所盘口返回的单笔挂单。
type RawOrder struct {
	TraderID string
	Price    float64
	Quantity int
	Filled   int
}

// RawBook 未合并的原始盘口，两侧均为逐笔挂单。
type RawBook struct {
	Bids []RawOrder
	Asks []RawOrder
}

// PriceLevel 单一价位的合并挂量。
type PriceLevel struct {
	Price float64
	Size  int
}

// Book 合并后的盘口：bids 价格降序，asks 升序，价位不重复。
type Book struct {
	Bids []PriceLevel
	Asks []PriceLevel
}

// Consolidate 剔除 selfID 自身挂单后按价位合并，净量为 quantity-filled。
func Consolidate(raw RawBook, selfID string) Book {
	return Book{
		Bids: consolidateSide(raw.Bids, selfID, true),
		Asks: consolidateSide(raw.Asks, selfID, false),
	}
}

func consolidateSide(orders []RawOrder, selfID string, descending bool) []PriceLevel {
	sizes := make(map[float64]int)
	for _, o := range orders {
		if selfID != "" && o.TraderID == selfID {
			continue
		}
		sizes[o.Price] += o.Quantity - o.Filled
	}
	levels := make([]PriceLevel, 0, len(sizes))
	for p, s := range sizes {
		levels = append(levels, PriceLevel{Price: p, Size: s})
	}
	sort.Slice(levels, func(i, j int) bool {
		if descending {
			return levels[i].Price > levels[j].Price
		}
		return levels[i].Price < levels[j].Price
	})
	return levels
}

// BestBid 返回最优买档；盘口为空时返回 fallback 价与 0 量。
func (b Book) BestBid(fallback float64) PriceLevel {
	if len(b.Bids) == 0 {
		return PriceLevel{Price: fallback}
	}
	return b.Bids[0]
}

// BestAsk 返回最优卖档；盘口为空时返回 fallback 价与 0 量。
func (b Book) BestAsk(fallback float64) PriceLevel {
	if len(b.Asks) == 0 {
		return PriceLevel{Price: fallback}
	}
	return b.Asks[0]
}

// NBBO 返回盘口两侧最优档；缺失一侧时对应 ok 为 false。
func (b Book) NBBO() (bid, ask PriceLevel, hasBid, hasAsk bool) {
	if len(b.Bids) > 0 {
		bid, hasBid = b.Bids[0], true
	}
	if len(b.Asks) > 0 {
		ask, hasAsk = b.Asks[0], true
	}
	return bid, ask, hasBid, hasAsk
}
