package order

import "etf-arb-go/market"

// Reconcile 把期望报价与当前挂单做对比，产出最小变更集：
// 需撤销的订单 id 与需新挂的订单。每个标的每侧只看第一笔挂单；
// 价格一致时不动，保证幂等、避免无谓撤挂。撤单应先于新单批量提交。
func Reconcile(resting []Resting, desired map[market.Instrument]Quote) (cancels []int, creates []Intent) {
	for _, inst := range market.Instruments() {
		q, ok := desired[inst]
		if !ok {
			continue
		}
		bid, hasBid := firstResting(resting, inst, Buy)
		ask, hasAsk := firstResting(resting, inst, Sell)

		if !hasBid {
			if q.Bid.Size > 0 {
				creates = append(creates, Intent{
					Instrument: inst, Type: Limit, Side: Buy,
					Price: q.Bid.Price, Quantity: q.Bid.Size,
				})
			}
		} else if q.Bid.Size > 0 && q.Bid.Price != bid.Price {
			cancels = append(cancels, bid.ID)
			creates = append(creates, Intent{
				Instrument: inst, Type: Limit, Side: Buy,
				Price: q.Bid.Price, Quantity: q.Bid.Size,
			})
		}

		if !hasAsk {
			if q.Ask.Size > 0 {
				creates = append(creates, Intent{
					Instrument: inst, Type: Limit, Side: Sell,
					Price: q.Ask.Price, Quantity: q.Ask.Size,
				})
			}
		} else if q.Ask.Size > 0 && q.Ask.Price != ask.Price {
			cancels = append(cancels, ask.ID)
			creates = append(creates, Intent{
				Instrument: inst, Type: Limit, Side: Sell,
				Price: q.Ask.Price, Quantity: q.Ask.Size,
			})
		}
	}
	return cancels, creates
}

func firstResting(resting []Resting, inst market.Instrument, side Side) (Resting, bool) {
	for _, r := range resting {
		if r.Instrument == inst && r.Side == side {
			return r, true
		}
	}
	return Resting{}, false
}
