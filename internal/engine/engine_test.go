package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etf-arb-go/gateway"
	"etf-arb-go/infrastructure/logger"
	"etf-arb-go/market"
	"etf-arb-go/order"
	"etf-arb-go/risk"
	"etf-arb-go/strategy"
	"etf-arb-go/valuation"
)

// fakeExchange 记录调用顺序的内存交易所。
type fakeExchange struct {
	activeTicks int // 返回 active 的次数，之后转为停盘
	calls       []string
	news        []gateway.NewsItem
	positions   map[market.Instrument]int
	resting     []order.Resting
	books       map[market.Instrument]market.RawBook
	placed      []order.Intent
	cancelled   [][]int
	cancelAlls  int
	nextID      int
}

func (f *fakeExchange) TradingActive() (bool, error) {
	f.calls = append(f.calls, "case")
	f.activeTicks--
	return f.activeTicks >= 0, nil
}

func (f *fakeExchange) News() ([]gateway.NewsItem, error) {
	f.calls = append(f.calls, "news")
	return f.news, nil
}

func (f *fakeExchange) Positions() (map[market.Instrument]int, error) {
	out := make(map[market.Instrument]int, len(f.positions))
	for k, v := range f.positions {
		out[k] = v
	}
	return out, nil
}

func (f *fakeExchange) RestingOrders() ([]order.Resting, error) {
	return f.resting, nil
}

func (f *fakeExchange) PlaceOrder(intent order.Intent) (gateway.Order, error) {
	f.calls = append(f.calls, "place")
	f.placed = append(f.placed, intent)
	f.nextID++
	return gateway.Order{OrderID: f.nextID}, nil
}

func (f *fakeExchange) CancelOrders(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	f.calls = append(f.calls, "cancel")
	f.cancelled = append(f.cancelled, ids)
	return nil
}

func (f *fakeExchange) CancelAll() error {
	f.calls = append(f.calls, "cancel_all")
	f.cancelAlls++
	return nil
}

func (f *fakeExchange) Book(inst market.Instrument, limit int) (market.RawBook, error) {
	return f.books[inst], nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Outputs: nil, Format: "json"})
	require.NoError(t, err)
	return log
}

func newTestEngine(t *testing.T, xch *fakeExchange) *Engine {
	t.Helper()
	log := testLogger(t)
	policy := risk.DefaultPolicy()
	eng, err := New(
		Config{PollInterval: time.Millisecond},
		Components{
			Exchange:  xch,
			Books:     &market.Service{Source: xch, TraderID: "SELF", Depth: 50},
			Estimator: valuation.NewEstimator(),
			Quoter:    strategy.NewQuoter(policy.Limits),
			Hitter:    strategy.NewHitter(policy, xch, Placer{Exchange: xch}, log.Logger),
			Policy:    policy,
			Logger:    log,
		},
	)
	require.NoError(t, err)
	return eng
}

func bothSides(bid, ask float64, size int) market.RawBook {
	return market.RawBook{
		Bids: []market.RawOrder{{TraderID: "ANON", Price: bid, Quantity: size}},
		Asks: []market.RawOrder{{TraderID: "ANON", Price: ask, Quantity: size}},
	}
}

func TestEngineExitsWhenMarketStops(t *testing.T) {
	xch := &fakeExchange{
		activeTicks: 0, // 第一次查询即停盘
		positions:   map[market.Instrument]int{},
	}
	eng := newTestEngine(t, xch)
	require.NoError(t, eng.Start())
	eng.Wait()

	assert.Equal(t, StateStopped, eng.State())
	// 退出路径必须清场
	assert.Equal(t, 1, xch.cancelAlls)
	assert.Empty(t, xch.placed)
}

func TestEngineCycleCancelsBeforeCreates(t *testing.T) {
	xch := &fakeExchange{
		activeTicks: 1,
		positions:   map[market.Instrument]int{market.GEM: 0, market.UB: 0, market.ETF: 0},
		books: map[market.Instrument]market.RawBook{
			market.GEM: bothSides(24, 26, 1000),
			market.UB:  bothSides(49, 51, 1000),
			market.ETF: bothSides(74, 76, 1000),
		},
		// 价格过期的旧挂单，本轮必须先撤后挂
		resting: []order.Resting{
			{ID: 900, Instrument: market.GEM, Side: order.Buy, Price: 10.00, Size: 100},
		},
	}
	eng := newTestEngine(t, xch)
	require.NoError(t, eng.Start())
	eng.Wait()

	require.NotEmpty(t, xch.cancelled)
	assert.Contains(t, xch.cancelled[0], 900)
	require.NotEmpty(t, xch.placed)

	cancelAt, placeAt := -1, -1
	for i, call := range xch.calls {
		if call == "cancel" && cancelAt == -1 {
			cancelAt = i
		}
		if call == "place" && placeAt == -1 {
			placeAt = i
		}
	}
	require.GreaterOrEqual(t, cancelAt, 0)
	require.GreaterOrEqual(t, placeAt, 0)
	assert.Less(t, cancelAt, placeAt, "cancels must be submitted before creates")

	// 全部新挂单不超过单笔上限
	for _, intent := range xch.placed {
		assert.LessOrEqual(t, intent.Quantity, 5000)
	}
}

func TestEngineDryRunPlacesNothing(t *testing.T) {
	xch := &fakeExchange{
		activeTicks: 2,
		positions:   map[market.Instrument]int{},
		books: map[market.Instrument]market.RawBook{
			market.GEM: bothSides(24, 26, 1000),
			market.UB:  bothSides(49, 51, 1000),
			market.ETF: bothSides(74, 76, 1000),
		},
	}
	log := testLogger(t)
	policy := risk.DefaultPolicy()
	eng, err := New(
		Config{PollInterval: time.Millisecond, DryRun: true},
		Components{
			Exchange:  xch,
			Books:     &market.Service{Source: xch, TraderID: "SELF", Depth: 50},
			Estimator: valuation.NewEstimator(),
			Quoter:    strategy.NewQuoter(policy.Limits),
			Hitter:    strategy.NewHitter(policy, xch, Placer{Exchange: xch}, log.Logger),
			Policy:    policy,
			Logger:    log,
		},
	)
	require.NoError(t, err)
	require.NoError(t, eng.Start())
	eng.Wait()

	assert.Empty(t, xch.placed)
	assert.Empty(t, xch.cancelled)
	assert.Zero(t, xch.cancelAlls)
}

func TestEngineStopIsIdempotent(t *testing.T) {
	xch := &fakeExchange{
		activeTicks: 1 << 30,
		positions:   map[market.Instrument]int{},
		books: map[market.Instrument]market.RawBook{
			market.GEM: bothSides(24, 26, 100),
			market.UB:  bothSides(49, 51, 100),
			market.ETF: bothSides(74, 76, 100),
		},
	}
	eng := newTestEngine(t, xch)
	require.NoError(t, eng.Start())
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, eng.Stop())
	require.NoError(t, eng.Stop())
	assert.Equal(t, StateStopped, eng.State())
	assert.Equal(t, 1, xch.cancelAlls)
}
