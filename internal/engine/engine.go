package engine

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"etf-arb-go/gateway"
	"etf-arb-go/infrastructure/logger"
	"etf-arb-go/market"
	"etf-arb-go/metrics"
	"etf-arb-go/order"
	"etf-arb-go/risk"
	"etf-arb-go/strategy"
	"etf-arb-go/valuation"
)

// State 引擎状态
type State int

const (
	// StateIdle 空闲状态
	StateIdle State = iota
	// StateRunning 运行状态
	StateRunning
	// StateStopped 停止状态
	StateStopped
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Exchange 引擎对交易所的全部依赖。*gateway.Client 直接满足该接口，
// 测试用内存实现替换。
type Exchange interface {
	TradingActive() (bool, error)
	News() ([]gateway.NewsItem, error)
	Positions() (map[market.Instrument]int, error)
	RestingOrders() ([]order.Resting, error)
	PlaceOrder(intent order.Intent) (gateway.Order, error)
	CancelOrders(ids []int) error
	CancelAll() error
}

// Config 引擎配置
type Config struct {
	PollInterval time.Duration // 决策轮间隔
	DryRun       bool          // 只读模式：不下单不撤单
}

// Components 引擎依赖组件
type Components struct {
	Exchange  Exchange
	Books     *market.Service
	Estimator *valuation.Estimator
	Quoter    strategy.Quoter
	Hitter    *strategy.Hitter
	Policy    risk.Policy
	Logger    *logger.Logger
	Collector *metrics.Collector
}

// Engine 决策引擎：每轮依次刷新估值、吃错价、整理双边报价。
// 市场停盘或状态查询失败时撤掉全部挂单并退出。
type Engine struct {
	config Config

	exchange  Exchange
	books     *market.Service
	estimator *valuation.Estimator
	quoter    strategy.Quoter
	hitter    *strategy.Hitter
	policy    risk.Policy
	logger    *logger.Logger
	collector *metrics.Collector

	state State
	mu    sync.RWMutex

	stopChan chan struct{}
	doneChan chan struct{}

	stats Statistics
}

// Statistics 引擎统计信息
type Statistics struct {
	StartTime    time.Time
	TotalCycles  int64
	TotalOrders  int64
	TotalCancels int64
	TotalErrors  int64
	LastCycle    time.Time
	mu           sync.RWMutex
}

// New 创建引擎
func New(cfg Config, components Components) (*Engine, error) {
	if components.Exchange == nil {
		return nil, fmt.Errorf("exchange is required")
	}
	if components.Books == nil {
		return nil, fmt.Errorf("book service is required")
	}
	if components.Estimator == nil {
		return nil, fmt.Errorf("estimator is required")
	}
	if components.Hitter == nil {
		return nil, fmt.Errorf("hitter is required")
	}
	if components.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}

	return &Engine{
		config:    cfg,
		exchange:  components.Exchange,
		books:     components.Books,
		estimator: components.Estimator,
		quoter:    components.Quoter,
		hitter:    components.Hitter,
		policy:    components.Policy,
		logger:    components.Logger,
		collector: components.Collector,
		state:     StateIdle,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}, nil
}

// Start 启动引擎主循环
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return fmt.Errorf("engine already started (state: %s)", e.state)
	}
	if e.state == StateStopped {
		e.stopChan = make(chan struct{})
		e.doneChan = make(chan struct{})
	}
	e.state = StateRunning
	e.stats.StartTime = time.Now()
	e.mu.Unlock()

	e.logger.Info("Engine starting",
		zap.Duration("poll_interval", e.config.PollInterval),
		zap.Bool("dry_run", e.config.DryRun))

	go e.run()
	return nil
}

// Stop 停止引擎并等待主循环退出
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	select {
	case <-e.stopChan:
	default:
		close(e.stopChan)
	}

	select {
	case <-e.doneChan:
	case <-time.After(10 * time.Second):
		e.logger.Warn("Timeout waiting for engine to stop")
	}
	return nil
}

// Wait 阻塞到主循环退出（停盘自然退出或 Stop 被调用）。
func (e *Engine) Wait() {
	<-e.doneChan
}

// State 返回当前状态
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// UpdateQuoterParams 热更新报价参数，下一轮生效。
func (e *Engine) UpdateQuoterParams(params strategy.Params) {
	e.mu.Lock()
	e.quoter.Params = params
	e.mu.Unlock()
	e.logger.Info("Quoter params updated",
		zap.Float64("commission", params.Commission),
		zap.Int("maxClipSize", params.MaxClipSize))
}

// Stats 返回统计快照
func (e *Engine) Stats() Statistics {
	e.stats.mu.RLock()
	defer e.stats.mu.RUnlock()
	return Statistics{
		StartTime:    e.stats.StartTime,
		TotalCycles:  e.stats.TotalCycles,
		TotalOrders:  e.stats.TotalOrders,
		TotalCancels: e.stats.TotalCancels,
		TotalErrors:  e.stats.TotalErrors,
		LastCycle:    e.stats.LastCycle,
	}
}

// run 主事件循环。状态查询失败与停盘同样处理：清场退出。
func (e *Engine) run() {
	defer close(e.doneChan)
	defer e.turnOff()

	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			e.logger.Info("Stop signal received")
			return
		case <-ticker.C:
			active, err := e.exchange.TradingActive()
			if err != nil {
				e.logger.Error("Case status unavailable", zap.Error(err))
				e.countRestError("case")
				return
			}
			if !active {
				e.logger.Info("Market no longer active")
				return
			}
			e.cycle()
		}
	}
}

// cycle 单轮决策：估值 -> 盘口 -> 吃单 -> 报价整理。
func (e *Engine) cycle() {
	e.stats.mu.Lock()
	e.stats.TotalCycles++
	e.stats.LastCycle = time.Now()
	e.stats.mu.Unlock()
	if e.collector != nil {
		e.collector.Cycles.Inc()
	}

	// 新闻拉取失败沿用缓存区间，估值永远可用
	intervals := e.estimator.Current()
	if items, err := e.exchange.News(); err != nil {
		e.logger.Warn("News unavailable, using cached intervals", zap.Error(err))
		e.countRestError("news")
	} else {
		var changed bool
		intervals, changed = e.estimator.Refresh(toItems(items))
		if changed {
			e.logger.Info("Valuation intervals updated",
				zap.Float64("gem_low", intervals[market.GEM].Low),
				zap.Float64("gem_high", intervals[market.GEM].High),
				zap.Float64("ub_low", intervals[market.UB].Low),
				zap.Float64("ub_high", intervals[market.UB].High))
		}
	}
	if e.collector != nil {
		e.collector.ObserveIntervals(intervals)
	}

	// 盘口不全则整轮跳过：篮子定价不能建立在部分快照上
	books, err := e.books.Snapshot()
	if err != nil {
		e.logger.Warn("Book snapshot failed, skipping cycle", zap.Error(err))
		e.countRestError("book")
		if e.collector != nil {
			e.collector.CyclesSkipped.Inc()
		}
		return
	}

	if !e.config.DryRun {
		if err := e.hitter.Run(books, intervals); err != nil {
			e.logger.Error("Hitter failed", zap.Error(err))
			e.countError()
		}
	}

	positions, err := e.exchange.Positions()
	if err != nil {
		e.logger.Warn("Positions unavailable, skipping quote phase", zap.Error(err))
		e.countRestError("securities")
		return
	}
	if e.collector != nil {
		e.collector.ObservePositions(positions)
	}

	if ce := e.logger.Check(zap.DebugLevel, "NBBO snapshot"); ce != nil {
		for _, inst := range market.Instruments() {
			bid, ask, hasBid, hasAsk := books[inst].NBBO()
			e.logger.Debug("NBBO",
				zap.String("instrument", string(inst)),
				zap.Float64("bid", bid.Price), zap.Bool("has_bid", hasBid),
				zap.Float64("ask", ask.Price), zap.Bool("has_ask", hasAsk))
		}
	}

	e.mu.RLock()
	quoter := e.quoter
	e.mu.RUnlock()
	quotes := quoter.Run(books, intervals, positions)

	resting, err := e.exchange.RestingOrders()
	if err != nil {
		e.logger.Warn("Open orders unavailable, skipping quote phase", zap.Error(err))
		e.countRestError("orders")
		return
	}

	cancels, creates := order.Reconcile(resting, quotes)
	if e.config.DryRun {
		if len(cancels) > 0 || len(creates) > 0 {
			e.logger.Info("Dry run: suppressing order changes",
				zap.Int("cancels", len(cancels)),
				zap.Int("creates", len(creates)))
		}
		return
	}

	// 撤单先行，避免同侧双挂
	if err := e.exchange.CancelOrders(cancels); err != nil {
		e.logger.Error("Cancel batch failed", zap.Error(err))
		e.countRestError("cancel")
		return
	}
	e.stats.mu.Lock()
	e.stats.TotalCancels += int64(len(cancels))
	e.stats.mu.Unlock()
	if e.collector != nil {
		e.collector.OrdersCancel.Add(float64(len(cancels)))
	}

	for _, intent := range creates {
		intent.Quantity = e.policy.ClampQty(intent.Quantity)
		if _, err := e.exchange.PlaceOrder(intent); err != nil {
			e.logger.Error("Quote order rejected",
				zap.String("instrument", string(intent.Instrument)),
				zap.String("side", string(intent.Side)),
				zap.Float64("price", intent.Price),
				zap.Int("quantity", intent.Quantity),
				zap.Error(err))
			e.countRestError("order")
			continue
		}
		e.stats.mu.Lock()
		e.stats.TotalOrders++
		e.stats.mu.Unlock()
		if e.collector != nil {
			e.collector.OrdersPlaced.WithLabelValues("quote").Inc()
		}
	}
}

// turnOff 清场：撤掉全部挂单并置为停止状态。
func (e *Engine) turnOff() {
	if !e.config.DryRun {
		if err := e.exchange.CancelAll(); err != nil {
			e.logger.Error("Failed to cancel all orders", zap.Error(err))
		}
	}
	e.mu.Lock()
	e.state = StateStopped
	e.mu.Unlock()
	e.logger.Info("Engine stopped")
}

func (e *Engine) countError() {
	e.stats.mu.Lock()
	e.stats.TotalErrors++
	e.stats.mu.Unlock()
}

func (e *Engine) countRestError(call string) {
	e.countError()
	if e.collector != nil {
		e.collector.RestErrors.WithLabelValues(call).Inc()
	}
}

func toItems(items []gateway.NewsItem) []valuation.Item {
	out := make([]valuation.Item, 0, len(items))
	for _, n := range items {
		out = append(out, valuation.Item{
			ID:       n.NewsID,
			Tick:     n.Tick,
			Headline: n.Headline,
			Body:     n.Body,
		})
	}
	return out
}

// Placer 把交易所包装成吃单执行器，供 Hitter 使用并计数。
type Placer struct {
	Exchange  Exchange
	Collector *metrics.Collector
}

// Place 发出单笔市价吃单。
func (p Placer) Place(intent order.Intent) error {
	if _, err := p.Exchange.PlaceOrder(intent); err != nil {
		return err
	}
	if p.Collector != nil {
		p.Collector.OrdersPlaced.WithLabelValues("hit").Inc()
	}
	return nil
}
