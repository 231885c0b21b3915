package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"etf-arb-go/market"
	"etf-arb-go/order"
)

var ErrBadCancelFilter = errors.New("conflicting cancel filter")

// Client 交易所 REST 客户端。鉴权走 X-API-key 头；HTTPClient 可注入
// httptest，不默认发起真实网络调用。所有调用对引擎而言是阻塞的，
// 失败即本轮无数据，重试策略不在此层之上。
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Limiter    RateLimiter
}

// NewDefaultHTTPClient 提供一个带超时的 http.Client。
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

func (c *Client) do(method, path string, params url.Values, v interface{}) error {
	if c == nil || c.HTTPClient == nil {
		return fmt.Errorf("http client not set")
	}
	if c.Limiter != nil {
		c.Limiter.Wait()
	}
	endpoint := c.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequest(method, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-key", c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s status %d", method, path, resp.StatusCode)
	}
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// TradingActive 返回市场是否处于 ACTIVE 状态。
func (c *Client) TradingActive() (bool, error) {
	var cs caseResp
	if err := c.do(http.MethodGet, "/case", nil, &cs); err != nil {
		return false, fmt.Errorf("get case: %w", err)
	}
	return cs.Status == "ACTIVE", nil
}

// Tick 返回当前 case tick。
func (c *Client) Tick() (int, error) {
	var cs caseResp
	if err := c.do(http.MethodGet, "/case", nil, &cs); err != nil {
		return 0, fmt.Errorf("get case: %w", err)
	}
	return cs.Tick, nil
}

// News 返回全部新闻条目，新在前旧在后由交易所决定，原样透传。
func (c *Client) News() ([]NewsItem, error) {
	var items []NewsItem
	if err := c.do(http.MethodGet, "/news", nil, &items); err != nil {
		return nil, fmt.Errorf("get news: %w", err)
	}
	return items, nil
}

// Book 拉取单一标的的逐笔盘口；实现 market.BookSource。
func (c *Client) Book(inst market.Instrument, limit int) (market.RawBook, error) {
	params := url.Values{}
	params.Set("ticker", string(inst))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var br bookResp
	if err := c.do(http.MethodGet, "/securities/book", params, &br); err != nil {
		return market.RawBook{}, fmt.Errorf("get book %s: %w", inst, err)
	}
	return market.RawBook{
		Bids: toRawOrders(br.Bids),
		Asks: toRawOrders(br.Asks),
	}, nil
}

func toRawOrders(orders []bookOrder) []market.RawOrder {
	out := make([]market.RawOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, market.RawOrder{
			TraderID: o.TraderID,
			Price:    o.Price,
			Quantity: o.Quantity,
			Filled:   o.QuantityFilled,
		})
	}
	return out
}

// Positions 返回各标的当前有符号持仓。
func (c *Client) Positions() (map[market.Instrument]int, error) {
	var secs []securityResp
	if err := c.do(http.MethodGet, "/securities", nil, &secs); err != nil {
		return nil, fmt.Errorf("get securities: %w", err)
	}
	positions := make(map[market.Instrument]int)
	for _, s := range secs {
		inst := market.Instrument(s.Ticker)
		if market.Valid(inst) {
			positions[inst] = s.Position
		}
	}
	return positions, nil
}

// OpenOrders 返回自身全部未成交挂单。
func (c *Client) OpenOrders() ([]Order, error) {
	var orders []Order
	if err := c.do(http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}
	return orders, nil
}

// RestingOrders 把自身挂单转为引擎侧结构，净量已扣除成交部分。
func (c *Client) RestingOrders() ([]order.Resting, error) {
	orders, err := c.OpenOrders()
	if err != nil {
		return nil, err
	}
	resting := make([]order.Resting, 0, len(orders))
	for _, o := range orders {
		resting = append(resting, order.Resting{
			ID:         o.OrderID,
			Instrument: market.Instrument(o.Ticker),
			Side:       order.Side(o.Action),
			Price:      o.Price,
			Size:       o.Quantity - o.QuantityFilled,
		})
	}
	return resting, nil
}

// Fills 返回已成交订单（status=TRANSACTED），供收盘报告使用。
func (c *Client) Fills() ([]Order, error) {
	params := url.Values{}
	params.Set("status", "TRANSACTED")
	var orders []Order
	if err := c.do(http.MethodGet, "/orders", params, &orders); err != nil {
		return nil, fmt.Errorf("get fills: %w", err)
	}
	return orders, nil
}

// PlaceOrder 提交订单；LIMIT 必须带价格，MARKET 不带。
func (c *Client) PlaceOrder(intent order.Intent) (Order, error) {
	params := url.Values{}
	params.Set("ticker", string(intent.Instrument))
	params.Set("type", string(intent.Type))
	params.Set("quantity", strconv.Itoa(intent.Quantity))
	params.Set("action", string(intent.Side))
	if intent.Type == order.Limit {
		params.Set("price", strconv.FormatFloat(intent.Price, 'f', 2, 64))
	}
	var placed Order
	if err := c.do(http.MethodPost, "/orders", params, &placed); err != nil {
		return Order{}, fmt.Errorf("place order: %w", err)
	}
	return placed, nil
}

// CancelFilter 指定批量撤单范围。All 与 Ticker/Direction 互斥，
// 除非同时给定了明确的 IDs；Direction 只接受 buy/sell。
type CancelFilter struct {
	All       bool
	Ticker    market.Instrument
	Direction string
	IDs       []int
}

func (f CancelFilter) params() (url.Values, error) {
	if f.All && (f.Ticker != "" || f.Direction != "") && len(f.IDs) == 0 {
		return nil, fmt.Errorf("%w: all with ticker/direction", ErrBadCancelFilter)
	}
	if f.Direction != "" {
		d := strings.ToLower(f.Direction)
		if d != "buy" && d != "sell" {
			return nil, fmt.Errorf("%w: direction %q", ErrBadCancelFilter, f.Direction)
		}
	}
	params := url.Values{}
	switch {
	case f.All:
		params.Set("all", "1")
	case f.Ticker != "":
		if f.Direction != "" {
			volume := ">0"
			if strings.ToLower(f.Direction) == "sell" {
				volume = "<0"
			}
			params.Set("query", fmt.Sprintf("Ticker='%s' AND Volume%s", f.Ticker, volume))
		} else {
			params.Set("ticker", string(f.Ticker))
		}
	case len(f.IDs) > 0:
		ids := make([]string, 0, len(f.IDs))
		for _, id := range f.IDs {
			ids = append(ids, strconv.Itoa(id))
		}
		params.Set("ids", strings.Join(ids, ","))
	default:
		return nil, fmt.Errorf("%w: empty filter", ErrBadCancelFilter)
	}
	return params, nil
}

// Cancel 按过滤条件批量撤单。过滤条件冲突立即报错，绝不静默收窄。
func (c *Client) Cancel(filter CancelFilter) error {
	params, err := filter.params()
	if err != nil {
		return err
	}
	if err := c.do(http.MethodPost, "/commands/cancel", params, nil); err != nil {
		return fmt.Errorf("cancel orders: %w", err)
	}
	return nil
}

// CancelOrders 按 id 批量撤单；撤单先于新单提交，避免双边重复挂单窗口。
func (c *Client) CancelOrders(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	return c.Cancel(CancelFilter{IDs: ids})
}

// CancelAll 撤掉自身全部挂单（关停路径）。
func (c *Client) CancelAll() error {
	return c.Cancel(CancelFilter{All: true})
}
