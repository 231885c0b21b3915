package gateway

// caseResp /v1/case 响应。
type caseResp struct {
	Tick   int    `json:"tick"`
	Period int    `json:"period"`
	Status string `json:"status"`
}

// NewsItem /v1/news 单条新闻。
type NewsItem struct {
	NewsID   int    `json:"news_id"`
	Period   int    `json:"period"`
	Tick     int    `json:"tick"`
	Ticker   string `json:"ticker"`
	Headline string `json:"headline"`
	Body     string `json:"body"`
}

// bookOrder /v1/securities/book 返回的逐笔挂单。
type bookOrder struct {
	OrderID        int     `json:"order_id"`
	TraderID       string  `json:"trader_id"`
	Ticker         string  `json:"ticker"`
	Type           string  `json:"type"`
	Action         string  `json:"action"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	QuantityFilled int     `json:"quantity_filled"`
	Status         string  `json:"status"`
}

// bookResp /v1/securities/book 响应。
type bookResp struct {
	Bids []bookOrder `json:"bids"`
	Asks []bookOrder `json:"asks"`
}

// securityResp /v1/securities 单个标的（仅保留用到的字段）。
type securityResp struct {
	Ticker   string `json:"ticker"`
	Position int    `json:"position"`
}

// Order /v1/orders 返回的自身订单。
type Order struct {
	OrderID        int     `json:"order_id"`
	Period         int     `json:"period"`
	Tick           int     `json:"tick"`
	Ticker         string  `json:"ticker"`
	Type           string  `json:"type"`
	Action         string  `json:"action"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	QuantityFilled int     `json:"quantity_filled"`
	Status         string  `json:"status"`
}
