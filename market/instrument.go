package market

// Instrument 本 case 的三个交易标的；ETF 恒为 GEM+UB 的篮子。
type Instrument string

const (
	GEM Instrument = "GEM"
	UB  Instrument = "UB"
	ETF Instrument = "ETF"
)

// Instruments 按固定顺序返回全部标的，保证遍历确定性。
func Instruments() []Instrument {
	return []Instrument{GEM, UB, ETF}
}

// Valid 判断 ticker 是否属于本 case。
func Valid(inst Instrument) bool {
	switch inst {
	case GEM, UB, ETF:
		return true
	}
	return false
}
