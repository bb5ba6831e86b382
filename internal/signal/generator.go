package signal

import (
	"time"

	"kabuscope/internal/indicator"
)

// Family 是信号家族：均线交叉 / RSI 阈值 / MACD 交叉 / 复合。
type Family string

const (
	FamilyMA     Family = "ma"
	FamilyRSI    Family = "rsi"
	FamilyMACD   Family = "macd"
	FamilyStrong Family = "strong"
)

// Families 返回全部家族（固定顺序）。
func Families() []Family {
	return []Family{FamilyMA, FamilyRSI, FamilyMACD, FamilyStrong}
}

// Direction 是信号方向。
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// Kind 是 family_direction 形式的信号种类。
type Kind string

const (
	KindMABuy      Kind = "ma_buy"
	KindMASell     Kind = "ma_sell"
	KindRSIBuy     Kind = "rsi_buy"
	KindRSISell    Kind = "rsi_sell"
	KindMACDBuy    Kind = "macd_buy"
	KindMACDSell   Kind = "macd_sell"
	KindStrongBuy  Kind = "strong_buy"
	KindStrongSell Kind = "strong_sell"
)

// Event 是某日触发的一个离散信号。
type Event struct {
	Date time.Time `json:"date"`
	Kind Kind      `json:"kind"`
}

// Flags 记录某根 bar 当日各家族信号的触发情况。由指标行推导，不独立存储。
type Flags struct {
	Date       time.Time `json:"date"`
	MABuy      bool      `json:"ma_buy"`
	MASell     bool      `json:"ma_sell"`
	RSIBuy     bool      `json:"rsi_buy"`
	RSISell    bool      `json:"rsi_sell"`
	MACDBuy    bool      `json:"macd_buy"`
	MACDSell   bool      `json:"macd_sell"`
	StrongBuy  bool      `json:"strong_buy"`
	StrongSell bool      `json:"strong_sell"`
}

// Thresholds 是 RSI 规则的阈值。
type Thresholds struct {
	RSIOversold   float64 `json:"rsi_oversold"`
	RSIOverbought float64 `json:"rsi_overbought"`
}

// DefaultThresholds 返回 30/70。
func DefaultThresholds() Thresholds {
	return Thresholds{RSIOversold: 30, RSIOverbought: 70}
}

// Generate 对指标序列逐日求信号，输出与输入等长。
// 所有交叉判定用前一日的值做严格穿越比较，持平穿越不触发。
func Generate(rows []indicator.Row, th Thresholds) []Flags {
	out := make([]Flags, len(rows))
	for i := range rows {
		out[i].Date = rows[i].Date
		if i == 0 {
			continue
		}
		cur, prev := rows[i], rows[i-1]
		out[i].MABuy, out[i].MASell = maCross(prev, cur)
		out[i].RSIBuy, out[i].RSISell = rsiThreshold(prev, cur, th)
		out[i].MACDBuy, out[i].MACDSell = macdCross(prev, cur)
		// 三家族中至少两个同日同向触发才算强信号（两两取或）。
		out[i].StrongBuy = atLeastTwo(out[i].MABuy, out[i].RSIBuy, out[i].MACDBuy)
		out[i].StrongSell = atLeastTwo(out[i].MASell, out[i].RSISell, out[i].MACDSell)
	}
	return out
}

// maCross 判定短期均线对中期均线的严格穿越。
// 当日或前日任一均线无定义则不评估。
func maCross(prev, cur indicator.Row) (buy, sell bool) {
	if prev.MAShort == nil || prev.MAMedium == nil || cur.MAShort == nil || cur.MAMedium == nil {
		return false, false
	}
	buy = *prev.MAShort <= *prev.MAMedium && *cur.MAShort > *cur.MAMedium
	sell = *prev.MAShort >= *prev.MAMedium && *cur.MAShort < *cur.MAMedium
	return buy, sell
}

// rsiThreshold 判定 RSI 进入超卖（买）/超买（卖）区间的当日。
func rsiThreshold(prev, cur indicator.Row, th Thresholds) (buy, sell bool) {
	if prev.RSI == nil || cur.RSI == nil {
		return false, false
	}
	buy = *cur.RSI < th.RSIOversold && *prev.RSI >= th.RSIOversold
	sell = *cur.RSI > th.RSIOverbought && *prev.RSI <= th.RSIOverbought
	return buy, sell
}

// macdCross 判定 MACD 线对信号线的严格穿越。
func macdCross(prev, cur indicator.Row) (buy, sell bool) {
	if prev.MACD == nil || prev.MACDSignal == nil || cur.MACD == nil || cur.MACDSignal == nil {
		return false, false
	}
	buy = *prev.MACD <= *prev.MACDSignal && *cur.MACD > *cur.MACDSignal
	sell = *prev.MACD >= *prev.MACDSignal && *cur.MACD < *cur.MACDSignal
	return buy, sell
}

func atLeastTwo(a, b, c bool) bool {
	return (a && b) || (a && c) || (b && c)
}

// Events 把逐日标志展开成离散事件列表（按日期升序）。
func Events(flags []Flags) []Event {
	var out []Event
	for _, f := range flags {
		for _, e := range []struct {
			on   bool
			kind Kind
		}{
			{f.MABuy, KindMABuy},
			{f.MASell, KindMASell},
			{f.RSIBuy, KindRSIBuy},
			{f.RSISell, KindRSISell},
			{f.MACDBuy, KindMACDBuy},
			{f.MACDSell, KindMACDSell},
			{f.StrongBuy, KindStrongBuy},
			{f.StrongSell, KindStrongSell},
		} {
			if e.on {
				out = append(out, Event{Date: f.Date, Kind: e.kind})
			}
		}
	}
	return out
}

// Dates 返回某家族某方向的信号日期集合。
func Dates(flags []Flags, family Family, dir Direction) []time.Time {
	var out []time.Time
	for _, f := range flags {
		if fired(f, family, dir) {
			out = append(out, f.Date)
		}
	}
	return out
}

func fired(f Flags, family Family, dir Direction) bool {
	switch family {
	case FamilyMA:
		if dir == Buy {
			return f.MABuy
		}
		return f.MASell
	case FamilyRSI:
		if dir == Buy {
			return f.RSIBuy
		}
		return f.RSISell
	case FamilyMACD:
		if dir == Buy {
			return f.MACDBuy
		}
		return f.MACDSell
	case FamilyStrong:
		if dir == Buy {
			return f.StrongBuy
		}
		return f.StrongSell
	default:
		return false
	}
}
