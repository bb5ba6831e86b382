package market

import (
	"sort"
	"time"
)

// PriceBar 表示基准指数的单日收盘数据。
type PriceBar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Regime 表示某个交易日相对前一日收盘的市场状态。
type Regime int

const (
	RegimeNone Regime = iota // 首日、持平或当日无基准数据
	RegimeRising
	RegimeFalling
)

func (r Regime) String() string {
	switch r {
	case RegimeRising:
		return "rising"
	case RegimeFalling:
		return "falling"
	default:
		return "none"
	}
}

// Day 将时间截断到日历日（UTC），时刻部分丢弃。
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SortBars 按日期升序排序并去重（同日保留后者）。
func SortBars(bars []PriceBar) []PriceBar {
	if len(bars) == 0 {
		return nil
	}
	dst := make([]PriceBar, len(bars))
	copy(dst, bars)
	for i := range dst {
		dst[i].Date = Day(dst[i].Date)
	}
	sort.SliceStable(dst, func(i, j int) bool { return dst[i].Date.Before(dst[j].Date) })
	out := dst[:0]
	for _, b := range dst {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// Closes 抽取收盘价序列，与输入 bars 一一对应。
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Regimes 按相邻收盘价分类每根 bar 的市场状态，输出与输入等长。
// 首日没有前值，归为 RegimeNone；持平同样不计入涨跌。
func Regimes(bars []PriceBar) []Regime {
	out := make([]Regime, len(bars))
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			out[i] = RegimeRising
		case bars[i].Close < bars[i-1].Close:
			out[i] = RegimeFalling
		}
	}
	return out
}
