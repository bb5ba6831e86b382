package aggregate

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"kabuscope/internal/market"
	"kabuscope/internal/trade"
)

// ErrInsufficientDateRange 表示没有任何可用的交易日期，基准对比无法进行。
var ErrInsufficientDateRange = errors.New("no valid trade dates; benchmark comparison skipped")

// DailySeries 是日历日 → 受渡金额合计的映射，同日多笔自动累加。
type DailySeries map[time.Time]decimal.Decimal

// Add 累加某日的金额。日期按日历日截断。
func (s DailySeries) Add(day time.Time, amount decimal.Decimal) {
	d := market.Day(day)
	s[d] = s[d].Add(amount)
}

// Amount 返回某日合计，不存在时为 0。
func (s DailySeries) Amount(day time.Time) decimal.Decimal {
	return s[market.Day(day)]
}

// Dates 返回升序排序后的日期。
func (s DailySeries) Dates() []time.Time {
	out := make([]time.Time, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Total 返回全部日期的金额合计。
func (s DailySeries) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range s {
		sum = sum.Add(v)
	}
	return sum
}

// BuildDailySeries 按交易种别分组聚合日次买入/卖出金额。
// 日期或金额为 nil 的记录跳过，不参与聚合。
func BuildDailySeries(records []trade.Record) (buy, sell DailySeries) {
	buy = make(DailySeries)
	sell = make(DailySeries)
	for _, rec := range records {
		if rec.Date == nil || rec.SettlementAmount == nil {
			continue
		}
		switch rec.TransactionType {
		case trade.TxBuy:
			buy.Add(*rec.Date, *rec.SettlementAmount)
		case trade.TxSell:
			sell.Add(*rec.Date, *rec.SettlementAmount)
		}
	}
	return buy, sell
}

// DateRange 从记录中取最早/最晚的有效交易日。
// 一条有效日期都没有时返回 ErrInsufficientDateRange。
func DateRange(records []trade.Record) (min, max time.Time, err error) {
	found := false
	for _, rec := range records {
		if rec.Date == nil {
			continue
		}
		d := market.Day(*rec.Date)
		if !found {
			min, max = d, d
			found = true
			continue
		}
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	if !found {
		return time.Time{}, time.Time{}, ErrInsufficientDateRange
	}
	return min, max, nil
}

// DayRow 是买卖金额与基准收盘外连接后的一行。
// Close 为 nil 表示当日没有基准数据（非交易日不补造）。
type DayRow struct {
	Date   time.Time       `json:"date"`
	Buy    decimal.Decimal `json:"buy"`
	Sell   decimal.Decimal `json:"sell"`
	Close  *float64        `json:"close,omitempty"`
	Regime market.Regime   `json:"-"`
}

// Join 对买入、卖出、基准三个序列按日期做外连接。
// 金额列缺失补 0，基准缺失保持 nil；市场状态只由相邻基准 bar 决定。
func Join(buy, sell DailySeries, bars []market.PriceBar) []DayRow {
	bars = market.SortBars(bars)
	regimes := market.Regimes(bars)
	barIdx := make(map[time.Time]int, len(bars))
	dates := make(map[time.Time]bool)
	for i, b := range bars {
		barIdx[b.Date] = i
		dates[b.Date] = true
	}
	for d := range buy {
		dates[d] = true
	}
	for d := range sell {
		dates[d] = true
	}
	ordered := make([]time.Time, 0, len(dates))
	for d := range dates {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	out := make([]DayRow, 0, len(ordered))
	for _, d := range ordered {
		row := DayRow{Date: d, Buy: buy[d], Sell: sell[d]}
		if i, ok := barIdx[d]; ok {
			c := bars[i].Close
			row.Close = &c
			row.Regime = regimes[i]
		}
		out = append(out, row)
	}
	return out
}

// RegimeSums 是按市场状态分桶的买卖金额合计。
type RegimeSums struct {
	BuyOnRising   decimal.Decimal `json:"buy_on_rising"`
	BuyOnFalling  decimal.Decimal `json:"buy_on_falling"`
	SellOnRising  decimal.Decimal `json:"sell_on_rising"`
	SellOnFalling decimal.Decimal `json:"sell_on_falling"`
}

// TotalBuy 返回涨跌两桶的买入合计（不含无状态日）。
func (s RegimeSums) TotalBuy() decimal.Decimal {
	return s.BuyOnRising.Add(s.BuyOnFalling)
}

// TotalSell 返回涨跌两桶的卖出合计（不含无状态日）。
func (s RegimeSums) TotalSell() decimal.Decimal {
	return s.SellOnRising.Add(s.SellOnFalling)
}

// SumRegimes 按市场状态汇总连接结果。无状态日（首日/持平/缺基准）不计入。
func SumRegimes(rows []DayRow) RegimeSums {
	var sums RegimeSums
	for _, row := range rows {
		switch row.Regime {
		case market.RegimeRising:
			sums.BuyOnRising = sums.BuyOnRising.Add(row.Buy)
			sums.SellOnRising = sums.SellOnRising.Add(row.Sell)
		case market.RegimeFalling:
			sums.BuyOnFalling = sums.BuyOnFalling.Add(row.Buy)
			sums.SellOnFalling = sums.SellOnFalling.Add(row.Sell)
		}
	}
	return sums
}
