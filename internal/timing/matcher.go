package timing

import (
	"time"

	"github.com/shopspring/decimal"

	"kabuscope/internal/aggregate"
	"kabuscope/internal/market"
	"kabuscope/internal/signal"
)

// DefaultTolerance 是信号窗口的默认容差（±7 天）。
const DefaultTolerance = 7

// MatchResult 是某 (方向, 信号家族) 的命中/未命中金额。
type MatchResult struct {
	Matched    decimal.Decimal `json:"matched"`
	Mismatched decimal.Decimal `json:"mismatched"`
}

// Rate 返回命中率（百分比）。分母为 0 时返回 0 而不是 NaN。
func (r MatchResult) Rate() float64 {
	total := r.Matched.Add(r.Mismatched)
	if total.IsZero() {
		return 0
	}
	rate, _ := r.Matched.Div(total).Mul(decimal.NewFromInt(100)).Float64()
	return rate
}

// FamilyMetrics 汇总单个信号家族的买卖命中情况。
type FamilyMetrics struct {
	Buy         MatchResult `json:"buy"`
	Sell        MatchResult `json:"sell"`
	BuyRate     float64     `json:"buy_rate"`
	SellRate    float64     `json:"sell_rate"`
	OverallRate float64     `json:"overall_rate"`
}

// Match 把每个家族的信号日期展开成 ±tolerance 天的窗口，
// 按日分类买卖金额为命中/未命中。窗口重叠时同一天的金额只计一次。
func Match(flags []signal.Flags, buy, sell aggregate.DailySeries, tolerance int) map[signal.Family]FamilyMetrics {
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	out := make(map[signal.Family]FamilyMetrics, 4)
	for _, family := range signal.Families() {
		buyRes := matchSeries(signal.Dates(flags, family, signal.Buy), buy, tolerance)
		sellRes := matchSeries(signal.Dates(flags, family, signal.Sell), sell, tolerance)
		out[family] = FamilyMetrics{
			Buy:         buyRes,
			Sell:        sellRes,
			BuyRate:     buyRes.Rate(),
			SellRate:    sellRes.Rate(),
			OverallRate: overallRate(buyRes, sellRes),
		}
	}
	return out
}

func overallRate(buy, sell MatchResult) float64 {
	return MatchResult{
		Matched:    buy.Matched.Add(sell.Matched),
		Mismatched: buy.Mismatched.Add(sell.Mismatched),
	}.Rate()
}

// matchSeries 用窗口并集划分一条日次金额序列。
func matchSeries(signalDates []time.Time, series aggregate.DailySeries, tolerance int) MatchResult {
	window := windowUnion(signalDates, tolerance)
	res := MatchResult{Matched: decimal.Zero, Mismatched: decimal.Zero}
	for day, amount := range series {
		if window[day] {
			res.Matched = res.Matched.Add(amount)
		} else {
			res.Mismatched = res.Mismatched.Add(amount)
		}
	}
	return res
}

// windowUnion 构造 [date-N, date+N] 闭区间的日期并集。
func windowUnion(dates []time.Time, tolerance int) map[time.Time]bool {
	out := make(map[time.Time]bool, len(dates)*(2*tolerance+1))
	for _, d := range dates {
		d = market.Day(d)
		for offset := -tolerance; offset <= tolerance; offset++ {
			out[d.AddDate(0, 0, offset)] = true
		}
	}
	return out
}

// Efficiency 是相对「低买高卖」理想形态的タイミング效率。
// 50% 为中立，越接近 100% 越理想。
type Efficiency struct {
	Score            float64 `json:"score"`              // 百分比
	DeltaFromNeutral float64 `json:"delta_from_neutral"` // 与 50% 中点的差
	OptimalRatio     float64 `json:"optimal_ratio"`
	ActualRatio      float64 `json:"actual_ratio"`
}

// ComputeEfficiency 由状态分桶金额求效率分。
// 买入或卖出合计为 0、或两种形态占比同时为 0 时指标不成立，返回 nil。
func ComputeEfficiency(sums aggregate.RegimeSums) *Efficiency {
	totalBuy := sums.TotalBuy()
	totalSell := sums.TotalSell()
	if !totalBuy.IsPositive() || !totalSell.IsPositive() {
		return nil
	}
	buyFalling, _ := sums.BuyOnFalling.Div(totalBuy).Float64()
	buyRising, _ := sums.BuyOnRising.Div(totalBuy).Float64()
	sellRising, _ := sums.SellOnRising.Div(totalSell).Float64()
	sellFalling, _ := sums.SellOnFalling.Div(totalSell).Float64()

	optimal := buyFalling * sellRising
	actual := buyRising * sellFalling
	if optimal+actual == 0 {
		return nil
	}
	score := (1 - actual/(optimal+actual)) * 100
	return &Efficiency{
		Score:            score,
		DeltaFromNeutral: score - 50,
		OptimalRatio:     optimal,
		ActualRatio:      actual,
	}
}
