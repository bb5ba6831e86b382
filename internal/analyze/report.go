package analyze

import (
	"time"

	"github.com/shopspring/decimal"

	"kabuscope/internal/aggregate"
	"kabuscope/internal/indicator"
	"kabuscope/internal/signal"
	"kabuscope/internal/timing"
	"kabuscope/internal/trade"
)

// DailyPoint 是导出用的日次金额点（按日期升序）。
type DailyPoint struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// DateRange 是有效交易日期的闭区间。
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Report 是一次分析的全部输出：纯结构化数据，不带任何展示格式。
// 输入不满足的段为 nil/缺省，并在 Warnings 里说明原因。
type Report struct {
	ID             string    `json:"id"`
	GeneratedAt    time.Time `json:"generated_at"`
	SourceEncoding string    `json:"source_encoding"`
	RecordCount    int       `json:"record_count"`

	Records   []trade.Record `json:"records,omitempty"`
	DateRange *DateRange     `json:"date_range,omitempty"`
	BuyDaily  []DailyPoint   `json:"buy_daily,omitempty"`
	SellDaily []DailyPoint   `json:"sell_daily,omitempty"`

	// 以下各段依赖基准数据，基准不可用时整体缺省。
	Days       []aggregate.DayRow                      `json:"days,omitempty"`
	Indicators []indicator.Row                         `json:"indicators,omitempty"`
	Signals    []signal.Event                          `json:"signals,omitempty"`
	Matches    map[signal.Family]timing.FamilyMetrics  `json:"matches,omitempty"`
	RegimeSums *aggregate.RegimeSums                   `json:"regime_sums,omitempty"`
	Assessment *timing.Assessment                      `json:"assessment,omitempty"`
	Efficiency *timing.Efficiency                      `json:"efficiency,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// HasBenchmark 报告是否包含基准对比段。
func (r *Report) HasBenchmark() bool { return len(r.Days) > 0 }

func toPoints(series aggregate.DailySeries) []DailyPoint {
	dates := series.Dates()
	out := make([]DailyPoint, 0, len(dates))
	for _, d := range dates {
		out = append(out, DailyPoint{Date: d, Amount: series[d]})
	}
	return out
}
