package visual

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	talib "github.com/markcheno/go-talib"

	"kabuscope/internal/analyze"
	"kabuscope/internal/indicator"
	"kabuscope/internal/signal"
)

const (
	colorBenchmark = "#3b82f6"
	colorMAShort   = "#fbbf24"
	colorMAMedium  = "#f472b6"
	colorMALong    = "#a78bfa"
	colorBuy       = "#34d399"
	colorSell      = "#f87171"
	colorBand      = "#9ca3af"

	chartWidthPx  = 1400
	priceHeightPx = 520
	flowHeightPx  = 320

	bbandsPeriod = 20
	bbandsDev    = 2.0
)

// RenderReportHTML 把分析报告渲染为单页 HTML 图表：
// 上图为基准收盘 + 均线 + 布林带 + 信号标记，下图为日次买卖金额。
func RenderReportHTML(report *analyze.Report) ([]byte, error) {
	if report == nil || !report.HasBenchmark() {
		return nil, fmt.Errorf("报告缺少基准数据段，无法画图")
	}
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(buildPriceChart(report), buildFlowChart(report))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildPriceChart(report *analyze.Report) *charts.Line {
	rows := report.Indicators
	xAxis := make([]string, len(rows))
	closes := make([]float64, len(rows))
	for i, r := range rows {
		xAxis[i] = r.Date.Format("2006-01-02")
		closes[i] = r.Close
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", priceHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{Title: "基準指数とシグナル", Left: "left", Top: "10"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "40"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("Close", floatSeries(closes),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorBenchmark}))
	line.AddSeries("MA Short", nullableSeries(rows, func(r indicator.Row) *float64 { return r.MAShort }),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorMAShort}))
	line.AddSeries("MA Medium", nullableSeries(rows, func(r indicator.Row) *float64 { return r.MAMedium }),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorMAMedium}))
	line.AddSeries("MA Long", nullableSeries(rows, func(r indicator.Row) *float64 { return r.MALong }),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorMALong}))

	// 布林带只用于展示背景，核心指标不依赖 talib。
	if len(closes) >= bbandsPeriod {
		upper, _, lower := talib.BBands(closes, bbandsPeriod, bbandsDev, bbandsDev, talib.SMA)
		line.AddSeries("BB Upper", floatSeries(upper),
			charts.WithLineStyleOpts(opts.LineStyle{Color: colorBand, Opacity: opts.Float(0.4)}))
		line.AddSeries("BB Lower", floatSeries(lower),
			charts.WithLineStyleOpts(opts.LineStyle{Color: colorBand, Opacity: opts.Float(0.4)}))
	}

	line.Overlap(buildSignalScatter(report, xAxis, closes))
	return line
}

func nullableSeries(rows []indicator.Row, pick func(indicator.Row) *float64) []opts.LineData {
	out := make([]opts.LineData, len(rows))
	for i, r := range rows {
		if v := pick(r); v != nil {
			out[i] = opts.LineData{Value: *v}
			continue
		}
		out[i] = opts.LineData{Value: nil}
	}
	return out
}

func floatSeries(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

// buildSignalScatter 把强信号日标在收盘价位置上。
func buildSignalScatter(report *analyze.Report, xAxis []string, closes []float64) *charts.Scatter {
	closeByDate := make(map[string]float64, len(xAxis))
	for i, x := range xAxis {
		closeByDate[x] = closes[i]
	}
	var buys, sells []opts.ScatterData
	for _, ev := range report.Signals {
		key := ev.Date.Format("2006-01-02")
		c, ok := closeByDate[key]
		if !ok {
			continue
		}
		switch ev.Kind {
		case signal.KindStrongBuy:
			buys = append(buys, opts.ScatterData{Value: []any{key, c}, Symbol: "triangle", SymbolSize: 14})
		case signal.KindStrongSell:
			sells = append(sells, opts.ScatterData{Value: []any{key, c}, Symbol: "pin", SymbolSize: 14})
		}
	}
	scatter := charts.NewScatter()
	scatter.SetXAxis(xAxis)
	scatter.AddSeries("Strong Buy", buys, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBuy}))
	scatter.AddSeries("Strong Sell", sells, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorSell}))
	return scatter
}

// buildFlowChart 画日次买入/卖出金额柱状图。
func buildFlowChart(report *analyze.Report) *charts.Bar {
	dates := make([]string, 0, len(report.Days))
	buys := make([]opts.BarData, 0, len(report.Days))
	sells := make([]opts.BarData, 0, len(report.Days))
	for _, day := range report.Days {
		dates = append(dates, day.Date.Format("2006-01-02"))
		buyAmt, _ := day.Buy.Float64()
		sellAmt, _ := day.Sell.Float64()
		buys = append(buys, opts.BarData{Value: buyAmt})
		sells = append(sells, opts.BarData{Value: sellAmt})
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", flowHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{Title: "売買代金（日次）", Left: "left", Top: "10"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "40"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	bar.SetXAxis(dates)
	bar.AddSeries("買い金額", buys, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBuy, Opacity: opts.Float(0.7)}))
	bar.AddSeries("売り金額", sells, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorSell, Opacity: opts.Float(0.7)}))
	return bar
}
