package analyze

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kabuscope/internal/aggregate"
	"kabuscope/internal/benchmark"
	"kabuscope/internal/config"
	"kabuscope/internal/config/loader"
	"kabuscope/internal/indicator"
	"kabuscope/internal/logger"
	"kabuscope/internal/market"
	"kabuscope/internal/repair"
	"kabuscope/internal/signal"
	"kabuscope/internal/timing"
	"kabuscope/internal/trade"
)

// RunRecorder 在分析完成后记录审计日志。nil 表示不记录。
type RunRecorder interface {
	Record(ctx context.Context, report *Report) error
}

// PresetProvider 按名字提供分析参数预设（热加载由实现方负责）。
type PresetProvider interface {
	Get(name string) (loader.Preset, bool)
}

// Params 是单次运行的可覆盖参数，零值字段回落到配置默认。
type Params struct {
	Encoding        string            `json:"encoding,omitempty"`
	Delimiter       string            `json:"delimiter,omitempty"`
	SkipRows        *int              `json:"skip_rows,omitempty"`
	BenchmarkSymbol string            `json:"benchmark_symbol,omitempty"`
	Preset          string            `json:"preset,omitempty"`
	Indicator       *indicator.Config `json:"indicator,omitempty"`
	ToleranceDays   *int              `json:"tolerance_days,omitempty"`
}

// Service 把修复、归一化、聚合、指标、信号、匹配串成一条单向流水线。
// 每次 Analyze 在独立的数据副本上运行，无跨请求共享状态。
type Service struct {
	cfg        *config.Config
	source     benchmark.Source
	normalizer *trade.Normalizer
	recorder   RunRecorder
	presets    PresetProvider
}

// New 构造分析服务。source 可以为 nil（基准段全部跳过）。
func New(cfg *config.Config, source benchmark.Source, recorder RunRecorder) *Service {
	return &Service{
		cfg:        cfg,
		source:     source,
		normalizer: trade.NewNormalizer(cfg.Input.BuyLabels, cfg.Input.SellLabels),
		recorder:   recorder,
	}
}

// UsePresets 挂载预设提供方。nil 表示不支持按名预设。
func (s *Service) UsePresets(p PresetProvider) {
	s.presets = p
}

// Analyze 处理一份上传的交易履历。
// 单元格级异常降级为 nil 字段；结构性异常只放弃依赖它的段，
// 整个文件无法成表时才返回错误。
func (s *Service) Analyze(ctx context.Context, raw []byte, params Params) (*Report, error) {
	table, err := repair.DecodeTable(raw, s.repairOptions(params))
	if err != nil {
		if errors.Is(err, repair.ErrEncodingFailure) {
			return nil, fmt.Errorf("文件解码失败: %w", err)
		}
		return nil, err
	}
	records, err := s.normalizer.Normalize(table.Rows)
	if err != nil {
		return nil, fmt.Errorf("表格结构不符合 14 列模型: %w", err)
	}

	report := &Report{
		ID:             uuid.NewString(),
		GeneratedAt:    time.Now().UTC(),
		SourceEncoding: table.Encoding,
		RecordCount:    len(records),
		Records:        records,
	}

	buyDaily, sellDaily := aggregate.BuildDailySeries(records)
	report.BuyDaily = toPoints(buyDaily)
	report.SellDaily = toPoints(sellDaily)

	minDate, maxDate, err := aggregate.DateRange(records)
	if err != nil {
		// 日期区间不明：基准对比整段跳过，聚合结果照常返回。
		report.Warnings = append(report.Warnings, "取引データの日付範囲が不明なため、基準指数との比較をスキップしました")
		s.record(ctx, report)
		return report, nil
	}
	report.DateRange = &DateRange{Start: minDate, End: maxDate}

	bars, err := s.fetchBenchmark(ctx, params, minDate, maxDate)
	if err != nil {
		logger.Warnf("analyze: 基準データ取得失敗: %v", err)
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("基準指数データを取得できませんでした（%v）。トレンド関連の分析を省略します", err))
		s.record(ctx, report)
		return report, nil
	}

	days := aggregate.Join(buyDaily, sellDaily, bars)
	report.Days = days
	sums := aggregate.SumRegimes(days)
	report.RegimeSums = &sums
	assessment := timing.Assess(sums)
	report.Assessment = &assessment
	report.Efficiency = timing.ComputeEfficiency(sums)

	preset := s.resolvePreset(report, params)
	indicatorCfg := s.indicatorConfig(params, preset)
	if err := indicatorCfg.Validate(); err != nil {
		return nil, err
	}
	rows := indicator.Compute(bars, indicatorCfg)
	report.Indicators = rows

	flags := signal.Generate(rows, s.thresholds(preset))
	report.Signals = signal.Events(flags)
	report.Matches = timing.Match(flags, buyDaily, sellDaily, s.tolerance(params, preset))

	s.record(ctx, report)
	return report, nil
}

// fetchBenchmark 取 [minDate, maxDate] 的基准日线，失败统一归为 ErrUnavailable。
func (s *Service) fetchBenchmark(ctx context.Context, params Params, minDate, maxDate time.Time) ([]market.PriceBar, error) {
	if s.source == nil {
		return nil, benchmark.ErrUnavailable
	}
	symbol := params.BenchmarkSymbol
	if symbol == "" {
		symbol = s.cfg.Benchmark.Symbol
	}
	bars, err := s.source.Fetch(ctx, benchmark.Request{Symbol: symbol, Start: minDate, End: maxDate})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", benchmark.ErrUnavailable, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: 区間内にデータがありません", benchmark.ErrUnavailable)
	}
	return bars, nil
}

func (s *Service) record(ctx context.Context, report *Report) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, report); err != nil {
		logger.Warnf("analyze: 运行日志写入失败: %v", err)
	}
}

func (s *Service) repairOptions(params Params) repair.Options {
	enc := params.Encoding
	if enc == "" {
		enc = s.cfg.Input.Encoding
	}
	delim := params.Delimiter
	if delim == "" {
		delim = s.cfg.Input.Delimiter
	}
	if delim == "" {
		delim = ","
	}
	skip := s.cfg.Input.SkipRows
	if params.SkipRows != nil {
		skip = *params.SkipRows
	}
	return repair.Options{
		Encoding:  enc,
		Delimiter: []rune(delim)[0],
		SkipRows:  skip,
		Probe:     s.cfg.Input.Probe,
	}
}

// resolvePreset 按名字查预设；名字查不到时降级为默认参数并记录警告。
func (s *Service) resolvePreset(report *Report, params Params) *loader.Preset {
	if params.Preset == "" {
		return nil
	}
	if s.presets == nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("プリセット '%s' は利用できません（未設定）。既定パラメータで続行します", params.Preset))
		return nil
	}
	p, ok := s.presets.Get(params.Preset)
	if !ok {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("プリセット '%s' が見つかりません。既定パラメータで続行します", params.Preset))
		return nil
	}
	return &p
}

func (s *Service) indicatorConfig(params Params, preset *loader.Preset) indicator.Config {
	if params.Indicator != nil {
		return *params.Indicator
	}
	a := s.cfg.Analysis
	cfg := indicator.Config{
		MAShort:    a.MAShort,
		MAMedium:   a.MAMedium,
		MALong:     a.MALong,
		RSIWindow:  a.RSIWindow,
		MACDFast:   a.MACDFast,
		MACDSlow:   a.MACDSlow,
		MACDSignal: a.MACDSignal,
	}
	if preset != nil {
		overlay(&cfg.MAShort, preset.MAShort)
		overlay(&cfg.MAMedium, preset.MAMedium)
		overlay(&cfg.MALong, preset.MALong)
		overlay(&cfg.RSIWindow, preset.RSIWindow)
		overlay(&cfg.MACDFast, preset.MACDFast)
		overlay(&cfg.MACDSlow, preset.MACDSlow)
		overlay(&cfg.MACDSignal, preset.MACDSignal)
	}
	return cfg
}

// overlay 用非零预设值覆盖默认值。
func overlay(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func (s *Service) thresholds(preset *loader.Preset) signal.Thresholds {
	th := signal.DefaultThresholds()
	oversold, overbought := s.cfg.Analysis.RSIOversold, s.cfg.Analysis.RSIOverbought
	if preset != nil {
		if preset.RSIOversold > 0 {
			oversold = preset.RSIOversold
		}
		if preset.RSIOverbought > 0 {
			overbought = preset.RSIOverbought
		}
	}
	if oversold > 0 {
		th.RSIOversold = oversold
	}
	if overbought > 0 {
		th.RSIOverbought = overbought
	}
	return th
}

func (s *Service) tolerance(params Params, preset *loader.Preset) int {
	if params.ToleranceDays != nil {
		return *params.ToleranceDays
	}
	if preset != nil && preset.ToleranceDays > 0 {
		return preset.ToleranceDays
	}
	return s.cfg.Analysis.ToleranceDays
}
