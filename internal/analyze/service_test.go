package analyze

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kabuscope/internal/benchmark"
	"kabuscope/internal/config"
	"kabuscope/internal/config/loader"
	"kabuscope/internal/market"
	"kabuscope/internal/timing"
	"kabuscope/internal/trade"
)

const csvData = `2024/1/10,トヨタ自動車,7203,東証,株式現物買,現物,特定,一般,100,1000,0,0,2024/1/12,100000
2024/1/20,トヨタ自動車,7203,東証,株式現物売,現物,特定,一般,100,1500,0,0,2024/1/24,150000
`

type fakeSource struct {
	bars []market.PriceBar
	err  error
}

func (s *fakeSource) Fetch(ctx context.Context, req benchmark.Request) ([]market.PriceBar, error) {
	return s.bars, s.err
}

func (s *fakeSource) Name() string { return "fake" }

type fakeRecorder struct {
	reports []*Report
}

func (r *fakeRecorder) Record(ctx context.Context, report *Report) error {
	r.reports = append(r.reports, report)
	return nil
}

type fakePresets map[string]loader.Preset

func (p fakePresets) Get(name string) (loader.Preset, bool) {
	v, ok := p[name]
	return v, ok
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func testConfig() *config.Config {
	return &config.Config{
		Input:     config.InputConfig{Encoding: "utf-8", Delimiter: ","},
		Benchmark: config.BenchmarkConfig{Provider: "yahoo", Symbol: "^N225"},
		Analysis: config.AnalysisConfig{
			MAShort: 2, MAMedium: 3, MALong: 4,
			RSIWindow: 2, RSIOversold: 30, RSIOverbought: 70,
			MACDFast: 2, MACDSlow: 3, MACDSignal: 2,
			ToleranceDays: 7,
		},
	}
}

func benchmarkBars() []market.PriceBar {
	return []market.PriceBar{
		{Date: day(9), Close: 110},
		{Date: day(10), Close: 100}, // 下落局面で買い
		{Date: day(19), Close: 100},
		{Date: day(20), Close: 120}, // 上昇局面で売り
	}
}

func TestAnalyzeFullPipeline(t *testing.T) {
	rec := &fakeRecorder{}
	svc := New(testConfig(), &fakeSource{bars: benchmarkBars()}, rec)

	report, err := svc.Analyze(context.Background(), []byte(csvData), Params{})
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.ID)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, 2, report.RecordCount)
	assert.Equal(t, "utf-8", report.SourceEncoding)

	require.NotNil(t, report.DateRange)
	assert.Equal(t, day(10), report.DateRange.Start)
	assert.Equal(t, day(20), report.DateRange.End)

	require.NotNil(t, report.RegimeSums)
	assert.Equal(t, "100000", report.RegimeSums.BuyOnFalling.String())
	assert.Equal(t, "150000", report.RegimeSums.SellOnRising.String())
	assert.True(t, report.RegimeSums.BuyOnRising.IsZero())

	// 下げで買い・上げで売りの理想形：効率 100%、形態は逆張り。
	require.NotNil(t, report.Efficiency)
	assert.InDelta(t, 100.0, report.Efficiency.Score, 1e-9)
	require.NotNil(t, report.Assessment)
	assert.Equal(t, timing.PatternBuyLowSellHigh, report.Assessment.Pattern)

	assert.Len(t, report.Days, 4)
	assert.Len(t, report.Indicators, 4)
	assert.NotEmpty(t, report.Matches)
	assert.True(t, report.HasBenchmark())

	require.Len(t, rec.reports, 1)
	assert.Same(t, report, rec.reports[0])
}

func TestAnalyzeBenchmarkUnavailableDegrades(t *testing.T) {
	rec := &fakeRecorder{}
	svc := New(testConfig(), &fakeSource{err: errors.New("boom")}, rec)

	report, err := svc.Analyze(context.Background(), []byte(csvData), Params{})
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Nil(t, report.Days)
	assert.Nil(t, report.Efficiency)
	assert.Nil(t, report.Indicators)
	assert.False(t, report.HasBenchmark())
	// 集計だけは通常どおり返る。
	assert.NotEmpty(t, report.BuyDaily)
	assert.Len(t, rec.reports, 1)
}

func TestAnalyzeNilSourceSkipsBenchmark(t *testing.T) {
	svc := New(testConfig(), nil, nil)
	report, err := svc.Analyze(context.Background(), []byte(csvData), Params{})
	require.NoError(t, err)
	assert.Len(t, report.Warnings, 1)
	assert.False(t, report.HasBenchmark())
}

func TestAnalyzeSchemaMismatch(t *testing.T) {
	svc := New(testConfig(), nil, nil)
	_, err := svc.Analyze(context.Background(), []byte("a,b,c\nd,e,f\n"), Params{})
	assert.ErrorIs(t, err, trade.ErrSchemaMismatch)
}

func TestAnalyzeNoValidDates(t *testing.T) {
	row := "不明,トヨタ自動車,7203,東証,株式現物買,現物,特定,一般,100,1000,0,0,,100000\n"
	svc := New(testConfig(), &fakeSource{bars: benchmarkBars()}, nil)
	report, err := svc.Analyze(context.Background(), []byte(row), Params{})
	require.NoError(t, err)
	assert.Nil(t, report.DateRange)
	assert.Len(t, report.Warnings, 1)
}

func TestAnalyzeParamOverrides(t *testing.T) {
	cfg := testConfig()
	cfg.Input.SkipRows = 0
	svc := New(cfg, &fakeSource{bars: benchmarkBars()}, nil)

	skip := 2
	prefixed := "ヘッダ行\nもう一行\n" + csvData
	report, err := svc.Analyze(context.Background(), []byte(prefixed), Params{SkipRows: &skip})
	require.NoError(t, err)
	assert.Equal(t, 2, report.RecordCount)
}

func TestAnalyzePresetApplied(t *testing.T) {
	svc := New(testConfig(), &fakeSource{bars: benchmarkBars()}, nil)
	svc.UsePresets(fakePresets{
		"swing": {MAShort: 2, MAMedium: 3, ToleranceDays: 3},
	})

	report, err := svc.Analyze(context.Background(), []byte(csvData), Params{Preset: "swing"})
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)
}

func TestAnalyzeUnknownPresetWarns(t *testing.T) {
	svc := New(testConfig(), &fakeSource{bars: benchmarkBars()}, nil)
	svc.UsePresets(fakePresets{})

	report, err := svc.Analyze(context.Background(), []byte(csvData), Params{Preset: "nope"})
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "nope")
}
