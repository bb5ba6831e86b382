package timing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kabuscope/internal/aggregate"
	"kabuscope/internal/signal"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func flagsOn(days []int, set func(*signal.Flags)) []signal.Flags {
	out := make([]signal.Flags, len(days))
	for i, d := range days {
		out[i].Date = day(d)
		if set != nil {
			set(&out[i])
		}
	}
	return out
}

func TestMatchClassifiesByWindow(t *testing.T) {
	flags := flagsOn([]int{10}, func(f *signal.Flags) { f.MABuy = true })
	buy := make(aggregate.DailySeries)
	buy.Add(day(12), decimal.NewFromInt(100)) // 窓内（±3）
	buy.Add(day(20), decimal.NewFromInt(40))  // 窓外

	metrics := Match(flags, buy, make(aggregate.DailySeries), 3)
	ma := metrics[signal.FamilyMA]
	assert.True(t, ma.Buy.Matched.Equal(decimal.NewFromInt(100)))
	assert.True(t, ma.Buy.Mismatched.Equal(decimal.NewFromInt(40)))
	assert.InDelta(t, 100.0/140*100, ma.BuyRate, 1e-9)

	// 信号のないファミリーは全額ミスマッチ。
	macd := metrics[signal.FamilyMACD]
	assert.True(t, macd.Buy.Matched.IsZero())
	assert.True(t, macd.Buy.Mismatched.Equal(decimal.NewFromInt(140)))
}

func TestMatchOverlappingWindowsCountOnce(t *testing.T) {
	// 2 日違いの信号 2 本、±2 日窓は 1/12 を両方含む。
	flags := flagsOn([]int{10, 12}, func(f *signal.Flags) { f.RSIBuy = true })
	buy := make(aggregate.DailySeries)
	buy.Add(day(12), decimal.NewFromInt(100))

	metrics := Match(flags, buy, make(aggregate.DailySeries), 2)
	rsi := metrics[signal.FamilyRSI]
	assert.True(t, rsi.Buy.Matched.Equal(decimal.NewFromInt(100)))
	assert.True(t, rsi.Buy.Mismatched.IsZero())
}

func TestRateZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, MatchResult{}.Rate())
}

func TestMatchNegativeToleranceFallsBack(t *testing.T) {
	flags := flagsOn([]int{10}, func(f *signal.Flags) { f.MABuy = true })
	buy := make(aggregate.DailySeries)
	buy.Add(day(16), decimal.NewFromInt(10)) // 既定 ±7 日なら窓内

	metrics := Match(flags, buy, make(aggregate.DailySeries), -1)
	assert.True(t, metrics[signal.FamilyMA].Buy.Matched.Equal(decimal.NewFromInt(10)))
}

func TestComputeEfficiencyIdealPattern(t *testing.T) {
	sums := aggregate.RegimeSums{
		BuyOnFalling: decimal.NewFromInt(100000),
		SellOnRising: decimal.NewFromInt(150000),
	}
	eff := ComputeEfficiency(sums)
	require.NotNil(t, eff)
	assert.InDelta(t, 100.0, eff.Score, 1e-9)
	assert.InDelta(t, 50.0, eff.DeltaFromNeutral, 1e-9)
	assert.InDelta(t, 1.0, eff.OptimalRatio, 1e-9)
	assert.InDelta(t, 0.0, eff.ActualRatio, 1e-9)
}

func TestComputeEfficiencyMixed(t *testing.T) {
	sums := aggregate.RegimeSums{
		BuyOnRising:   decimal.NewFromInt(50),
		BuyOnFalling:  decimal.NewFromInt(50),
		SellOnRising:  decimal.NewFromInt(50),
		SellOnFalling: decimal.NewFromInt(50),
	}
	eff := ComputeEfficiency(sums)
	require.NotNil(t, eff)
	assert.InDelta(t, 50.0, eff.Score, 1e-9)
	assert.InDelta(t, 0.0, eff.DeltaFromNeutral, 1e-9)
}

func TestComputeEfficiencyUndefined(t *testing.T) {
	// 買いか売りの合計が 0 なら成立しない。
	assert.Nil(t, ComputeEfficiency(aggregate.RegimeSums{
		BuyOnRising: decimal.NewFromInt(100),
	}))
	// 両形態の積がともに 0（買いは上げ局面のみ・売りは下げ局面のみ）でも成立しない。
	assert.Nil(t, ComputeEfficiency(aggregate.RegimeSums{
		BuyOnRising:   decimal.NewFromInt(100),
		SellOnFalling: decimal.Zero,
	}))
}

func TestComputeEfficiencyBothRatiosZero(t *testing.T) {
	// optimal も actual も 0：買いは上げのみ×売りは上げのみ。
	eff := ComputeEfficiency(aggregate.RegimeSums{
		BuyOnRising:  decimal.NewFromInt(100),
		SellOnRising: decimal.NewFromInt(100),
	})
	// actual = buyRising*sellFalling = 0, optimal = buyFalling*sellRising = 0
	assert.Nil(t, eff)
}
