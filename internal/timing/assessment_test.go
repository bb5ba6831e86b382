package timing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kabuscope/internal/aggregate"
)

func TestAssessBuyHighSellLow(t *testing.T) {
	out := Assess(aggregate.RegimeSums{
		BuyOnRising:   decimal.NewFromInt(90),
		SellOnRising:  decimal.NewFromInt(10),
		BuyOnFalling:  decimal.NewFromInt(10),
		SellOnFalling: decimal.NewFromInt(90),
	})
	require.NotNil(t, out.RisingBuyRatio)
	assert.InDelta(t, 90.0, *out.RisingBuyRatio, 1e-9)
	assert.Equal(t, BiasBuyHeavy, out.RisingBias)
	assert.Equal(t, BiasSellHeavy, out.FallingBias)
	assert.Equal(t, PatternBuyHighSellLow, out.Pattern)
}

func TestAssessBuyLowSellHigh(t *testing.T) {
	out := Assess(aggregate.RegimeSums{
		BuyOnRising:   decimal.NewFromInt(10),
		SellOnRising:  decimal.NewFromInt(90),
		BuyOnFalling:  decimal.NewFromInt(90),
		SellOnFalling: decimal.NewFromInt(10),
	})
	assert.Equal(t, PatternBuyLowSellHigh, out.Pattern)
}

func TestAssessNeutralBand(t *testing.T) {
	out := Assess(aggregate.RegimeSums{
		BuyOnRising:   decimal.NewFromInt(50),
		SellOnRising:  decimal.NewFromInt(50),
		BuyOnFalling:  decimal.NewFromInt(50),
		SellOnFalling: decimal.NewFromInt(50),
	})
	assert.Equal(t, BiasBalanced, out.RisingBias)
	assert.Equal(t, PatternNeutral, out.Pattern)
}

func TestAssessMissingRegimeLeavesNil(t *testing.T) {
	out := Assess(aggregate.RegimeSums{
		BuyOnRising:  decimal.NewFromInt(70),
		SellOnRising: decimal.NewFromInt(30),
	})
	require.NotNil(t, out.RisingBuyRatio)
	assert.Nil(t, out.FallingBuyRatio)
	// 片側しかないときは形態を評定しない。
	assert.Equal(t, Pattern(""), out.Pattern)
}
