package timing

import (
	"github.com/shopspring/decimal"

	"kabuscope/internal/aggregate"
)

// Bias 是单一相场内买卖金额的偏向。
type Bias string

const (
	BiasBuyHeavy  Bias = "buy_heavy"  // 买入占比 > 60%
	BiasSellHeavy Bias = "sell_heavy" // 买入占比 < 40%
	BiasBalanced  Bias = "balanced"
)

// Pattern 是跨相场的综合行为形态，供展示层映射为文案。
type Pattern string

const (
	PatternBuyHighSellLow Pattern = "buy_high_sell_low" // 高値掴み + 底値売り
	PatternBuyLowSellHigh Pattern = "buy_low_sell_high" // 逆张り的理想形态
	PatternAlwaysBuy      Pattern = "always_buy"
	PatternAlwaysSell     Pattern = "always_sell"
	PatternNeutral        Pattern = "neutral"
)

// Assessment 是按相场的买入占比与形态分类。
// 某一相场没有任何成交时对应占比为 nil、形态不评定。
type Assessment struct {
	RisingBuyRatio  *float64 `json:"rising_buy_ratio,omitempty"`  // 上昇相場的买入占比（%）
	FallingBuyRatio *float64 `json:"falling_buy_ratio,omitempty"` // 下落相場的买入占比（%）
	RisingBias      Bias     `json:"rising_bias,omitempty"`
	FallingBias     Bias     `json:"falling_bias,omitempty"`
	Pattern         Pattern  `json:"pattern,omitempty"`
}

// Assess 对状态分桶金额做行为分类。阈值与原始实现一致：60% / 40%。
func Assess(sums aggregate.RegimeSums) Assessment {
	var out Assessment
	if r := buyRatio(sums.BuyOnRising, sums.SellOnRising); r != nil {
		out.RisingBuyRatio = r
		out.RisingBias = classifyBias(*r)
	}
	if r := buyRatio(sums.BuyOnFalling, sums.SellOnFalling); r != nil {
		out.FallingBuyRatio = r
		out.FallingBias = classifyBias(*r)
	}
	if out.RisingBuyRatio != nil && out.FallingBuyRatio != nil {
		out.Pattern = classifyPattern(*out.RisingBuyRatio, *out.FallingBuyRatio)
	}
	return out
}

// buyRatio 返回 buy/(buy+sell)*100；该相场无成交时为 nil。
func buyRatio(buy, sell decimal.Decimal) *float64 {
	total := buy.Add(sell)
	if !total.IsPositive() {
		return nil
	}
	r, _ := buy.Div(total).Mul(decimal.NewFromInt(100)).Float64()
	return &r
}

func classifyBias(ratio float64) Bias {
	switch {
	case ratio > 60:
		return BiasBuyHeavy
	case ratio < 40:
		return BiasSellHeavy
	default:
		return BiasBalanced
	}
}

func classifyPattern(rising, falling float64) Pattern {
	switch {
	case rising > 60 && falling < 40:
		return PatternBuyHighSellLow
	case rising < 40 && falling > 60:
		return PatternBuyLowSellHigh
	case rising > 60 && falling > 60:
		return PatternAlwaysBuy
	case rising < 40 && falling < 40:
		return PatternAlwaysSell
	default:
		return PatternNeutral
	}
}
