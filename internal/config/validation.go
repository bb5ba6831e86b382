package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Input.validate(); err != nil {
		return err
	}
	if err := c.Benchmark.validate(); err != nil {
		return err
	}
	return c.Analysis.validate()
}

func (i *InputConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(i.Encoding)) {
	case "utf-8", "utf8", "shift_jis", "cp932", "euc_jp", "latin1":
	default:
		return fmt.Errorf("input.encoding 不受支持: %s", i.Encoding)
	}
	switch i.Delimiter {
	case ",", "\t", ";":
	default:
		return fmt.Errorf("input.delimiter 必须是逗号、制表符或分号")
	}
	if i.SkipRows < 0 || i.SkipRows > 10 {
		return fmt.Errorf("input.skip_rows 必须在 [0,10] 内: %d", i.SkipRows)
	}
	return nil
}

func (b *BenchmarkConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(b.Provider)) {
	case "yahoo", "binance":
	default:
		return fmt.Errorf("benchmark.provider 必须是 yahoo 或 binance: %s", b.Provider)
	}
	if strings.TrimSpace(b.Symbol) == "" {
		return fmt.Errorf("benchmark.symbol 不能为空")
	}
	return nil
}

func (a *AnalysisConfig) validate() error {
	windows := map[string]int{
		"analysis.ma_short":    a.MAShort,
		"analysis.ma_medium":   a.MAMedium,
		"analysis.ma_long":     a.MALong,
		"analysis.rsi_window":  a.RSIWindow,
		"analysis.macd_fast":   a.MACDFast,
		"analysis.macd_slow":   a.MACDSlow,
		"analysis.macd_signal": a.MACDSignal,
	}
	for name, w := range windows {
		if w <= 0 {
			return fmt.Errorf("%s 必须为正: %d", name, w)
		}
	}
	if a.MAShort >= a.MAMedium {
		return fmt.Errorf("analysis.ma_short 必须小于 ma_medium")
	}
	if a.ToleranceDays < 0 {
		return fmt.Errorf("analysis.tolerance_days 不能为负: %d", a.ToleranceDays)
	}
	if a.RSIOversold >= a.RSIOverbought {
		return fmt.Errorf("analysis.rsi_oversold 必须小于 rsi_overbought")
	}
	return nil
}
