package indicator

import (
	"fmt"

	"kabuscope/internal/market"
)

// Config 是指标引擎的窗口参数。
type Config struct {
	MAShort    int `json:"ma_short"`
	MAMedium   int `json:"ma_medium"`
	MALong     int `json:"ma_long"`
	RSIWindow  int `json:"rsi_window"`
	MACDFast   int `json:"macd_fast"`
	MACDSlow   int `json:"macd_slow"`
	MACDSignal int `json:"macd_signal"`
}

// DefaultConfig 返回 5/20/50、RSI14、MACD 12/26/9 的默认参数。
func DefaultConfig() Config {
	return Config{
		MAShort:    5,
		MAMedium:   20,
		MALong:     50,
		RSIWindow:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
	}
}

// Validate 检查窗口参数为正。
func (c Config) Validate() error {
	windows := map[string]int{
		"ma_short":    c.MAShort,
		"ma_medium":   c.MAMedium,
		"ma_long":     c.MALong,
		"rsi_window":  c.RSIWindow,
		"macd_fast":   c.MACDFast,
		"macd_slow":   c.MACDSlow,
		"macd_signal": c.MACDSignal,
	}
	for name, w := range windows {
		if w <= 0 {
			return fmt.Errorf("指标窗口 %s 必须为正: %d", name, w)
		}
	}
	return nil
}

// Row 是一根基准 bar 加上当日指标值。
// 历史不足时指标为 nil，绝不折算成 0。
type Row struct {
	market.PriceBar
	MAShort       *float64 `json:"ma_short"`
	MAMedium      *float64 `json:"ma_medium"`
	MALong        *float64 `json:"ma_long"`
	RSI           *float64 `json:"rsi"`
	MACD          *float64 `json:"macd"`
	MACDSignal    *float64 `json:"macd_signal"`
	MACDHistogram *float64 `json:"macd_histogram"`
}

// Compute 对升序 bar 序列计算全部指标，输出与输入一一对应。
func Compute(bars []market.PriceBar, cfg Config) []Row {
	closes := market.Closes(bars)
	maShort := sma(closes, cfg.MAShort)
	maMedium := sma(closes, cfg.MAMedium)
	maLong := sma(closes, cfg.MALong)
	rsiVals := rsi(closes, cfg.RSIWindow)
	macdLine, signalLine, histogram := macd(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)

	rows := make([]Row, len(bars))
	for i, b := range bars {
		rows[i] = Row{
			PriceBar:      b,
			MAShort:       maShort[i],
			MAMedium:      maMedium[i],
			MALong:        maLong[i],
			RSI:           rsiVals[i],
			MACD:          macdLine[i],
			MACDSignal:    signalLine[i],
			MACDHistogram: histogram[i],
		}
	}
	return rows
}

// sma 计算简单移动平均，前 window-1 根历史不足为 nil。
func sma(closes []float64, window int) []*float64 {
	out := make([]*float64, len(closes))
	if window <= 0 || len(closes) < window {
		return out
	}
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			v := sum / float64(window)
			out[i] = &v
		}
	}
	return out
}

// rsi 计算简单均值版 RSI。前 window 根为 nil。
// 平均损失为 0 时 RSI 饱和为 100，避免除零。
func rsi(closes []float64, window int) []*float64 {
	out := make([]*float64, len(closes))
	if window <= 0 || len(closes) <= window {
		return out
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}
	gainSum, lossSum := 0.0, 0.0
	for i := 1; i < len(closes); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > window {
			gainSum -= gains[i-window]
			lossSum -= losses[i-window]
		}
		if i < window {
			continue
		}
		avgGain := gainSum / float64(window)
		avgLoss := lossSum / float64(window)
		var v float64
		if avgLoss == 0 {
			v = 100
		} else {
			rs := avgGain / avgLoss
			v = 100 - 100/(1+rs)
		}
		out[i] = &v
	}
	return out
}

// ema 计算指数移动平均，平滑系数 2/(span+1)，以首个值作种子。
// 与 SMA 系指标不同，从第一根 bar 起即有定义。
func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// macd 返回 MACD 线、信号线与柱状图三个序列。
func macd(closes []float64, fast, slow, signal int) (line, sig, hist []*float64) {
	line = make([]*float64, len(closes))
	sig = make([]*float64, len(closes))
	hist = make([]*float64, len(closes))
	if len(closes) == 0 {
		return line, sig, hist
	}
	fastEMA := ema(closes, fast)
	slowEMA := ema(closes, slow)
	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := ema(macdLine, signal)
	for i := range closes {
		l, s := macdLine[i], signalLine[i]
		h := l - s
		line[i], sig[i], hist[i] = &l, &s, &h
	}
	return line, sig, hist
}
