package config

import "github.com/spf13/viper"

// 默认值常量
const (
	defaultAppEnv         = "dev"
	defaultAppLogLevel    = "info"
	defaultAppHTTPAddr    = ":9992"
	defaultInputEncoding  = "shift_jis"
	defaultInputDelimiter = ","
	defaultInputSkipRows  = 8
	defaultBuyLabel       = "株式現物買"
	defaultSellLabel      = "株式現物売"
	defaultBenchProvider  = "yahoo"
	defaultBenchSymbol    = "^N225"
	defaultRunLogPath     = "data/runs.db"
)

// setDefaults 在反序列化前注入默认值，显式写 0 的键不会被覆盖。
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", defaultAppEnv)
	v.SetDefault("app.log_level", defaultAppLogLevel)
	v.SetDefault("app.http_addr", defaultAppHTTPAddr)

	v.SetDefault("input.encoding", defaultInputEncoding)
	v.SetDefault("input.delimiter", defaultInputDelimiter)
	v.SetDefault("input.skip_rows", defaultInputSkipRows)
	v.SetDefault("input.probe", true)
	v.SetDefault("input.buy_labels", []string{defaultBuyLabel})
	v.SetDefault("input.sell_labels", []string{defaultSellLabel})

	v.SetDefault("benchmark.provider", defaultBenchProvider)
	v.SetDefault("benchmark.symbol", defaultBenchSymbol)

	v.SetDefault("analysis.ma_short", 5)
	v.SetDefault("analysis.ma_medium", 20)
	v.SetDefault("analysis.ma_long", 50)
	v.SetDefault("analysis.rsi_window", 14)
	v.SetDefault("analysis.rsi_oversold", 30)
	v.SetDefault("analysis.rsi_overbought", 70)
	v.SetDefault("analysis.macd_fast", 12)
	v.SetDefault("analysis.macd_slow", 26)
	v.SetDefault("analysis.macd_signal", 9)
	v.SetDefault("analysis.tolerance_days", 7)

	v.SetDefault("run_log.enabled", false)
	v.SetDefault("run_log.path", defaultRunLogPath)
	v.SetDefault("visual.snapshot_enabled", false)
}
