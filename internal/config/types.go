package config

// Config 是 kabuscope 的主配置载体。
type Config struct {
	App       AppConfig       `toml:"app"`
	Input     InputConfig     `toml:"input"`
	Benchmark BenchmarkConfig `toml:"benchmark"`
	Analysis  AnalysisConfig  `toml:"analysis"`
	Presets   PresetsConfig   `toml:"presets"`
	RunLog    RunLogConfig    `toml:"run_log"`
	Visual    VisualConfig    `toml:"visual"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// InputConfig 描述交易履历 CSV 的读取方式。
type InputConfig struct {
	Encoding   string   `toml:"encoding"`    // utf-8 | shift_jis | cp932 | euc_jp | latin1
	Delimiter  string   `toml:"delimiter"`   // "," "\t" ";"
	SkipRows   int      `toml:"skip_rows"`   // 0–10
	Probe      bool     `toml:"probe"`       // 解码失败时是否自动探测编码
	BuyLabels  []string `toml:"buy_labels"`  // 交易种别里算作买入的文本
	SellLabels []string `toml:"sell_labels"` // 算作卖出的文本
}

// BenchmarkConfig 描述基准指数数据源。
type BenchmarkConfig struct {
	Provider  string `toml:"provider"` // yahoo | binance
	Symbol    string `toml:"symbol"`
	BaseURL   string `toml:"base_url"`
	CachePath string `toml:"cache_path"` // 为空则不缓存
}

// AnalysisConfig 是指标窗口与匹配容差。
type AnalysisConfig struct {
	MAShort       int     `toml:"ma_short"`
	MAMedium      int     `toml:"ma_medium"`
	MALong        int     `toml:"ma_long"`
	RSIWindow     int     `toml:"rsi_window"`
	RSIOversold   float64 `toml:"rsi_oversold"`
	RSIOverbought float64 `toml:"rsi_overbought"`
	MACDFast      int     `toml:"macd_fast"`
	MACDSlow      int     `toml:"macd_slow"`
	MACDSignal    int     `toml:"macd_signal"`
	ToleranceDays int     `toml:"tolerance_days"`
}

// PresetsConfig 指向分析参数预设文件（热加载）。
type PresetsConfig struct {
	Path string `toml:"path"`
}

// RunLogConfig 控制分析结果的审计日志（默认关闭）。
type RunLogConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// VisualConfig 控制图表快照。
type VisualConfig struct {
	SnapshotEnabled bool `toml:"snapshot_enabled"`
}
