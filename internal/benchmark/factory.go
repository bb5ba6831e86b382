package benchmark

import (
	"fmt"
	"strings"
)

// Options 描述基准数据源的装配参数。
type Options struct {
	Provider  string // yahoo | binance
	BaseURL   string
	CachePath string // 为空则不启用缓存
}

// NewSource 按配置装配数据源，必要时套上 sqlite 缓存层。
func NewSource(opts Options) (Source, error) {
	var src Source
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "yahoo":
		src = NewYahooSource(opts.BaseURL)
	case "binance":
		src = NewBinanceSource(opts.BaseURL)
	default:
		return nil, fmt.Errorf("不支持的基准数据源: %s", opts.Provider)
	}
	if opts.CachePath == "" {
		return src, nil
	}
	return NewCachedSource(src, opts.CachePath)
}
