package benchmark

import (
	"context"
	"errors"
	"time"

	"kabuscope/internal/market"
)

// ErrUnavailable 表示基准数据源不可用，趋势相关分析段整体跳过。
var ErrUnavailable = errors.New("benchmark data source unavailable")

// Request 描述一次日次基准行情请求，区间闭合 [Start, End]。
type Request struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

// Source 统一不同基准数据源的拉取行为。
// 返回升序日次 bar；非交易日天然缺失，不做补齐。
type Source interface {
	Fetch(ctx context.Context, req Request) ([]market.PriceBar, error)
	Name() string
}
