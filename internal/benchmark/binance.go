package benchmark

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"golang.org/x/sync/errgroup"

	"kabuscope/internal/market"
)

// 单次 klines 请求的最大根数（Binance 限制 1000）。
const binanceChunkDays = 1000

// BinanceSource 基于 go-binance SDK 拉取加密资产日线，
// 供基准不是股指而是币种（如 BTCUSDT）的场景。
type BinanceSource struct {
	client *binance.Client
}

func NewBinanceSource(baseURL string) *BinanceSource {
	client := binance.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	return &BinanceSource{client: client}
}

func (s *BinanceSource) Name() string { return "binance" }

func (s *BinanceSource) Fetch(ctx context.Context, req Request) ([]market.PriceBar, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol 不能为空")
	}
	start := market.Day(req.Start)
	end := market.Day(req.End)
	if end.Before(start) {
		start, end = end, start
	}

	// 区间按 1000 天分片并发拉取，errgroup 聚合首个失败。
	type chunk struct{ start, end time.Time }
	var chunks []chunk
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, binanceChunkDays) {
		chunkEnd := cur.AddDate(0, 0, binanceChunkDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		chunks = append(chunks, chunk{start: cur, end: chunkEnd})
	}

	var mu sync.Mutex
	var bars []market.PriceBar
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, c := range chunks {
		c := c
		g.Go(func() error {
			part, err := s.fetchChunk(gctx, req.Symbol, c.start, c.end)
			if err != nil {
				return err
			}
			mu.Lock()
			bars = append(bars, part...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return market.SortBars(bars), nil
}

func (s *BinanceSource) fetchChunk(ctx context.Context, symbol string, start, end time.Time) ([]market.PriceBar, error) {
	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval("1d").
		StartTime(start.UnixMilli()).
		EndTime(end.AddDate(0, 0, 1).UnixMilli() - 1).
		Limit(binanceChunkDays).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines 拉取失败: %w", err)
	}
	out := make([]market.PriceBar, 0, len(klines))
	for _, k := range klines {
		closePrice, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			continue
		}
		out = append(out, market.PriceBar{
			Date:  market.Day(time.UnixMilli(k.OpenTime).UTC()),
			Close: closePrice,
		})
	}
	return out, nil
}
