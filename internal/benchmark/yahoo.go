package benchmark

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"kabuscope/internal/market"
)

// DefaultYahooSymbol 是日经平均的 Yahoo Finance 代码。
const DefaultYahooSymbol = "^N225"

// YahooSource 基于 Yahoo Finance chart API 拉取指数日线。
type YahooSource struct {
	baseURL string
	client  *http.Client
}

func NewYahooSource(base string) *YahooSource {
	if base == "" {
		base = "https://query1.finance.yahoo.com"
	}
	return &YahooSource{
		baseURL: base,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *YahooSource) Name() string { return "yahoo" }

func (s *YahooSource) Fetch(ctx context.Context, req Request) ([]market.PriceBar, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol 不能为空")
	}
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = "/v8/finance/chart/" + req.Symbol
	q := u.Query()
	q.Set("interval", "1d")
	q.Set("period1", strconv.FormatInt(market.Day(req.Start).Unix(), 10))
	// period2 为开区间，多加一天保证包含 End 当日。
	q.Set("period2", strconv.FormatInt(market.Day(req.End).AddDate(0, 0, 1).Unix(), 10))
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", "kabuscope/1.0")
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("yahoo 返回状态码 %d", resp.StatusCode)
	}
	return parseYahooChart(body)
}

// parseYahooChart 用 gjson 走读 chart API 的嵌套结构。
// close 数组里的 null（停牌等）直接跳过，不造假数据。
func parseYahooChart(body []byte) ([]market.PriceBar, error) {
	if msg := gjson.GetBytes(body, "chart.error.description"); msg.Exists() && msg.String() != "" {
		return nil, fmt.Errorf("yahoo chart error: %s", msg.String())
	}
	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return nil, fmt.Errorf("yahoo chart 响应缺少 result")
	}
	timestamps := result.Get("timestamp").Array()
	closes := result.Get("indicators.quote.0.close").Array()
	if len(timestamps) != len(closes) {
		return nil, fmt.Errorf("yahoo chart 时间戳与收盘价长度不一致: %d vs %d", len(timestamps), len(closes))
	}
	bars := make([]market.PriceBar, 0, len(timestamps))
	for i, ts := range timestamps {
		if closes[i].Type == gjson.Null {
			continue
		}
		bars = append(bars, market.PriceBar{
			Date:  market.Day(time.Unix(ts.Int(), 0).UTC()),
			Close: closes[i].Float(),
		})
	}
	return market.SortBars(bars), nil
}
